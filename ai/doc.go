// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides the embedding abstraction used to score sections.
//
// The rest of the module depends only on the Embedder interface defined
// here, so the embedding service can be swapped without touching ranking.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible endpoints through langchaingo
//   - ai/ollama: the native Ollama API
//   - ai/mock: deterministic test doubles
//
// # Decorators
//
// GuardedEmbedder bounds concurrency, rate, per-call time and retries, and
// trips a circuit breaker when the service keeps failing. Only errors for
// which IsTransient holds are retried or counted by the breaker. CachingEmbedder
// serves repeated texts from a VectorCache such as storage/badger.
//
// # Constructor Return Type Pattern
//
// Public constructors in the provider packages (openai.NewEmbedder,
// ollama.NewEmbedder) return the ai.Embedder interface. Test utility
// constructors (mock.NewMockEmbedder) return concrete types so tests can
// inject behavior and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithModel("all-minilm"))
//	base, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	embedder, err := ai.NewGuardedEmbedder(base, config)
//	vector, err := embedder.EmbedText(ctx, "Hello world")
package ai
