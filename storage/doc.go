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


// Package storage provides the persistence abstractions for docsift.
//
// Two repositories are defined: a VectorRepository that caches embeddings
// between runs, and a RunRepository that keeps a short history of runs.
// Neither is required to produce results; the pipeline works without them.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return the repository
// interfaces defined here:
//
//	vectors, err := badger.NewVectorRepository(backend)  // storage.VectorRepository
//
// Internal helpers may return concrete types since they're only used
// within the implementation package.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/cache", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	vectors, err := badger.NewVectorRepository(backend)
//
// Use in tests with in-memory storage:
//
//	vectors, runs, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
