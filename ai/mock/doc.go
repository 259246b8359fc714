// Package mock provides test doubles for the ai package interfaces.
//
// The mocks let pipeline tests run without an embedding service and give
// deterministic, controllable behavior.
//
// # Usage in Tests
//
//	// Hash-based vectors; identical text gives identical vectors
//	embedder := mock.NewMockEmbedder()
//
//	// Token histogram vectors; shared words raise cosine similarity
//	embedder := mock.NewBagOfWordsEmbedder()
//
//	// Custom behavior injection
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return nil, errors.New("service down")
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
package mock
