package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/docsift/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(req map[string]any) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	srv := newTestServer(t, func(req map[string]any) (int, any) {
		assert.Equal(t, "nomic-embed-text", req["model"])
		inputs := req["input"].([]any)
		embeddings := make([][]float32, len(inputs))
		for i := range inputs {
			embeddings[i] = []float32{float32(i), 1}
		}
		return http.StatusOK, map[string]any{"model": "nomic-embed-text", "embeddings": embeddings}
	})

	cfg := ai.NewConfig(
		ai.WithProvider(ai.ProviderOllama),
		ai.WithHost(srv.URL+"/v1"),
		ai.WithModel("nomic-embed-text"),
	)
	embedder, err := NewEmbedderWithClient(cfg, srv.Client())
	require.NoError(t, err)

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0, 1}, {1, 1}}, vectors)

	single, err := embedder.EmbedText(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, single)
}

func TestEmbedder_EmptyInput(t *testing.T) {
	cfg := ai.NewConfig(ai.WithProvider(ai.ProviderOllama), ai.WithHost("http://127.0.0.1:1"))
	embedder, err := NewEmbedder(cfg)
	require.NoError(t, err)

	v, err := embedder.EmbedText(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, v)

	vs, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestEmbedder_ServerError(t *testing.T) {
	srv := newTestServer(t, func(req map[string]any) (int, any) {
		return http.StatusInternalServerError, map[string]any{"error": "model not loaded"}
	})

	cfg := ai.NewConfig(ai.WithProvider(ai.ProviderOllama), ai.WithHost(srv.URL))
	embedder, err := NewEmbedderWithClient(cfg, srv.Client())
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrUnavailable)
	assert.True(t, ai.IsTransient(err))
}

func TestEmbedder_RejectedInputIsNotTransient(t *testing.T) {
	srv := newTestServer(t, func(req map[string]any) (int, any) {
		return http.StatusBadRequest, map[string]any{"error": "input too long"}
	})

	cfg := ai.NewConfig(ai.WithProvider(ai.ProviderOllama), ai.WithHost(srv.URL))
	embedder, err := NewEmbedderWithClient(cfg, srv.Client())
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "hello")
	require.Error(t, err)
	assert.False(t, ai.IsTransient(err))
}

func TestEmbedder_CountMismatch(t *testing.T) {
	srv := newTestServer(t, func(req map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"embeddings": [][]float32{{1}}}
	})

	cfg := ai.NewConfig(ai.WithProvider(ai.ProviderOllama), ai.WithHost(srv.URL))
	embedder, err := NewEmbedderWithClient(cfg, srv.Client())
	require.NoError(t, err)

	_, err = embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ai.ErrVectorCount)
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	_, err := NewEmbedder(ai.NewConfig(ai.WithProvider(ai.ProviderOllama), ai.WithModel("")))
	assert.Error(t, err)
}
