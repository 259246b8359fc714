// Package ollama implements ai.Embedder against the native Ollama API.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/docsift/ai"
)

// Embedder implements ai.Embedder using the Ollama /api/embed endpoint.
type Embedder struct {
	client *api.Client
	model  string
	logger *slog.Logger
}

func newEmbedder(config *ai.Config, httpClient *http.Client) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	hostURL, err := url.Parse(config.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", config.Host, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Embedder{
		client: api.NewClient(hostURL, httpClient),
		model:  config.Model,
		logger: slog.Default().With("component", "ollama-embedder", "model", config.Model),
	}, nil
}

// NewEmbedder creates an Ollama embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config, nil)
}

// NewEmbedderWithClient is NewEmbedder with a caller-supplied HTTP client.
func NewEmbedderWithClient(config *ai.Config, httpClient *http.Client) (ai.Embedder, error) {
	return newEmbedder(config, httpClient)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return []float32{}, nil
	}
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in one request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		err = classify(err)
		e.logger.Warn("embedding request failed", "count", len(texts), "transient", ai.IsTransient(err), "err", err)
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ai.ErrVectorCount, len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

// classify marks overload and server-side failures as ai.ErrUnavailable.
// Other status errors (bad input, unknown model) pass through unchanged.
func classify(err error) error {
	var status api.StatusError
	if errors.As(err, &status) {
		if status.StatusCode == http.StatusTooManyRequests || status.StatusCode >= 500 {
			return fmt.Errorf("%w: %w", ai.ErrUnavailable, err)
		}
	}
	return err
}
