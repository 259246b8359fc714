package openai

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/docsift/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// langchaingo flattens HTTP failures into strings, so the status code and
// transport failures are recovered from the message.
var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

// Embedder turns section and query text into vectors through an
// OpenAI-compatible /embeddings endpoint.
type Embedder struct {
	embedder embeddings.Embedder
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local servers ignore the key; "none" keeps the client from refusing to start.
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	// Section bodies are joined with newlines; the model sees them as spaces.
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-embedder", "model", config.Model),
	}, nil
}

// NewEmbedder creates an embedder for config.Host and config.Model.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds one section or query. Empty text yields an empty vector
// without a request.
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

// EmbedTexts embeds a batch of sections in one request. Service-side
// failures are wrapped with ai.ErrUnavailable; anything else is reported as
// a rejection of the batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("embedding sections", "count", len(texts))
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		err = classify(ctx, err)
		e.logger.Warn("embedding request failed", "count", len(texts), "transient", ai.IsTransient(err), "err", err)
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ai.ErrVectorCount, len(vectors), len(texts))
	}
	return vectors, nil
}

func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	msg := err.Error()
	if m := statusPattern.FindStringSubmatch(msg); m != nil {
		code, _ := strconv.Atoi(m[1])
		if code == 429 || code >= 500 {
			return fmt.Errorf("%w: %w", ai.ErrUnavailable, err)
		}
		return err
	}
	if strings.Contains(msg, "request timeout") || strings.Contains(msg, "network error") {
		return fmt.Errorf("%w: %w", ai.ErrUnavailable, err)
	}
	return err
}
