package ranking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/docsift/ai/mock"
	"github.com/poiesic/docsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sections(headings ...string) []*core.Section {
	out := make([]*core.Section, len(headings))
	for i, h := range headings {
		out[i] = &core.Section{DocumentID: "doc.pdf", Index: i, Heading: h,
			Content: []core.Passage{{Text: "About " + strings.ToLower(h), Page: 1}}}
	}
	return out
}

func encode(t *testing.T, embedder *mock.MockEmbedder, text string) *core.Query {
	t.Helper()
	v, err := embedder.EmbedText(context.Background(), text)
	require.NoError(t, err)
	embedder.Reset()
	return &core.Query{Text: text, Vector: v}
}

func TestNewRanker_Validation(t *testing.T) {
	_, err := NewRanker(nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestRanker_Rank(t *testing.T) {
	embedder := mock.NewBagOfWordsEmbedder()
	q := encode(t, embedder, "vegetarian lentil stew")

	r, err := NewRanker(embedder)
	require.NoError(t, err)

	out, err := r.Rank(context.Background(), q, sections("Lentil Stew", "Quarterly Revenue"), 3)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "Lentil Stew", out[0].Section.Heading, "input order preserved")
	assert.Equal(t, 3, out[0].DocumentOrder)
	assert.Greater(t, out[0].SemanticScore, out[1].SemanticScore)
	for _, s := range out {
		assert.False(t, s.Unranked)
		assert.GreaterOrEqual(t, s.SemanticScore, -1.0)
		assert.LessOrEqual(t, s.SemanticScore, 1.0)
	}
}

func TestRanker_OneFailureOfFive(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	q := encode(t, embedder, "query")
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.HasPrefix(text, "Third") {
			return nil, errors.New("model crashed")
		}
		return []float32{1, 0, 0}, nil
	}

	r, err := NewRanker(embedder)
	require.NoError(t, err)

	out, err := r.Rank(context.Background(), q, sections("First", "Second", "Third", "Fourth", "Fifth"), 0)
	require.NoError(t, err)
	require.Len(t, out, 5)

	for i, s := range out {
		if i == 2 {
			assert.True(t, s.Unranked)
			assert.Zero(t, s.SemanticScore)
			continue
		}
		assert.False(t, s.Unranked, s.Section.Heading)
	}
}

func TestRanker_TimeoutMarksUnranked(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	q := encode(t, embedder, "query")
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	r, err := NewRanker(embedder, WithConfig(Config{Timeout: 10 * time.Millisecond, BatchSize: 1}))
	require.NoError(t, err)

	out, err := r.Rank(context.Background(), q, sections("Slow"), 0)
	require.NoError(t, err)
	assert.True(t, out[0].Unranked)
}

func TestRanker_CancelledContext(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	q := encode(t, embedder, "query")
	r, err := NewRanker(embedder)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Rank(ctx, q, sections("A"), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRanker_EmptySectionUsesHeading(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	q := encode(t, embedder, "query")
	r, err := NewRanker(embedder, WithConfig(Config{BatchSize: 1}))
	require.NoError(t, err)

	s := &core.Section{Heading: "Only A Heading"}
	_, err = r.Rank(context.Background(), q, []*core.Section{s}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Only A Heading"}, embedder.Texts())
}

func TestRanker_ZeroVectorScoresZero(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	q := encode(t, embedder, "query")
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return make([]float32, len(q.Vector)), nil
	}
	r, err := NewRanker(embedder)
	require.NoError(t, err)

	out, err := r.Rank(context.Background(), q, sections("A"), 0)
	require.NoError(t, err)
	assert.Zero(t, out[0].SemanticScore)
	assert.False(t, out[0].Unranked)
}

func TestRanker_DimensionMismatchMarksUnranked(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	q := encode(t, embedder, "query")
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "Other Model") {
			return []float32{1, 0, 0}, nil
		}
		return mock.NewMockEmbedder().EmbedText(ctx, text)
	}
	r, err := NewRanker(embedder, WithConfig(Config{BatchSize: 1}))
	require.NoError(t, err)

	out, err := r.Rank(context.Background(), q, sections("Other Model", "Native"), 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].Unranked)
	assert.Zero(t, out[0].SemanticScore)
	assert.False(t, out[1].Unranked)
	assert.NotZero(t, out[1].SemanticScore)
}

func TestRanker_Deterministic(t *testing.T) {
	embedder := mock.NewBagOfWordsEmbedder()
	q := encode(t, embedder, "travel itinerary nightlife")
	r, err := NewRanker(embedder, WithConfig(Config{BatchSize: 3, Concurrency: 8}))
	require.NoError(t, err)

	headings := make([]string, 20)
	for i := range headings {
		headings[i] = fmt.Sprintf("Section %d nightlife", i)
	}
	secs := sections(headings...)

	a, err := r.Rank(context.Background(), q, secs, 0)
	require.NoError(t, err)
	b, err := r.Rank(context.Background(), q, secs, 0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRanker_EmptyInput(t *testing.T) {
	r, err := NewRanker(mock.NewMockEmbedder())
	require.NoError(t, err)
	out, err := r.Rank(context.Background(), &core.Query{}, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}
