package query

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docsift/ai/mock"
	"github.com/poiesic/docsift/core"
	"github.com/poiesic/docsift/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEncoder(t *testing.T, embedder *mock.MockEmbedder) *Encoder {
	t.Helper()
	e, err := NewEncoder(embedder, rules.DefaultTable())
	require.NoError(t, err)
	return e
}

func TestNewEncoder_Validation(t *testing.T) {
	_, err := NewEncoder(nil, rules.DefaultTable())
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewEncoder(mock.NewMockEmbedder(), nil)
	assert.ErrorIs(t, err, ErrTableRequired)
}

func TestEncoder_Encode(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	e := newEncoder(t, embedder)

	q, err := e.Encode(context.Background(), " Food Contractor ", "Prepare a vegetarian buffet-style dinner menu")
	require.NoError(t, err)

	assert.Equal(t, "Food Contractor: Prepare a vegetarian buffet-style dinner menu", q.Text)
	assert.Equal(t, "culinary", q.Domain)
	assert.Contains(t, q.Terms, "vegetarian")
	assert.Contains(t, q.Terms, "buffet-style")
	assert.Contains(t, q.Terms, "ingredients", "domain boost terms are merged in")
	assert.NotContains(t, q.Terms, "prepare")
	assert.IsIncreasing(t, q.Terms)
	assert.NotEmpty(t, q.Vector)
	assert.Equal(t, []string{q.Text}, embedder.Texts())
}

func TestEncoder_GeneralDomain(t *testing.T) {
	e := newEncoder(t, mock.NewMockEmbedder())

	q, err := e.Encode(context.Background(), "Gardener", "Prune the roses")
	require.NoError(t, err)
	assert.Equal(t, core.DomainGeneral, q.Domain)
	assert.Equal(t, []string{"gardener", "prune", "roses"}, q.Terms)
}

func TestEncoder_MissingFields(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	e := newEncoder(t, embedder)

	_, err := e.Encode(context.Background(), "", "job")
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.ErrorIs(t, err, core.ErrMissingPersona)

	_, err = e.Encode(context.Background(), "persona", "   ")
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.ErrorIs(t, err, core.ErrMissingJob)

	assert.Zero(t, embedder.CallCount(), "no embedding before validation passes")
}

func TestEncoder_EmbeddingFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("down")
	}
	e := newEncoder(t, embedder)

	_, err := e.Encode(context.Background(), "p", "j")
	assert.ErrorIs(t, err, core.ErrEmbeddingUnavailable)
}

func TestEncoder_Deterministic(t *testing.T) {
	e := newEncoder(t, mock.NewMockEmbedder())
	a, err := e.Encode(context.Background(), "Travel Planner", "Plan a trip of 4 days")
	require.NoError(t, err)
	b, err := e.Encode(context.Background(), "Travel Planner", "Plan a trip of 4 days")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
