package ai_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/poiesic/docsift/ai"
	"github.com/poiesic/docsift/ai/mock"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(opts ...ai.ConfigOption) *ai.Config {
	base := []ai.ConfigOption{
		ai.WithRetryDelay(time.Millisecond),
		ai.WithTimeout(time.Second),
	}
	return ai.NewConfig(append(base, opts...)...)
}

func TestNewGuardedEmbedder_NilInner(t *testing.T) {
	_, err := ai.NewGuardedEmbedder(nil, nil)
	assert.ErrorIs(t, err, ai.ErrNilEmbedder)
}

func TestGuardedEmbedder_RetriesTransientFailure(t *testing.T) {
	inner := mock.NewMockEmbedder()
	var calls atomic.Int32
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if calls.Add(1) < 3 {
			return nil, fmt.Errorf("%w: temporary", ai.ErrUnavailable)
		}
		return []float32{1, 0}, nil
	}

	g, err := ai.NewGuardedEmbedder(inner, fastConfig(ai.WithMaxRetries(3)))
	require.NoError(t, err)

	v, err := g.EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGuardedEmbedder_GivesUpAfterMaxRetries(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("%w: down", ai.ErrUnavailable)
	}

	g, err := ai.NewGuardedEmbedder(inner, fastConfig(ai.WithMaxRetries(2), ai.WithBreaker(0, 0)))
	require.NoError(t, err)

	_, err = g.EmbedText(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, 2, inner.CallCount())
}

func TestGuardedEmbedder_BreakerOpens(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	}

	g, err := ai.NewGuardedEmbedder(inner, fastConfig(ai.WithMaxRetries(1), ai.WithBreaker(2, time.Minute)))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = g.EmbedText(context.Background(), "hello")
		require.Error(t, err)
	}
	_, err = g.EmbedText(context.Background(), "hello")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.CallCount(), "open breaker should not reach the service")
}

func TestGuardedEmbedder_RejectionNotRetried(t *testing.T) {
	inner := mock.NewMockEmbedder()
	rejected := errors.New("input rejected")
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, rejected
	}

	g, err := ai.NewGuardedEmbedder(inner, fastConfig(ai.WithMaxRetries(3)))
	require.NoError(t, err)

	_, err = g.EmbedText(context.Background(), "bad")
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, 1, inner.CallCount())
}

func TestGuardedEmbedder_RejectionsKeepBreakerClosed(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if strings.Contains(text, "bad") {
			return nil, errors.New("input rejected")
		}
		return []float32{1, 0}, nil
	}

	g, err := ai.NewGuardedEmbedder(inner, fastConfig(ai.WithMaxRetries(3), ai.WithBreaker(2, time.Minute)))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err = g.EmbedText(context.Background(), "bad")
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}
	v, err := g.EmbedText(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, v)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unavailable", fmt.Errorf("wrapped: %w", ai.ErrUnavailable), true},
		{"deadline", context.DeadlineExceeded, true},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
		{"rejection", errors.New("input too long"), false},
		{"vector count", ai.ErrVectorCount, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ai.IsTransient(tt.err))
		})
	}
}

func TestGuardedEmbedder_TimeoutPerCall(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	g, err := ai.NewGuardedEmbedder(inner, fastConfig(ai.WithTimeout(10*time.Millisecond), ai.WithMaxRetries(1)))
	require.NoError(t, err)

	_, err = g.EmbedText(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGuardedEmbedder_BoundsConcurrency(t *testing.T) {
	inner := mock.NewMockEmbedder()
	var inFlight, peak atomic.Int32
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return []float32{1}, nil
	}

	g, err := ai.NewGuardedEmbedder(inner, fastConfig(ai.WithMaxConcurrent(2)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.EmbedText(context.Background(), "x")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestGuardedEmbedder_BatchCountMismatch(t *testing.T) {
	inner := mock.NewMockEmbedder()
	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}

	g, err := ai.NewGuardedEmbedder(inner, fastConfig())
	require.NoError(t, err)

	_, err = g.EmbedTexts(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ai.ErrVectorCount)
}

func TestGuardedEmbedder_RateLimited(t *testing.T) {
	inner := mock.NewMockEmbedder()
	g, err := ai.NewGuardedEmbedder(inner, fastConfig(ai.WithRateLimit(1000), ai.WithMaxConcurrent(1)))
	require.NoError(t, err)

	vectors, err := g.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
}
