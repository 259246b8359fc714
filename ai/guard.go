package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// GuardedEmbedder bounds calls to an underlying embedder. Each call waits
// for a concurrency slot and the rate limiter and runs under a per-call
// timeout. Transient failures (see IsTransient) are retried with backoff
// and count toward a circuit breaker so a dead service fails fast instead
// of timing out every section. Any other error rejects the input only: it is
// returned at once and leaves the breaker alone.
type GuardedEmbedder struct {
	inner   Embedder
	config  *Config
	slots   *semaphore.Weighted
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewGuardedEmbedder wraps inner with the call controls described by config.
func NewGuardedEmbedder(inner Embedder, config *Config) (*GuardedEmbedder, error) {
	if inner == nil {
		return nil, ErrNilEmbedder
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "embedding-guard")
	g := &GuardedEmbedder{
		inner:  inner,
		config: config,
		slots:  semaphore.NewWeighted(int64(config.MaxConcurrent)),
		logger: logger,
	}
	if config.RequestsPerSecond > 0 {
		burst := config.MaxConcurrent
		g.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	if config.BreakerFailures > 0 {
		failures := uint32(config.BreakerFailures)
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "embedder",
			MaxRequests: 1,
			Timeout:     config.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !IsTransient(err)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			},
		})
	}
	return g, nil
}

// EmbedText embeds a single text under the guard.
func (g *GuardedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := g.call(ctx, func(callCtx context.Context) error {
		v, err := g.inner.EmbedText(callCtx, text)
		if err != nil {
			return err
		}
		vector = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// EmbedTexts embeds a batch under the guard as a single call.
func (g *GuardedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var vectors [][]float32
	err := g.call(ctx, func(callCtx context.Context) error {
		v, err := g.inner.EmbedTexts(callCtx, texts)
		if err != nil {
			return err
		}
		if len(v) != len(texts) {
			return Permanent(fmt.Errorf("%w: got %d, want %d", ErrVectorCount, len(v), len(texts)))
		}
		vectors = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (g *GuardedEmbedder) call(ctx context.Context, fn func(context.Context) error) error {
	if err := g.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.slots.Release(1)

	return RetryWithBackoff(ctx, func() error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return Permanent(err)
			}
		}
		err := g.attempt(ctx, fn)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Permanent(err)
		}
		if err != nil && ctx.Err() != nil {
			return Permanent(ctx.Err())
		}
		if err != nil && !IsTransient(err) && !isPermanent(err) {
			return Permanent(err)
		}
		return err
	}, g.config.MaxRetries, g.config.RetryDelay)
}

func (g *GuardedEmbedder) attempt(ctx context.Context, fn func(context.Context) error) error {
	run := func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
		return fn(callCtx)
	}
	if g.breaker == nil {
		return run()
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, run()
	})
	return err
}
