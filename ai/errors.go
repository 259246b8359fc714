package ai

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
	// ErrNilEmbedder is returned when a wrapper is built around a nil embedder.
	ErrNilEmbedder = errors.New("embedder cannot be nil")
	// ErrNilCache is returned when a caching embedder is built without a cache.
	ErrNilCache = errors.New("vector cache cannot be nil")
	// ErrVectorCount is returned when a batch call yields the wrong number of vectors.
	ErrVectorCount = errors.New("embedder returned wrong number of vectors")
	// ErrUnavailable marks a provider failure that is about the service rather
	// than the input: overload, rate limiting, 5xx responses. Providers wrap
	// their errors with it so the guard retries them and counts them toward
	// the circuit breaker.
	ErrUnavailable = errors.New("embedding service unavailable")
)

// IsTransient reports whether err describes the embedding service being
// unreachable or overloaded. Any other error is taken as a rejection of the
// input itself, which neither a retry nor a different section can change.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
