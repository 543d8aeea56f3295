// Package health tracks the availability of the remote understanding
// service. The breaker is deliberately one-way: the first quota or
// rate-limit failure disables the remote path for the rest of the process
// lifetime, and the assistant runs on its local heuristics from then on.
package health

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
)

// ErrUnavailable is returned by remote calls that were skipped because the
// breaker has tripped.
var ErrUnavailable = errors.New("remote understanding service unavailable")

// Breaker is a process-wide availability flag shared by every session.
// It only ever transitions available → unavailable, exactly once.
type Breaker struct {
	tripped atomic.Bool
	logger  *slog.Logger
}

// NewBreaker returns a breaker in the available state.
func NewBreaker(logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Breaker{logger: logger.With("component", "health.breaker")}
}

// Available reports whether remote calls may still be attempted.
func (b *Breaker) Available() bool {
	return !b.tripped.Load()
}

// Trip permanently disables the remote path. Idempotent; only the first
// call logs.
func (b *Breaker) Trip(reason string) {
	if b.tripped.CompareAndSwap(false, true) {
		b.logger.Warn("remote service disabled for process lifetime", "reason", reason)
	}
}

// TripIfQuota trips the breaker when err looks like a quota or rate-limit
// failure. It reports whether the error qualified.
func (b *Breaker) TripIfQuota(err error) bool {
	if err == nil || !IsQuotaErr(err) {
		return false
	}
	b.Trip(err.Error())
	return true
}

// IsQuotaErr recognises quota-exhaustion and rate-limit failures from an
// OpenAI-compatible backend by their conventional markers.
func IsQuotaErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "insufficient_quota") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "status code: 429") ||
		strings.Contains(msg, "429")
}
