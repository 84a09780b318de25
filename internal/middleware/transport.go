package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/renzo/client/internal/logging"
)

// RequestIDHeader carries the per-request identifier to the backend.
const RequestIDHeader = "X-Request-ID"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Transport decorates outgoing backend requests.
type Transport func(http.RoundTripper) http.RoundTripper

// Chain applies transports so the first one listed runs first.
func Chain(base http.RoundTripper, transports ...Transport) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(transports) - 1; i >= 0; i-- {
		base = transports[i](base)
	}
	return base
}

// LogRequests tags each request with a fresh X-Request-ID and logs its outcome
// through the logger carried on the request context.
func LogRequests() Transport {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			requestID := uuid.NewString()

			logger := logging.FromContext(r.Context()).With(
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, requestID)

			resp, err := next.RoundTrip(r)
			if err != nil {
				logger.Warn("backend request failed", slog.Duration("duration", time.Since(start)), slog.Any("error", err))
				return nil, err
			}

			logger.Debug("backend request completed",
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", time.Since(start)),
			)
			return resp, nil
		})
	}
}

// NewLimiter builds a token bucket allowing perSecond requests with the given
// burst. Non-positive values fall back to 1.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// RateLimit delays requests until limiter grants a token. A request whose
// context ends while waiting fails without reaching the network.
func RateLimit(limiter *rate.Limiter) Transport {
	return func(next http.RoundTripper) http.RoundTripper {
		if limiter == nil {
			return next
		}
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			if err := limiter.Wait(r.Context()); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
			return next.RoundTrip(r)
		})
	}
}
