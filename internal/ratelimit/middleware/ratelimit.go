// Package middleware throttles API callers with sliding-window limits.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"charitydrive/internal/ratelimit/models"
	"charitydrive/internal/ratelimit/store/bucket"
	"charitydrive/pkg/platform/httputil"
	"charitydrive/pkg/platform/middleware/request"
	"charitydrive/pkg/requestcontext"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderStatus    = "X-RateLimit-Status"

	statusDegraded = "degraded"

	defaultFailureThreshold = 5
	defaultSuccessThreshold = 3
)

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, limit models.Limit) (models.Result, error)
}

// Middleware limits each caller per route class. Authenticated callers are
// keyed by account, anonymous ones by client IP. When the primary store keeps
// failing, checks move to an in-memory fallback and responses carry
// X-RateLimit-Status: degraded.
type Middleware struct {
	primary  Store
	fallback Store
	breaker  *breaker
	limits   map[models.Class]models.Limit
	logger   *slog.Logger
	disabled bool
	now      func() time.Time
}

type Option func(*Middleware)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		m.logger = logger
	}
}

// WithLimit overrides the limit of one class.
func WithLimit(class models.Class, limit models.Limit) Option {
	return func(m *Middleware) {
		if limit.Requests > 0 && limit.Window > 0 {
			m.limits[class] = limit
		}
	}
}

// WithDisabled turns every check into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithBreakerThresholds tunes when the fallback store takes over and when
// the primary is trusted again.
func WithBreakerThresholds(failures, successes int) Option {
	return func(m *Middleware) {
		if failures > 0 && successes > 0 {
			m.breaker = newBreaker(failures, successes)
		}
	}
}

// DefaultLimits applies when no WithLimit option names a class.
var DefaultLimits = map[models.Class]models.Limit{
	models.ClassRead:  {Requests: 120, Window: time.Minute},
	models.ClassWrite: {Requests: 30, Window: time.Minute},
}

// New uses primary for every check. A nil primary means in-memory only.
func New(primary Store, opts ...Option) *Middleware {
	m := &Middleware{
		primary:  primary,
		fallback: bucket.NewInMemory(),
		breaker:  newBreaker(defaultFailureThreshold, defaultSuccessThreshold),
		limits:   make(map[models.Class]models.Limit, len(DefaultLimits)),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for class, limit := range DefaultLimits {
		m.limits[class] = limit
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.primary == nil {
		m.primary = m.fallback
	}
	return m
}

// Handler classifies each request by method and enforces its limit.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		class := models.ClassForMethod(r.Method)
		result, degraded := m.check(ctx, models.Key(class, subject(ctx)), m.limits[class])

		w.Header().Set(HeaderLimit, strconv.Itoa(result.Limit))
		w.Header().Set(HeaderRemaining, strconv.Itoa(result.Remaining))
		w.Header().Set(HeaderReset, strconv.FormatInt(result.ResetAt.Unix(), 10))
		if degraded {
			w.Header().Set(HeaderStatus, statusDegraded)
		}

		if !result.Allowed {
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", request.GetRequestID(ctx),
				"class", class,
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(m.now())))
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limited",
				"error_description": "too many requests, retry later",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// check consults the primary store unless the breaker is open. The primary
// is still probed while open so it can close again.
func (m *Middleware) check(ctx context.Context, key string, limit models.Limit) (models.Result, bool) {
	if m.primary == m.fallback {
		res, _ := m.fallback.Allow(ctx, key, limit)
		return res, false
	}

	if m.breaker.isOpen() {
		if _, err := m.primary.Allow(ctx, key, limit); err == nil {
			if m.breaker.recordSuccess() {
				m.logger.InfoContext(ctx, "rate limit store recovered")
			}
		} else {
			m.breaker.recordFailure()
		}
		res, _ := m.fallback.Allow(ctx, key, limit)
		return res, m.breaker.isOpen()
	}

	res, err := m.primary.Allow(ctx, key, limit)
	if err == nil {
		m.breaker.recordSuccess()
		return res, false
	}
	m.logger.ErrorContext(ctx, "rate limit store failed", "error", err)
	if m.breaker.recordFailure() {
		m.logger.WarnContext(ctx, "rate limit store unavailable, using in-memory fallback")
	}
	res, _ = m.fallback.Allow(ctx, key, limit)
	return res, true
}

func subject(ctx context.Context) string {
	if caller := requestcontext.Caller(ctx); !caller.IsNil() {
		return "account:" + caller.String()
	}
	return "ip:" + requestcontext.ClientIP(ctx)
}
