package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/logger"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	RequesterContextKey ContextKey = "requester"
	RequestIDContextKey ContextKey = "request_id"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.TokenService
	policy  *policy.Evaluator
	limiter *security.RateLimiter
	log     *logger.Logger
	timeout time.Duration
}

// NewMiddleware creates a new middleware instance. A nil limiter disables
// rate limiting and a zero timeout leaves request contexts alone.
func NewMiddleware(tokens *security.TokenService, evaluator *policy.Evaluator, limiter *security.RateLimiter, log *logger.Logger, timeout time.Duration) *Middleware {
	return &Middleware{
		tokens:  tokens,
		policy:  evaluator,
		limiter: limiter,
		log:     log,
		timeout: timeout,
	}
}

// RequireAuth verifies the bearer token, builds the request's requester and
// resolves it once. A login that has no profile yet passes through.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := security.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthenticated})
			return
		}
		loginID, err := m.tokens.Verify(token)
		if err != nil {
			m.log.Debug("rejected token", "request_id", GetRequestID(r.Context()), "error", err)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthenticated})
			return
		}

		req := policy.NewRequester(loginID, strings.TrimSpace(r.Header.Get(ActAsHeader)))
		if _, err := m.policy.Resolve(r.Context(), req); err != nil {
			switch {
			case errors.Is(err, policy.ErrActAsDenied):
				writeJSON(w, http.StatusForbidden, errorResponse{Error: ErrForbidden})
			case errors.Is(err, policy.ErrUnauthenticated):
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: ErrUnauthenticated})
			default:
				respondWithError(w, m.log, http.StatusInternalServerError, ErrInternalServerError, "failed to resolve requester", err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), RequesterContextKey, req)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit limits requests per login, or per client IP before authentication
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next(w, r)
			return
		}
		key := "ip:" + security.GetClientIP(r)
		if req := GetRequester(r.Context()); req != nil {
			key = "login:" + req.LoginID
		}
		if !m.limiter.Allow(key) {
			m.log.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: ErrTooManyRequests})
			return
		}
		next(w, r)
	}
}

// Protected is RequireAuth followed by RateLimit
func (m *Middleware) Protected(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(m.RateLimit(next))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging assigns a request id, applies the request timeout and logs every request
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := security.RequestID(r)
		w.Header().Set(security.RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		if m.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.timeout)
			defer cancel()
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		m.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", requestID)
	})
}

// GetRequester retrieves the requester from the request context
func GetRequester(ctx context.Context) *policy.Requester {
	req, ok := ctx.Value(RequesterContextKey).(*policy.Requester)
	if !ok {
		return nil
	}
	return req
}

// GetRequestID retrieves the request id from the request context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}
