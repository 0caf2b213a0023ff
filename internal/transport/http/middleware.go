package http

import (
	"context"
	"net"
	"net/http"
	"strings"

	"mcq-contest-service/internal/domain"
	"mcq-contest-service/internal/metrics"

	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"
)

type identityKey struct{}

func identityFrom(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(domain.Identity)
	return id, ok
}

// authenticated resolves the bearer token into an identity and records it in
// the user directory so leaderboards can show names. Browsers cannot set
// headers on websocket upgrades, so the token may also arrive as access_token.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" {
			raw = r.URL.Query().Get("access_token")
		}
		if raw == "" {
			s.writeError(w, r, domain.ErrUnauthenticated)
			return
		}
		identity, err := s.tokens.Parse(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.users.Upsert(r.Context(), identity); err != nil {
			s.log.Warn("user directory upsert failed", zap.String("user", identity.ID), zap.Error(err))
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, identity)))
	}
}

// limited rejects callers that exceed their request budget.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if id, ok := identityFrom(r.Context()); ok {
			key = id.ID
		}
		if !s.limiter.Allow(key) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded", Code: "rate_limited"})
			return
		}
		next(w, r)
	}
}

// observe logs and measures every request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.ObserveRequest(r.Method, endpoint, m.Code, m.Duration)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Duration("elapsed", m.Duration),
			zap.Int64("bytes", m.Written),
		)
	})
}

func requestFields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
