package httpapi

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"truckFleetManagement/internal/auth"
)

// requireAuth extracts and validates the Bearer access token, resolves the
// caller's role binding and injects the identity into the request context.
// Every resource route goes through here; only /health and the token
// endpoints bypass it.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, unauthorized("missing authorization header"))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, unauthorized("invalid authorization header format"))
			return
		}

		p, err := auth.ParseAccess(strings.TrimSpace(parts[1]), s.cfg.Auth.JWTSecret)
		if err != nil {
			writeError(w, err)
			return
		}
		identity, err := s.resolver.Resolve(r.Context(), p)
		if err != nil {
			writeError(w, err)
			return
		}
		next(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	}
}

// logRequests emits one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
