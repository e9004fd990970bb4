package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/memology/memology-api/internal/api/shared"
)

// WorkerTokenHeader carries the shared secret for internal endpoints
// used by split-process worker deployments.
const WorkerTokenHeader = "X-Worker-Token"

// WorkerAuthMiddleware guards internal routes with a shared-secret
// header check.
type WorkerAuthMiddleware struct {
	token string
}

// NewWorkerAuthMiddleware creates the middleware for the given token.
func NewWorkerAuthMiddleware(token string) *WorkerAuthMiddleware {
	return &WorkerAuthMiddleware{token: token}
}

// Authenticate rejects requests whose token header does not match the
// configured secret. An empty configured token disables the routes
// entirely rather than leaving them open.
func (m *WorkerAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.token == "" {
			shared.RespondWithError(w, r, http.StatusForbidden,
				"FORBIDDEN", "Internal endpoints are disabled")
			return
		}

		provided := r.Header.Get(WorkerTokenHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(m.token)) != 1 {
			shared.RespondWithError(w, r, http.StatusForbidden,
				"FORBIDDEN", "Invalid worker token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
