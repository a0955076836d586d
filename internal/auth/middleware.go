package auth

import (
	"net/http"

	"github.com/sliceline/sliceline/internal/platform/httpx"
)

// Middleware guards routes with bearer-token authentication.
type Middleware struct {
	service *Service
}

// NewMiddleware constructs a Middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// RequireAuth rejects the request with 401 unless the Authorization header
// carries a live, verifiable token. Verified claims land in the context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.service.AuthenticateBearer(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// OptionalAuth attaches claims when a valid token is presented and otherwise
// lets the request through anonymously. Used by routes whose response shape
// depends on who is asking.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get("Authorization"); header != "" {
			if claims, err := m.service.AuthenticateBearer(r.Context(), header); err == nil {
				r = r.WithContext(ContextWithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}
