package auth

import (
	"net/http"
	"strings"

	"github.com/indicrafts/api/internal/platform/httpx"
)

// Middleware authenticates bearer tokens and attaches the resulting identity
// to the request context.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware constructs middleware around the provided verifier.
func NewMiddleware(verifier *Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// Authenticate requires a valid bearer token on every request it wraps.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := m.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireRole requires a valid bearer token whose role matches one of roles.
func (m *Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := m.authenticate(w, r)
			if !ok {
				return
			}
			if !identity.HasRole(roles...) {
				httpx.WriteError(r.Context(), w, httpx.NewError("forbidden", "insufficient role", http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func (m *Middleware) authenticate(w http.ResponseWriter, r *http.Request) (*Identity, bool) {
	if m == nil || m.verifier == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "authentication unavailable", http.StatusUnauthorized))
		return nil, false
	}

	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "missing bearer token", http.StatusUnauthorized))
		return nil, false
	}

	identity, err := m.verifier.Verify(token)
	if err != nil {
		message := "invalid token"
		if err == ErrTokenExpired {
			message = "token expired"
		}
		httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", message, http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
