package gateway

import (
	"net/http"
	"strings"

	"github.com/DCloudHub/station-onboarding/internal/domain"
)

// Authorizer resolves a bearer token to an operator username. Satisfied by
// usecase.AdminService.
type Authorizer interface {
	Authenticate(token string) (string, error)
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// requireAdmin wraps an HTTP handler so only authenticated operators reach it.
func requireAdmin(auth Authorizer, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, domain.NewDomainError("gateway", domain.ErrAuthInvalid, "missing bearer token"))
			return
		}
		if _, err := auth.Authenticate(token); err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		next(w, r)
	}
}
