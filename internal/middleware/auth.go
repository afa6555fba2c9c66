// Package middleware contains the HTTP middleware beyond the generic
// router chain: authentication and Prometheus instrumentation.
package middleware

import (
	"net/http"
	"strings"

	"github.com/ahir-gaurav/Ecommerce-backend/internal/auth"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/domain"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/handler"
	"github.com/ahir-gaurav/Ecommerce-backend/internal/router"
)

// RequireUser rejects requests without a valid bearer token and attaches
// the verified user to the request context.
func RequireUser(verifier *auth.Verifier) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromRequest(verifier, r)
			if err != nil {
				handler.RespondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), *user)))
		})
	}
}

// RequireAdmin additionally rejects non-admin users.
func RequireAdmin(verifier *auth.Verifier) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromRequest(verifier, r)
			if err != nil {
				handler.RespondError(w, r, err)
				return
			}
			if !user.IsAdmin() {
				handler.RespondError(w, r, domain.Forbidden("middleware.require_admin", "admin access required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.WithUser(r.Context(), *user)))
		})
	}
}

func userFromRequest(verifier *auth.Verifier, r *http.Request) (*domain.User, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, domain.Unauthorized("middleware.auth", "missing bearer token")
	}
	return verifier.Verify(token)
}
