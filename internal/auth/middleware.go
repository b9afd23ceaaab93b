package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/avercroft/kennelgate/internal/models"
	pkghttp "github.com/avercroft/kennelgate/pkg/http"
)

// contextKey is a custom type for context keys.
type contextKey string

// AdminContextKey is the key under which the resolved admin account is
// stored in the request context.
const AdminContextKey contextKey = "admin"

// AccountResolver re-resolves a token subject against the credential store.
type AccountResolver interface {
	GetByUsername(ctx context.Context, username string) (*models.AdminAccount, error)
}

// ResolveAccount re-resolves a token subject and checks account state. A
// missing account yields ErrInvalidToken and a deactivated one
// ErrAccountInactive; callers present both identically to the client.
func ResolveAccount(ctx context.Context, accounts AccountResolver, username string) (*models.AdminAccount, error) {
	admin, err := accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, models.ErrInvalidToken
	}
	if !admin.IsActive {
		return nil, models.ErrAccountInactive
	}
	return admin, nil
}

// Middleware validates the bearer token and re-resolves the admin account.
// A valid signature is not enough: a missing or inactive account fails the
// request even while the token is unexpired.
func Middleware(tm *TokenManager, accounts AccountResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				pkghttp.WriteUnauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := tm.Validate(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Invalid or expired token")
				return
			}

			admin, err := ResolveAccount(r.Context(), accounts, claims.Subject)
			if err != nil {
				pkghttp.WriteUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminContextKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext returns the admin account injected by Middleware.
func AdminFromContext(ctx context.Context) (*models.AdminAccount, bool) {
	admin, ok := ctx.Value(AdminContextKey).(*models.AdminAccount)
	return admin, ok
}
