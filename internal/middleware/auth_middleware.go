package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/poofware/locshare-service/internal/models"
	"github.com/poofware/locshare-service/internal/utils"
)

type contextKey string

const ContextKeyIdentity = contextKey("identity")

// SessionResolver turns a bearer secret into the identity that owns it.
type SessionResolver interface {
	Resolve(ctx context.Context, bearer string) (*models.Identity, error)
}

// AuthMiddleware resolves Authorization: Bearer <secret> on every request.
// Missing, unknown, malformed and expired secrets all get the same bare
// 401; store failures get a 500.
func AuthMiddleware(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer, ok := extractBearer(r)
			if !ok {
				respondUnauthorized(w, utils.ErrUnauthenticated)
				return
			}

			identity, err := sessions.Resolve(r.Context(), bearer)
			if err != nil {
				var appErr *utils.AppError
				if errors.As(err, &appErr) && appErr.StatusCode == http.StatusUnauthorized {
					respondUnauthorized(w, err)
					return
				}
				utils.HandleAppError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity AuthMiddleware attached.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(ContextKeyIdentity).(*models.Identity)
	return identity, ok && identity != nil
}

func extractBearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}

func respondUnauthorized(w http.ResponseWriter, err error) {
	utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Unauthorized", nil, err)
}
