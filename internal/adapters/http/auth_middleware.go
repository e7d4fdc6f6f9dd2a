package httpadapter

import (
	"context"
	"net/http"
	"strings"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

type userContextKey struct{}

func userFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey{}).(*domain.User)
	return user
}

// requireUser resolves the bearer token into the active user before the
// handler runs. Invalid or missing credentials are 401, an inactive account
// surfaces as 400 from the auth service.
func (rt *Router) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		user, err := rt.auth.Authenticate(r.Context(), token)
		if err != nil {
			if domain.IsKind(err, domain.ErrUnauthorized) {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (rt *Router) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return rt.requireUser(func(w http.ResponseWriter, r *http.Request) {
		user := userFromContext(r.Context())
		if user.Role != domain.RoleAdmin {
			writeDetail(w, http.StatusForbidden, "not enough permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
