package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/buensabor/buensabor-web/internal/shared"
)

// LoadSession moves the stored AuthSession into the request context once per request.
// Expired credentials are dropped from the session.
func LoadSession(now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			auth, ok := sess.Auth()
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if auth.Expired(now()) {
				sess.ClearAuth()
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithAuth(r.Context(), auth)))
		})
	}
}

// ForgetOnUnauthorized drops the credentials of the session in ctx.
// It is installed as the backend client's 401 hook.
func ForgetOnUnauthorized(ctx context.Context) {
	shared.SessionFromContext(ctx).ClearAuth()
}
