package shared

import (
	"context"
	"net/http"
)

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// RedirectWithFlash queues a flash message and answers 303 to location.
func RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := SessionFromContext(r.Context()); sess != nil && message != "" {
		sess.AddFlash(FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// RedirectToLogin drops the backend credentials and sends the browser to /login.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	if sess := SessionFromContext(r.Context()); sess != nil {
		sess.ClearAuth()
		sess.AddFlash(FlashMessage{Kind: "warning", Message: StatusMessage(http.StatusUnauthorized)})
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
