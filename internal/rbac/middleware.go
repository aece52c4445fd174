// Package rbac gates routes by the role carried in the backend token.
package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
)

// PasswordPath is the only page reachable while first_login is set.
const PasswordPath = "/profile/password"

// Middleware wires role checks for HTTP handlers.
type Middleware struct {
	Logger    *slog.Logger
	Templates *view.Engine
}

// RequireRole ensures the signed-in user holds one of roles. Anonymous
// requests go to /login; signed-in users without the role get 403.
// No roles means any signed-in user.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	normalized := normalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth, ok := shared.AuthFromContext(r.Context())
			if !ok {
				shared.RedirectWithFlash(w, r, "/login", "info", "Iniciá sesión para continuar.")
				return
			}
			if auth.Claims.FirstLogin && r.URL.Path != PasswordPath {
				http.Redirect(w, r, PasswordPath, http.StatusSeeOther)
				return
			}
			if !hasAnyRole(auth.Claims.Role, normalized) {
				if m.Logger != nil {
					m.Logger.Warn("rbac denied",
						slog.String("path", r.URL.Path),
						slog.String("role", auth.Claims.Role))
				}
				m.forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff admits every employee role.
func (m Middleware) RequireStaff() func(http.Handler) http.Handler {
	return m.RequireRole(shared.RoleAdmin, shared.RoleCashier, shared.RoleCook, shared.RoleDelivery, shared.RoleEmployee)
}

func (m Middleware) forbidden(w http.ResponseWriter, r *http.Request) {
	if m.Templates == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	data := view.Base(r, "Acceso denegado", "", map[string]any{
		"Status":  http.StatusForbidden,
		"Message": shared.StatusMessage(http.StatusForbidden),
	})
	if err := m.Templates.RenderStatus(w, http.StatusForbidden, "pages/error.html", data); err != nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	}
}

func normalizeRoles(roles []string) []string {
	unique := make(map[string]struct{}, len(roles))
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		if _, seen := unique[role]; seen {
			continue
		}
		unique[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized
}

func hasAnyRole(role string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	role = strings.ToLower(role)
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
