package shared

import (
	"context"
	"strconv"
	"time"
)

// Roles issued by the backend.
const (
	RoleAdmin    = "administrador"
	RoleClient   = "cliente"
	RoleDelivery = "delivery"
	RoleCashier  = "cajero"
	RoleCook     = "cocinero"
	RoleEmployee = "empleado"
)

// Claims is the subset of the backend JWT payload the web app relies on.
type Claims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role"`
	FirstLogin bool   `json:"first_login"`
}

// ID parses UserID as the numeric backend key. Non-numeric ids yield 0.
func (c Claims) ID() int64 {
	id, err := strconv.ParseInt(c.UserID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// AuthSession is the explicit credential object for one signed-in browser.
// It is decoded once at login and travels through the request context.
type AuthSession struct {
	Token     string    `json:"token"`
	Claims    Claims    `json:"claims"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token lifetime has elapsed.
func (a AuthSession) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

// HasRole reports whether the session role is one of roles.
func (a AuthSession) HasRole(roles ...string) bool {
	for _, role := range roles {
		if a.Claims.Role == role {
			return true
		}
	}
	return false
}

type authContextKey struct{}

// ContextWithAuth stores the auth session in context.
func ContextWithAuth(ctx context.Context, auth AuthSession) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// AuthFromContext extracts the auth session from context.
func AuthFromContext(ctx context.Context) (AuthSession, bool) {
	auth, ok := ctx.Value(authContextKey{}).(AuthSession)
	if !ok || auth.Token == "" {
		return AuthSession{}, false
	}
	return auth, true
}

// HomePath returns the landing page for a role.
func HomePath(role string) string {
	switch role {
	case RoleAdmin:
		return "/admin"
	case RoleCashier:
		return "/boards/cashier"
	case RoleCook:
		return "/boards/kitchen"
	case RoleDelivery:
		return "/boards/delivery"
	default:
		return "/account"
	}
}
