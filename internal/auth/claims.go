package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/buensabor/buensabor-web/internal/shared"
)

// ErrMalformedToken marks a token whose payload cannot be read.
var ErrMalformedToken = errors.New("auth: malformed token")

var idClaimKeys = []string{"id_key", "id", "sub", "user_id"}

// DecodeClaims reads the JWT payload without verifying the signature; the backend
// verifies it on every call. ExpiresAt falls back to now+fallbackTTL when exp is absent.
func DecodeClaims(token string, now time.Time, fallbackTTL time.Duration) (shared.AuthSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return shared.AuthSession{}, ErrMalformedToken
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return shared.AuthSession{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return shared.AuthSession{}, ErrMalformedToken
	}

	claims := shared.Claims{
		Role:       stringClaim(mc["role"]),
		Email:      stringClaim(mc["email"]),
		FirstLogin: boolClaim(mc["first_login"]),
	}
	for _, key := range idClaimKeys {
		if v := stringClaim(mc[key]); v != "" {
			claims.UserID = v
			break
		}
	}
	if claims.Email == "" && strings.Contains(stringClaim(mc["sub"]), "@") {
		claims.Email = stringClaim(mc["sub"])
	}

	session := shared.AuthSession{Token: token, Claims: claims, ExpiresAt: now.Add(fallbackTTL)}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}

func stringClaim(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func boolClaim(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	case float64:
		return t != 0
	default:
		return false
	}
}
