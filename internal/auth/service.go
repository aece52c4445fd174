package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/services"
	"github.com/buensabor/buensabor-web/internal/shared"
)

// Service wraps the backend authentication endpoints.
type Service struct {
	client  *backend.Client
	profile *services.ProfileService
	ttl     time.Duration
	now     func() time.Time
}

// NewService constructs a new Service. ttl bounds sessions whose token carries no exp.
func NewService(client *backend.Client, profile *services.ProfileService, ttl time.Duration) *Service {
	return &Service{client: client, profile: profile, ttl: ttl, now: time.Now}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

func (t tokenResponse) value() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.Token
}

// RegisterInput is the self sign-up payload.
type RegisterInput struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// Authenticate exchanges credentials for an AuthSession.
func (s *Service) Authenticate(ctx context.Context, email, password string) (shared.AuthSession, error) {
	var resp tokenResponse
	err := s.client.PostJSON(ctx, "/auth/login", nil, credentials{Email: strings.TrimSpace(email), Password: password}, &resp)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) || errors.Is(err, shared.ErrForbidden) {
			return shared.AuthSession{}, shared.ErrInvalidCredentials
		}
		return shared.AuthSession{}, err
	}
	return s.FromToken(resp.value())
}

// FromToken builds an AuthSession from a token issued by the backend.
func (s *Service) FromToken(token string) (shared.AuthSession, error) {
	return DecodeClaims(token, s.now(), s.ttl)
}

// Register creates a customer account.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	if err := ValidatePassword(in.Password, in.Password); err != nil {
		return err
	}
	return s.client.PostJSON(ctx, "/auth/register", nil, in, nil)
}

// GoogleLoginURL is the backend OAuth entry point that returns to callback with ?token=.
func (s *Service) GoogleLoginURL(callback string) string {
	return s.client.BaseURL() + "/auth/google/login?" + url.Values{"redirect_uri": {callback}}.Encode()
}

// ChangePassword validates locally and then updates the token owner.
func (s *Service) ChangePassword(ctx context.Context, password, confirm string) error {
	if err := ValidatePassword(password, confirm); err != nil {
		return err
	}
	return s.profile.ChangePassword(ctx, password)
}
