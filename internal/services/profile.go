package services

import (
	"context"
	"strconv"

	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/domain"
)

// ProfileService reads and edits the signed-in user.
type ProfileService struct {
	client *backend.Client
}

// Get fetches user id.
func (s *ProfileService) Get(ctx context.Context, id int64) (domain.User, error) {
	var out domain.User
	err := s.client.GetJSON(ctx, "/user/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

// Update edits the token owner.
func (s *ProfileService) Update(ctx context.Context, in domain.ProfileInput) (domain.User, error) {
	var out domain.User
	err := s.client.PutJSON(ctx, "/user/update/token", nil, in, &out)
	return out, err
}

// ChangePassword sets a new password and clears the first-login flag server side.
func (s *ProfileService) ChangePassword(ctx context.Context, password string) error {
	return s.client.PutJSON(ctx, "/user/update/token", nil, domain.ProfileInput{Password: password}, nil)
}
