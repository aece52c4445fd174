package services

import (
	"context"
	"net/http"
	"strconv"

	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/domain"
)

// AddressService manages the signed-in user's addresses.
type AddressService struct {
	client *backend.Client
}

func addressPath(id int64) string {
	return "/address/" + strconv.FormatInt(id, 10)
}

// Mine lists the addresses of the token owner.
func (s *AddressService) Mine(ctx context.Context) ([]domain.Address, error) {
	body, err := s.client.Do(ctx, http.MethodGet, "/address/user/addresses", nil, nil)
	if err != nil {
		return nil, err
	}
	page, err := backend.DecodePage[domain.Address](body)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

// Create adds an address for the token owner.
func (s *AddressService) Create(ctx context.Context, in domain.AddressInput) (domain.Address, error) {
	var out domain.Address
	err := s.client.PostJSON(ctx, "/address/", nil, in, &out)
	return out, err
}

// Update replaces address id.
func (s *AddressService) Update(ctx context.Context, id int64, in domain.AddressInput) (domain.Address, error) {
	var out domain.Address
	err := s.client.PutJSON(ctx, addressPath(id), nil, in, &out)
	return out, err
}

// Delete removes address id.
func (s *AddressService) Delete(ctx context.Context, id int64) error {
	return s.client.Delete(ctx, addressPath(id))
}

// Localities lists every locality for the address form.
func (s *AddressService) Localities(ctx context.Context) ([]domain.Locality, error) {
	return backend.ListAll[domain.Locality](ctx, s.client, "/locality/", nil)
}
