// Package account serves the signed-in user's profile and addresses.
package account

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/services"
	"github.com/buensabor/buensabor-web/internal/shared"
)

// Overview is the account page content.
type Overview struct {
	User      domain.User
	Addresses []domain.Address
}

// Service reads and edits the account of the token owner.
type Service struct {
	profile   *services.ProfileService
	addresses *services.AddressService
}

// NewService constructs the account service.
func NewService(profile *services.ProfileService, addresses *services.AddressService) *Service {
	return &Service{profile: profile, addresses: addresses}
}

// Overview loads the profile and addresses in parallel.
func (s *Service) Overview(ctx context.Context, userID int64) (Overview, error) {
	var out Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := s.profile.Get(gctx, userID)
		if err != nil {
			return fmt.Errorf("account: profile: %w", err)
		}
		out.User = user
		return nil
	})
	g.Go(func() error {
		addrs, err := s.addresses.Mine(gctx)
		if err != nil {
			return fmt.Errorf("account: addresses: %w", err)
		}
		out.Addresses = addrs
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}

// UpdateProfile edits the name and phone of the token owner.
func (s *Service) UpdateProfile(ctx context.Context, in domain.ProfileInput) (domain.User, error) {
	return s.profile.Update(ctx, in)
}

// Address finds one of the owner's addresses. Addresses of other users are
// reported as not found.
func (s *Service) Address(ctx context.Context, id int64) (domain.Address, error) {
	addrs, err := s.addresses.Mine(ctx)
	if err != nil {
		return domain.Address{}, err
	}
	for _, a := range addrs {
		if a.IDKey == id {
			return a, nil
		}
	}
	return domain.Address{}, shared.ErrNotFound
}

// SaveAddress creates the address when id is zero and updates it otherwise.
func (s *Service) SaveAddress(ctx context.Context, id int64, in domain.AddressInput) (domain.Address, error) {
	if id == 0 {
		return s.addresses.Create(ctx, in)
	}
	if _, err := s.Address(ctx, id); err != nil {
		return domain.Address{}, err
	}
	return s.addresses.Update(ctx, id, in)
}

// DeleteAddress removes one of the owner's addresses.
func (s *Service) DeleteAddress(ctx context.Context, id int64) error {
	if _, err := s.Address(ctx, id); err != nil {
		return err
	}
	return s.addresses.Delete(ctx, id)
}

// Localities lists the options of the locality select.
func (s *Service) Localities(ctx context.Context) ([]domain.Locality, error) {
	return s.addresses.Localities(ctx)
}
