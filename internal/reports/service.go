// Package reports serves the admin sales dashboard and its exports.
package reports

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/domain"
)

// Source is the backend reports API.
type Source interface {
	Revenue(ctx context.Context, r domain.DateRange) (domain.RevenueReport, error)
	TopProducts(ctx context.Context, r domain.DateRange, limit int) ([]domain.TopProduct, error)
	TopCustomers(ctx context.Context, r domain.DateRange, limit int) ([]domain.TopCustomer, error)
	RevenueExcel(ctx context.Context, r domain.DateRange) (backend.Download, error)
}

// Dashboard is everything the reports page shows for one range.
type Dashboard struct {
	Range        domain.DateRange     `json:"range"`
	Revenue      domain.RevenueReport `json:"revenue"`
	TopProducts  []domain.TopProduct  `json:"top_products"`
	TopCustomers []domain.TopCustomer `json:"top_customers"`
}

// Service loads dashboards through the cache.
type Service struct {
	source Source
	cache  *Cache
	logger *slog.Logger
}

// NewService constructs the reports service. cache may be nil.
func NewService(source Source, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, cache: cache, logger: logger}
}

// Dashboard loads the three reports in parallel. Any failure fails the whole
// dashboard so a partial result is never cached.
func (s *Service) Dashboard(ctx context.Context, rng domain.DateRange) (Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", rng.Start.Format(dateLayout), rng.End.Format(dateLayout))
	if err != nil {
		s.logger.Warn("report cache key", slog.Any("error", err))
		return s.load(ctx, rng)
	}
	return Fetch(ctx, s.cache, key, func(ctx context.Context) (Dashboard, error) {
		return s.load(ctx, rng)
	})
}

func (s *Service) load(ctx context.Context, rng domain.DateRange) (Dashboard, error) {
	out := Dashboard{Range: rng}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rev, err := s.source.Revenue(gctx, rng)
		if err != nil {
			return fmt.Errorf("reports: revenue: %w", err)
		}
		out.Revenue = rev
		return nil
	})
	g.Go(func() error {
		rows, err := s.source.TopProducts(gctx, rng, RankingLimit)
		if err != nil {
			return fmt.Errorf("reports: top products: %w", err)
		}
		out.TopProducts = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.source.TopCustomers(gctx, rng, RankingLimit)
		if err != nil {
			return fmt.Errorf("reports: top customers: %w", err)
		}
		out.TopCustomers = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}

// RevenueExcel passes the backend spreadsheet through untouched.
func (s *Service) RevenueExcel(ctx context.Context, rng domain.DateRange) (backend.Download, error) {
	return s.source.RevenueExcel(ctx, rng)
}

// Bump drops every cached dashboard.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// DailySeries spreads revenue over every day of the range, filling days
// without sales with zero.
func DailySeries(d Dashboard) ([]float64, []string) {
	days := d.Range.Days()
	if days <= 0 {
		return nil, nil
	}
	byDay := make(map[string]float64, len(d.Revenue.Points))
	for _, p := range d.Revenue.Points {
		v, _ := p.Revenue.Float64()
		byDay[p.Date.Format(dateLayout)] += v
	}
	values := make([]float64, days)
	labels := make([]string, days)
	for i := 0; i < days; i++ {
		day := d.Range.Start.AddDate(0, 0, i)
		values[i] = byDay[day.Format(dateLayout)]
		labels[i] = day.Format("02/01")
	}
	return values, labels
}
