package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/domain"
)

const reportDateLayout = "2006-01-02"

// ReportService reads the financial reports.
type ReportService struct {
	client *backend.Client
}

func rangeQuery(r domain.DateRange) url.Values {
	return url.Values{
		"start_date": {r.Start.Format(reportDateLayout)},
		"end_date":   {r.End.Format(reportDateLayout)},
	}
}

// Revenue returns revenue for the range.
func (s *ReportService) Revenue(ctx context.Context, r domain.DateRange) (domain.RevenueReport, error) {
	var out domain.RevenueReport
	err := s.client.GetJSON(ctx, "/reports/revenue", rangeQuery(r), &out)
	return out, err
}

// TopProducts returns the best selling products.
func (s *ReportService) TopProducts(ctx context.Context, r domain.DateRange, limit int) ([]domain.TopProduct, error) {
	return ranking[domain.TopProduct](ctx, s.client, "/reports/top-products", r, limit)
}

// TopCustomers returns the customers with the highest spend.
func (s *ReportService) TopCustomers(ctx context.Context, r domain.DateRange, limit int) ([]domain.TopCustomer, error) {
	return ranking[domain.TopCustomer](ctx, s.client, "/reports/top-customers", r, limit)
}

// RevenueExcel downloads the backend-generated spreadsheet.
func (s *ReportService) RevenueExcel(ctx context.Context, r domain.DateRange) (backend.Download, error) {
	return s.client.Download(ctx, "/reports/revenue/excel", rangeQuery(r))
}

func ranking[T any](ctx context.Context, c *backend.Client, path string, r domain.DateRange, limit int) ([]T, error) {
	query := rangeQuery(r)
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	page, err := backend.DecodePage[T](body)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}
