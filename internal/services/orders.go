package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/domain"
)

// OrderService reads and transitions orders.
type OrderService struct {
	client *backend.Client
}

func orderPath(id int64) string {
	return "/order/" + strconv.FormatInt(id, 10)
}

// ListByStatus returns one page of orders in status.
func (s *OrderService) ListByStatus(ctx context.Context, status domain.OrderStatus, offset, limit int) (backend.Page[domain.Order], error) {
	return backend.List[domain.Order](ctx, s.client, "/order/status/"+url.PathEscape(string(status)), offset, limit, nil)
}

// Get fetches a single order.
func (s *OrderService) Get(ctx context.Context, id int64) (domain.Order, error) {
	var out domain.Order
	err := s.client.GetJSON(ctx, orderPath(id), nil, &out)
	return out, err
}

// UpdateStatus moves the order to status.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (domain.Order, error) {
	var out domain.Order
	query := url.Values{"status": {string(status)}}
	err := s.client.PutJSON(ctx, orderPath(id)+"/status", query, nil, &out)
	return out, err
}

// AddDelay extends the estimated preparation time.
func (s *OrderService) AddDelay(ctx context.Context, id int64, minutes int) (domain.Order, error) {
	var out domain.Order
	query := url.Values{"delay_minutes": {strconv.Itoa(minutes)}}
	err := s.client.PutJSON(ctx, orderPath(id)+"/add-delay", query, nil, &out)
	return out, err
}
