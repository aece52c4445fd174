package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/services"
	"github.com/buensabor/buensabor-web/internal/shared"
)

// BoardPageSize bounds each board column.
const BoardPageSize = 20

// Delay bounds in minutes.
const (
	MinDelay = 1
	MaxDelay = 120
)

var (
	// ErrNotOnBoard means the order moved away from the board that tried to act on it.
	ErrNotOnBoard = errors.New("orders: order is not on this board")
	// ErrFinalStatus means the order cannot advance any further.
	ErrFinalStatus = errors.New("orders: order has no next status")
)

// Publisher receives status changes for live boards.
type Publisher interface {
	PublishStatus(change StatusChange)
}

// TransitionRecorder counts applied transitions.
type TransitionRecorder interface {
	OrderTransition(to string)
}

// CacheInvalidator drops cached reports once sales change.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service reads board columns and applies transitions.
type Service struct {
	orders    *services.OrderService
	publisher Publisher
	metrics   TransitionRecorder
	reports   CacheInvalidator
	logger    *slog.Logger
}

// NewService wires the order flow. publisher, metrics and reports may be nil.
func NewService(orders *services.OrderService, publisher Publisher, metrics TransitionRecorder, reports CacheInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orders: orders, publisher: publisher, metrics: metrics, reports: reports, logger: logger}
}

// Column is one status of a board with its orders.
type Column struct {
	Status     domain.OrderStatus `json:"status"`
	Label      string             `json:"label"`
	Orders     []domain.Order     `json:"orders"`
	Pagination shared.Pagination  `json:"pagination"`
	Error      string             `json:"error,omitempty"`
}

// Columns loads every status of board in parallel. A failing column carries
// its message; only a 401 aborts the whole board.
func (s *Service) Columns(ctx context.Context, board Board, page int) ([]Column, error) {
	statuses := board.Statuses()
	columns := make([]Column, len(statuses))
	g, gctx := errgroup.WithContext(ctx)
	offset := shared.NewPagination(page, BoardPageSize, 0, false).Offset()
	for i, status := range statuses {
		g.Go(func() error {
			col := Column{Status: status, Label: status.Label()}
			res, err := s.orders.ListByStatus(gctx, status, offset, BoardPageSize)
			if err != nil {
				if errors.Is(err, shared.ErrUnauthorized) {
					return err
				}
				s.logger.Warn("load board column", slog.String("status", string(status)), slog.Any("error", err))
				col.Error = shared.UserMessage(err, "No pudimos cargar los pedidos.")
				col.Pagination = shared.NewPagination(page, BoardPageSize, 0, false)
				columns[i] = col
				return nil
			}
			col.Orders = res.Data
			col.Pagination = paginationFor(page, res)
			columns[i] = col
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return columns, nil
}

func paginationFor(page int, res backend.Page[domain.Order]) shared.Pagination {
	return shared.NewPagination(page, BoardPageSize, res.Total, res.HasNext)
}

// Get fetches a single order.
func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// Advance moves the order one step. The current status is re-read so a
// stale board cannot skip a step or move an order another board owns.
func (s *Service) Advance(ctx context.Context, board Board, id int64) (domain.Order, error) {
	current, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !board.Shows(current.Status) {
		return current, ErrNotOnBoard
	}
	next, ok := NextStatus(current)
	if !ok {
		return current, ErrFinalStatus
	}
	updated, err := s.orders.UpdateStatus(ctx, id, next)
	if err != nil {
		return current, fmt.Errorf("orders: advance %d to %s: %w", id, next, err)
	}
	if updated.IDKey == 0 {
		updated = current
		updated.Status = next
	}
	s.afterTransition(ctx, current.Status, updated)
	return updated, nil
}

// Delay extends the estimated time of an order still in preparation.
func (s *Service) Delay(ctx context.Context, board Board, id int64, minutes int) (domain.Order, error) {
	if minutes < MinDelay || minutes > MaxDelay {
		return domain.Order{}, shared.NewValidationError("delay_minutes", fmt.Sprintf("La demora debe estar entre %d y %d minutos.", MinDelay, MaxDelay))
	}
	current, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !board.Shows(current.Status) || !AllowsDelay(current) {
		return current, ErrNotOnBoard
	}
	updated, err := s.orders.AddDelay(ctx, id, minutes)
	if err != nil {
		return current, fmt.Errorf("orders: delay %d: %w", id, err)
	}
	if s.publisher != nil {
		s.publisher.PublishStatus(StatusChange{OrderID: id, From: current.Status, To: current.Status})
	}
	return updated, nil
}

func (s *Service) afterTransition(ctx context.Context, from domain.OrderStatus, o domain.Order) {
	if s.metrics != nil {
		s.metrics.OrderTransition(string(o.Status))
	}
	if s.publisher != nil {
		s.publisher.PublishStatus(StatusChange{OrderID: o.IDKey, From: from, To: o.Status})
	}
	if o.Status == domain.StatusDelivered && s.reports != nil {
		if err := s.reports.Bump(ctx); err != nil {
			s.logger.Warn("bump report cache", slog.Any("error", err))
		}
	}
}
