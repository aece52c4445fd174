// Package orders drives the kitchen, cashier and delivery boards: the status
// flow, the board pages, live updates over websockets and the order ticket.
package orders

import (
	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/shared"
)

// NextStatus returns the status the order moves to when advanced. Pickup
// orders skip the delivery leg. The second value is false for final states.
func NextStatus(o domain.Order) (domain.OrderStatus, bool) {
	switch o.Status {
	case domain.StatusToConfirm:
		return domain.StatusInKitchen, true
	case domain.StatusInKitchen:
		return domain.StatusReady, true
	case domain.StatusReady:
		if o.IsDelivery() {
			return domain.StatusInDelivery, true
		}
		return domain.StatusDelivered, true
	case domain.StatusInDelivery:
		return domain.StatusDelivered, true
	default:
		return "", false
	}
}

// CanAdvance reports whether the order has a next status.
func CanAdvance(o domain.Order) bool {
	_, ok := NextStatus(o)
	return ok
}

// AdvanceLabel is the button caption for advancing the order.
func AdvanceLabel(o domain.Order) string {
	next, ok := NextStatus(o)
	if !ok {
		return ""
	}
	switch next {
	case domain.StatusInKitchen:
		return "Confirmar y enviar a cocina"
	case domain.StatusReady:
		return "Marcar listo"
	case domain.StatusInDelivery:
		return "Entregar al repartidor"
	case domain.StatusDelivered:
		return "Marcar entregado"
	default:
		return next.Label()
	}
}

// Board is one of the staff order boards.
type Board string

// Boards.
const (
	BoardCashier  Board = "cashier"
	BoardKitchen  Board = "kitchen"
	BoardDelivery Board = "delivery"
)

// Boards lists every board in navigation order.
var Boards = []Board{BoardCashier, BoardKitchen, BoardDelivery}

// ParseBoard validates a board name taken from a URL.
func ParseBoard(raw string) (Board, bool) {
	for _, b := range Boards {
		if string(b) == raw {
			return b, true
		}
	}
	return "", false
}

// Statuses are the order columns shown on the board.
func (b Board) Statuses() []domain.OrderStatus {
	switch b {
	case BoardCashier:
		return []domain.OrderStatus{domain.StatusToConfirm, domain.StatusReady}
	case BoardKitchen:
		return []domain.OrderStatus{domain.StatusInKitchen}
	case BoardDelivery:
		return []domain.OrderStatus{domain.StatusInDelivery}
	default:
		return nil
	}
}

// Shows reports whether orders in status appear on the board.
func (b Board) Shows(status domain.OrderStatus) bool {
	for _, s := range b.Statuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Roles are allowed to open the board. Administrators open every board.
func (b Board) Roles() []string {
	switch b {
	case BoardCashier:
		return []string{shared.RoleAdmin, shared.RoleCashier}
	case BoardKitchen:
		return []string{shared.RoleAdmin, shared.RoleCook, shared.RoleCashier}
	case BoardDelivery:
		return []string{shared.RoleAdmin, shared.RoleDelivery, shared.RoleCashier}
	default:
		return []string{shared.RoleAdmin}
	}
}

// Title is the page heading of the board.
func (b Board) Title() string {
	switch b {
	case BoardCashier:
		return "Caja"
	case BoardKitchen:
		return "Cocina"
	case BoardDelivery:
		return "Delivery"
	default:
		return string(b)
	}
}

// Path is the board location.
func (b Board) Path() string { return "/boards/" + string(b) }

// BoardsFor lists the boards that display an order in status.
func BoardsFor(status domain.OrderStatus) []Board {
	var out []Board
	for _, b := range Boards {
		if b.Shows(status) {
			out = append(out, b)
		}
	}
	return out
}

// AllowsDelay reports whether the board may extend the preparation time.
// Only orders still being prepared can be delayed.
func AllowsDelay(o domain.Order) bool {
	return o.Status == domain.StatusToConfirm || o.Status == domain.StatusInKitchen
}
