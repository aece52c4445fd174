package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/buensabor/buensabor-web/internal/domain"
)

// EventOrderStatus is broadcast after a board moves an order.
const EventOrderStatus = "order.status"

// Event is a websocket message sent to board clients.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// StatusChange is the payload of EventOrderStatus.
type StatusChange struct {
	OrderID int64              `json:"order_id"`
	From    domain.OrderStatus `json:"from"`
	To      domain.OrderStatus `json:"to"`
}

type boardEvent struct {
	board Board
	event Event
}

// Hub keeps the connected board clients grouped in one room per board.
type Hub struct {
	logger     *slog.Logger
	rooms      map[Board]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan boardEvent
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates an idle hub; call Run to start it.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		rooms:      make(map[Board]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan boardEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.board] == nil {
				h.rooms[client.board] = make(map[*Client]bool)
			}
			h.rooms[client.board][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
		case msg := <-h.broadcast:
			payload, err := json.Marshal(msg.event)
			if err != nil {
				h.logger.Error("marshal board event", slog.Any("error", err))
				continue
			}
			h.mu.Lock()
			for client := range h.rooms[msg.board] {
				select {
				case client.send <- payload:
				default:
					// Slow client; it reconnects and reloads the board.
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.board]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.board)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.rooms {
		for client := range clients {
			h.drop(client)
		}
	}
}

// Broadcast queues event for every client of board. Events are dropped once
// the hub has stopped.
func (h *Hub) Broadcast(board Board, event Event) {
	select {
	case h.broadcast <- boardEvent{board: board, event: event}:
	case <-h.done:
	}
}

// PublishStatus notifies the boards that showed or now show the order.
func (h *Hub) PublishStatus(change StatusChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		h.logger.Error("marshal status change", slog.Any("error", err))
		return
	}
	event := Event{Type: EventOrderStatus, Payload: payload}
	seen := make(map[Board]bool)
	for _, status := range []domain.OrderStatus{change.From, change.To} {
		for _, board := range BoardsFor(status) {
			if seen[board] {
				continue
			}
			seen[board] = true
			h.Broadcast(board, event)
		}
	}
}

// ClientCount reports the clients connected to board.
func (h *Hub) ClientCount(board Board) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[board])
}
