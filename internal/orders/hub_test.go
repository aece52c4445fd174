package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buensabor/buensabor-web/internal/domain"
)

func mockClient(hub *Hub, board Board) *Client {
	return &Client{hub: hub, board: board, send: make(chan []byte, 8)}
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatalf("no event for %s", c.board)
		return Event{}
	}
}

func TestPublishStatusReachesSourceAndTargetBoards(t *testing.T) {
	hub := runHub(t)
	cashier := mockClient(hub, BoardCashier)
	kitchen := mockClient(hub, BoardKitchen)
	delivery := mockClient(hub, BoardDelivery)
	for _, c := range []*Client{cashier, kitchen, delivery} {
		hub.register <- c
	}

	hub.PublishStatus(StatusChange{OrderID: 9, From: domain.StatusToConfirm, To: domain.StatusInKitchen})

	for _, c := range []*Client{cashier, kitchen} {
		ev := receive(t, c)
		assert.Equal(t, EventOrderStatus, ev.Type)
		var change StatusChange
		require.NoError(t, json.Unmarshal(ev.Payload, &change))
		assert.Equal(t, int64(9), change.OrderID)
		assert.Equal(t, domain.StatusInKitchen, change.To)
	}
	select {
	case <-delivery.send:
		t.Fatalf("delivery board must not be notified")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	hub := runHub(t)
	c := mockClient(hub, BoardKitchen)
	hub.register <- c
	require.Eventually(t, func() bool { return hub.ClientCount(BoardKitchen) == 1 }, time.Second, 10*time.Millisecond)

	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.ClientCount(BoardKitchen) == 0 }, time.Second, 10*time.Millisecond)
	_, open := <-c.send
	assert.False(t, open)
}

func TestServeWSDeliversEvents(t *testing.T) {
	hub := runHub(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, BoardDelivery)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount(BoardDelivery) == 1 }, time.Second, 10*time.Millisecond)

	hub.PublishStatus(StatusChange{OrderID: 4, From: domain.StatusReady, To: domain.StatusInDelivery})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"type":"order.status"`)
	assert.Contains(t, string(msg), `"order_id":4`)
}
