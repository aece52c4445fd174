package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/buensabor/buensabor-web/internal/domain"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name   string
		order  domain.Order
		want   domain.OrderStatus
		wantOK bool
	}{
		{"confirm", domain.Order{Status: domain.StatusToConfirm}, domain.StatusInKitchen, true},
		{"kitchen", domain.Order{Status: domain.StatusInKitchen}, domain.StatusReady, true},
		{"ready delivery", domain.Order{Status: domain.StatusReady, DeliveryMethod: domain.DeliveryHome}, domain.StatusInDelivery, true},
		{"ready pickup", domain.Order{Status: domain.StatusReady, DeliveryMethod: domain.DeliveryPickup}, domain.StatusDelivered, true},
		{"ready unknown method", domain.Order{Status: domain.StatusReady}, domain.StatusDelivered, true},
		{"on the road", domain.Order{Status: domain.StatusInDelivery, DeliveryMethod: domain.DeliveryHome}, domain.StatusDelivered, true},
		{"delivered", domain.Order{Status: domain.StatusDelivered}, "", false},
		{"cancelled", domain.Order{Status: domain.StatusCancelled}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NextStatus(tc.order)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantOK, CanAdvance(tc.order))
		})
	}
}

func TestBoardsShowTheirStatuses(t *testing.T) {
	assert.Equal(t, []Board{BoardCashier}, BoardsFor(domain.StatusToConfirm))
	assert.Equal(t, []Board{BoardKitchen}, BoardsFor(domain.StatusInKitchen))
	assert.Equal(t, []Board{BoardCashier}, BoardsFor(domain.StatusReady))
	assert.Equal(t, []Board{BoardDelivery}, BoardsFor(domain.StatusInDelivery))
	assert.Empty(t, BoardsFor(domain.StatusDelivered))

	b, ok := ParseBoard("kitchen")
	assert.True(t, ok)
	assert.Equal(t, BoardKitchen, b)
	_, ok = ParseBoard("bar")
	assert.False(t, ok)
}

func TestAdvanceLabelFollowsDeliveryMethod(t *testing.T) {
	assert.Equal(t, "Entregar al repartidor", AdvanceLabel(domain.Order{Status: domain.StatusReady, DeliveryMethod: domain.DeliveryHome}))
	assert.Equal(t, "Marcar entregado", AdvanceLabel(domain.Order{Status: domain.StatusReady, DeliveryMethod: domain.DeliveryPickup}))
	assert.Empty(t, AdvanceLabel(domain.Order{Status: domain.StatusDelivered}))
}

func TestOnlyPreparingOrdersAcceptDelay(t *testing.T) {
	assert.True(t, AllowsDelay(domain.Order{Status: domain.StatusInKitchen}))
	assert.True(t, AllowsDelay(domain.Order{Status: domain.StatusToConfirm}))
	assert.False(t, AllowsDelay(domain.Order{Status: domain.StatusReady}))
}
