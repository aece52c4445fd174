package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses in flow order.
const (
	StatusToConfirm  OrderStatus = "a_confirmar"
	StatusInKitchen  OrderStatus = "en_cocina"
	StatusReady      OrderStatus = "listo"
	StatusInDelivery OrderStatus = "en_delivery"
	StatusDelivered  OrderStatus = "entregado"
	StatusCancelled  OrderStatus = "cancelado"
)

// Label is the human label of the status.
func (s OrderStatus) Label() string {
	switch s {
	case StatusToConfirm:
		return "A confirmar"
	case StatusInKitchen:
		return "En cocina"
	case StatusReady:
		return "Listo"
	case StatusInDelivery:
		return "En delivery"
	case StatusDelivered:
		return "Entregado"
	case StatusCancelled:
		return "Cancelado"
	default:
		return string(s)
	}
}

// Delivery methods.
const (
	DeliveryHome   = "delivery"
	DeliveryPickup = "pickup"
)

// Timestamp accepts the date layouts the backend emits, with or without zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unsupported layout %q", raw)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// OrderDetail is a manufactured line of an order.
type OrderDetail struct {
	IDKey              int64           `json:"id_key,omitempty"`
	ManufacturedItemID int64           `json:"manufactured_item_id"`
	Quantity           int             `json:"quantity"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ManufacturedItem   *ItemRef        `json:"manufactured_item,omitempty"`
}

// OrderInventoryDetail is a stocked-product line of an order.
type OrderInventoryDetail struct {
	IDKey           int64           `json:"id_key,omitempty"`
	InventoryItemID int64           `json:"inventory_item_id"`
	Quantity        int             `json:"quantity"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	InventoryItem   *ItemRef        `json:"inventory_item,omitempty"`
}

// Order is read and transitioned from the boards; created elsewhere.
type Order struct {
	IDKey            int64                  `json:"id_key"`
	Status           OrderStatus            `json:"status"`
	DeliveryMethod   string                 `json:"delivery_method"`
	PaymentMethod    string                 `json:"payment_method"`
	IsPaid           bool                   `json:"is_paid"`
	Total            decimal.Decimal        `json:"total"`
	Discount         decimal.Decimal        `json:"discount"`
	FinalTotal       decimal.Decimal        `json:"final_total"`
	Notes            string                 `json:"notes,omitempty"`
	Date             Timestamp              `json:"date"`
	EstimatedTime    int                    `json:"estimated_time"`
	Details          []OrderDetail          `json:"details"`
	InventoryDetails []OrderInventoryDetail `json:"inventory_details"`
	User             *User                  `json:"user,omitempty"`
	Address          *Address               `json:"address,omitempty"`
}

// IsDelivery reports whether the order goes through the delivery board.
func (o Order) IsDelivery() bool { return o.DeliveryMethod == DeliveryHome }

// ItemCount sums the quantities of both line kinds.
func (o Order) ItemCount() int {
	n := 0
	for _, d := range o.Details {
		n += d.Quantity
	}
	for _, d := range o.InventoryDetails {
		n += d.Quantity
	}
	return n
}

// ReadyAt estimates when the kitchen finishes the order.
func (o Order) ReadyAt() time.Time {
	if o.Date.IsZero() {
		return time.Time{}
	}
	return o.Date.Add(time.Duration(o.EstimatedTime) * time.Minute)
}
