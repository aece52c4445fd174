package domain

import "github.com/shopspring/decimal"

// PromotionManufacturedDetail is a manufactured item bundled in a promotion.
type PromotionManufacturedDetail struct {
	ManufacturedItemID int64    `json:"manufactured_item_id"`
	Quantity           int      `json:"quantity"`
	ManufacturedItem   *ItemRef `json:"manufactured_item,omitempty"`
}

// PromotionInventoryDetail is an inventory item bundled in a promotion.
type PromotionInventoryDetail struct {
	InventoryItemID int64    `json:"inventory_item_id"`
	Quantity        int      `json:"quantity"`
	InventoryItem   *ItemRef `json:"inventory_item,omitempty"`
}

// Promotion is a discounted bundle.
type Promotion struct {
	IDKey                   int64                         `json:"id_key"`
	Name                    string                        `json:"name"`
	Description             string                        `json:"description"`
	DiscountPercentage      decimal.Decimal               `json:"discount_percentage"`
	Active                  bool                          `json:"active"`
	ManufacturedItemDetails []PromotionManufacturedDetail `json:"manufactured_item_details"`
	InventoryItemDetails    []PromotionInventoryDetail    `json:"inventory_item_details"`
}

// Key implements Record.
func (p Promotion) Key() int64 { return p.IDKey }

// Kind implements Record.
func (Promotion) Kind() Kind { return KindPromotion }

// Label implements Record.
func (p Promotion) Label() string { return p.Name }

// PromotionInput is the create/update payload for promotions.
type PromotionInput struct {
	Name                    string                        `json:"name"`
	Description             string                        `json:"description"`
	DiscountPercentage      decimal.Decimal               `json:"discount_percentage"`
	Active                  bool                          `json:"active"`
	ManufacturedItemDetails []PromotionManufacturedDetail `json:"manufactured_item_details"`
	InventoryItemDetails    []PromotionInventoryDetail    `json:"inventory_item_details"`
}
