package domain

import "github.com/shopspring/decimal"

// ItemRef is the short form of an inventory item embedded in other records.
type ItemRef struct {
	IDKey int64  `json:"id_key"`
	Name  string `json:"name"`
}

// ItemDetail is one bill-of-materials row of a manufactured item.
type ItemDetail struct {
	InventoryItemID int64           `json:"inventory_item_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	InventoryItem   *ItemRef        `json:"inventory_item,omitempty"`
}

// Product is a sellable item. ProductType tells which backend family owns it:
// manufactured items carry a recipe, inventory items carry stock.
type Product struct {
	IDKey       int64            `json:"id_key"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	ImageURL    string           `json:"image_url,omitempty"`
	Active      bool             `json:"active"`
	CategoryID  int64            `json:"category_id,omitempty"`
	Category    *Category        `json:"category,omitempty"`
	ProductType ProductType      `json:"product_type,omitempty"`
	Unit        *MeasurementUnit `json:"measurement_unit,omitempty"`
	UnitID      int64            `json:"measurement_unit_id,omitempty"`

	CurrentStock decimal.Decimal `json:"current_stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	PurchaseCost decimal.Decimal `json:"purchase_cost"`

	PreparationTime int          `json:"preparation_time,omitempty"`
	Recipe          string       `json:"recipe,omitempty"`
	Details         []ItemDetail `json:"details,omitempty"`
}

// Key implements Record.
func (p Product) Key() int64 { return p.IDKey }

// Kind implements Record.
func (Product) Kind() Kind { return KindInventory }

// Label implements Record.
func (p Product) Label() string { return p.Name }

// IsInventory reports whether the product is stock-tracked.
func (p Product) IsInventory() bool { return p.ProductType == ProductInventory }

// LowStock reports whether stock fell to or below the minimum.
func (p Product) LowStock() bool {
	return p.IsInventory() && p.CurrentStock.LessThanOrEqual(p.MinimumStock)
}

// Ingredient is a raw inventory item consumed by recipes.
type Ingredient struct {
	IDKey        int64            `json:"id_key"`
	Name         string           `json:"name"`
	CurrentStock decimal.Decimal  `json:"current_stock"`
	MinimumStock decimal.Decimal  `json:"minimum_stock"`
	Price        decimal.Decimal  `json:"price"`
	PurchaseCost decimal.Decimal  `json:"purchase_cost"`
	UnitID       int64            `json:"measurement_unit_id,omitempty"`
	Unit         *MeasurementUnit `json:"measurement_unit,omitempty"`
	CategoryID   int64            `json:"category_id,omitempty"`
	Category     *Category        `json:"category,omitempty"`
	ImageURL     string           `json:"image_url,omitempty"`
	Active       bool             `json:"active"`
}

// Key implements Record.
func (i Ingredient) Key() int64 { return i.IDKey }

// Kind implements Record.
func (Ingredient) Kind() Kind { return KindIngredient }

// Label implements Record.
func (i Ingredient) Label() string { return i.Name }

// LowStock reports whether stock fell to or below the minimum.
func (i Ingredient) LowStock() bool { return i.CurrentStock.LessThanOrEqual(i.MinimumStock) }

// InventoryItemInput is the payload of /inventory_item/ create and update.
type InventoryItemInput struct {
	Name         string          `json:"name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	Price        decimal.Decimal `json:"price"`
	PurchaseCost decimal.Decimal `json:"purchase_cost"`
	UnitID       int64           `json:"measurement_unit_id"`
	CategoryID   int64           `json:"category_id"`
	ImageURL     string          `json:"image_url,omitempty"`
	Active       bool            `json:"active"`
	IsIngredient bool            `json:"is_ingredient"`
}

// ManufacturedItemInput is the payload of /manufactured_item/ create and update.
type ManufacturedItemInput struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	PreparationTime int             `json:"preparation_time"`
	Price           decimal.Decimal `json:"price"`
	ImageURL        string          `json:"image_url,omitempty"`
	Recipe          string          `json:"recipe"`
	Active          bool            `json:"active"`
	CategoryID      int64           `json:"category_id"`
	Details         []ItemDetail    `json:"details"`
}

// InventoryPurchase records stock entering the restaurant.
type InventoryPurchase struct {
	IDKey           int64           `json:"id_key,omitempty"`
	InventoryItemID int64           `json:"inventory_item_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	Notes           string          `json:"notes"`
	PurchaseDate    Timestamp       `json:"purchase_date"`
}

// StockAdjustment is a signed stock delta posted to /inventory_purchase/add-stock/{id}.
type StockAdjustment struct {
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Notes    string          `json:"notes,omitempty"`
}
