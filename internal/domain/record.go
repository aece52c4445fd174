// Package domain holds the restaurant records exchanged with the REST backend.
package domain

import "github.com/shopspring/decimal"

func init() {
	// The backend validates numeric fields as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Kind tags the entity family an ABM screen manages.
type Kind string

// Entity kinds.
const (
	KindEmployee   Kind = "employee"
	KindClient     Kind = "client"
	KindInventory  Kind = "inventario"
	KindIngredient Kind = "ingrediente"
	KindCategory   Kind = "rubro"
	KindPromotion  Kind = "promotion"
)

// Kinds lists every kind in menu order.
var Kinds = []Kind{KindEmployee, KindClient, KindInventory, KindIngredient, KindCategory, KindPromotion}

// ParseKind validates a kind taken from a URL.
func ParseKind(raw string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == raw {
			return k, true
		}
	}
	return "", false
}

// Title is the human label of the kind.
func (k Kind) Title() string {
	switch k {
	case KindEmployee:
		return "Empleados"
	case KindClient:
		return "Clientes"
	case KindInventory:
		return "Productos"
	case KindIngredient:
		return "Ingredientes"
	case KindCategory:
		return "Rubros"
	case KindPromotion:
		return "Promociones"
	default:
		return string(k)
	}
}

// Record is implemented by every entity an ABM screen lists.
type Record interface {
	Key() int64
	Kind() Kind
	Label() string
}

// ProductType separates the two backend item families.
type ProductType string

// Product types.
const (
	ProductManufactured ProductType = "manufactured"
	ProductInventory    ProductType = "inventory"
)

// CategoryType separates the two backend category families.
type CategoryType string

// Category types.
const (
	CategoryManufactured CategoryType = "manufactured"
	CategoryInventory    CategoryType = "inventory"
)
