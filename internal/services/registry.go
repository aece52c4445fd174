package services

import (
	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/domain"
)

// Registry bundles every service module over a single client.
type Registry struct {
	Employees              Resource[domain.Employee, domain.UserInput]
	Clients                Resource[domain.Client, domain.UserInput]
	Ingredients            Resource[domain.Ingredient, domain.InventoryItemInput]
	InventoryProducts      Resource[domain.Product, domain.InventoryItemInput]
	ManufacturedItems      Resource[domain.Product, domain.ManufacturedItemInput]
	ManufacturedCategories Resource[domain.Category, domain.CategoryInput]
	InventoryCategories    Resource[domain.Category, domain.CategoryInput]
	Promotions             Resource[domain.Promotion, domain.PromotionInput]
	Units                  Resource[domain.MeasurementUnit, domain.MeasurementUnit]

	Purchases *PurchaseService
	Orders    *OrderService
	Addresses *AddressService
	Reports   *ReportService
	Profile   *ProfileService
}

// NewRegistry wires the fixed backend paths.
func NewRegistry(client *backend.Client) *Registry {
	return &Registry{
		Employees: NewResource[domain.Employee, domain.UserInput](client, Paths{
			List: "/user/employees/all", Create: "/user/employees", Item: "/user",
		}),
		Clients: NewResource[domain.Client, domain.UserInput](client, Paths{
			List: "/user/clients/all", Create: "/user/clients", Item: "/user",
		}),
		Ingredients: NewResource[domain.Ingredient, domain.InventoryItemInput](client, Paths{
			List: "/inventory_item/ingredients", Create: "/inventory_item/", Item: "/inventory_item",
		}),
		InventoryProducts: NewResource[domain.Product, domain.InventoryItemInput](client, Paths{
			List: "/inventory_item/products", Create: "/inventory_item/", Item: "/inventory_item",
		}),
		ManufacturedItems: NewResource[domain.Product, domain.ManufacturedItemInput](client, Paths{
			List: "/manufactured_item/", Create: "/manufactured_item/", Item: "/manufactured_item",
		}),
		ManufacturedCategories: NewResource[domain.Category, domain.CategoryInput](client, Paths{
			List: "/manufactured_item_category/", Create: "/manufactured_item_category/", Item: "/manufactured_item_category",
		}),
		InventoryCategories: NewResource[domain.Category, domain.CategoryInput](client, Paths{
			List: "/inventory_item_category/", Create: "/inventory_item_category/", Item: "/inventory_item_category",
		}),
		Promotions: NewResource[domain.Promotion, domain.PromotionInput](client, Paths{
			List: "/promotion/", Create: "/promotion/", Item: "/promotion",
		}),
		Units: NewResource[domain.MeasurementUnit, domain.MeasurementUnit](client, Paths{
			List: "/measurement_unit/", Create: "/measurement_unit/", Item: "/measurement_unit",
		}),
		Purchases: &PurchaseService{client: client},
		Orders:    &OrderService{client: client},
		Addresses: &AddressService{client: client},
		Reports:   &ReportService{client: client},
		Profile:   &ProfileService{client: client},
	}
}
