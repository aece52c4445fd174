package services

import (
	"context"
	"strconv"

	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/domain"
)

// PurchaseService records stock movements.
type PurchaseService struct {
	client *backend.Client
}

// Create posts an inventory purchase.
func (s *PurchaseService) Create(ctx context.Context, purchase domain.InventoryPurchase) (domain.InventoryPurchase, error) {
	var out domain.InventoryPurchase
	err := s.client.PostJSON(ctx, "/inventory_purchase/", nil, purchase, &out)
	return out, err
}

// AddStock applies a signed delta to an inventory item.
func (s *PurchaseService) AddStock(ctx context.Context, itemID int64, adj domain.StockAdjustment) error {
	return s.client.PostJSON(ctx, "/inventory_purchase/add-stock/"+strconv.FormatInt(itemID, 10), nil, adj, nil)
}
