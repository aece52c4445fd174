package abm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/buensabor/buensabor-web/internal/backend"
	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/services"
	"github.com/buensabor/buensabor-web/internal/shared"
)

// ItemsPerPage is the ABM page size.
const ItemsPerPage = shared.DefaultPerPage

// Parent labels shown in the merged category listing.
const (
	ParentNotFound = "Categoría padre no encontrada"
	NoParent       = "Sin categoría padre"
)

// ErrRowNotLoaded is returned when an action names a row missing from the current page.
var ErrRowNotLoaded = errors.New("abm: row not in current page")

// ListResult is one rendered page of a kind.
type ListResult struct {
	Kind       domain.Kind
	Rows       []domain.Record
	Pagination shared.Pagination
	Search     string
	// Error is the display message of a failed load; Rows is then empty.
	Error string
	Cause error
}

// Empty reports whether the page has no rows.
func (r ListResult) Empty() bool { return len(r.Rows) == 0 }

// Find scans the loaded rows for id. A non-empty discriminator also has to match
// the row's product or category type.
func (r ListResult) Find(id int64, discriminator string) (domain.Record, bool) {
	for _, row := range r.Rows {
		if row.Key() != id {
			continue
		}
		if discriminator == "" || Discriminator(row) == discriminator {
			return row, true
		}
	}
	return nil, false
}

// Discriminator returns the product or category family of a merged row.
func Discriminator(rec domain.Record) string {
	switch r := rec.(type) {
	case domain.Product:
		return string(r.ProductType)
	case domain.Category:
		return string(r.CategoryType)
	default:
		return ""
	}
}

// ListController loads ABM pages from the backend.
type ListController struct {
	registry *services.Registry
	logger   *slog.Logger
}

// NewListController constructs a ListController.
func NewListController(registry *services.Registry, logger *slog.Logger) *ListController {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListController{registry: registry, logger: logger}
}

// Load fetches page of kind. A page past the end falls back to the last one.
// Failures are reported on the result, never panicked.
func (c *ListController) Load(ctx context.Context, kind domain.Kind, page int, search string) ListResult {
	pager := shared.NewPagination(page, ItemsPerPage, 0, false)
	res := ListResult{Kind: kind, Search: search, Rows: []domain.Record{}}

	var (
		rows    []domain.Record
		total   int
		hasNext bool
		err     error
	)
	offset, limit := pager.Offset(), pager.PerPage
	switch kind {
	case domain.KindEmployee:
		rows, total, hasNext, err = fetch(ctx, c.registry.Employees.List, offset, limit, search)
	case domain.KindClient:
		rows, total, hasNext, err = fetch(ctx, c.registry.Clients.List, offset, limit, search)
	case domain.KindIngredient:
		rows, total, hasNext, err = fetch(ctx, c.registry.Ingredients.List, offset, limit, search)
	case domain.KindPromotion:
		rows, total, hasNext, err = fetch(ctx, c.registry.Promotions.List, offset, limit, search)
	case domain.KindCategory:
		var merged backend.Page[domain.Category]
		merged, err = c.loadCategories(ctx, offset, limit, search)
		rows, total, hasNext = records(merged.Data), merged.Total, merged.HasNext
	case domain.KindInventory:
		var merged backend.Page[domain.Product]
		merged, err = c.loadProducts(ctx, offset, limit, search)
		rows, total, hasNext = records(merged.Data), merged.Total, merged.HasNext
	default:
		err = fmt.Errorf("abm: unknown kind %q", kind)
	}

	if err != nil {
		c.logger.Warn("abm list failed", slog.String("kind", string(kind)), slog.Any("error", err))
		res.Cause = err
		res.Error = shared.UserMessage(err, "No se pudieron cargar los datos.")
		res.Pagination = pager
		return res
	}
	res.Rows = rows
	res.Pagination = shared.NewPagination(pager.Page, ItemsPerPage, total, hasNext)
	if last := res.Pagination.GoTo(pager.Page); last < pager.Page && len(rows) == 0 {
		return c.Load(ctx, kind, last, search)
	}
	return res
}

func fetch[T domain.Record](ctx context.Context, list func(context.Context, int, int, string) (backend.Page[T], error), offset, limit int, search string) ([]domain.Record, int, bool, error) {
	page, err := list(ctx, offset, limit, search)
	if err != nil {
		return nil, 0, false, err
	}
	return records(page.Data), page.Total, page.HasNext, nil
}

func records[T domain.Record](items []T) []domain.Record {
	out := make([]domain.Record, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

func (c *ListController) loadCategories(ctx context.Context, offset, limit int, search string) (backend.Page[domain.Category], error) {
	var manufactured, inventory backend.Page[domain.Category]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		manufactured, err = c.registry.ManufacturedCategories.List(gctx, offset, limit, search)
		return err
	})
	g.Go(func() (err error) {
		inventory, err = c.registry.InventoryCategories.List(gctx, offset, limit, search)
		return err
	})
	if err := g.Wait(); err != nil {
		return backend.Page[domain.Category]{}, err
	}
	return MergeCategories(manufactured, inventory), nil
}

func (c *ListController) loadProducts(ctx context.Context, offset, limit int, search string) (backend.Page[domain.Product], error) {
	var manufactured, inventory backend.Page[domain.Product]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		manufactured, err = c.registry.ManufacturedItems.List(gctx, offset, limit, search)
		return err
	})
	g.Go(func() (err error) {
		inventory, err = c.registry.InventoryProducts.List(gctx, offset, limit, search)
		return err
	})
	if err := g.Wait(); err != nil {
		return backend.Page[domain.Product]{}, err
	}
	return MergeProducts(manufactured, inventory), nil
}

// MergeCategories concatenates both category families, tags each row and
// resolves the parent name against the merged rows.
func MergeCategories(manufactured, inventory backend.Page[domain.Category]) backend.Page[domain.Category] {
	rows := make([]domain.Category, 0, len(manufactured.Data)+len(inventory.Data))
	for _, c := range manufactured.Data {
		c.CategoryType = domain.CategoryManufactured
		rows = append(rows, c)
	}
	for _, c := range inventory.Data {
		c.CategoryType = domain.CategoryInventory
		rows = append(rows, c)
	}
	for i := range rows {
		rows[i].ParentCategoryName = parentName(rows[i], rows)
	}
	return backend.Page[domain.Category]{
		Data:    rows,
		Total:   manufactured.Total + inventory.Total,
		HasNext: manufactured.HasNext || inventory.HasNext,
	}
}

// parentName prefers a parent of the same family since ids overlap across families.
func parentName(c domain.Category, rows []domain.Category) string {
	if c.IsTopLevel() {
		return NoParent
	}
	fallback := ""
	for _, candidate := range rows {
		if candidate.IDKey != *c.ParentID {
			continue
		}
		if candidate.CategoryType == c.CategoryType {
			return candidate.Name
		}
		if fallback == "" {
			fallback = candidate.Name
		}
	}
	if fallback != "" {
		return fallback
	}
	return ParentNotFound
}

// MergeProducts concatenates manufactured and inventory products, tagging each row.
func MergeProducts(manufactured, inventory backend.Page[domain.Product]) backend.Page[domain.Product] {
	rows := make([]domain.Product, 0, len(manufactured.Data)+len(inventory.Data))
	for _, p := range manufactured.Data {
		p.ProductType = domain.ProductManufactured
		rows = append(rows, p)
	}
	for _, p := range inventory.Data {
		p.ProductType = domain.ProductInventory
		rows = append(rows, p)
	}
	return backend.Page[domain.Product]{
		Data:    rows,
		Total:   manufactured.Total + inventory.Total,
		HasNext: manufactured.HasNext || inventory.HasNext,
	}
}

// Delete removes the row id of kind. Merged kinds are routed by the row found
// in the loaded page.
func (c *ListController) Delete(ctx context.Context, kind domain.Kind, id int64, discriminator string, loaded ListResult) error {
	switch kind {
	case domain.KindEmployee:
		return c.registry.Employees.Delete(ctx, id)
	case domain.KindClient:
		return c.registry.Clients.Delete(ctx, id)
	case domain.KindIngredient:
		return c.registry.Ingredients.Delete(ctx, id)
	case domain.KindPromotion:
		return c.registry.Promotions.Delete(ctx, id)
	}

	row, ok := loaded.Find(id, discriminator)
	if !ok {
		return ErrRowNotLoaded
	}
	switch r := row.(type) {
	case domain.Product:
		if r.IsInventory() {
			return c.registry.InventoryProducts.Delete(ctx, id)
		}
		return c.registry.ManufacturedItems.Delete(ctx, id)
	case domain.Category:
		if r.CategoryType == domain.CategoryInventory {
			return c.registry.InventoryCategories.Delete(ctx, id)
		}
		return c.registry.ManufacturedCategories.Delete(ctx, id)
	}
	return fmt.Errorf("abm: cannot delete %s", kind)
}
