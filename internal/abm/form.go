package abm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/buensabor/buensabor-web/internal/domain"
)

// ErrBadPath is returned by Draft.Set for malformed row paths.
var ErrBadPath = errors.New("abm: bad field path")

// Row collections addressable through Draft.Set.
const (
	RowsDetails      = "details"
	RowsIngredients  = "ingredients"
	RowsManufactured = "manufactured_item_details"
	RowsInventory    = "inventory_item_details"
)

// DetailRow is one editable line of a recipe or promotion.
type DetailRow struct {
	TempID   string
	ItemID   int64
	Quantity string
}

// Draft is the editable state of the modal form. Plain values are kept as
// the strings the browser posts; line items are kept as rows.
type Draft struct {
	Kind     domain.Kind
	ID       int64
	Original domain.Record
	Values   map[string]string
	// Details are recipe lines of manufactured items.
	Details []DetailRow
	// PromoManufactured and PromoInventory are the promotion bundles.
	PromoManufactured []DetailRow
	PromoInventory    []DetailRow
	Selection         CategorySelection
	Errors            map[string]string
}

var defaults = map[domain.Kind]map[string]string{
	domain.KindEmployee: {
		"full_name": "", "email": "", "phone_number": "", "role": "", "password": "", "confirm_password": "", "active": "true",
	},
	domain.KindClient: {
		"full_name": "", "email": "", "phone_number": "", "password": "", "confirm_password": "", "active": "true",
	},
	domain.KindInventory: {
		"product_type": string(domain.ProductManufactured), "name": "", "description": "", "price": "0",
		"preparation_time": "0", "recipe": "", "current_stock": "0", "minimum_stock": "0", "purchase_cost": "0",
		"measurement_unit_id": "", "category_id": "", "image_url": "", "active": "true",
	},
	domain.KindIngredient: {
		"name": "", "current_stock": "0", "minimum_stock": "0", "price": "0", "purchase_cost": "0",
		"measurement_unit_id": "", "category_id": "", "image_url": "", "active": "true",
	},
	domain.KindCategory: {
		"category_type": string(domain.CategoryManufactured), "name": "", "description": "", "parent_id": "", "active": "true",
	},
	domain.KindPromotion: {
		"name": "", "description": "", "discount_percentage": "0", "active": "true",
	},
}

// NewDraft builds the form state for kind. A nil record yields the creation
// defaults; otherwise the record is cloned with nested references flattened.
func NewDraft(kind domain.Kind, rec domain.Record) *Draft {
	d := &Draft{Kind: kind, Values: make(map[string]string), Errors: make(map[string]string)}
	for k, v := range defaults[kind] {
		d.Values[k] = v
	}
	if rec == nil {
		return d
	}
	d.ID = rec.Key()
	d.Original = rec

	switch r := rec.(type) {
	case domain.Employee:
		d.fromUser(r.User)
	case domain.Client:
		d.fromUser(r.User)
	case domain.Product:
		d.Values["product_type"] = string(r.ProductType)
		if r.ProductType == "" {
			d.Values["product_type"] = string(domain.ProductManufactured)
		}
		d.Values["name"] = r.Name
		d.Values["description"] = r.Description
		d.Values["price"] = r.Price.String()
		d.Values["preparation_time"] = strconv.Itoa(r.PreparationTime)
		d.Values["recipe"] = r.Recipe
		d.Values["current_stock"] = r.CurrentStock.String()
		d.Values["minimum_stock"] = r.MinimumStock.String()
		d.Values["purchase_cost"] = r.PurchaseCost.String()
		d.Values["measurement_unit_id"] = formatID(unitID(r.Unit, r.UnitID))
		d.Values["category_id"] = formatID(categoryID(r.Category, r.CategoryID))
		d.Values["image_url"] = r.ImageURL
		d.Values["active"] = strconv.FormatBool(r.Active)
		for _, det := range r.Details {
			id := det.InventoryItemID
			if id == 0 && det.InventoryItem != nil {
				id = det.InventoryItem.IDKey
			}
			d.Details = append(d.Details, DetailRow{TempID: uuid.NewString(), ItemID: id, Quantity: det.Quantity.String()})
		}
	case domain.Ingredient:
		d.Values["name"] = r.Name
		d.Values["current_stock"] = r.CurrentStock.String()
		d.Values["minimum_stock"] = r.MinimumStock.String()
		d.Values["price"] = r.Price.String()
		d.Values["purchase_cost"] = r.PurchaseCost.String()
		d.Values["measurement_unit_id"] = formatID(unitID(r.Unit, r.UnitID))
		d.Values["category_id"] = formatID(categoryID(r.Category, r.CategoryID))
		d.Values["image_url"] = r.ImageURL
		d.Values["active"] = strconv.FormatBool(r.Active)
	case domain.Category:
		d.Values["category_type"] = string(r.CategoryType)
		d.Values["name"] = r.Name
		d.Values["description"] = r.Description
		if r.ParentID != nil {
			d.Values["parent_id"] = domain.Category{IDKey: *r.ParentID, CategoryType: r.CategoryType}.Ref()
		}
		d.Values["active"] = strconv.FormatBool(r.Active)
	case domain.Promotion:
		d.Values["name"] = r.Name
		d.Values["description"] = r.Description
		d.Values["discount_percentage"] = r.DiscountPercentage.String()
		d.Values["active"] = strconv.FormatBool(r.Active)
		for _, det := range r.ManufacturedItemDetails {
			id := det.ManufacturedItemID
			if id == 0 && det.ManufacturedItem != nil {
				id = det.ManufacturedItem.IDKey
			}
			d.PromoManufactured = append(d.PromoManufactured, DetailRow{TempID: uuid.NewString(), ItemID: id, Quantity: strconv.Itoa(det.Quantity)})
		}
		for _, det := range r.InventoryItemDetails {
			id := det.InventoryItemID
			if id == 0 && det.InventoryItem != nil {
				id = det.InventoryItem.IDKey
			}
			d.PromoInventory = append(d.PromoInventory, DetailRow{TempID: uuid.NewString(), ItemID: id, Quantity: strconv.Itoa(det.Quantity)})
		}
	}
	return d
}

func (d *Draft) fromUser(u domain.User) {
	d.Values["full_name"] = u.FullName
	d.Values["email"] = u.Email
	d.Values["phone_number"] = u.PhoneNumber
	d.Values["role"] = u.Role
	d.Values["password"] = ""
	d.Values["confirm_password"] = ""
	d.Values["active"] = strconv.FormatBool(u.Active)
}

func unitID(u *domain.MeasurementUnit, fallback int64) int64 {
	if u != nil && u.IDKey != 0 {
		return u.IDKey
	}
	return fallback
}

func categoryID(c *domain.Category, fallback int64) int64 {
	if c != nil && c.IDKey != 0 {
		return c.IDKey
	}
	return fallback
}

// IsEdit reports whether the draft updates an existing record.
func (d *Draft) IsEdit() bool { return d.ID != 0 }

// Get returns a plain value.
func (d *Draft) Get(name string) string { return d.Values[name] }

// Checked reports whether a checkbox value is on.
func (d *Draft) Checked(name string) bool {
	v, _ := strconv.ParseBool(d.Values[name])
	return v || d.Values[name] == "on"
}

// Int64 parses a plain value as an id, 0 when empty or invalid.
func (d *Draft) Int64(name string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(d.Values[name]), 10, 64)
	return v
}

// Decimal parses a plain value, zero when empty or invalid.
func (d *Draft) Decimal(name string) decimal.Decimal {
	v, err := parseDecimal(d.Values[name])
	if err != nil {
		return decimal.Zero
	}
	return v
}

// Set writes one posted value. Plain names update Values; paths of the form
// "details.{i}.{field}" rewrite row i of a line collection, growing it as needed.
func (d *Draft) Set(path, value string) error {
	parts := strings.Split(path, ".")
	if len(parts) == 1 {
		d.Values[path] = value
		return nil
	}
	if len(parts) != 3 {
		return fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	rows := d.rows(parts[0])
	if rows == nil {
		return fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	idx, err := strconv.Atoi(parts[1])
	if err != nil || idx < 0 || idx > 200 {
		return fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	for len(*rows) <= idx {
		*rows = append(*rows, DetailRow{TempID: uuid.NewString()})
	}
	row := &(*rows)[idx]
	switch parts[2] {
	case "inventory_item_id", "manufactured_item_id", "item_id":
		row.ItemID, _ = strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	case "quantity":
		row.Quantity = strings.TrimSpace(value)
	case "temp_id":
		if value != "" {
			row.TempID = value
		}
	default:
		return fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	return nil
}

func (d *Draft) rows(name string) *[]DetailRow {
	switch name {
	case RowsDetails, RowsIngredients:
		return &d.Details
	case RowsManufactured:
		return &d.PromoManufactured
	case RowsInventory:
		return &d.PromoInventory
	default:
		return nil
	}
}

// AddRow appends an empty line to the named collection.
func (d *Draft) AddRow(collection string) {
	if rows := d.rows(collection); rows != nil {
		*rows = append(*rows, DetailRow{TempID: uuid.NewString(), Quantity: "1"})
	}
}

// RemoveRow drops the line with tempID from the named collection.
func (d *Draft) RemoveRow(collection, tempID string) {
	rows := d.rows(collection)
	if rows == nil {
		return
	}
	kept := (*rows)[:0]
	for _, r := range *rows {
		if r.TempID != tempID {
			kept = append(kept, r)
		}
	}
	*rows = kept
}

// ProductType is the draft's product family.
func (d *Draft) ProductType() domain.ProductType {
	return domain.ProductType(d.Get("product_type"))
}

// CategoryType is the draft's category family.
func (d *Draft) CategoryType() domain.CategoryType {
	return domain.CategoryType(d.Get("category_type"))
}

// Parent splits the parent_id value into family and id. A bare id belongs to
// the draft's own family.
func (d *Draft) Parent() (domain.CategoryType, int64) {
	raw := strings.TrimSpace(d.Get("parent_id"))
	kind, id, ok := strings.Cut(raw, ":")
	if !ok {
		kind, id = string(d.CategoryType()), raw
	}
	v, err := strconv.ParseInt(id, 10, 64)
	if err != nil || v <= 0 {
		return d.CategoryType(), 0
	}
	return domain.CategoryType(kind), v
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func (d *Draft) userInput(role string) domain.UserInput {
	in := domain.UserInput{
		FullName:    strings.TrimSpace(d.Get("full_name")),
		Email:       strings.TrimSpace(d.Get("email")),
		Role:        role,
		PhoneNumber: strings.TrimSpace(d.Get("phone_number")),
		Active:      d.Checked("active"),
	}
	if !d.IsEdit() {
		in.Password = d.Get("password")
	}
	return in
}

func (d *Draft) inventoryInput(ingredient bool) domain.InventoryItemInput {
	return domain.InventoryItemInput{
		Name:         strings.TrimSpace(d.Get("name")),
		CurrentStock: d.Decimal("current_stock"),
		MinimumStock: d.Decimal("minimum_stock"),
		Price:        d.Decimal("price"),
		PurchaseCost: d.Decimal("purchase_cost"),
		UnitID:       d.Int64("measurement_unit_id"),
		CategoryID:   d.Int64("category_id"),
		ImageURL:     strings.TrimSpace(d.Get("image_url")),
		Active:       d.Checked("active"),
		IsIngredient: ingredient,
	}
}

func (d *Draft) manufacturedInput() domain.ManufacturedItemInput {
	prep, _ := strconv.Atoi(strings.TrimSpace(d.Get("preparation_time")))
	details := make([]domain.ItemDetail, 0, len(d.Details))
	for _, row := range d.Details {
		if row.ItemID == 0 {
			continue
		}
		qty, _ := parseDecimal(row.Quantity)
		details = append(details, domain.ItemDetail{InventoryItemID: row.ItemID, Quantity: qty})
	}
	return domain.ManufacturedItemInput{
		Name:            strings.TrimSpace(d.Get("name")),
		Description:     strings.TrimSpace(d.Get("description")),
		PreparationTime: prep,
		Price:           d.Decimal("price"),
		ImageURL:        strings.TrimSpace(d.Get("image_url")),
		Recipe:          d.Get("recipe"),
		Active:          d.Checked("active"),
		CategoryID:      d.Int64("category_id"),
		Details:         details,
	}
}

func (d *Draft) categoryInput() domain.CategoryInput {
	in := domain.CategoryInput{
		Name:        strings.TrimSpace(d.Get("name")),
		Description: strings.TrimSpace(d.Get("description")),
		Active:      d.Checked("active"),
	}
	if _, parent := d.Parent(); parent != 0 {
		in.ParentID = &parent
	}
	return in
}

func (d *Draft) promotionInput() domain.PromotionInput {
	in := domain.PromotionInput{
		Name:                    strings.TrimSpace(d.Get("name")),
		Description:             strings.TrimSpace(d.Get("description")),
		DiscountPercentage:      d.Decimal("discount_percentage"),
		Active:                  d.Checked("active"),
		ManufacturedItemDetails: []domain.PromotionManufacturedDetail{},
		InventoryItemDetails:    []domain.PromotionInventoryDetail{},
	}
	for _, row := range d.PromoManufactured {
		if row.ItemID == 0 {
			continue
		}
		qty, _ := strconv.Atoi(row.Quantity)
		in.ManufacturedItemDetails = append(in.ManufacturedItemDetails, domain.PromotionManufacturedDetail{ManufacturedItemID: row.ItemID, Quantity: qty})
	}
	for _, row := range d.PromoInventory {
		if row.ItemID == 0 {
			continue
		}
		qty, _ := strconv.Atoi(row.Quantity)
		in.InventoryItemDetails = append(in.InventoryItemDetails, domain.PromotionInventoryDetail{InventoryItemID: row.ItemID, Quantity: qty})
	}
	return in
}

// validateRows checks line items and kind-specific rules the schema cannot express.
func (d *Draft) validateRows(errs map[string]string) {
	checkRows := func(key string, rows []DetailRow, integer bool) {
		for i, row := range rows {
			if row.ItemID == 0 {
				errs[fmt.Sprintf("%s.%d", key, i)] = "Elegí un ítem."
				continue
			}
			qty, err := parseDecimal(row.Quantity)
			if err != nil || !qty.IsPositive() || (integer && !qty.IsInteger()) {
				errs[fmt.Sprintf("%s.%d", key, i)] = "La cantidad debe ser mayor a cero."
			}
		}
	}

	switch d.Kind {
	case domain.KindInventory:
		if d.ProductType() == domain.ProductManufactured {
			checkRows(RowsDetails, d.Details, false)
		} else if d.Int64("measurement_unit_id") == 0 {
			errs["measurement_unit_id"] = "Elegí una unidad de medida."
		}
		d.validateCategory(errs)
	case domain.KindIngredient:
		if d.Int64("measurement_unit_id") == 0 {
			errs["measurement_unit_id"] = "Elegí una unidad de medida."
		}
		d.validateCategory(errs)
	case domain.KindPromotion:
		checkRows(RowsManufactured, d.PromoManufactured, true)
		checkRows(RowsInventory, d.PromoInventory, true)
		if len(d.PromoManufactured)+len(d.PromoInventory) == 0 {
			errs["general"] = "La promoción debe incluir al menos un producto."
		}
	case domain.KindCategory:
		kind, parent := d.Parent()
		switch {
		case parent == 0:
		case kind != d.CategoryType():
			errs["parent_id"] = "El rubro padre debe ser del mismo tipo."
		case d.IsEdit() && parent == d.ID:
			errs["parent_id"] = "Un rubro no puede ser su propio padre."
		}
	}
}

func (d *Draft) validateCategory(errs map[string]string) {
	if d.Int64("category_id") != 0 {
		return
	}
	if len(d.Selection.Subcategories) > 0 {
		errs["category_id"] = "Elegí una subcategoría."
		return
	}
	errs["category_id"] = "Elegí un rubro."
}
