// Package abm implements the generic alta/baja/modificación screens: listing,
// pagination, the modal form draft, category cascades and stock adjustments.
package abm

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
)

// FieldKind selects the input element rendered for a field.
type FieldKind string

// Field kinds.
const (
	FieldText     FieldKind = "text"
	FieldEmail    FieldKind = "email"
	FieldTel      FieldKind = "tel"
	FieldPassword FieldKind = "password"
	FieldNumber   FieldKind = "number"
	FieldDecimal  FieldKind = "decimal"
	FieldTextarea FieldKind = "textarea"
	FieldCheckbox FieldKind = "checkbox"
	FieldSelect   FieldKind = "select"
	FieldImage    FieldKind = "image"
)

// InputType is the HTML input type of single-line kinds.
func (k FieldKind) InputType() string {
	switch k {
	case FieldEmail, FieldTel, FieldPassword, FieldNumber:
		return string(k)
	case FieldImage:
		return "url"
	default:
		return "text"
	}
}

// Option is one choice of a select field.
type Option struct {
	Value string
	Label string
}

// Field describes one plain input of the modal form.
type Field struct {
	Name       string
	Label      string
	Kind       FieldKind
	Validators string
	Options    []Option
	Help       string
	// CreateOnly fields are hidden when editing.
	CreateOnly bool
	// ShowWhen limits the field to drafts whose product_type matches.
	ShowWhen domain.ProductType
}

// Visible reports whether the field belongs on the form for d.
func (f Field) Visible(d *Draft) bool {
	if f.CreateOnly && d.IsEdit() {
		return false
	}
	if f.ShowWhen != "" && domain.ProductType(d.Get("product_type")) != f.ShowWhen {
		return false
	}
	return true
}

// Column is one table column.
type Column struct {
	Label string
	Value func(domain.Record) string
}

// Schema is the complete screen description of one kind.
type Schema struct {
	Kind     domain.Kind
	Title    string
	Singular string
	// FieldSet names the template partial that renders the form body.
	FieldSet string
	Fields   []Field
	Columns  []Column
	// Searchable enables the search bar.
	Searchable bool
}

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// CanAdjustStock reports whether the stock dialog applies to rec.
func (s Schema) CanAdjustStock(rec domain.Record) bool {
	switch r := rec.(type) {
	case domain.Ingredient:
		return true
	case domain.Product:
		return r.IsInventory()
	default:
		return false
	}
}

var validate = validator.New()

var validatorMessages = map[string]string{
	"required": "Este campo es obligatorio.",
	"email":    "Ingresá un email válido.",
	"min":      "El valor es demasiado corto o bajo.",
	"max":      "El valor es demasiado largo o alto.",
	"gte":      "El valor no puede ser negativo.",
	"lte":      "El valor es demasiado alto.",
	"gt":       "El valor debe ser mayor a cero.",
	"numeric":  "Ingresá un número.",
	"number":   "Ingresá un número.",
	"oneof":    "Elegí una opción válida.",
	"url":      "Ingresá una URL válida.",
}

// Validate checks every visible field and returns messages keyed by field name.
func (s Schema) Validate(d *Draft) map[string]string {
	errs := make(map[string]string)
	for _, f := range s.Fields {
		if f.Validators == "" || !f.Visible(d) {
			continue
		}
		value := d.Get(f.Name)
		var err error
		switch f.Kind {
		case FieldDecimal:
			if value == "" {
				err = validate.Var(value, f.Validators)
				break
			}
			num, perr := parseDecimal(value)
			if perr != nil {
				errs[f.Name] = validatorMessages["numeric"]
				continue
			}
			f64, _ := num.Float64()
			err = validate.Var(f64, numericRules(f.Validators))
		case FieldNumber:
			if value == "" {
				err = validate.Var(value, f.Validators)
				break
			}
			n, perr := strconv.Atoi(value)
			if perr != nil {
				errs[f.Name] = validatorMessages["number"]
				continue
			}
			err = validate.Var(n, numericRules(f.Validators))
		default:
			err = validate.Var(value, f.Validators)
		}
		if err != nil {
			errs[f.Name] = validationMessage(err)
		}
	}
	return errs
}

// numericRules drops string-only tags once the value is parsed.
func numericRules(rules string) string {
	parts := strings.Split(rules, ",")
	kept := parts[:0]
	for _, p := range parts {
		if p == "required" || p == "numeric" || p == "number" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ",")
}

func validationMessage(err error) string {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		if msg, ok := validatorMessages[fieldErrs[0].Tag()]; ok {
			return msg
		}
	}
	return "Valor inválido."
}

// RoleOptions are the staff roles an administrator may assign.
var RoleOptions = []Option{
	{Value: shared.RoleAdmin, Label: "Administrador"},
	{Value: shared.RoleCashier, Label: "Cajero"},
	{Value: shared.RoleCook, Label: "Cocinero"},
	{Value: shared.RoleDelivery, Label: "Delivery"},
	{Value: shared.RoleEmployee, Label: "Empleado"},
}

var productTypeOptions = []Option{
	{Value: string(domain.ProductManufactured), Label: "Elaborado"},
	{Value: string(domain.ProductInventory), Label: "Insumo para venta"},
}

var categoryTypeOptions = []Option{
	{Value: string(domain.CategoryManufactured), Label: "Productos elaborados"},
	{Value: string(domain.CategoryInventory), Label: "Insumos"},
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

var schemas = map[domain.Kind]Schema{
	domain.KindEmployee: {
		Kind: domain.KindEmployee, Title: "Empleados", Singular: "empleado", FieldSet: "abm/fields_generic", Searchable: true,
		Fields: []Field{
			{Name: "full_name", Label: "Nombre completo", Kind: FieldText, Validators: "required,max=120"},
			{Name: "email", Label: "Email", Kind: FieldEmail, Validators: "required,email"},
			{Name: "phone_number", Label: "Teléfono", Kind: FieldTel, Validators: "omitempty,max=30"},
			{Name: "role", Label: "Rol", Kind: FieldSelect, Validators: "required,oneof=administrador cajero cocinero delivery empleado", Options: RoleOptions},
			{Name: "password", Label: "Contraseña inicial", Kind: FieldPassword, CreateOnly: true, Help: "Dejala vacía para generar una automáticamente."},
			{Name: "confirm_password", Label: "Repetir contraseña", Kind: FieldPassword, CreateOnly: true},
			{Name: "active", Label: "Activo", Kind: FieldCheckbox},
		},
		Columns: []Column{
			{Label: "Nombre", Value: func(r domain.Record) string { return r.(domain.Employee).FullName }},
			{Label: "Email", Value: func(r domain.Record) string { return r.(domain.Employee).Email }},
			{Label: "Rol", Value: func(r domain.Record) string { return view.RoleLabel(r.(domain.Employee).Role) }},
			{Label: "Teléfono", Value: func(r domain.Record) string { return r.(domain.Employee).PhoneNumber }},
			{Label: "Activo", Value: func(r domain.Record) string { return yesNo(r.(domain.Employee).Active) }},
		},
	},
	domain.KindClient: {
		Kind: domain.KindClient, Title: "Clientes", Singular: "cliente", FieldSet: "abm/fields_generic", Searchable: true,
		Fields: []Field{
			{Name: "full_name", Label: "Nombre completo", Kind: FieldText, Validators: "required,max=120"},
			{Name: "email", Label: "Email", Kind: FieldEmail, Validators: "required,email"},
			{Name: "phone_number", Label: "Teléfono", Kind: FieldTel, Validators: "omitempty,max=30"},
			{Name: "password", Label: "Contraseña", Kind: FieldPassword, CreateOnly: true},
			{Name: "confirm_password", Label: "Repetir contraseña", Kind: FieldPassword, CreateOnly: true},
			{Name: "active", Label: "Activo", Kind: FieldCheckbox},
		},
		Columns: []Column{
			{Label: "Nombre", Value: func(r domain.Record) string { return r.(domain.Client).FullName }},
			{Label: "Email", Value: func(r domain.Record) string { return r.(domain.Client).Email }},
			{Label: "Teléfono", Value: func(r domain.Record) string { return r.(domain.Client).PhoneNumber }},
			{Label: "Activo", Value: func(r domain.Record) string { return yesNo(r.(domain.Client).Active) }},
		},
	},
	domain.KindInventory: {
		Kind: domain.KindInventory, Title: "Productos", Singular: "producto", FieldSet: "abm/fields_inventory", Searchable: true,
		Fields: []Field{
			{Name: "product_type", Label: "Tipo", Kind: FieldSelect, Validators: "required,oneof=manufactured inventory", Options: productTypeOptions, CreateOnly: true},
			{Name: "name", Label: "Nombre", Kind: FieldText, Validators: "required,max=120"},
			{Name: "description", Label: "Descripción", Kind: FieldTextarea, Validators: "omitempty,max=500", ShowWhen: domain.ProductManufactured},
			{Name: "price", Label: "Precio de venta", Kind: FieldDecimal, Validators: "required,gte=0"},
			{Name: "preparation_time", Label: "Tiempo de preparación (min)", Kind: FieldNumber, Validators: "required,gte=0,lte=600", ShowWhen: domain.ProductManufactured},
			{Name: "recipe", Label: "Receta", Kind: FieldTextarea, ShowWhen: domain.ProductManufactured},
			{Name: "current_stock", Label: "Stock actual", Kind: FieldDecimal, Validators: "required,gte=0", ShowWhen: domain.ProductInventory},
			{Name: "minimum_stock", Label: "Stock mínimo", Kind: FieldDecimal, Validators: "required,gte=0", ShowWhen: domain.ProductInventory},
			{Name: "purchase_cost", Label: "Costo de compra", Kind: FieldDecimal, Validators: "required,gte=0", ShowWhen: domain.ProductInventory},
			{Name: "image_url", Label: "Imagen (URL)", Kind: FieldImage},
			{Name: "active", Label: "Activo", Kind: FieldCheckbox},
		},
		Columns: []Column{
			{Label: "Nombre", Value: func(r domain.Record) string { return r.(domain.Product).Name }},
			{Label: "Tipo", Value: func(r domain.Record) string { return productTypeLabel(r.(domain.Product).ProductType) }},
			{Label: "Rubro", Value: func(r domain.Record) string { return categoryName(r.(domain.Product).Category) }},
			{Label: "Precio", Value: func(r domain.Record) string { return view.Money(r.(domain.Product).Price) }},
			{Label: "Stock", Value: func(r domain.Record) string {
				p := r.(domain.Product)
				if !p.IsInventory() {
					return "-"
				}
				return view.Number(p.CurrentStock)
			}},
			{Label: "Activo", Value: func(r domain.Record) string { return yesNo(r.(domain.Product).Active) }},
		},
	},
	domain.KindIngredient: {
		Kind: domain.KindIngredient, Title: "Ingredientes", Singular: "ingrediente", FieldSet: "abm/fields_ingredient", Searchable: true,
		Fields: []Field{
			{Name: "name", Label: "Nombre", Kind: FieldText, Validators: "required,max=120"},
			{Name: "current_stock", Label: "Stock actual", Kind: FieldDecimal, Validators: "required,gte=0"},
			{Name: "minimum_stock", Label: "Stock mínimo", Kind: FieldDecimal, Validators: "required,gte=0"},
			{Name: "price", Label: "Precio", Kind: FieldDecimal, Validators: "required,gte=0"},
			{Name: "purchase_cost", Label: "Costo de compra", Kind: FieldDecimal, Validators: "required,gte=0"},
			{Name: "image_url", Label: "Imagen (URL)", Kind: FieldImage},
			{Name: "active", Label: "Activo", Kind: FieldCheckbox},
		},
		Columns: []Column{
			{Label: "Nombre", Value: func(r domain.Record) string { return r.(domain.Ingredient).Name }},
			{Label: "Rubro", Value: func(r domain.Record) string { return categoryName(r.(domain.Ingredient).Category) }},
			{Label: "Stock", Value: func(r domain.Record) string {
				i := r.(domain.Ingredient)
				return view.Number(i.CurrentStock) + " " + unitName(i.Unit)
			}},
			{Label: "Mínimo", Value: func(r domain.Record) string { return view.Number(r.(domain.Ingredient).MinimumStock) }},
			{Label: "Costo", Value: func(r domain.Record) string { return view.Money(r.(domain.Ingredient).PurchaseCost) }},
			{Label: "Activo", Value: func(r domain.Record) string { return yesNo(r.(domain.Ingredient).Active) }},
		},
	},
	domain.KindCategory: {
		Kind: domain.KindCategory, Title: "Rubros", Singular: "rubro", FieldSet: "abm/fields_category",
		Fields: []Field{
			{Name: "category_type", Label: "Tipo", Kind: FieldSelect, Validators: "required,oneof=manufactured inventory", Options: categoryTypeOptions, CreateOnly: true},
			{Name: "name", Label: "Nombre", Kind: FieldText, Validators: "required,max=80"},
			{Name: "description", Label: "Descripción", Kind: FieldTextarea, Validators: "omitempty,max=300"},
			{Name: "active", Label: "Activo", Kind: FieldCheckbox},
		},
		Columns: []Column{
			{Label: "Nombre", Value: func(r domain.Record) string { return r.(domain.Category).Name }},
			{Label: "Tipo", Value: func(r domain.Record) string { return categoryTypeLabel(r.(domain.Category).CategoryType) }},
			{Label: "Rubro padre", Value: func(r domain.Record) string { return r.(domain.Category).ParentCategoryName }},
			{Label: "Activo", Value: func(r domain.Record) string { return yesNo(r.(domain.Category).Active) }},
		},
	},
	domain.KindPromotion: {
		Kind: domain.KindPromotion, Title: "Promociones", Singular: "promoción", FieldSet: "abm/fields_promotion", Searchable: true,
		Fields: []Field{
			{Name: "name", Label: "Nombre", Kind: FieldText, Validators: "required,max=120"},
			{Name: "description", Label: "Descripción", Kind: FieldTextarea, Validators: "omitempty,max=500"},
			{Name: "discount_percentage", Label: "Descuento (%)", Kind: FieldDecimal, Validators: "required,gte=0,lte=100"},
			{Name: "active", Label: "Activa", Kind: FieldCheckbox},
		},
		Columns: []Column{
			{Label: "Nombre", Value: func(r domain.Record) string { return r.(domain.Promotion).Name }},
			{Label: "Descuento", Value: func(r domain.Record) string { return view.Number(r.(domain.Promotion).DiscountPercentage) + " %" }},
			{Label: "Ítems", Value: func(r domain.Record) string {
				p := r.(domain.Promotion)
				return strconv.Itoa(len(p.ManufacturedItemDetails) + len(p.InventoryItemDetails))
			}},
			{Label: "Activa", Value: func(r domain.Record) string { return yesNo(r.(domain.Promotion).Active) }},
		},
	},
}

// SchemaFor returns the screen description of kind.
func SchemaFor(kind domain.Kind) (Schema, bool) {
	s, ok := schemas[kind]
	return s, ok
}

func productTypeLabel(t domain.ProductType) string {
	for _, o := range productTypeOptions {
		if o.Value == string(t) {
			return o.Label
		}
	}
	return string(t)
}

func categoryTypeLabel(t domain.CategoryType) string {
	for _, o := range categoryTypeOptions {
		if o.Value == string(t) {
			return o.Label
		}
	}
	return string(t)
}

func categoryName(c *domain.Category) string {
	if c == nil {
		return "-"
	}
	return c.Name
}

func unitName(u *domain.MeasurementUnit) string {
	if u == nil {
		return ""
	}
	return u.Name
}
