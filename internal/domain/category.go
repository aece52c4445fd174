package domain

import "strconv"

// Category is a manufactured or inventory category ("rubro").
type Category struct {
	IDKey         int64        `json:"id_key"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Active        bool         `json:"active"`
	ParentID      *int64       `json:"parent_id"`
	Subcategories []Category   `json:"subcategories,omitempty"`
	CategoryType  CategoryType `json:"category_type,omitempty"`

	// ParentCategoryName is resolved while merging listings.
	ParentCategoryName string `json:"-"`
}

// Key implements Record.
func (c Category) Key() int64 { return c.IDKey }

// Kind implements Record.
func (Category) Kind() Kind { return KindCategory }

// Label implements Record.
func (c Category) Label() string { return c.Name }

// HasSubcategories reports whether selecting c requires a child choice.
func (c Category) HasSubcategories() bool { return len(c.Subcategories) > 0 }

// Ref identifies c across both families as "<category_type>:<id>".
func (c Category) Ref() string {
	return string(c.CategoryType) + ":" + strconv.FormatInt(c.IDKey, 10)
}

// IsTopLevel reports whether c has no parent.
func (c Category) IsTopLevel() bool { return c.ParentID == nil || *c.ParentID == 0 }

// CategoryInput is the create/update payload for categories.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	ParentID    *int64 `json:"parent_id"`
}

// MeasurementUnit is a unit such as "kg" or "unidad".
type MeasurementUnit struct {
	IDKey  int64  `json:"id_key"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
