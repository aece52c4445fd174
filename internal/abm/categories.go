package abm

import (
	"strconv"

	"github.com/buensabor/buensabor-web/internal/domain"
)

// BuildTree returns the top-level categories with their children attached.
// Nested backend responses are returned as-is; flat lists are linked by parent_id.
func BuildTree(flat []domain.Category) []domain.Category {
	nested := false
	for _, c := range flat {
		if c.HasSubcategories() {
			nested = true
			break
		}
	}

	top := make([]domain.Category, 0, len(flat))
	if nested {
		for _, c := range flat {
			if c.IsTopLevel() {
				top = append(top, c)
			}
		}
		return top
	}

	children := make(map[int64][]domain.Category)
	for _, c := range flat {
		if !c.IsTopLevel() {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}
	for _, c := range flat {
		if c.IsTopLevel() {
			c.Subcategories = children[c.IDKey]
			top = append(top, c)
		}
	}
	return top
}

// Flatten lists every category of tree, parents before children.
func Flatten(tree []domain.Category) []domain.Category {
	out := make([]domain.Category, 0, len(tree))
	for _, c := range tree {
		out = append(out, c)
		out = append(out, Flatten(c.Subcategories)...)
	}
	return out
}

// CategorySelection is the two-level picker state of a form.
type CategorySelection struct {
	Selected      *domain.Category
	Subcategories []domain.Category
	// SubcategoryID is the chosen child, 0 when none.
	SubcategoryID int64
}

// HandleCategorySelection applies a top-level choice to d. A category with
// children clears category_id and waits for a subcategory choice.
func HandleCategorySelection(categoryID int64, d *Draft, tree []domain.Category) {
	d.Selection = CategorySelection{}
	d.Set("category_parent", formatID(categoryID))
	if categoryID == 0 {
		d.Set("category_id", "")
		return
	}
	for i := range tree {
		c := tree[i]
		if c.IDKey != categoryID {
			continue
		}
		d.Selection.Selected = &c
		if c.HasSubcategories() {
			d.Selection.Subcategories = c.Subcategories
			d.Set("category_id", "")
			return
		}
		d.Set("category_id", formatID(c.IDKey))
		return
	}
	d.Set("category_id", "")
}

// HandleSubcategorySelection records a child choice made after HandleCategorySelection.
func HandleSubcategorySelection(subcategoryID int64, d *Draft) {
	for _, sub := range d.Selection.Subcategories {
		if sub.IDKey == subcategoryID {
			d.Selection.SubcategoryID = sub.IDKey
			d.Set("category_id", formatID(sub.IDKey))
			return
		}
	}
}

// FindCategoryForItem locates the category with id inside tree. A match on a
// child yields its parent as Selected and the siblings as Subcategories.
func FindCategoryForItem(id int64, tree []domain.Category) CategorySelection {
	for i := range tree {
		parent := tree[i]
		if parent.IDKey == id {
			sel := CategorySelection{Selected: &parent}
			if parent.HasSubcategories() {
				sel.Subcategories = parent.Subcategories
			}
			return sel
		}
		for _, sub := range parent.Subcategories {
			if sub.IDKey == id {
				return CategorySelection{
					Selected:      &parent,
					Subcategories: parent.Subcategories,
					SubcategoryID: sub.IDKey,
				}
			}
		}
	}
	return CategorySelection{}
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
