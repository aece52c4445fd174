package abm

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/buensabor/buensabor-web/internal/domain"
)

// StockForm is the stock adjustment dialog. Quantity is signed. Key travels
// with the form so a resubmitted dialog is applied once.
type StockForm struct {
	Key          string
	Quantity     string
	UnitCost     string
	Notes        string
	CurrentStock decimal.Decimal
}

// NewStockForm seeds the dialog for rec.
func NewStockForm(rec domain.Record) StockForm {
	f := StockForm{Key: uuid.NewString(), Quantity: "0", UnitCost: "0"}
	switch r := rec.(type) {
	case domain.Ingredient:
		f.CurrentStock = r.CurrentStock
		f.UnitCost = r.PurchaseCost.String()
	case domain.Product:
		f.CurrentStock = r.CurrentStock
		f.UnitCost = r.PurchaseCost.String()
	}
	return f
}

// Delta is the parsed signed quantity.
func (f StockForm) Delta() decimal.Decimal {
	v, err := parseDecimal(f.Quantity)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// Blocked reports whether a removal exceeds the stock on hand.
func (f StockForm) Blocked() bool {
	delta := f.Delta()
	return delta.IsNegative() && delta.Abs().GreaterThan(f.CurrentStock)
}

// ResultingStock previews the stock after the adjustment.
func (f StockForm) ResultingStock() decimal.Decimal {
	return f.CurrentStock.Add(f.Delta())
}

// Validate returns messages keyed by field name.
func (f StockForm) Validate() map[string]string {
	errs := make(map[string]string)
	delta, err := parseDecimal(f.Quantity)
	switch {
	case err != nil:
		errs["quantity"] = "Ingresá un número."
	case delta.IsZero():
		errs["quantity"] = "La cantidad no puede ser cero."
	case f.Blocked():
		errs["quantity"] = "No podés descontar más stock del disponible."
	}
	if delta.IsPositive() {
		cost, err := parseDecimal(f.UnitCost)
		if err != nil || cost.IsNegative() {
			errs["unit_cost"] = "Ingresá un costo válido."
		}
	}
	return errs
}

// Adjustment is the payload to post. Removals carry no cost.
func (f StockForm) Adjustment() domain.StockAdjustment {
	delta := f.Delta()
	cost, err := parseDecimal(f.UnitCost)
	if err != nil || delta.IsNegative() {
		cost = decimal.Zero
	}
	return domain.StockAdjustment{Quantity: delta, UnitCost: cost, Notes: strings.TrimSpace(f.Notes)}
}
