package reports

import (
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/buensabor/buensabor-web/internal/reports/svg"
	"github.com/buensabor/buensabor-web/internal/view"
)

// Charts holds the rendered SVG fragments of a dashboard. Empty fields mean
// there was nothing to plot.
type Charts struct {
	Revenue   template.HTML
	Products  template.HTML
	Customers template.HTML
}

func moneyTick(v float64) string {
	return view.Money(decimal.NewFromFloat(v))
}

// BuildCharts renders the revenue line and both rankings.
func BuildCharts(d Dashboard) (Charts, error) {
	var charts Charts
	values, labels := DailySeries(d)
	if len(values) > 0 {
		out, err := svg.Line(svg.DefaultWidth, svg.DefaultHeight, values, labels, svg.LineOpts{
			Title:       "Ingresos por día",
			Description: fmt.Sprintf("Ingresos diarios entre %s y %s", d.Range.Start.Format("02/01/2006"), d.Range.End.Format("02/01/2006")),
			StrokeColor: "#b03a2e",
			FillColor:   "rgba(176,58,46,0.12)",
			ShowDots:    len(values) <= 45,
			MaxLabels:   10,
		})
		if err != nil {
			return charts, fmt.Errorf("reports: revenue chart: %w", err)
		}
		charts.Revenue = out
	}

	if len(d.TopProducts) > 0 {
		vals := make([]float64, len(d.TopProducts))
		names := make([]string, len(d.TopProducts))
		for i, p := range d.TopProducts {
			vals[i] = float64(p.Quantity)
			names[i] = p.Name
		}
		out, err := svg.Bars(svg.DefaultWidth, vals, names, svg.BarOpts{
			Title:  "Productos más vendidos",
			Color:  "#d68910",
			Format: func(v float64) string { return fmt.Sprintf("%.0f u.", v) },
		})
		if err != nil {
			return charts, fmt.Errorf("reports: products chart: %w", err)
		}
		charts.Products = out
	}

	if len(d.TopCustomers) > 0 {
		vals := make([]float64, len(d.TopCustomers))
		names := make([]string, len(d.TopCustomers))
		for i, c := range d.TopCustomers {
			vals[i], _ = c.TotalSpent.Float64()
			names[i] = c.FullName
			if names[i] == "" {
				names[i] = c.Email
			}
		}
		out, err := svg.Bars(svg.DefaultWidth, vals, names, svg.BarOpts{
			Title:  "Mejores clientes",
			Color:  "#1f618d",
			Format: moneyTick,
		})
		if err != nil {
			return charts, fmt.Errorf("reports: customers chart: %w", err)
		}
		charts.Customers = out
	}
	return charts, nil
}
