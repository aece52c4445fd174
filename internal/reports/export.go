package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/buensabor/buensabor-web/internal/view"
)

// ErrPDFUnavailable is returned when no PDF renderer is configured.
var ErrPDFUnavailable = errors.New("reports: pdf renderer not configured")

// PDFRenderer converts an HTML document into PDF bytes.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// WriteCSV serialises the dashboard as three CSV sections separated by a
// blank line.
func WriteCSV(w io.Writer, d Dashboard) error {
	writer := csv.NewWriter(w)
	records := [][]string{
		{"Desde", d.Range.Start.Format(dateLayout)},
		{"Hasta", d.Range.End.Format(dateLayout)},
		{"Ingresos totales", d.Revenue.TotalRevenue.StringFixed(2)},
		{"Pedidos", strconv.Itoa(d.Revenue.TotalOrders)},
		{"Ticket promedio", d.Revenue.AverageTicket.StringFixed(2)},
		{},
		{"Fecha", "Ingresos", "Pedidos"},
	}
	for _, p := range d.Revenue.Points {
		records = append(records, []string{p.Date.Format(dateLayout), p.Revenue.StringFixed(2), strconv.Itoa(p.Orders)})
	}
	records = append(records, []string{}, []string{"Producto", "Tipo", "Cantidad", "Ingresos"})
	for _, p := range d.TopProducts {
		records = append(records, []string{p.Name, string(p.ProductType), strconv.Itoa(p.Quantity), p.Revenue.StringFixed(2)})
	}
	records = append(records, []string{}, []string{"Cliente", "Email", "Pedidos", "Total gastado"})
	for _, c := range d.TopCustomers {
		records = append(records, []string{c.FullName, c.Email, strconv.Itoa(c.Orders), c.TotalSpent.StringFixed(2)})
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("reports: write csv: %w", err)
	}
	return nil
}

const (
	sheetProducts  = "Productos"
	sheetCustomers = "Clientes"
)

// RankingsWorkbook builds a spreadsheet with one sheet per ranking.
func RankingsWorkbook(d Dashboard) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", sheetProducts); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetCustomers); err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"B03A2E"}},
	})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}

	products := [][]any{{"Producto", "Tipo", "Cantidad", "Ingresos"}}
	for _, p := range d.TopProducts {
		revenue, _ := p.Revenue.Float64()
		products = append(products, []any{p.Name, string(p.ProductType), p.Quantity, revenue})
	}
	customers := [][]any{{"Cliente", "Email", "Pedidos", "Total gastado"}}
	for _, c := range d.TopCustomers {
		spent, _ := c.TotalSpent.Float64()
		customers = append(customers, []any{c.FullName, c.Email, c.Orders, spent})
	}

	for sheet, rows := range map[string][][]any{sheetProducts: products, sheetCustomers: customers} {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, err
			}
			values := row
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, err
			}
		}
		if err := f.SetCellStyle(sheet, "A1", "D1", header); err != nil {
			return nil, err
		}
		if len(rows) > 1 {
			last, _ := excelize.CoordinatesToCellName(4, len(rows))
			if err := f.SetCellStyle(sheet, "D2", last, money); err != nil {
				return nil, err
			}
		}
		if err := f.SetColWidth(sheet, "A", "B", 28); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("reports: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfDocument struct {
	Dashboard   Dashboard
	Charts      Charts
	GeneratedAt time.Time
}

// RenderPDF lays the dashboard out as HTML and converts it with renderer.
func RenderPDF(ctx context.Context, engine *view.Engine, renderer PDFRenderer, d Dashboard, charts Charts, now time.Time) ([]byte, error) {
	if renderer == nil {
		return nil, ErrPDFUnavailable
	}
	var html bytes.Buffer
	if err := engine.Execute(&html, "pages/reports_pdf.html", pdfDocument{Dashboard: d, Charts: charts, GeneratedAt: now}); err != nil {
		return nil, fmt.Errorf("reports: pdf template: %w", err)
	}
	pdf, err := renderer.RenderHTML(ctx, html.String())
	if err != nil {
		return nil, fmt.Errorf("reports: render pdf: %w", err)
	}
	return pdf, nil
}
