package orders

import (
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/skip2/go-qrcode"

	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/view"
)

var ticketAccent = &props.Color{Red: 176, Green: 58, Blue: 46}

// TrackingURL is the public link encoded in the order QR codes.
func TrackingURL(publicURL string, id int64) string {
	return publicURL + "/orders/" + strconv.FormatInt(id, 10)
}

// TrackingQR renders the tracking link as a PNG.
func TrackingQR(trackingURL string) ([]byte, error) {
	png, err := qrcode.Encode(trackingURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("orders: tracking qr: %w", err)
	}
	return png, nil
}

// RenderTicket builds the kitchen ticket ("comanda") PDF of the order.
func RenderTicket(o domain.Order, trackingURL string) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle(fmt.Sprintf("Pedido #%d", o.IDKey), true).
		WithAuthor("El Buen Sabor", true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(ticketHeader(o))
	m.AddRows(line.NewRow(1, props.Line{Color: ticketAccent, Thickness: 0.5}))
	m.AddRows(ticketCustomer(o)...)
	m.AddRows(line.NewRow(2))
	m.AddRows(ticketLineHeader())
	m.AddRows(ticketLines(o)...)
	m.AddRows(line.NewRow(1, props.Line{Color: ticketAccent, Thickness: 0.3}))
	m.AddRows(ticketTotals(o))
	if trackingURL != "" {
		m.AddRows(line.NewRow(4))
		m.AddRows(row.New(45).Add(
			col.New(4).Add(code.NewQr(trackingURL, props.Rect{Percent: 95, Center: true})),
			col.New(8).Add(text.New("Escaneá el código para seguir el pedido.", props.Text{Size: 9, Top: 6, Left: 3})),
		))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("orders: generate ticket: %w", err)
	}
	return doc.GetBytes(), nil
}

func ticketHeader(o domain.Order) core.Row {
	date := ""
	if !o.Date.IsZero() {
		date = o.Date.Format("02/01/2006 15:04")
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("El Buen Sabor", props.Text{Style: fontstyle.Bold, Size: 14, Color: ticketAccent, Top: 1}),
			text.New(deliveryLabel(o), props.Text{Size: 9, Top: 10}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("Pedido #%d", o.IDKey), props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1}),
			text.New(date, props.Text{Size: 9, Align: align.Right, Top: 9}),
		),
	)
}

func ticketCustomer(o domain.Order) []core.Row {
	var rows []core.Row
	if o.User != nil {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Cliente: "+o.User.FullName, props.Text{Size: 9, Top: 1}),
		)))
	}
	if o.IsDelivery() && o.Address != nil {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Dirección: "+o.Address.Line(), props.Text{Size: 9, Top: 1}),
		)))
	}
	if o.Notes != "" {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Notas: "+o.Notes, props.Text{Size: 9, Top: 1, Style: fontstyle.Italic}),
		)))
	}
	return rows
}

func ticketLineHeader() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 9, Align: a, Top: 1}))
	}
	return row.New(7).Add(
		h("Cant.", 2, align.Center),
		h("Producto", 7, align.Left),
		h("Subtotal", 3, align.Right),
	)
}

// TicketLine is one printed row of the ticket.
type TicketLine struct {
	Quantity int
	Name     string
	Subtotal string
}

// TicketLines flattens manufactured and inventory lines in that order.
func TicketLines(o domain.Order) []TicketLine {
	lines := make([]TicketLine, 0, len(o.Details)+len(o.InventoryDetails))
	for _, d := range o.Details {
		name := "Producto #" + strconv.FormatInt(d.ManufacturedItemID, 10)
		if d.ManufacturedItem != nil && d.ManufacturedItem.Name != "" {
			name = d.ManufacturedItem.Name
		}
		lines = append(lines, TicketLine{Quantity: d.Quantity, Name: name, Subtotal: view.Money(d.Subtotal)})
	}
	for _, d := range o.InventoryDetails {
		name := "Producto #" + strconv.FormatInt(d.InventoryItemID, 10)
		if d.InventoryItem != nil && d.InventoryItem.Name != "" {
			name = d.InventoryItem.Name
		}
		lines = append(lines, TicketLine{Quantity: d.Quantity, Name: name, Subtotal: view.Money(d.Subtotal)})
	}
	return lines
}

func ticketLines(o domain.Order) []core.Row {
	lines := TicketLines(o)
	rows := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(text.New(strconv.Itoa(l.Quantity), props.Text{Size: 9, Align: align.Center, Top: 1})),
			col.New(7).Add(text.New(l.Name, props.Text{Size: 9, Top: 1})),
			col.New(3).Add(text.New(l.Subtotal, props.Text{Size: 9, Align: align.Right, Top: 1})),
		))
	}
	return rows
}

func ticketTotals(o domain.Order) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Top: top})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(label("Subtotal:", 1), label("Descuento:", 7), label("Total:", 13)),
		col.New(3).Add(value(view.Money(o.Total), 1), value(view.Money(o.Discount), 7), value(view.Money(o.FinalTotal), 13)),
	)
}

func deliveryLabel(o domain.Order) string {
	if o.IsDelivery() {
		return "Envío a domicilio"
	}
	return "Retira en local"
}
