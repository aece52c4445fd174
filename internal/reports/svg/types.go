// Package svg renders the report charts as inline SVG so the dashboard and
// its PDF export need no client-side charting.
package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
	// MaxLabels thins the x axis; 0 keeps every label.
	MaxLabels int
}

// BarOpts customises the horizontal ranking renderer.
type BarOpts struct {
	Title       string
	Description string
	Color       string
	TextColor   string
	RowHeight   float64
	LabelWidth  float64
	// Format renders the value printed at the end of each bar.
	Format func(float64) string
}

// Defaults for the report charts.
const (
	DefaultWidth     = 720
	DefaultHeight    = 240
	DefaultPadding   = 32.0
	DefaultTicks     = 5
	DefaultRowHeight = 26.0
	DefaultLabelW    = 180.0
)
