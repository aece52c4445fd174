package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Bars renders a horizontal ranking: one labelled bar per row, longest first
// as given. Negative values are drawn as empty bars.
func Bars(width int, values []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: values required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match values")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	rowHeight := opts.RowHeight
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}
	labelWidth := opts.LabelWidth
	if labelWidth <= 0 {
		labelWidth = DefaultLabelW
	}
	format := opts.Format
	if format == nil {
		format = FormatTick
	}
	color := fallback(opts.Color, "#d97706")
	textColor := fallback(opts.TextColor, "#292524")

	valueWidth := 90.0
	track := float64(width) - labelWidth - valueWidth
	if track <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}
	_, maxVal := bounds(values)
	if maxVal <= 0 {
		maxVal = 1
	}
	height := int(rowHeight*float64(len(values)) + 8)

	var b strings.Builder
	openSVG(&b, width, height, opts.Title, opts.Description, "bar", "Ranking")
	for i, value := range values {
		y := 4 + float64(i)*rowHeight
		barH := rowHeight * 0.62
		barW := 0.0
		if value > 0 {
			barW = value / maxVal * track
		}
		label := truncate(labels[i], int(labelWidth/6.5))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="11" text-anchor="end">%s</text>`, labelWidth-8, y+barH-3, textColor, template.HTMLEscapeString(label))
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" rx="3" fill="%s"><title>%s</title></rect>`, labelWidth, y, barW, barH, color, template.HTMLEscapeString(labels[i]))
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="11">%s</text>`, labelWidth+barW+6, y+barH-3, textColor, template.HTMLEscapeString(format(value)))
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 1 || len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
