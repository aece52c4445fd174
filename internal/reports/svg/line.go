package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders the series as a filled line chart, one point per label.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match series")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	tickCount := opts.TickCount
	if tickCount <= 0 {
		tickCount = DefaultTicks
	}
	strokeColor := fallback(opts.StrokeColor, "#b03a2e")
	fillColor := fallback(opts.FillColor, "rgba(176,58,46,0.12)")
	axisColor := fallback(opts.AxisColor, "#57534e")
	gridColor := fallback(opts.GridColor, "#e7e5e4")

	plot := newFrame(width, height, padding)
	if !plot.ok() {
		return "", fmt.Errorf("svg: viewport too small")
	}
	minVal, maxVal := axisBounds(series)
	scale := plot.h / (maxVal - minVal)
	xAt := func(i int) float64 {
		if len(series) == 1 {
			return plot.x + plot.w/2
		}
		return plot.x + float64(i)*plot.w/float64(len(series)-1)
	}
	yAt := func(v float64) float64 { return plot.bottom() - (v-minVal)*scale }

	var path strings.Builder
	for i, value := range series {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s%.2f %.2f ", cmd, xAt(i), yAt(value))
	}
	line := strings.TrimSpace(path.String())

	var b strings.Builder
	openSVG(&b, width, height, opts.Title, opts.Description, "line", "Evolución")
	for i := 0; i <= tickCount; i++ {
		ratio := float64(i) / float64(tickCount)
		y := plot.bottom() - ratio*plot.h
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" aria-hidden="true"></line>`, plot.x, y, plot.right(), y, gridColor)
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, plot.x-6, y+4, axisColor, template.HTMLEscapeString(FormatTick(minVal+(maxVal-minVal)*ratio)))
	}
	fmt.Fprintf(&b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1"></line>`, plot.x, plot.bottom(), plot.right(), plot.bottom(), axisColor)

	if fillColor != "none" {
		fmt.Fprintf(&b, `<path d="%s L%.2f %.2f L%.2f %.2f Z" fill="%s" stroke="none" aria-hidden="true"></path>`, line, xAt(len(series)-1), plot.bottom(), xAt(0), plot.bottom(), fillColor)
	}
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round"></path>`, line, strokeColor)
	if opts.ShowDots {
		for i, value := range series {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"><title>%s: %s</title></circle>`, xAt(i), yAt(value), strokeColor, template.HTMLEscapeString(labels[i]), template.HTMLEscapeString(FormatTick(value)))
		}
	}
	every := labelStride(len(labels), opts.MaxLabels)
	for i, label := range labels {
		if i%every != 0 && i != len(labels)-1 {
			continue
		}
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, xAt(i), plot.bottom()+16, axisColor, template.HTMLEscapeString(label))
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// labelStride picks every n-th label so at most max are drawn.
func labelStride(count, max int) int {
	if max <= 0 || count <= max {
		return 1
	}
	return (count + max - 1) / max
}
