package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var tickPrinter = message.NewPrinter(language.MustParse("es-AR"))

type frame struct {
	x, y, w, h float64
}

func newFrame(width, height int, padding float64) frame {
	// Extra room on the left for tick labels and below for day labels.
	return frame{x: padding + 16, y: padding / 2, w: float64(width) - 2*padding - 16, h: float64(height) - 1.5*padding - 8}
}

func (f frame) ok() bool { return f.w > 0 && f.h > 0 }
func (f frame) right() float64 { return f.x + f.w }
func (f frame) bottom() float64 { return f.y + f.h }

func openSVG(b *strings.Builder, width, height int, title, desc, kind, defaultTitle string) {
	titleID := makeID(title, kind+"-title")
	descID := makeID(title, kind+"-desc")
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, width, height, titleID, descID)
	fmt.Fprintf(b, `<title id="%s">%s</title>`, titleID, template.HTMLEscapeString(fallback(title, defaultTitle)))
	fmt.Fprintf(b, `<desc id="%s">%s</desc>`, descID, template.HTMLEscapeString(fallback(desc, defaultTitle)))
}

// axisBounds widens the range to include zero and never collapses it.
func axisBounds(series []float64) (float64, float64) {
	minVal, maxVal := bounds(series)
	minVal = math.Min(minVal, 0)
	maxVal = math.Max(maxVal, 0)
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	return minVal, maxVal
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func bounds(series []float64) (float64, float64) {
	minVal, maxVal := series[0], series[0]
	for _, v := range series[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

// FormatTick abbreviates large amounts the way the dashboard prints them
// (12,5 mil; 1,2 M) with es-AR separators.
func FormatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return tickPrinter.Sprintf("%.1f M", v/1_000_000)
	case abs >= 1_000:
		return tickPrinter.Sprintf("%.1f mil", v/1_000)
	case almostEqual(v, math.Round(v)):
		return tickPrinter.Sprintf("%.0f", v)
	default:
		return tickPrinter.Sprintf("%.2f", v)
	}
}
