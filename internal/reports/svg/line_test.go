package svg

import (
	"strings"
	"testing"
)

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(400, 200, []float64{1500, 0, 2300}, []string{"01/05", "02/05", "03/05"}, LineOpts{
		Title:       "Ingresos diarios",
		Description: "Ingresos por día",
		ShowDots:    true,
	})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if !strings.Contains(output, "<path") {
		t.Fatalf("expected path element in svg")
	}
	if !strings.Contains(output, `aria-labelledby="ingresos-diarios-line-title ingresos-diarios-line-desc"`) {
		t.Fatalf("expected accessibility attributes")
	}
	if strings.Count(output, "<circle") != 3 {
		t.Fatalf("expected one dot per point")
	}
}

func TestLineThinsLabels(t *testing.T) {
	series := make([]float64, 30)
	labels := make([]string, 30)
	for i := range labels {
		labels[i] = "d" + string(rune('A'+i%26))
	}
	html, err := Line(0, 0, series, labels, LineOpts{MaxLabels: 6})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	if got := strings.Count(string(html), `text-anchor="middle"`); got > 7 {
		t.Fatalf("expected at most 7 x labels, got %d", got)
	}
}

func TestLineRejectsMismatchedLabels(t *testing.T) {
	if _, err := Line(400, 200, []float64{1, 2}, []string{"a"}, LineOpts{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFormatTickUsesArgentineSeparators(t *testing.T) {
	cases := map[float64]string{
		12500:   "12,5 mil",
		1200000: "1,2 M",
		40:      "40",
	}
	for in, want := range cases {
		if got := FormatTick(in); got != want {
			t.Fatalf("FormatTick(%v) = %q, want %q", in, got, want)
		}
	}
}
