package svg

import (
	"strings"
	"testing"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(480, []float64{42, 17, 0}, []string{"Pizza muzza", "Lomito completo", "Flan"}, BarOpts{
		Title:  "Productos más vendidos",
		Format: func(v float64) string { return FormatTick(v) + " u." },
	})
	if err != nil {
		t.Fatalf("bar renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output")
	}
	if strings.Count(output, "<rect") != 3 {
		t.Fatalf("expected one bar per row")
	}
	if !strings.Contains(output, "42 u.") {
		t.Fatalf("expected formatted values")
	}
}

func TestBarsRequiresValues(t *testing.T) {
	if _, err := Bars(480, nil, nil, BarOpts{}); err == nil {
		t.Fatalf("expected error for empty ranking")
	}
}
