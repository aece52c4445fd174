package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	User        *shared.Claims
	Data        any
}

// Locale drives number and money formatting.
var Locale = language.MustParse("es-AR")

var printer = message.NewPrinter(Locale)

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").Funcs(Funcs()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Funcs is the template function map.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate":  formatDate,
		"formatDay":   formatDay,
		"money":       Money,
		"number":      Number,
		"statusLabel": func(s domain.OrderStatus) string { return s.Label() },
		"roleLabel":   RoleLabel,
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"dict":        dict,
		"query":       query,
		"imageURL":    imageURL,
		"hasPrefix":   strings.HasPrefix,
	}
}

// Base assembles TemplateData from the request, popping one flash message.
func Base(r *http.Request, title, csrfToken string, data any) TemplateData {
	td := TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		td.Flash = sess.PopFlash()
	}
	if auth, ok := shared.AuthFromContext(r.Context()); ok {
		claims := auth.Claims
		td.User = &claims
	}
	return td
}

// Render executes a named template with TemplateData and status 200.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus executes a named template into a buffer, then writes headers and body.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Execute runs a named template with arbitrary data, for documents that are
// not served as pages (PDF sources).
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	return e.templates.ExecuteTemplate(w, name, data)
}

// Money formats an amount as Argentine pesos.
func Money(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("$ %.2f", f)
}

// Number formats a decimal with up to three fraction digits.
func Number(d decimal.Decimal) string {
	if d.IsInteger() {
		return printer.Sprintf("%d", d.IntPart())
	}
	f, _ := d.Round(3).Float64()
	return printer.Sprint(f)
}

// RoleLabel is the human label of a backend role.
func RoleLabel(role string) string {
	switch role {
	case shared.RoleAdmin:
		return "Administrador"
	case shared.RoleClient:
		return "Cliente"
	case shared.RoleDelivery:
		return "Delivery"
	case shared.RoleCashier:
		return "Cajero"
	case shared.RoleCook:
		return "Cocinero"
	case shared.RoleEmployee:
		return "Empleado"
	default:
		return role
	}
}

func formatDate(v any) string {
	t := asTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

func formatDay(v any) string {
	t := asTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case domain.Timestamp:
		return t.Time
	case *time.Time:
		if t != nil {
			return *t
		}
	}
	return time.Time{}
}

func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}

// query builds "?k=v&..." from alternating key/value pairs, skipping empty values.
func query(pairs ...any) string {
	values := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		key := fmt.Sprint(pairs[i])
		val := fmt.Sprint(pairs[i+1])
		if val == "" || val == "0" {
			continue
		}
		values.Set(key, val)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// imageURL lets stored data URLs through the URL sanitizer.
func imageURL(raw string) template.URL {
	if strings.HasPrefix(raw, "data:image/") || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "/") {
		return template.URL(raw)
	}
	return ""
}
