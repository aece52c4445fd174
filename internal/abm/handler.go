package abm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/services"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
)

// Modal names accepted in ?modal=.
const (
	ModalForm        = "form"
	ModalView        = "view"
	ModalStock       = "stock"
	ModalDelete      = "delete"
	ModalCredentials = "credentials"
)

// Handler serves the administration screens.
type Handler struct {
	logger    *slog.Logger
	registry  *services.Registry
	lists     *ListController
	submitter *Submitter
	templates *view.Engine
	csrf      *shared.CSRFManager
	once      *shared.IdempotencyStore
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, registry *services.Registry, lists *ListController, submitter *Submitter, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, registry: registry, lists: lists, submitter: submitter, templates: templates, csrf: csrf}
}

// WithIdempotency makes stock adjustments apply once per dialog.
func (h *Handler) WithIdempotency(store *shared.IdempotencyStore) *Handler {
	h.once = store
	return h
}

// MountRoutes registers the routes relative to the admin prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.dashboard)
	r.Route("/{kind}", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/form", h.submitForm)
		r.Post("/{id}/delete", h.delete)
		r.Post("/{id}/stock", h.adjustStock)
	})
}

type pageData struct {
	Schema      Schema
	List        ListResult
	Modal       string
	Draft       *Draft
	Record      domain.Record
	Lookups     Lookups
	Stock       *StockForm
	StockErrors map[string]string
	Credentials *Credentials
	FormError   string
}

// ListURL is the list location of the page the data was rendered for.
func (p pageData) ListURL() string {
	return listURL(p.Schema.Kind, p.List.Pagination.Page, p.List.Search)
}

// PageURL links to another page keeping the search.
func (p pageData) PageURL(page int) string {
	return listURL(p.Schema.Kind, page, p.List.Search)
}

// ModalURL opens modal for rec on the current page.
func (p pageData) ModalURL(modal string, rec domain.Record) string {
	q := url.Values{"modal": {modal}}
	if rec != nil {
		q.Set("id", strconv.FormatInt(rec.Key(), 10))
		if d := Discriminator(rec); d != "" {
			q.Set("type", d)
		}
	}
	if p.List.Pagination.Page > 1 {
		q.Set("page", strconv.Itoa(p.List.Pagination.Page))
	}
	if p.List.Search != "" {
		q.Set("search", p.List.Search)
	}
	return "/admin/" + string(p.Schema.Kind) + "/?" + q.Encode()
}

// TypeOf exposes Discriminator to templates.
func (p pageData) TypeOf(rec domain.Record) string { return Discriminator(rec) }

// RecordImage is the picture of the record in the view modal, if any.
func (p pageData) RecordImage() string {
	switch r := p.Record.(type) {
	case domain.Product:
		return r.ImageURL
	case domain.Ingredient:
		return r.ImageURL
	default:
		return ""
	}
}

func listURL(kind domain.Kind, page int, search string) string {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	if search != "" {
		q.Set("search", search)
	}
	u := "/admin/" + string(kind) + "/"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func pageParam(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	token, _ := h.csrf.EnsureToken(r.Context(), sess)
	if err := h.templates.RenderStatus(w, status, page, view.Base(r, title, token, data)); err != nil {
		h.logger.Error("render admin page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) schema(w http.ResponseWriter, r *http.Request) (Schema, bool) {
	kind, ok := domain.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		http.NotFound(w, r)
		return Schema{}, false
	}
	return SchemaFor(kind)
}

// DashboardCard summarizes one kind on the admin home.
type DashboardCard struct {
	Kind  domain.Kind
	Title string
	Total int
	Error bool
}

type dashboardData struct {
	Cards    []DashboardCard
	LowStock []domain.Ingredient
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cards := make([]DashboardCard, len(domain.Kinds))
	var (
		lowStock []domain.Ingredient
		mu       sync.Mutex
		unauth   bool
	)
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range domain.Kinds {
		g.Go(func() error {
			res := h.lists.Load(gctx, kind, 1, "")
			cards[i] = DashboardCard{Kind: kind, Title: kind.Title(), Total: res.Pagination.Total, Error: res.Cause != nil}
			if errors.Is(res.Cause, shared.ErrUnauthorized) {
				mu.Lock()
				unauth = true
				mu.Unlock()
			}
			return nil
		})
	}
	g.Go(func() error {
		items, err := h.registry.Ingredients.All(gctx)
		if err != nil {
			h.logger.Warn("dashboard low stock", slog.Any("error", err))
			return nil
		}
		for _, item := range items {
			if item.Active && item.LowStock() {
				lowStock = append(lowStock, item)
			}
		}
		sort.Slice(lowStock, func(i, j int) bool { return lowStock[i].Name < lowStock[j].Name })
		return nil
	})
	_ = g.Wait()
	if unauth {
		shared.RedirectToLogin(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "pages/admin.html", "Panel de administración", dashboardData{Cards: cards, LowStock: lowStock})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	schema, ok := h.schema(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	res := h.lists.Load(r.Context(), schema.Kind, pageParam(q.Get("page")), strings.TrimSpace(q.Get("search")))
	if errors.Is(res.Cause, shared.ErrUnauthorized) {
		shared.RedirectToLogin(w, r)
		return
	}
	data := pageData{Schema: schema, List: res, Modal: q.Get("modal")}

	var rec domain.Record
	if idRaw := q.Get("id"); idRaw != "" {
		id, _ := strconv.ParseInt(idRaw, 10, 64)
		found, ok := res.Find(id, q.Get("type"))
		if !ok {
			shared.RedirectWithFlash(w, r, data.ListURL(), "warning", "El registro ya no está en la página actual.")
			return
		}
		rec = found
	}

	switch data.Modal {
	case ModalForm:
		data.Draft = NewDraft(schema.Kind, rec)
		if rec == nil {
			if pt := q.Get("type"); schema.Kind == domain.KindInventory && pt != "" {
				data.Draft.Set("product_type", pt)
			}
		}
		h.loadLookups(r.Context(), &data)
	case ModalView, ModalDelete:
		if rec == nil {
			data.Modal = ""
		}
		data.Record = rec
	case ModalStock:
		if rec == nil || !schema.CanAdjustStock(rec) {
			data.Modal = ""
			break
		}
		form := NewStockForm(rec)
		data.Record, data.Stock = rec, &form
	default:
		data.Modal = ""
	}
	h.render(w, r, http.StatusOK, "pages/abm.html", schema.Title, data)
}

func (h *Handler) loadLookups(ctx context.Context, data *pageData) {
	lookups, err := h.submitter.Lookups(ctx, data.Draft)
	if err != nil {
		h.logger.Warn("abm lookups failed", slog.String("kind", string(data.Schema.Kind)), slog.Any("error", err))
		data.FormError = shared.UserMessage(err, "No se pudieron cargar las opciones del formulario.")
		return
	}
	data.Lookups = lookups
}

// applyPost copies the posted form into d. Row collections and checkboxes are
// reset first since the browser omits removed rows and unchecked boxes.
func applyPost(d *Draft, form url.Values) {
	d.Details, d.PromoManufactured, d.PromoInventory = nil, nil, nil
	if _, ok := d.Values["active"]; ok {
		d.Values["active"] = "false"
	}
	keys := make([]string, 0, len(form))
	for key := range form {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		switch key {
		case "csrf_token", "action", "id", "type", "page", "search":
			continue
		}
		if d.IsEdit() && (key == "password" || key == "confirm_password" || key == "product_type" || key == "category_type") {
			continue
		}
		_ = d.Set(key, form.Get(key))
	}
}

func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	schema, ok := h.schema(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	res := h.lists.Load(ctx, schema.Kind, pageParam(r.PostFormValue("page")), strings.TrimSpace(r.PostFormValue("search")))
	if errors.Is(res.Cause, shared.ErrUnauthorized) {
		shared.RedirectToLogin(w, r)
		return
	}
	data := pageData{Schema: schema, List: res, Modal: ModalForm}

	var rec domain.Record
	if id, _ := strconv.ParseInt(r.PostFormValue("id"), 10, 64); id != 0 {
		found, ok := res.Find(id, r.PostFormValue("type"))
		if !ok {
			shared.RedirectWithFlash(w, r, data.ListURL(), "warning", "El registro ya no está en la página actual.")
			return
		}
		rec = found
	}
	draft := NewDraft(schema.Kind, rec)
	applyPost(draft, r.PostForm)
	data.Draft = draft

	action := r.PostFormValue("action")
	switch {
	case strings.HasPrefix(action, "add:"):
		draft.AddRow(strings.TrimPrefix(action, "add:"))
	case strings.HasPrefix(action, "remove:"):
		parts := strings.SplitN(strings.TrimPrefix(action, "remove:"), ":", 2)
		if len(parts) == 2 {
			draft.RemoveRow(parts[0], parts[1])
		}
	case action == "save":
		h.loadLookups(ctx, &data)
		h.save(w, r, data)
		return
	}
	h.loadLookups(ctx, &data)
	h.render(w, r, http.StatusOK, "pages/abm.html", schema.Title, data)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, data pageData) {
	outcome, err := h.submitter.Submit(r.Context(), data.Draft)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			shared.RedirectToLogin(w, r)
			return
		}
		if !errors.Is(err, ErrInvalidDraft) {
			h.logger.Warn("abm save failed", slog.String("kind", string(data.Schema.Kind)), slog.Any("error", err))
			data.FormError = shared.UserMessage(err, "No se pudo guardar el registro.")
		}
		h.render(w, r, http.StatusUnprocessableEntity, "pages/abm.html", data.Schema.Title, data)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	message := "Registro guardado correctamente."
	if outcome.Created {
		message = "Registro creado correctamente."
	}
	switch {
	case outcome.PurchaseFailed:
		sess.AddFlash(shared.FlashMessage{Kind: "warning", Message: "El producto se guardó pero no se pudo registrar la compra de stock."})
	case outcome.Purchase != nil:
		message += " Se registró la compra de " + view.Number(outcome.Purchase.Quantity) + " unidades."
	}

	if outcome.Credentials != nil {
		res := h.lists.Load(r.Context(), data.Schema.Kind, data.List.Pagination.Page, data.List.Search)
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: message})
		h.render(w, r, http.StatusOK, "pages/abm.html", data.Schema.Title, pageData{
			Schema:      data.Schema,
			List:        res,
			Modal:       ModalCredentials,
			Credentials: outcome.Credentials,
		})
		return
	}
	shared.RedirectWithFlash(w, r, data.ListURL(), "success", message)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	schema, ok := h.schema(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	res := h.lists.Load(ctx, schema.Kind, pageParam(r.PostFormValue("page")), strings.TrimSpace(r.PostFormValue("search")))
	target := listURL(schema.Kind, res.Pagination.Page, res.Search)
	if err := h.lists.Delete(ctx, schema.Kind, id, r.PostFormValue("type"), res); err != nil {
		switch {
		case errors.Is(err, shared.ErrUnauthorized):
			shared.RedirectToLogin(w, r)
		case errors.Is(err, ErrRowNotLoaded):
			shared.RedirectWithFlash(w, r, target, "warning", "El registro ya no está en la página actual.")
		default:
			h.logger.Warn("abm delete failed", slog.String("kind", string(schema.Kind)), slog.Int64("id", id), slog.Any("error", err))
			shared.RedirectWithFlash(w, r, target, "danger", shared.UserMessage(err, "No se pudo eliminar el registro."))
		}
		return
	}
	shared.RedirectWithFlash(w, r, target, "success", "Registro eliminado.")
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	schema, ok := h.schema(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	res := h.lists.Load(ctx, schema.Kind, pageParam(r.PostFormValue("page")), strings.TrimSpace(r.PostFormValue("search")))
	if errors.Is(res.Cause, shared.ErrUnauthorized) {
		shared.RedirectToLogin(w, r)
		return
	}
	data := pageData{Schema: schema, List: res, Modal: ModalStock}
	rec, found := res.Find(id, r.PostFormValue("type"))
	if !found || !schema.CanAdjustStock(rec) {
		shared.RedirectWithFlash(w, r, data.ListURL(), "warning", "El registro ya no está en la página actual.")
		return
	}

	form := NewStockForm(rec)
	form.Quantity = strings.TrimSpace(r.PostFormValue("quantity"))
	if cost := strings.TrimSpace(r.PostFormValue("unit_cost")); cost != "" {
		form.UnitCost = cost
	}
	form.Notes = r.PostFormValue("notes")
	if key := r.PostFormValue("idempotency_key"); key != "" {
		form.Key = key
	}
	data.Record, data.Stock = rec, &form

	claimed := false
	if h.once != nil {
		switch err := h.once.CheckAndInsert(ctx, form.Key, "stock"); {
		case errors.Is(err, shared.ErrIdempotencyConflict):
			shared.RedirectWithFlash(w, r, data.ListURL(), "warning", "Ese ajuste de stock ya fue registrado.")
			return
		case err != nil:
			h.logger.Warn("claim stock adjustment", slog.Any("error", err))
		default:
			claimed = true
		}
	}

	errs, err := h.submitter.AdjustStock(ctx, rec, form)
	if err != nil {
		if claimed {
			if relErr := h.once.Delete(ctx, form.Key, "stock"); relErr != nil {
				h.logger.Warn("release stock adjustment", slog.Any("error", relErr))
			}
		}
		if errors.Is(err, shared.ErrUnauthorized) {
			shared.RedirectToLogin(w, r)
			return
		}
		data.StockErrors = errs
		if !errors.Is(err, ErrInvalidDraft) {
			h.logger.Warn("stock adjustment failed", slog.Int64("id", id), slog.Any("error", err))
			data.FormError = shared.UserMessage(err, "No se pudo ajustar el stock.")
		}
		h.render(w, r, http.StatusUnprocessableEntity, "pages/abm.html", schema.Title, data)
		return
	}
	shared.RedirectWithFlash(w, r, data.ListURL(), "success", "Stock actualizado.")
}
