package orders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/platform/httpx"
	"github.com/buensabor/buensabor-web/internal/rbac"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
)

// Handler serves the boards, the order detail and the live feed.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	hub       *Hub
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     rbac.Middleware
	publicURL string
}

// NewHandler constructs a Handler. hub may be nil to disable live updates.
func NewHandler(logger *slog.Logger, service *Service, hub *Hub, templates *view.Engine, csrf *shared.CSRFManager, guard rbac.Middleware, publicURL string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, hub: hub, templates: templates, csrf: csrf, guard: guard, publicURL: publicURL}
}

// MountRoutes registers /boards and /orders.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequireStaff()).Get("/boards", h.boardsHome)
	r.Route("/boards/{board}", func(r chi.Router) {
		r.Use(h.boardAccess)
		r.Get("/", h.showBoard)
		r.Get("/feed", h.feed)
		r.Get("/ws", h.serveWS)
		r.Post("/orders/{id}/advance", h.advance)
		r.Post("/orders/{id}/delay", h.delay)
	})
	r.Route("/orders/{id}", func(r chi.Router) {
		r.Use(h.guard.RequireStaff())
		r.Get("/", h.detail)
		r.Get("/qr.png", h.qr)
		r.Get("/ticket.pdf", h.ticket)
	})
}

type boardContextKey struct{}

func boardFrom(ctx context.Context) Board {
	b, _ := ctx.Value(boardContextKey{}).(Board)
	return b
}

// boardAccess resolves {board} and applies the board's role guard.
func (h *Handler) boardAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		board, ok := ParseBoard(chi.URLParam(r, "board"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), boardContextKey{}, board)
		h.guard.RequireRole(board.Roles()...)(next).ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) boardsHome(w http.ResponseWriter, r *http.Request) {
	auth, _ := shared.AuthFromContext(r.Context())
	target := BoardCashier.Path()
	if home := shared.HomePath(auth.Claims.Role); strings.HasPrefix(home, "/boards/") {
		target = home
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type boardPage struct {
	Board   Board
	Boards  []Board
	Columns []Column
	Page    int
	Live    bool
}

// AdvanceLabel exposes the button caption to templates.
func (boardPage) AdvanceLabel(o domain.Order) string { return AdvanceLabel(o) }

// CanDelay reports whether the delay form is shown for o.
func (boardPage) CanDelay(o domain.Order) bool { return AllowsDelay(o) }

// ActionURL is the form target of action on o.
func (p boardPage) ActionURL(o domain.Order, action string) string {
	return p.Board.Path() + "/orders/" + strconv.FormatInt(o.IDKey, 10) + "/" + action
}

// visibleBoards lists the boards the signed-in role may switch to.
func visibleBoards(auth shared.AuthSession) []Board {
	var out []Board
	for _, b := range Boards {
		if auth.HasRole(b.Roles()...) {
			out = append(out, b)
		}
	}
	return out
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	token, _ := h.csrf.EnsureToken(r.Context(), sess)
	if err := h.templates.RenderStatus(w, status, page, view.Base(r, title, token, data)); err != nil {
		h.logger.Error("render order page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) showBoard(w http.ResponseWriter, r *http.Request) {
	board := boardFrom(r.Context())
	page := pageParam(r.URL.Query().Get("page"))
	columns, err := h.service.Columns(r.Context(), board, page)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			shared.RedirectToLogin(w, r)
			return
		}
		h.logger.Error("load board", slog.String("board", string(board)), slog.Any("error", err))
		columns = nil
	}
	auth, _ := shared.AuthFromContext(r.Context())
	h.render(w, r, http.StatusOK, "pages/board.html", board.Title(), boardPage{
		Board:   board,
		Boards:  visibleBoards(auth),
		Columns: columns,
		Page:    page,
		Live:    h.hub != nil,
	})
}

func (h *Handler) feed(w http.ResponseWriter, r *http.Request) {
	board := boardFrom(r.Context())
	columns, err := h.service.Columns(r.Context(), board, pageParam(r.URL.Query().Get("page")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"board": board, "columns": columns})
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.NotFound(w, r)
		return
	}
	h.hub.ServeWS(w, r, boardFrom(r.Context()))
}

func orderID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	board := boardFrom(r.Context())
	id, ok := orderID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	order, err := h.service.Advance(r.Context(), board, id)
	if err != nil {
		h.actionFailed(w, r, board, id, err)
		return
	}
	shared.RedirectWithFlash(w, r, board.Path(), "success",
		"Pedido #"+strconv.FormatInt(id, 10)+": "+order.Status.Label()+".")
}

func (h *Handler) delay(w http.ResponseWriter, r *http.Request) {
	board := boardFrom(r.Context())
	id, ok := orderID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	minutes, err := strconv.Atoi(r.PostFormValue("delay_minutes"))
	if err != nil {
		minutes = 0
	}
	if _, err := h.service.Delay(r.Context(), board, id, minutes); err != nil {
		h.actionFailed(w, r, board, id, err)
		return
	}
	shared.RedirectWithFlash(w, r, board.Path(), "success",
		"Se agregaron "+strconv.Itoa(minutes)+" minutos al pedido #"+strconv.FormatInt(id, 10)+".")
}

func (h *Handler) actionFailed(w http.ResponseWriter, r *http.Request, board Board, id int64, err error) {
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		shared.RedirectToLogin(w, r)
	case errors.Is(err, ErrNotOnBoard):
		shared.RedirectWithFlash(w, r, board.Path(), "warning", "El pedido ya cambió de estado. Actualizamos el tablero.")
	case errors.Is(err, ErrFinalStatus):
		shared.RedirectWithFlash(w, r, board.Path(), "warning", "El pedido ya está finalizado.")
	default:
		h.logger.Warn("order action failed", slog.String("board", string(board)), slog.Int64("order_id", id), slog.Any("error", err))
		shared.RedirectWithFlash(w, r, board.Path(), "error", shared.UserMessage(err, "No pudimos actualizar el pedido."))
	}
}

type detailPage struct {
	Order       domain.Order
	Lines       []TicketLine
	TrackingURL string
	CanAdvance  bool
	Next        domain.OrderStatus
	Boards      []Board
}

func (h *Handler) loadOrder(w http.ResponseWriter, r *http.Request) (domain.Order, bool) {
	id, ok := orderID(r)
	if !ok {
		http.NotFound(w, r)
		return domain.Order{}, false
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrUnauthorized):
			shared.RedirectToLogin(w, r)
		case errors.Is(err, shared.ErrNotFound):
			http.NotFound(w, r)
		default:
			h.logger.Error("load order", slog.Int64("order_id", id), slog.Any("error", err))
			shared.RedirectWithFlash(w, r, "/boards", "error", shared.UserMessage(err, "No pudimos cargar el pedido."))
		}
		return domain.Order{}, false
	}
	return order, true
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	next, can := NextStatus(order)
	h.render(w, r, http.StatusOK, "pages/order.html", "Pedido #"+strconv.FormatInt(order.IDKey, 10), detailPage{
		Order:       order,
		Lines:       TicketLines(order),
		TrackingURL: TrackingURL(h.publicURL, order.IDKey),
		CanAdvance:  can,
		Next:        next,
		Boards:      BoardsFor(order.Status),
	})
}

func (h *Handler) qr(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	png, err := TrackingQR(TrackingURL(h.publicURL, id))
	if err != nil {
		h.logger.Error("order qr", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(png)
}

func (h *Handler) ticket(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	pdf, err := RenderTicket(order, TrackingURL(h.publicURL, order.IDKey))
	if err != nil {
		h.logger.Error("order ticket", slog.Int64("order_id", order.IDKey), slog.Any("error", err))
		shared.RedirectWithFlash(w, r, "/orders/"+strconv.FormatInt(order.IDKey, 10), "error", "No pudimos generar la comanda.")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="pedido-`+strconv.FormatInt(order.IDKey, 10)+`.pdf"`)
	_, _ = w.Write(pdf)
}

func pageParam(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
