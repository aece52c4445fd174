package account

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/rbac"
	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
)

// Handler serves /account.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs the account handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, guard rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: guard, validator: validator.New()}
}

// MountRoutes registers the account pages for any signed-in user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/account", func(r chi.Router) {
		r.Use(h.guard.RequireRole())
		r.Get("/", h.show)
		r.Post("/profile", h.updateProfile)
		r.Get("/addresses/new", h.newAddress)
		r.Post("/addresses", h.createAddress)
		r.Get("/addresses/{id}/edit", h.editAddress)
		r.Post("/addresses/{id}", h.updateAddress)
		r.Post("/addresses/{id}/delete", h.deleteAddress)
	})
}

type profileForm struct {
	FullName    string `validate:"required,max=120"`
	PhoneNumber string `validate:"omitempty,max=30"`
}

type addressForm struct {
	Name         string `validate:"required,max=60"`
	Street       string `validate:"required,max=120"`
	StreetNumber int    `validate:"required,gt=0"`
	ZipCode      string `validate:"required,max=10,alphanum"`
	LocalityID   int64  `validate:"required,gt=0"`
}

func (f addressForm) input() domain.AddressInput {
	return domain.AddressInput{
		Name:         f.Name,
		Street:       f.Street,
		StreetNumber: f.StreetNumber,
		ZipCode:      f.ZipCode,
		LocalityID:   f.LocalityID,
	}
}

func addressFormFrom(a domain.Address) addressForm {
	locality := a.LocalityID
	if locality == 0 && a.Locality != nil {
		locality = a.Locality.IDKey
	}
	return addressForm{Name: a.Name, Street: a.Street, StreetNumber: a.StreetNumber, ZipCode: a.ZipCode, LocalityID: locality}
}

var fieldMessages = map[string]string{
	"required": "Este campo es obligatorio.",
	"max":      "El valor es demasiado largo.",
	"gt":       "Ingresá un número mayor a cero.",
	"alphanum": "Usá solo letras y números.",
}

func (h *Handler) validate(form any) map[string]string {
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				msg, ok := fieldMessages[fe.Tag()]
				if !ok {
					msg = "Valor inválido."
				}
				errs[fe.Field()] = msg
			}
		}
	}
	return errs
}

type accountPage struct {
	Overview
	Form   profileForm
	Errors map[string]string
	Error  string
}

type addressPage struct {
	ID         int64
	Form       addressForm
	Errors     map[string]string
	Localities []domain.Locality
}

// Action is the form target of the page.
func (p addressPage) Action() string {
	if p.ID == 0 {
		return "/account/addresses"
	}
	return "/account/addresses/" + strconv.FormatInt(p.ID, 10)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	token, _ := h.csrf.EnsureToken(r.Context(), sess)
	if err := h.templates.RenderStatus(w, status, page, view.Base(r, title, token, data)); err != nil {
		h.logger.Error("render account page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// failed handles a backend error: 401 goes to login, anything else returns
// to the account page with a flash.
func (h *Handler) failed(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, shared.ErrUnauthorized) {
		shared.RedirectToLogin(w, r)
		return
	}
	if errors.Is(err, shared.ErrNotFound) {
		shared.RedirectWithFlash(w, r, "/account", "warning", "La dirección no existe.")
		return
	}
	h.logger.Warn("account action failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	shared.RedirectWithFlash(w, r, "/account", "error", shared.UserMessage(err, msg))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	auth, _ := shared.AuthFromContext(r.Context())
	overview, err := h.service.Overview(r.Context(), auth.Claims.ID())
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			shared.RedirectToLogin(w, r)
			return
		}
		h.logger.Error("load account", slog.Any("error", err))
		h.render(w, r, http.StatusOK, "pages/account.html", "Mi cuenta", accountPage{Error: shared.UserMessage(err, "No pudimos cargar tu cuenta.")})
		return
	}
	h.render(w, r, http.StatusOK, "pages/account.html", "Mi cuenta", accountPage{
		Overview: overview,
		Form:     profileForm{FullName: overview.User.FullName, PhoneNumber: overview.User.PhoneNumber},
	})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	form := profileForm{
		FullName:    strings.TrimSpace(r.PostFormValue("full_name")),
		PhoneNumber: strings.TrimSpace(r.PostFormValue("phone_number")),
	}
	if errs := h.validate(form); len(errs) > 0 {
		auth, _ := shared.AuthFromContext(r.Context())
		overview, err := h.service.Overview(r.Context(), auth.Claims.ID())
		if err != nil {
			h.failed(w, r, "No pudimos cargar tu cuenta.", err)
			return
		}
		h.render(w, r, http.StatusUnprocessableEntity, "pages/account.html", "Mi cuenta", accountPage{Overview: overview, Form: form, Errors: errs})
		return
	}
	if _, err := h.service.UpdateProfile(r.Context(), domain.ProfileInput{FullName: form.FullName, PhoneNumber: form.PhoneNumber}); err != nil {
		h.failed(w, r, "No pudimos guardar tus datos.", err)
		return
	}
	shared.RedirectWithFlash(w, r, "/account", "success", "Tus datos fueron actualizados.")
}

func (h *Handler) renderAddress(w http.ResponseWriter, r *http.Request, status int, page addressPage) {
	localities, err := h.service.Localities(r.Context())
	if err != nil {
		h.failed(w, r, "No pudimos cargar las localidades.", err)
		return
	}
	page.Localities = localities
	title := "Nueva dirección"
	if page.ID != 0 {
		title = "Editar dirección"
	}
	h.render(w, r, status, "pages/address.html", title, page)
}

func (h *Handler) newAddress(w http.ResponseWriter, r *http.Request) {
	h.renderAddress(w, r, http.StatusOK, addressPage{})
}

func addressID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) editAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := addressID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	addr, err := h.service.Address(r.Context(), id)
	if err != nil {
		h.failed(w, r, "No pudimos cargar la dirección.", err)
		return
	}
	h.renderAddress(w, r, http.StatusOK, addressPage{ID: id, Form: addressFormFrom(addr)})
}

func parseAddressForm(r *http.Request) addressForm {
	number, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("street_number")))
	locality, _ := strconv.ParseInt(r.PostFormValue("locality_id"), 10, 64)
	return addressForm{
		Name:         strings.TrimSpace(r.PostFormValue("name")),
		Street:       strings.TrimSpace(r.PostFormValue("street")),
		StreetNumber: number,
		ZipCode:      strings.TrimSpace(r.PostFormValue("zip_code")),
		LocalityID:   locality,
	}
}

func (h *Handler) saveAddress(w http.ResponseWriter, r *http.Request, id int64) {
	form := parseAddressForm(r)
	if errs := h.validate(form); len(errs) > 0 {
		h.renderAddress(w, r, http.StatusUnprocessableEntity, addressPage{ID: id, Form: form, Errors: errs})
		return
	}
	if _, err := h.service.SaveAddress(r.Context(), id, form.input()); err != nil {
		var re shared.ResponseError
		if errors.As(err, &re) && (re.HTTPStatus() == http.StatusBadRequest || re.HTTPStatus() == http.StatusUnprocessableEntity) {
			msg := shared.UserMessage(err, "Revisá los datos de la dirección.")
			h.renderAddress(w, r, http.StatusUnprocessableEntity, addressPage{ID: id, Form: form, Errors: map[string]string{"general": msg}})
			return
		}
		h.failed(w, r, "No pudimos guardar la dirección.", err)
		return
	}
	shared.RedirectWithFlash(w, r, "/account", "success", "Dirección guardada.")
}

func (h *Handler) createAddress(w http.ResponseWriter, r *http.Request) {
	h.saveAddress(w, r, 0)
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := addressID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.saveAddress(w, r, id)
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := addressID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := h.service.DeleteAddress(r.Context(), id); err != nil {
		h.failed(w, r, "No pudimos eliminar la dirección.", err)
		return
	}
	shared.RedirectWithFlash(w, r, "/account", "success", "Dirección eliminada.")
}
