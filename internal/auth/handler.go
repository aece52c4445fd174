package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/buensabor/buensabor-web/internal/shared"
	"github.com/buensabor/buensabor-web/internal/view"
)

const invalidCredentialsMessage = "Email o contraseña incorrectos."

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
	publicURL      string
}

// NewHandler constructs a Handler instance. publicURL is where the browser reaches this app.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager, publicURL string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
		publicURL:      strings.TrimRight(publicURL, "/"),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Get("/auth/google/login", h.handleGoogle)
	r.Get("/auth/callback", h.handleCallback)
	r.Get("/profile/password", h.showPassword)
	r.Post("/profile/password", h.handlePassword)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerForm struct {
	FullName        string `validate:"required,max=120"`
	Email           string `validate:"required,email"`
	PhoneNumber     string `validate:"omitempty,max=30"`
	Password        string `validate:"required"`
	ConfirmPassword string
}

type formPageData struct {
	Form   any
	Errors map[string]string
	// FirstLogin shows the forced-change notice on the password page.
	FirstLogin bool
}

var fieldMessages = map[string]string{
	"required": "Este campo es obligatorio.",
	"email":    "Ingresá un email válido.",
	"max":      "El valor es demasiado largo.",
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

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data formPageData) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	if err := h.templates.RenderStatus(w, status, page, view.Base(r, title, csrfToken, data)); err != nil {
		h.logger.Error("render auth page", slog.String("page", page), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if auth, ok := shared.AuthFromContext(r.Context()); ok {
		http.Redirect(w, r, shared.HomePath(auth.Claims.Role), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "pages/login.html", "Ingresar", formPageData{Form: loginForm{}})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	errs := h.validate(form)
	if len(errs) == 0 {
		auth, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err == nil {
			h.signIn(w, r, auth)
			return
		}
		if errors.Is(err, shared.ErrInvalidCredentials) {
			errs["general"] = invalidCredentialsMessage
		} else {
			h.logger.Warn("login failed", slog.Any("error", err))
			errs["general"] = shared.UserMessage(err, invalidCredentialsMessage)
		}
	}
	form.Password = ""
	h.render(w, r, http.StatusBadRequest, "pages/login.html", "Ingresar", formPageData{Form: form, Errors: errs})
}

// signIn stores auth under a fresh session id and routes by role.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, auth shared.AuthSession) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.sessionManager.Renew(sess)
	sess.SetAuth(auth)
	if _, err := h.csrfManager.RotateToken(r.Context(), sess); err != nil {
		h.logger.Warn("rotate csrf token", slog.Any("error", err))
	}
	if auth.Claims.FirstLogin {
		sess.AddFlash(shared.FlashMessage{Kind: "warning", Message: "Debés cambiar tu contraseña antes de continuar."})
		http.Redirect(w, r, "/profile/password", http.StatusSeeOther)
		return
	}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Bienvenido/a de nuevo."})
	http.Redirect(w, r, shared.HomePath(auth.Claims.Role), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.ClearAuth()
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/register.html", "Crear cuenta", formPageData{Form: registerForm{}})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := registerForm{
		FullName:        strings.TrimSpace(r.PostFormValue("full_name")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		PhoneNumber:     strings.TrimSpace(r.PostFormValue("phone_number")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	errs := h.validate(form)
	if len(errs) == 0 {
		if err := ValidatePassword(form.Password, form.ConfirmPassword); err != nil {
			errs["Password"] = shared.UserSafeMessage(err)
		}
	}
	if len(errs) == 0 {
		err := h.service.Register(r.Context(), RegisterInput{
			FullName:    form.FullName,
			Email:       form.Email,
			PhoneNumber: form.PhoneNumber,
			Password:    form.Password,
		})
		if err == nil {
			shared.RedirectWithFlash(w, r, "/login", "success", "Cuenta creada. Ya podés ingresar.")
			return
		}
		h.logger.Warn("register failed", slog.Any("error", err))
		errs["general"] = shared.UserMessage(err, "No se pudo crear la cuenta.")
	}
	form.Password, form.ConfirmPassword = "", ""
	h.render(w, r, http.StatusBadRequest, "pages/register.html", "Crear cuenta", formPageData{Form: form, Errors: errs})
}

func (h *Handler) handleGoogle(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.service.GoogleLoginURL(h.publicURL+"/auth/callback"), http.StatusFound)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.URL.Query().Get("access_token")
	}
	auth, err := h.service.FromToken(token)
	if err != nil {
		h.logger.Warn("oauth callback rejected", slog.Any("error", err))
		shared.RedirectWithFlash(w, r, "/login", "danger", "No se pudo completar el ingreso con Google.")
		return
	}
	h.signIn(w, r, auth)
}

func (h *Handler) showPassword(w http.ResponseWriter, r *http.Request) {
	auth, ok := shared.AuthFromContext(r.Context())
	if !ok {
		shared.RedirectToLogin(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "pages/password.html", "Cambiar contraseña", formPageData{FirstLogin: auth.Claims.FirstLogin})
}

func (h *Handler) handlePassword(w http.ResponseWriter, r *http.Request) {
	auth, ok := shared.AuthFromContext(r.Context())
	if !ok {
		shared.RedirectToLogin(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	err := h.service.ChangePassword(r.Context(), r.PostFormValue("password"), r.PostFormValue("confirm_password"))
	if err == nil {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			auth.Claims.FirstLogin = false
			sess.SetAuth(auth)
		}
		shared.RedirectWithFlash(w, r, shared.HomePath(auth.Claims.Role), "success", "Contraseña actualizada.")
		return
	}
	if errors.Is(err, shared.ErrUnauthorized) {
		shared.RedirectToLogin(w, r)
		return
	}
	errs := map[string]string{"general": shared.UserMessage(err, "No se pudo cambiar la contraseña.")}
	var validation *shared.ValidationError
	if errors.As(err, &validation) {
		errs = map[string]string{validation.Field: validation.Message}
	}
	h.render(w, r, http.StatusBadRequest, "pages/password.html", "Cambiar contraseña", formPageData{Errors: errs, FirstLogin: auth.Claims.FirstLogin})
}
