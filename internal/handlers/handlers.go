package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"eets/internal/auth"
	"eets/internal/logger"
	"eets/internal/tracker"
	"eets/internal/validation"

	"go.uber.org/zap"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// EmployeeContextKey is the context key for the authenticated employee ID.
	EmployeeContextKey contextKey = "employee_id"
	// TokenCookieName is the name of the cookie carrying the identity token.
	TokenCookieName = "eets_token"
)

const (
	msgInvalidLogin = "Invalid employee ID or password. Please try again."
	msgUnexpected   = "An unexpected error occurred. Please try again later."
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	svc          *tracker.Service
	issuer       *auth.Issuer
	templateDir  string
	secureCookie bool
	now          func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *tracker.Service, issuer *auth.Issuer, templateDir string, secureCookie bool) *Handlers {
	return &Handlers{
		svc:          svc,
		issuer:       issuer,
		templateDir:  templateDir,
		secureCookie: secureCookie,
		now:          time.Now,
	}
}

// EmployeeID returns the authenticated employee ID from the request context.
func EmployeeID(r *http.Request) string {
	if id, ok := r.Context().Value(EmployeeContextKey).(string); ok {
		return id
	}
	return ""
}

// WithEmployeeID returns a copy of ctx carrying employeeID.
func WithEmployeeID(ctx context.Context, employeeID string) context.Context {
	return context.WithValue(ctx, EmployeeContextKey, employeeID)
}

// AuthMiddleware requires a valid identity token and passes the employee ID it
// names to next through the request context.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employeeID, ok := h.currentEmployee(r)
		if !ok {
			h.clearTokenCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithEmployeeID(r.Context(), employeeID)))
	})
}

func (h *Handlers) currentEmployee(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(TokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	employeeID, err := h.issuer.Parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return employeeID, true
}

// FormViewModel holds data for the login and register pages.
type FormViewModel struct {
	Error      string
	EmployeeID string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentEmployee(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, "login.html", FormViewModel{})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "login.html", FormViewModel{Error: msgInvalidLogin})
		return
	}

	employeeID := strings.TrimSpace(r.FormValue("employee_id"))
	password := r.FormValue("password")

	outcome, err := h.svc.Login(r.Context(), employeeID, password)
	if err != nil {
		logger.Log.Errorw("login failed", "employee_id", employeeID, zap.Error(err))
		h.render(w, "login.html", FormViewModel{Error: msgUnexpected, EmployeeID: employeeID})
		return
	}
	if outcome != tracker.LoginOK {
		h.render(w, "login.html", FormViewModel{Error: msgInvalidLogin, EmployeeID: employeeID})
		return
	}

	token, _, err := h.issuer.Issue(employeeID)
	if err != nil {
		logger.Log.Errorw("issue token failed", "employee_id", employeeID, zap.Error(err))
		h.render(w, "login.html", FormViewModel{Error: msgUnexpected, EmployeeID: employeeID})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.issuer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register.html", FormViewModel{})
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, "register.html", FormViewModel{Error: "Invalid form submission"})
		return
	}

	employeeID := strings.TrimSpace(r.FormValue("employee_id"))
	password := r.FormValue("password")

	err := h.svc.Register(r.Context(), employeeID, password)
	switch {
	case err == nil:
		http.Redirect(w, r, "/login", http.StatusFound)
	case isUserError(err):
		h.render(w, "register.html", FormViewModel{Error: err.Error(), EmployeeID: employeeID})
	default:
		logger.Log.Errorw("register failed", "employee_id", employeeID, zap.Error(err))
		h.renderError(w, msgUnexpected)
	}
}

// Logout clears the identity token.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearTokenCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	EmployeeID string
	Greeting   string
}

// Dashboard renders the landing page of a logged-in employee.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.render(w, "dashboard.html", DashboardViewModel{
		EmployeeID: EmployeeID(r),
		Greeting:   tracker.Greeting(h.now().Hour()),
	})
}

// ErrorViewModel is the data passed to the error template.
type ErrorViewModel struct {
	Error string
}

func (h *Handlers) renderError(w http.ResponseWriter, msg string) {
	h.renderStatus(w, http.StatusInternalServerError, "error.html", ErrorViewModel{Error: msg})
}

// isUserError reports whether err is an expected validation outcome whose
// message can be shown as is.
func isUserError(err error) bool {
	for _, target := range []error{
		tracker.ErrInvalidEmployeeID,
		tracker.ErrEmployeeExists,
		tracker.ErrInvalidCategory,
		validation.ErrPasswordTooShort,
		validation.ErrPasswordNoLetter,
		validation.ErrPasswordNoDigit,
		validation.ErrPasswordNoSpecial,
		validation.ErrAmountRequired,
		validation.ErrAmountInvalid,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (h *Handlers) render(w http.ResponseWriter, viewName string, data any) {
	h.renderStatus(w, http.StatusOK, viewName, data)
}

// renderStatus executes viewName inside the base layout. The status is only
// written once the templates have parsed.
func (h *Handlers) renderStatus(w http.ResponseWriter, status int, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		logger.Log.Errorw("template error", "view", viewName, zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		logger.Log.Errorw("template execution error", "view", viewName, zap.Error(err))
	}
}
