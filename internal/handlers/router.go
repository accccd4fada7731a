package handlers

import (
	"net/http"

	"eets/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the routes of h.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.WithLoggingHTTPMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/", h.LoginForm)
	r.Get("/login", h.LoginForm)
	r.Post("/", h.Login)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Get("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Get("/dashboard", h.Dashboard)
		r.Get("/add_expenses", h.AddExpenseForm)
		r.Post("/add_expenses", h.AddExpense)
		r.Get("/view_expenses", h.ViewExpenses)
		r.Get("/edit_expense/{id}", h.EditExpenseForm)
		r.Post("/edit_expense/{id}", h.EditExpense)
		r.Get("/delete_expense/{id}", h.DeleteExpense)
		r.Get("/visualization", h.Visualization)
	})

	return r
}
