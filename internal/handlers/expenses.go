package handlers

import (
	"net/http"
	"sort"
	"strings"

	"eets/internal/logger"
	"eets/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExpenseFormViewModel is the data passed to the add and edit templates.
type ExpenseFormViewModel struct {
	Error     string
	ExpenseID string
	Category  string
	Amount    string
	Date      string
}

// ListViewModel is the data passed to the expense list template.
type ListViewModel struct {
	Total    decimal.Decimal
	Expenses []models.Expense
}

// AddExpenseForm renders the form to record a new expense.
func (h *Handlers) AddExpenseForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "add_expenses.html", ExpenseFormViewModel{})
}

// AddExpense records a new expense for the logged-in employee.
func (h *Handlers) AddExpense(w http.ResponseWriter, r *http.Request) {
	form, err := parseExpenseForm(r)
	if err != nil {
		h.render(w, "add_expenses.html", ExpenseFormViewModel{Error: "Invalid form submission"})
		return
	}

	employeeID := EmployeeID(r)
	if _, err := h.svc.AddExpense(r.Context(), employeeID, form.Category, form.Amount, form.Date); err != nil {
		if isUserError(err) {
			form.Error = err.Error()
			h.render(w, "add_expenses.html", form)
			return
		}
		logger.Log.Errorw("add expense failed", "employee_id", employeeID, zap.Error(err))
		h.renderError(w, msgUnexpected)
		return
	}

	http.Redirect(w, r, "/view_expenses", http.StatusFound)
}

// ViewExpenses lists the logged-in employee's expenses.
func (h *Handlers) ViewExpenses(w http.ResponseWriter, r *http.Request) {
	employeeID := EmployeeID(r)
	expenses, err := h.svc.ExpensesFor(r.Context(), employeeID)
	if err != nil {
		logger.Log.Errorw("list expenses failed", "employee_id", employeeID, zap.Error(err))
		h.renderError(w, "An unexpected error occurred while loading expenses. Please try again later.")
		return
	}

	sort.SliceStable(expenses, func(i, j int) bool { return expenses[i].Date > expenses[j].Date })

	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	h.render(w, "view_expenses.html", ListViewModel{Total: total, Expenses: expenses})
}

// EditExpenseForm renders the form to edit an existing expense. Unknown
// expenses redirect back to the list.
func (h *Handlers) EditExpenseForm(w http.ResponseWriter, r *http.Request) {
	employeeID := EmployeeID(r)
	expenseID := chi.URLParam(r, "id")

	e, found, err := h.svc.Expense(r.Context(), employeeID, expenseID)
	if err != nil {
		logger.Log.Errorw("get expense failed", "employee_id", employeeID, "expense_id", expenseID, zap.Error(err))
		h.renderError(w, msgUnexpected)
		return
	}
	if !found {
		http.Redirect(w, r, "/view_expenses", http.StatusFound)
		return
	}

	h.render(w, "edit_expense.html", ExpenseFormViewModel{
		ExpenseID: e.ExpenseID,
		Category:  e.Category,
		Amount:    e.Amount.String(),
		Date:      e.Date,
	})
}

// EditExpense saves the submitted category, amount and date.
func (h *Handlers) EditExpense(w http.ResponseWriter, r *http.Request) {
	employeeID := EmployeeID(r)
	expenseID := chi.URLParam(r, "id")

	form, err := parseExpenseForm(r)
	if err != nil {
		h.render(w, "edit_expense.html", ExpenseFormViewModel{ExpenseID: expenseID, Error: "Invalid form submission"})
		return
	}
	form.ExpenseID = expenseID

	found, err := h.svc.EditExpense(r.Context(), employeeID, expenseID, form.Category, form.Amount, form.Date)
	switch {
	case err != nil && isUserError(err):
		form.Error = err.Error()
		h.render(w, "edit_expense.html", form)
	case err != nil:
		logger.Log.Errorw("edit expense failed", "employee_id", employeeID, "expense_id", expenseID, zap.Error(err))
		h.renderError(w, msgUnexpected)
	default:
		if !found {
			logger.Log.Debugw("edit of unknown expense", "employee_id", employeeID, "expense_id", expenseID)
		}
		http.Redirect(w, r, "/view_expenses", http.StatusFound)
	}
}

// DeleteExpense removes an expense and returns to the list.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	employeeID := EmployeeID(r)
	expenseID := chi.URLParam(r, "id")

	if _, err := h.svc.DeleteExpense(r.Context(), employeeID, expenseID); err != nil {
		logger.Log.Errorw("delete expense failed", "employee_id", employeeID, "expense_id", expenseID, zap.Error(err))
		h.renderError(w, msgUnexpected)
		return
	}
	http.Redirect(w, r, "/view_expenses", http.StatusFound)
}

func parseExpenseForm(r *http.Request) (ExpenseFormViewModel, error) {
	if err := r.ParseForm(); err != nil {
		return ExpenseFormViewModel{}, err
	}
	return ExpenseFormViewModel{
		Category: strings.TrimSpace(r.FormValue("category")),
		Amount:   strings.TrimSpace(r.FormValue("amount")),
		Date:     strings.TrimSpace(r.FormValue("date")),
	}, nil
}
