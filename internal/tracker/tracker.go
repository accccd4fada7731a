// Package tracker implements what the web routes do with the store: register
// and log in employees and run the expense lifecycle for the logged-in one.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"eets/internal/auth"
	"eets/internal/models"
	"eets/internal/validation"

	"github.com/google/uuid"
)

// Expected failures returned to the caller for display.
var (
	ErrInvalidEmployeeID = errors.New("employee ID must be a 5-digit numeric value")
	ErrEmployeeExists    = errors.New("employee ID already exists")
	ErrInvalidCategory   = errors.New("invalid category, category must contain only text")
)

// Store is the data access contract the service depends on.
type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	UserExists(ctx context.Context, employeeID string) (bool, error)
	CreateUsers(ctx context.Context, batch []models.Credentials) error
	ListExpenses(ctx context.Context) ([]models.Expense, error)
	GetExpenseByID(ctx context.Context, expenseID string) (models.Expense, bool, error)
	UpsertExpense(ctx context.Context, e models.Expense, isUpdate bool) error
	DeleteExpense(ctx context.Context, expenseID string) error
}

// LoginOutcome is the result of a credentials check.
type LoginOutcome int

const (
	// LoginInvalid means no user matched the employee ID and password.
	LoginInvalid LoginOutcome = iota
	// LoginOK means the credentials matched a stored user.
	LoginOK
)

// Service runs the tracker operations against a Store.
type Service struct {
	store Store
	newID func() string
}

// NewService creates a Service backed by store.
func NewService(store Store) *Service {
	return &Service{
		store: store,
		newID: func() string { return uuid.New().String() },
	}
}

// Register validates the credentials and stores a new user with a hashed
// password. Checking for an existing employee ID and inserting are separate
// store calls, so two concurrent registrations of one ID can both succeed.
func (s *Service) Register(ctx context.Context, employeeID, password string) error {
	if !validation.ValidateEmployeeID(employeeID) {
		return ErrInvalidEmployeeID
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	exists, err := s.store.UserExists(ctx, employeeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrEmployeeExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.CreateUsers(ctx, []models.Credentials{{EmployeeID: employeeID, Password: hash}})
}

// Login checks the credentials against every stored user.
func (s *Service) Login(ctx context.Context, employeeID, password string) (LoginOutcome, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return LoginInvalid, err
	}
	for _, u := range users {
		if u.EmployeeID == employeeID && auth.CheckPassword(password, u.Password) {
			return LoginOK, nil
		}
	}
	return LoginInvalid, nil
}

// AddExpense records a new expense for employeeID.
func (s *Service) AddExpense(ctx context.Context, employeeID, category, amount, date string) (models.Expense, error) {
	if !validation.ValidateCategory(category) {
		return models.Expense{}, ErrInvalidCategory
	}
	value, err := validation.ParseAmount(amount)
	if err != nil {
		return models.Expense{}, err
	}

	e := models.Expense{
		ExpenseID:  s.newID(),
		EmployeeID: employeeID,
		Category:   category,
		Amount:     value,
		Date:       date,
	}
	if err := s.store.UpsertExpense(ctx, e, false); err != nil {
		return models.Expense{}, err
	}
	return e, nil
}

// ExpensesFor returns the expenses owned by employeeID.
func (s *Service) ExpensesFor(ctx context.Context, employeeID string) ([]models.Expense, error) {
	all, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByOwner(all, employeeID), nil
}

// FilterByOwner returns the expenses in all that belong to employeeID.
func FilterByOwner(all []models.Expense, employeeID string) []models.Expense {
	owned := make([]models.Expense, 0, len(all))
	for _, e := range all {
		if e.EmployeeID == employeeID {
			owned = append(owned, e)
		}
	}
	return owned
}

// Expense returns the expense with expenseID if it belongs to employeeID.
func (s *Service) Expense(ctx context.Context, employeeID, expenseID string) (models.Expense, bool, error) {
	e, found, err := s.store.GetExpenseByID(ctx, expenseID)
	if err != nil || !found {
		return models.Expense{}, false, err
	}
	if e.EmployeeID != employeeID {
		return models.Expense{}, false, nil
	}
	return e, true, nil
}

// EditExpense replaces the category, amount and date of an expense owned by
// employeeID. It reports false if there is no such expense.
func (s *Service) EditExpense(ctx context.Context, employeeID, expenseID, category, amount, date string) (bool, error) {
	e, found, err := s.Expense(ctx, employeeID, expenseID)
	if err != nil || !found {
		return false, err
	}

	if !validation.ValidateCategory(category) {
		return true, ErrInvalidCategory
	}
	value, err := validation.ParseAmount(amount)
	if err != nil {
		return true, err
	}

	e.Category = category
	e.Amount = value
	e.Date = date
	if err := s.store.UpsertExpense(ctx, e, true); err != nil {
		return true, err
	}
	return true, nil
}

// DeleteExpense removes an expense owned by employeeID. It reports false if
// there is no such expense.
func (s *Service) DeleteExpense(ctx context.Context, employeeID, expenseID string) (bool, error) {
	_, found, err := s.Expense(ctx, employeeID, expenseID)
	if err != nil || !found {
		return false, err
	}
	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		return true, err
	}
	return true, nil
}

// Greeting returns the dashboard greeting for an hour of the day.
func Greeting(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Good Morning"
	case hour >= 12 && hour < 18:
		return "Good Afternoon"
	default:
		return "Good Evening"
	}
}
