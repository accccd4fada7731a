package models

import "github.com/shopspring/decimal"

// Expense represents a single expense recorded by an employee.
type Expense struct {
	ID         int64           `db:"id" json:"id"`
	ExpenseID  string          `db:"expense_id" json:"expense_id"`
	EmployeeID string          `db:"employee_id" json:"employee_id"`
	Category   string          `db:"category" json:"category"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Date       string          `db:"date" json:"date"`
}

// User represents a registered employee.
type User struct {
	ID         int64  `db:"id" json:"id"`
	EmployeeID string `db:"employee_id" json:"employee_id"`
	Password   string `db:"password" json:"-"`
}

// Credentials is an employee ID and password pair to be stored as a new user.
type Credentials struct {
	EmployeeID string
	Password   string
}
