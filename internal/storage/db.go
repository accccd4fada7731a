package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eets/internal/models"

	"github.com/jmoiron/sqlx"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB is the data access layer. It owns the users and expenses tables; nothing
// else reads or writes them.
type DB struct {
	conn *sqlx.DB
}

// NewDB opens the store at path and creates the schema if needed.
// Use ":memory:" for an isolated throwaway store.
func NewDB(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite serializes writers at the file level anyway. A single connection also
	// keeps a ":memory:" store alive for the lifetime of the DB.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.CreateTables(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// CreateTables creates the users and expenses tables. Calling it on an
// initialized store is a no-op.
func (db *DB) CreateTables(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			employee_id TEXT NOT NULL,
			password TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			expense_id TEXT NOT NULL,
			employee_id TEXT NOT NULL,
			category TEXT NOT NULL,
			amount TEXT NOT NULL,
			date TEXT NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// ListUsers returns every stored user.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := db.conn.SelectContext(ctx, &users, "SELECT id, employee_id, password FROM users"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UserExists reports whether a user with exactly this employee ID is stored.
func (db *DB) UserExists(ctx context.Context, employeeID string) (bool, error) {
	var id int64
	err := db.conn.GetContext(ctx, &id, "SELECT id FROM users WHERE employee_id = ? LIMIT 1", employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user %s: %w", employeeID, err)
	}
	return true, nil
}

// CreateUsers inserts one row per credentials pair in a single transaction:
// either the whole batch is stored or none of it. It does not check for
// existing employee IDs; callers are expected to call UserExists first.
func (db *DB) CreateUsers(ctx context.Context, batch []models.Credentials) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create users: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range batch {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO users (employee_id, password) VALUES (?, ?)",
			c.EmployeeID, c.Password,
		); err != nil {
			return fmt.Errorf("create user %s: %w", c.EmployeeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create users: %w", err)
	}
	return nil
}

// ListExpenses returns the expenses of all employees.
func (db *DB) ListExpenses(ctx context.Context) ([]models.Expense, error) {
	var expenses []models.Expense
	if err := db.conn.SelectContext(ctx, &expenses,
		"SELECT id, expense_id, employee_id, category, amount, date FROM expenses",
	); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// GetExpenseByID returns the first expense with the given expense ID.
// found is false when no such expense exists.
func (db *DB) GetExpenseByID(ctx context.Context, expenseID string) (e models.Expense, found bool, err error) {
	err = db.conn.GetContext(ctx, &e,
		"SELECT id, expense_id, employee_id, category, amount, date FROM expenses WHERE expense_id = ? LIMIT 1",
		expenseID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Expense{}, false, nil
	}
	if err != nil {
		return models.Expense{}, false, fmt.Errorf("get expense %s: %w", expenseID, err)
	}
	return e, true, nil
}

// UpsertExpense inserts e as a new row, or when isUpdate is set, overwrites the
// category, amount and date of the row matching both e.ExpenseID and
// e.EmployeeID. An update that matches nothing is not an error.
func (db *DB) UpsertExpense(ctx context.Context, e models.Expense, isUpdate bool) error {
	if !isUpdate {
		if _, err := db.conn.ExecContext(ctx,
			"INSERT INTO expenses (expense_id, employee_id, category, amount, date) VALUES (?, ?, ?, ?, ?)",
			e.ExpenseID, e.EmployeeID, e.Category, e.Amount, e.Date,
		); err != nil {
			return fmt.Errorf("insert expense %s: %w", e.ExpenseID, err)
		}
		return nil
	}

	if _, err := db.conn.ExecContext(ctx,
		"UPDATE expenses SET category = ?, amount = ?, date = ? WHERE expense_id = ? AND employee_id = ?",
		e.Category, e.Amount, e.Date, e.ExpenseID, e.EmployeeID,
	); err != nil {
		return fmt.Errorf("update expense %s: %w", e.ExpenseID, err)
	}
	return nil
}

// DeleteExpense removes every row with the given expense ID.
func (db *DB) DeleteExpense(ctx context.Context, expenseID string) error {
	if _, err := db.conn.ExecContext(ctx, "DELETE FROM expenses WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("delete expense %s: %w", expenseID, err)
	}
	return nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
