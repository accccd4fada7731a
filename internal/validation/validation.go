// Package validation holds the input rules applied before anything is written
// to the store. All functions are pure.
package validation

import (
	"errors"
	"strings"
	"unicode"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// EmployeeIDTag is the validator rule for an employee ID: five ASCII digits.
const EmployeeIDTag = "len=5,number"

var validate = validator.New()

// SpecialCharacters is the set a password must draw at least one character from.
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// Password rule violations, reported in this order.
var (
	ErrPasswordTooShort  = errors.New("password must be longer than 8 characters")
	ErrPasswordNoLetter  = errors.New("password must contain at least one letter")
	ErrPasswordNoDigit   = errors.New("password must contain at least one digit")
	ErrPasswordNoSpecial = errors.New("password must contain at least one special character (" + SpecialCharacters + ")")
)

// Amount parsing errors.
var (
	ErrAmountRequired = errors.New("amount is required")
	ErrAmountInvalid  = errors.New("amount must be a number")
)

// ValidateEmployeeID reports whether id is exactly five decimal digits.
func ValidateEmployeeID(id string) bool {
	return validate.Var(id, EmployeeIDTag) == nil
}

// ValidatePassword returns the error for the first rule password breaks, or
// nil if it satisfies all of them. The rules are checked in order so that each
// failure maps to its own error.
func ValidatePassword(password string) error {
	if len([]rune(password)) <= 8 {
		return ErrPasswordTooShort
	}
	if !strings.ContainsFunc(password, unicode.IsLetter) {
		return ErrPasswordNoLetter
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return ErrPasswordNoDigit
	}
	if !strings.ContainsAny(password, SpecialCharacters) {
		return ErrPasswordNoSpecial
	}
	return nil
}

// ValidateCategory reports whether category is non-empty and made only of
// letters separated by whitespace.
func ValidateCategory(category string) bool {
	words := strings.Fields(category)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

// ParseAmount parses a submitted amount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrAmountRequired
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrAmountInvalid
	}
	return amount, nil
}
