// src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/shopspring/decimal"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxNameLength        = 120
	MaxCategoryLength    = 60
	MaxDescriptionLength = 1024
)

var maxAmount = decimal.NewFromInt(100_000_000)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateAmount requires 0 < amount < 100,000,000 with at most 2 decimals.
func ValidateAmount(d decimal.Decimal, fieldName string) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", ErrValidationFailed, fieldName)
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: %s is too large", ErrValidationFailed, fieldName)
	}
	if !d.Equal(d.Round(2)) {
		return fmt.Errorf("%w: %s may have at most 2 decimal places", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateDate requires a calendar date to be set.
func ValidateDate(d models.Date, fieldName string) error {
	if d.IsZero() {
		return fmt.Errorf("%w: %s is required", ErrValidationFailed, fieldName)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// SanitizeExpense returns e with its free-text fields cleaned.
func SanitizeExpense(e models.Expense) models.Expense {
	e.Name = SanitizeText(e.Name)
	e.Category = SanitizeText(e.Category)
	e.PaymentMethod = SanitizeText(e.PaymentMethod)
	e.Description = SanitizeText(e.Description)
	return e
}

func ValidateExpense(e models.Expense) error {
	return firstError(
		ValidateStringNotEmpty(e.Name, "name"),
		ValidateStringMaxLength(e.Name, MaxNameLength, "name"),
		ValidateAmount(e.Amount, "amount"),
		ValidateDate(e.Date, "date"),
		ValidateStringNotEmpty(e.Category, "category"),
		ValidateStringMaxLength(e.Category, MaxCategoryLength, "category"),
		ValidateStringMaxLength(e.Description, MaxDescriptionLength, "detail"),
	)
}

func SanitizeBudgetGoal(g models.BudgetGoal) models.BudgetGoal {
	g.Name = SanitizeText(g.Name)
	g.Category = SanitizeText(g.Category)
	g.Description = SanitizeText(g.Description)
	if g.Status == "" {
		g.Status = models.GoalActive
	}
	if g.Priority == "" {
		g.Priority = models.PriorityMedium
	}
	return g
}

func ValidateBudgetGoal(g models.BudgetGoal) error {
	var statusErr, priorityErr error
	if !g.Status.Valid() {
		statusErr = fmt.Errorf("%w: unknown status %q", ErrValidationFailed, g.Status)
	}
	switch g.Priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		priorityErr = fmt.Errorf("%w: unknown priority %q", ErrValidationFailed, g.Priority)
	}
	return firstError(
		ValidateStringNotEmpty(g.Name, "name"),
		ValidateStringMaxLength(g.Name, MaxNameLength, "name"),
		ValidateAmount(g.Amount, "target amount"),
		ValidateDate(g.Date, "deadline"),
		ValidateStringNotEmpty(g.Category, "category"),
		ValidateStringMaxLength(g.Category, MaxCategoryLength, "category"),
		statusErr,
		priorityErr,
	)
}

func SanitizePayment(p models.Payment) models.Payment {
	p.Name = SanitizeText(p.Name)
	p.PayerName = SanitizeText(p.PayerName)
	p.PaymentType = SanitizeText(p.PaymentType)
	p.Notes = SanitizeText(p.Notes)
	return p
}

func ValidatePayment(p models.Payment) error {
	return firstError(
		ValidateStringNotEmpty(p.Name, "name"),
		ValidateStringMaxLength(p.Name, MaxNameLength, "name"),
		ValidateAmount(p.Amount, "amount"),
		ValidateDate(p.Date, "date"),
		ValidateStringMaxLength(p.Notes, MaxDescriptionLength, "notes"),
	)
}
