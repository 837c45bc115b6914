package models

import "github.com/shopspring/decimal"

// Expense is money spent, optionally counted against a budget goal.
type Expense struct {
	ID            string          `json:"_id,omitempty"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	Date          Date            `json:"date"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	BudgetGoalID  string          `json:"budget_goal_id,omitempty"`
	Description   string          `json:"detail,omitempty"`
}

func (e Expense) RecordID() string { return e.ID }

func (e Expense) WithID(id string) Expense {
	e.ID = id
	return e
}

// Predefined expense categories. Any other non-empty label is a custom category.
var ExpenseCategories = []string{
	"Food", "Transport", "Shopping", "Housing", "Utilities",
	"Health", "Entertainment", "Education", "Travel", "Other",
}

// Payment methods accepted for an expense.
const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodBank   = "bank_transfer"
	PaymentMethodWallet = "wallet"
)
