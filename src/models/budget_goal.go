package models

import "github.com/shopspring/decimal"

// GoalStatus is the lifecycle state of a budget goal.
type GoalStatus string

const (
	GoalActive     GoalStatus = "active"
	GoalAchieved   GoalStatus = "achieved"
	GoalFailed     GoalStatus = "failed"
	GoalTerminated GoalStatus = "terminated"
)

// Valid reports whether s is a known status.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalAchieved, GoalFailed, GoalTerminated:
		return true
	}
	return false
}

// GoalPriority orders goals in the insights panel.
type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

// BudgetGoal is a spending target for a category up to a deadline.
type BudgetGoal struct {
	ID          string          `json:"_id,omitempty"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	Category    string          `json:"category"`
	Priority    GoalPriority    `json:"priority"`
	Status      GoalStatus      `json:"status"`
	Description string          `json:"detail,omitempty"`
}

func (g BudgetGoal) RecordID() string { return g.ID }

func (g BudgetGoal) WithID(id string) BudgetGoal {
	g.ID = id
	return g
}
