package views

import (
	"context"
	"fmt"

	"github.com/Majid760/xpensemate-sub000/src/api"
	"github.com/Majid760/xpensemate-sub000/src/events"
	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/Majid760/xpensemate-sub000/src/mutation"
)

// BudgetGoals is the budget goal table.
type BudgetGoals struct {
	*View[models.BudgetGoal]
}

// NewBudgetGoals builds the budget goal view.
func NewBudgetGoals(repo api.Repository[models.BudgetGoal], deps Deps) (*BudgetGoals, error) {
	v, err := newView("budget_goals", repo, events.BudgetGoalUpdated, mutation.DefaultMessages(api.BudgetGoals.Singular), deps)
	if err != nil {
		return nil, err
	}
	return &BudgetGoals{View: v}, nil
}

// SetStatus changes only the status of a held goal.
func (v *BudgetGoals) SetStatus(ctx context.Context, id string, status models.GoalStatus) (models.BudgetGoal, error) {
	if !status.Valid() {
		return models.BudgetGoal{}, fmt.Errorf("invalid goal status %q", status)
	}
	goal, ok := v.Records.Find(id)
	if !ok {
		return models.BudgetGoal{}, fmt.Errorf("set status of %s: %w", id, mutation.ErrNotFound)
	}
	goal.Status = status
	return v.Update(ctx, goal,
		mutation.WithSuccessMessage("Status updated successfully!"),
		mutation.WithFailureMessage("Failed to update status!"),
	)
}
