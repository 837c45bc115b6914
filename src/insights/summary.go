// Package insights computes the budget insights panel: spending against each
// goal, category breakdown and weekly totals. The panel refetches whenever a
// goal or expense is confirmed changed.
package insights

import (
	"sort"
	"time"

	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// GoalProgress is spending counted against one goal.
type GoalProgress struct {
	Goal      models.BudgetGoal
	Spent     decimal.Decimal
	Remaining decimal.Decimal // never negative
	Percent   decimal.Decimal // of the target, rounded to 2 places
	Exceeded  bool
}

// WeekTotal is the spend of one Monday-starting week.
type WeekTotal struct {
	WeekStart models.Date
	Total     decimal.Decimal
}

// Summary is what the panel renders.
type Summary struct {
	Total      decimal.Decimal
	Goals      []GoalProgress
	ByCategory map[string]decimal.Decimal
	Weekly     []WeekTotal // oldest first
	// WeekOverWeek is the percent change of the latest week against the one
	// before; zero when there is no prior week or it had no spend.
	WeekOverWeek decimal.Decimal
}

// WeekStart returns the Monday on or before d.
func WeekStart(d models.Date) models.Date {
	offset := (int(d.Weekday()) + 6) % 7
	y, m, day := d.AddDate(0, 0, -offset).Date()
	return models.NewDate(y, m, day)
}

// Summarize reduces expenses and goals into a Summary.
func Summarize(expenses []models.Expense, goals []models.BudgetGoal) Summary {
	s := Summary{
		Total:      decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal),
	}
	spentByGoal := make(map[string]decimal.Decimal)
	weekly := make(map[time.Time]decimal.Decimal)

	for _, e := range expenses {
		s.Total = s.Total.Add(e.Amount)
		cat := e.Category
		if cat == "" {
			cat = "Other"
		}
		s.ByCategory[cat] = s.ByCategory[cat].Add(e.Amount)
		if e.BudgetGoalID != "" {
			spentByGoal[e.BudgetGoalID] = spentByGoal[e.BudgetGoalID].Add(e.Amount)
		}
		if !e.Date.IsZero() {
			ws := WeekStart(e.Date).Time
			weekly[ws] = weekly[ws].Add(e.Amount)
		}
	}

	for _, g := range goals {
		spent := spentByGoal[g.ID]
		p := GoalProgress{Goal: g, Spent: spent, Percent: decimal.Zero}
		p.Remaining = g.Amount.Sub(spent)
		if p.Remaining.IsNegative() {
			p.Remaining = decimal.Zero
			p.Exceeded = true
		}
		if g.Amount.IsPositive() {
			p.Percent = spent.Div(g.Amount).Mul(hundred).Round(2)
		}
		s.Goals = append(s.Goals, p)
	}
	sort.SliceStable(s.Goals, func(i, j int) bool {
		return priorityRank(s.Goals[i].Goal.Priority) < priorityRank(s.Goals[j].Goal.Priority)
	})

	for ws, total := range weekly {
		s.Weekly = append(s.Weekly, WeekTotal{WeekStart: models.Date{Time: ws}, Total: total})
	}
	sort.Slice(s.Weekly, func(i, j int) bool { return s.Weekly[i].WeekStart.Before(s.Weekly[j].WeekStart.Time) })

	s.WeekOverWeek = decimal.Zero
	if n := len(s.Weekly); n >= 2 {
		prev, last := s.Weekly[n-2].Total, s.Weekly[n-1].Total
		if !prev.IsZero() {
			s.WeekOverWeek = last.Sub(prev).Div(prev).Mul(hundred).Round(2)
		}
	}
	return s
}

func priorityRank(p models.GoalPriority) int {
	switch p {
	case models.PriorityHigh:
		return 0
	case models.PriorityMedium:
		return 1
	case models.PriorityLow:
		return 2
	}
	return 3
}
