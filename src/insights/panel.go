package insights

import (
	"context"
	"fmt"
	"sync"

	"github.com/Majid760/xpensemate-sub000/src/api"
	"github.com/Majid760/xpensemate-sub000/src/events"
	"github.com/Majid760/xpensemate-sub000/src/logger"
	"github.com/Majid760/xpensemate-sub000/src/models"
)

// Source loads the data the panel summarises.
type Source interface {
	Expenses(ctx context.Context) ([]models.Expense, error)
	Goals(ctx context.Context) ([]models.BudgetGoal, error)
}

// RepoSource reads the first Limit records of each resource.
type RepoSource struct {
	ExpenseRepo api.Repository[models.Expense]
	GoalRepo    api.Repository[models.BudgetGoal]
	Limit       int
}

func (s RepoSource) Expenses(ctx context.Context) ([]models.Expense, error) {
	p, err := s.ExpenseRepo.List(ctx, 1, s.Limit)
	return p.Records, err
}

func (s RepoSource) Goals(ctx context.Context) ([]models.BudgetGoal, error) {
	p, err := s.GoalRepo.List(ctx, 1, s.Limit)
	return p.Records, err
}

// Panel keeps a Summary current. It subscribes to goal and expense events.
type Panel struct {
	src   Source
	unsub []func()

	mu        sync.Mutex
	summary   Summary
	refreshes int
	lastErr   error
}

// NewPanel subscribes the panel to bus. Call Close to unsubscribe.
func NewPanel(src Source, bus events.Subscriber) *Panel {
	p := &Panel{src: src}
	if bus != nil {
		for _, topic := range []events.Topic{events.BudgetGoalUpdated, events.ExpenseUpdated} {
			p.unsub = append(p.unsub, bus.Subscribe(topic, p.onEvent))
		}
	}
	return p
}

func (p *Panel) onEvent(ctx context.Context, ev events.Event) {
	if err := p.Refresh(ctx); err != nil {
		logger.FromContext(ctx).Warn("Insights refresh failed", "topic", ev.Topic, "op", ev.Op, "error", err)
	}
}

// Refresh reloads both resources and recomputes the summary. On failure the
// previous summary is kept.
func (p *Panel) Refresh(ctx context.Context) error {
	expenses, err := p.src.Expenses(ctx)
	if err == nil {
		var goals []models.BudgetGoal
		goals, err = p.src.Goals(ctx)
		if err == nil {
			s := Summarize(expenses, goals)
			p.mu.Lock()
			p.summary = s
			p.refreshes++
			p.lastErr = nil
			p.mu.Unlock()
			return nil
		}
	}
	err = fmt.Errorf("refresh insights: %w", err)
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
	return err
}

// Summary returns the latest computed summary.
func (p *Panel) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.summary
}

// Refreshes counts successful refreshes.
func (p *Panel) Refreshes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshes
}

// Err returns the error of the last refresh, if it failed.
func (p *Panel) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// Close unsubscribes from the bus.
func (p *Panel) Close() {
	for _, u := range p.unsub {
		u()
	}
	p.unsub = nil
}
