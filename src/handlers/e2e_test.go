package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Majid760/xpensemate-sub000/src/api"
	"github.com/Majid760/xpensemate-sub000/src/events"
	"github.com/Majid760/xpensemate-sub000/src/insights"
	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/Majid760/xpensemate-sub000/src/views"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestViewsAgainstDevBackend drives the client views through the real HTTP
// boundary, covering every envelope shape the adapters normalise.
func TestViewsAgainstDevBackend(t *testing.T) {
	s := newTestServer(t, RouterOptions{})
	srv := httptest.NewServer(s.handler)
	t.Cleanup(srv.Close)

	token, err := s.auth.IssueToken("u1", time.Hour)
	require.NoError(t, err)
	client, err := api.NewClient(srv.URL+"/api", api.WithTokenSource(api.StaticToken(token)))
	require.NoError(t, err)

	ctx := context.Background()
	bus := events.NewBus()
	deps := views.Deps{Bus: bus, PerPage: 2}

	goalRepo := api.NewRepository(client, api.BudgetGoals)
	expenseRepo := api.NewRepository(client, api.Expenses)
	goals, err := views.NewBudgetGoals(goalRepo, deps)
	require.NoError(t, err)
	defer goals.Close()
	expenses, err := views.NewExpenses(expenseRepo, deps)
	require.NoError(t, err)
	defer expenses.Close()
	payments, err := views.NewPayments(api.NewRepository(client, api.Payments), deps)
	require.NoError(t, err)
	defer payments.Close()

	panel := insights.NewPanel(insights.RepoSource{ExpenseRepo: expenseRepo, GoalRepo: goalRepo, Limit: 50}, bus)
	defer panel.Close()

	goal, err := goals.Create(ctx, models.BudgetGoal{
		Name: "Food budget", Amount: decimal.NewFromInt(200), Date: models.NewDate(2024, 12, 31),
		Category: "Food", Priority: models.PriorityHigh,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, goal.ID)
	assert.Equal(t, models.GoalActive, goal.Status)

	for i, amount := range []int64{20, 30, 50} {
		_, err := expenses.Create(ctx, models.Expense{
			Name: "meal", Amount: decimal.NewFromInt(amount), Date: models.NewDate(2024, 5, 1+i),
			Category: "Food", BudgetGoalID: goal.ID,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, expenses.Records.Total())
	assert.Len(t, expenses.Records.Records(), 3, "optimistic inserts are held until the next load")

	require.NoError(t, expenses.LoadPage(ctx, 2))
	assert.Len(t, expenses.Records.Records(), 1)
	assert.Equal(t, 3, expenses.Records.Total())
	require.NoError(t, expenses.LoadPage(ctx, 1))
	require.Len(t, expenses.Records.Records(), 2)
	newest := expenses.Records.Records()[0]
	assert.True(t, decimal.NewFromInt(50).Equal(newest.Amount))

	sum := panel.Summary()
	require.Len(t, sum.Goals, 1)
	assert.True(t, decimal.NewFromInt(100).Equal(sum.Goals[0].Spent))
	assert.True(t, decimal.NewFromInt(50).Equal(sum.Goals[0].Percent))

	require.NoError(t, goals.LoadPage(ctx, 1))
	_, err = goals.SetStatus(ctx, goal.ID, models.GoalAchieved)
	require.NoError(t, err)
	n, _ := goals.Notices.Current()
	assert.Equal(t, "Status updated successfully!", n.Message)

	require.NoError(t, expenses.DeleteBatch(ctx, []string{newest.ID}))
	assert.Equal(t, 2, expenses.Records.Total())

	_, err = payments.Create(ctx, models.Payment{Name: "Salary", Amount: decimal.NewFromInt(3000), Date: models.NewDate(2024, 6, 30), PayerName: "ACME"})
	require.NoError(t, err)
	require.NoError(t, payments.LoadPage(ctx, 1))
	assert.Equal(t, "ACME", payments.Records.Records()[0].PayerName)

	_, err = payments.Create(ctx, models.Payment{Name: "", Amount: decimal.NewFromInt(1), Date: models.NewDate(2024, 6, 30)})
	require.Error(t, err)
	n, _ = payments.Notices.Current()
	assert.Equal(t, "validation failed: name cannot be empty", n.Message, "the server's message is shown")
	assert.Equal(t, 1, payments.Records.Total())
}
