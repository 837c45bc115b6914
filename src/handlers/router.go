// src/handlers/router.go
package handlers

import (
	"database/sql"
	"net/http"

	"github.com/Majid760/xpensemate-sub000/src/database"
	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/Majid760/xpensemate-sub000/src/security"
	"github.com/Majid760/xpensemate-sub000/src/security/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// RouterOptions configures the dev backend router.
type RouterOptions struct {
	RatePerSecond float64 // zero disables limiting
	Burst         int
}

func NewExpenseHandler(db *sql.DB) *RecordHandler[models.Expense] {
	return &RecordHandler[models.Expense]{
		db:       db,
		table:    database.Expenses,
		singular: "expense",
		sanitize: validation.SanitizeExpense,
		validate: validation.ValidateExpense,
		listBody: func(records []models.Expense, total, page int) any {
			return map[string]any{"expenses": records, "total": total, "page": page}
		},
		itemBody: func(e models.Expense) any { return e },
	}
}

func NewBudgetGoalHandler(db *sql.DB) *RecordHandler[models.BudgetGoal] {
	return &RecordHandler[models.BudgetGoal]{
		db:       db,
		table:    database.BudgetGoals,
		singular: "budget goal",
		sanitize: validation.SanitizeBudgetGoal,
		validate: validation.ValidateBudgetGoal,
		listBody: func(records []models.BudgetGoal, total, page int) any {
			return map[string]any{"data": map[string]any{"goals": records, "total": total, "page": page}}
		},
		itemBody: func(g models.BudgetGoal) any { return map[string]any{"data": g} },
	}
}

func NewPaymentHandler(db *sql.DB) *RecordHandler[models.Payment] {
	return &RecordHandler[models.Payment]{
		db:       db,
		table:    database.Payments,
		singular: "payment",
		sanitize: validation.SanitizePayment,
		validate: validation.ValidatePayment,
		listBody: func(records []models.Payment, total, page int) any {
			return map[string]any{"payments": records, "total": total, "page": page}
		},
		itemBody: func(p models.Payment) any { return map[string]any{"payment": p} },
	}
}

type recordRoutes interface {
	List(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

func mount(r chi.Router, resource, createPath string, h recordRoutes) {
	r.Get("/"+resource, h.List)
	r.Post("/"+createPath, h.Create)
	r.Put("/"+resource+"/{id}", h.Update)
	r.Delete("/"+resource+"/{id}", h.Delete)
}

// NewRouter returns the dev backend's HTTP handler rooted at /api.
func NewRouter(db *sql.DB, auth *security.AuthService, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(ContextualLoggerMiddleware)
	if opts.RatePerSecond > 0 {
		r.Use(RateLimitMiddleware(rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst)))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "XpenseMate dev backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(auth))

		mount(r, "expenses", "create-expense", NewExpenseHandler(db))
		mount(r, "budget-goals", "create-budget-goal", NewBudgetGoalHandler(db))
		mount(r, "payments", "create-payment", NewPaymentHandler(db))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendJSONError(w, "Not found", http.StatusNotFound)
	})

	return r
}
