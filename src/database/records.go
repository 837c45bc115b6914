package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no row matches id and owner.
var ErrNotFound = errors.New("record not found")

type scanner interface {
	Scan(dest ...any) error
}

// Table maps one record type onto its SQLite table. Rows are owned by a
// user and listed newest first.
type Table[T models.Identifiable[T]] struct {
	Name    string
	Columns []string // without id and user_id
	Scan    func(s scanner) (T, error)
	Values  func(rec T) []any // in Columns order
}

func (t Table[T]) selectCols() string {
	return "id, " + strings.Join(t.Columns, ", ")
}

// List returns one page of the user's rows and the user's total row count.
func (t Table[T]) List(ctx context.Context, db *sql.DB, userID string, page, limit int) ([]T, int, error) {
	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.Name+" WHERE user_id = ?", userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", t.Name, err)
	}

	offset := (page - 1) * limit
	rows, err := db.QueryContext(ctx,
		"SELECT "+t.selectCols()+" FROM "+t.Name+" WHERE user_id = ? ORDER BY rowid DESC LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", t.Name, err)
	}
	defer rows.Close()

	records := []T{}
	for rows.Next() {
		rec, err := t.Scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// Get returns one of the user's rows.
func (t Table[T]) Get(ctx context.Context, db *sql.DB, userID, id string) (T, error) {
	row := db.QueryRowContext(ctx, "SELECT "+t.selectCols()+" FROM "+t.Name+" WHERE id = ? AND user_id = ?", id, userID)
	rec, err := t.Scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, ErrNotFound
	}
	return rec, err
}

// Insert stores rec under a new server-assigned ID and returns it.
func (t Table[T]) Insert(ctx context.Context, db *sql.DB, userID string, rec T) (T, error) {
	rec = rec.WithID(uuid.NewString())
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)+2), ", ")
	args := append([]any{rec.RecordID(), userID}, t.Values(rec)...)
	_, err := db.ExecContext(ctx,
		"INSERT INTO "+t.Name+" (id, user_id, "+strings.Join(t.Columns, ", ")+") VALUES ("+placeholders+")",
		args...)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("insert %s: %w", t.Name, err)
	}
	return rec, nil
}

// Update overwrites every column of the user's row id. Last write wins.
func (t Table[T]) Update(ctx context.Context, db *sql.DB, userID, id string, rec T) (T, error) {
	rec = rec.WithID(id)
	sets := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		sets[i] = c + " = ?"
	}
	args := append(t.Values(rec), id, userID)
	res, err := db.ExecContext(ctx,
		"UPDATE "+t.Name+" SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...)
	if err != nil {
		return rec, fmt.Errorf("update %s: %w", t.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return rec, ErrNotFound
	}
	return rec, nil
}

// Delete removes the user's row id.
func (t Table[T]) Delete(ctx context.Context, db *sql.DB, userID, id string) error {
	res, err := db.ExecContext(ctx, "DELETE FROM "+t.Name+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// Expenses is the expenses table.
var Expenses = Table[models.Expense]{
	Name:    "expenses",
	Columns: []string{"name", "amount", "date", "category", "payment_method", "budget_goal_id", "detail"},
	Scan: func(s scanner) (models.Expense, error) {
		var e models.Expense
		var amount, date string
		if err := s.Scan(&e.ID, &e.Name, &amount, &date, &e.Category, &e.PaymentMethod, &e.BudgetGoalID, &e.Description); err != nil {
			return e, err
		}
		return e, scanScalars(&e.Amount, &e.Date, amount, date)
	},
	Values: func(e models.Expense) []any {
		return []any{e.Name, e.Amount.String(), e.Date.String(), e.Category, e.PaymentMethod, e.BudgetGoalID, e.Description}
	},
}

// BudgetGoals is the budget_goals table.
var BudgetGoals = Table[models.BudgetGoal]{
	Name:    "budget_goals",
	Columns: []string{"name", "amount", "date", "category", "priority", "status", "detail"},
	Scan: func(s scanner) (models.BudgetGoal, error) {
		var g models.BudgetGoal
		var amount, date, priority, status string
		if err := s.Scan(&g.ID, &g.Name, &amount, &date, &g.Category, &priority, &status, &g.Description); err != nil {
			return g, err
		}
		g.Priority = models.GoalPriority(priority)
		g.Status = models.GoalStatus(status)
		return g, scanScalars(&g.Amount, &g.Date, amount, date)
	},
	Values: func(g models.BudgetGoal) []any {
		return []any{g.Name, g.Amount.String(), g.Date.String(), g.Category, string(g.Priority), string(g.Status), g.Description}
	},
}

// Payments is the payments table.
var Payments = Table[models.Payment]{
	Name:    "payments",
	Columns: []string{"name", "amount", "date", "payer", "payment_type", "notes"},
	Scan: func(s scanner) (models.Payment, error) {
		var p models.Payment
		var amount, date string
		if err := s.Scan(&p.ID, &p.Name, &amount, &date, &p.PayerName, &p.PaymentType, &p.Notes); err != nil {
			return p, err
		}
		return p, scanScalars(&p.Amount, &p.Date, amount, date)
	},
	Values: func(p models.Payment) []any {
		return []any{p.Name, p.Amount.String(), p.Date.String(), p.PayerName, p.PaymentType, p.Notes}
	},
}

func scanScalars(amount *decimal.Decimal, date *models.Date, rawAmount, rawDate string) error {
	a, err := parseAmount(rawAmount)
	if err != nil {
		return fmt.Errorf("bad amount %q: %w", rawAmount, err)
	}
	d, err := models.ParseDate(rawDate)
	if err != nil {
		return err
	}
	*amount, *date = a, d
	return nil
}
