package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api/", opts...)
	require.NoError(t, err)
	return c
}

func TestNewClientValidatesURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	assert.Error(t, err)
	_, err = NewClient("://bad")
	assert.Error(t, err)
	_, err = NewClient("https://api.example.com/api")
	assert.NoError(t, err)
}

func TestRepositoryList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/expenses", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"expenses":[{"_id":"e1"}],"total":12,"page":2}`))
	}, WithTokenSource(StaticToken("tok")))

	p, err := NewRepository(c, Expenses).List(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Total)
	assert.Equal(t, "e1", p.Records[0].ID)
}

func TestRepositoryCreateSendsBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/create-budget-goal", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"), "no token, no header")
		var g models.BudgetGoal
		require.NoError(t, json.NewDecoder(r.Body).Decode(&g))
		assert.Empty(t, g.ID)
		g.ID = "g-1"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"data": g})
	})

	g, err := NewRepository(c, BudgetGoals).Create(context.Background(), models.BudgetGoal{Name: "Trip", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.Equal(t, "g-1", g.ID)
	assert.Equal(t, "Trip", g.Name)
}

func TestRepositoryUpdateAndDeletePaths(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write([]byte(`{"payment":{"_id":"p1","name":"Rent"}}`))
	})
	repo := NewRepository(c, Payments)

	p, err := repo.Update(context.Background(), "p1", models.Payment{ID: "p1", Name: "Rent"})
	require.NoError(t, err)
	assert.Equal(t, "Rent", p.Name)
	require.NoError(t, repo.Delete(context.Background(), "p1"))

	assert.Equal(t, []string{"PUT /api/payments/p1", "DELETE /api/payments/p1"}, seen)
}

func TestAPIErrorMessageShapes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error string", http.StatusBadRequest, `{"error":"Amount is required"}`, "Amount is required"},
		{"message field", http.StatusConflict, `{"message":"Duplicate goal"}`, "Duplicate goal"},
		{"nested error", http.StatusUnprocessableEntity, `{"error":{"message":"Bad date"}}`, "Bad date"},
		{"no body", http.StatusInternalServerError, ``, ""},
		{"html body", http.StatusBadGateway, `<html>oops</html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.Do(context.Background(), http.MethodGet, "expenses", nil, nil)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.message, ServerMessage(err))
		})
	}
}

func TestUnauthorizedIsReported(t *testing.T) {
	var reported *APIError
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid or expired token"}`))
	}, WithUnauthorizedHandler(func(_ context.Context, err *APIError) { reported = err }))

	_, err := c.Do(context.Background(), http.MethodGet, "payments", nil, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.NotNil(t, reported)
	assert.Equal(t, "Invalid or expired token", reported.Message)
}

func TestTransportFailureIsNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	require.NoError(t, err)
	_, err = c.Do(context.Background(), http.MethodGet, "expenses", nil, nil)
	assert.ErrorIs(t, err, ErrNoResponse)
	assert.Empty(t, ServerMessage(err))
	assert.Contains(t, err.Error(), "No response from server")
}

func TestTimeoutIsNoResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, WithTimeout(20*time.Millisecond))

	_, err := c.Do(context.Background(), http.MethodGet, "expenses", nil, nil)
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestCancelledContextIsNoResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Do(ctx, http.MethodGet, "expenses", nil, nil)
	assert.ErrorIs(t, err, ErrNoResponse)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDecodeErrorFromRepository(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})
	_, err := NewRepository(c, Expenses).Update(context.Background(), "e1", models.Expense{ID: "e1"})
	assert.ErrorIs(t, err, ErrDecode)
}
