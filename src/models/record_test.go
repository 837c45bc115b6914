package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.February, 29), d)

	d, err = ParseDate("2024-02-29T23:30:00-02:00")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.March, 1), d, "timestamps are reduced to their UTC day")

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("29/02/2024")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, time.May, 7))
	require.NoError(t, err)
	assert.Equal(t, `"2024-05-07"`, string(b))

	b, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-07T10:00:00Z"`), &d))
	assert.Equal(t, "2024-05-07", d.String())
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`7`), &d))
}

func TestWithIDCopies(t *testing.T) {
	e := Expense{ID: "tmp-1", Name: "Coffee", Amount: decimal.NewFromInt(3)}
	moved := e.WithID("srv-1")
	assert.Equal(t, "srv-1", moved.RecordID())
	assert.Equal(t, "tmp-1", e.RecordID())
	assert.Equal(t, "Coffee", moved.Name)

	var g BudgetGoal
	assert.Equal(t, "g", g.WithID("g").RecordID())
	var p Payment
	assert.Equal(t, "p", p.WithID("p").RecordID())
}

func TestExpenseJSONOmitsEmptyID(t *testing.T) {
	b, err := json.Marshal(Expense{Name: "Coffee", Amount: decimal.RequireFromString("3.20"), Date: NewDate(2024, 1, 2)})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "_id")
	assert.Contains(t, string(b), `"date":"2024-01-02"`)
}

func TestGoalStatusValid(t *testing.T) {
	for _, s := range []GoalStatus{GoalActive, GoalAchieved, GoalFailed, GoalTerminated} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, GoalStatus("paused").Valid())
}
