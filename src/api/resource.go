package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Majid760/xpensemate-sub000/src/models"
)

// Resource describes one REST collection and how its bodies are shaped.
// Endpoints disagree about envelopes, so each resource lists every shape it
// may receive and the adapter returns one canonical form.
type Resource[T models.Record] struct {
	// Path is the collection path: GET /{Path}, PUT|DELETE /{Path}/{id}.
	Path string
	// CreatePath is the POST endpoint, e.g. "create-expense".
	CreatePath string
	// Singular labels the resource in messages, e.g. "expense".
	Singular string
	// ListShapes are key paths to the records array, tried in order. The
	// object holding the array also holds total and page.
	ListShapes [][]string
	// ItemShapes are key paths to a wrapped record. An unwrapped record is
	// accepted when none match.
	ItemShapes [][]string
}

// Expenses is GET /expenses -> {expenses, total, page}.
var Expenses = Resource[models.Expense]{
	Path:       "expenses",
	CreatePath: "create-expense",
	Singular:   "expense",
	ListShapes: [][]string{{"expenses"}, {"data", "expenses"}},
	ItemShapes: [][]string{{"expense"}, {"data"}},
}

// BudgetGoals answers with either {data: {goals}} or {budgetGoals}.
var BudgetGoals = Resource[models.BudgetGoal]{
	Path:       "budget-goals",
	CreatePath: "create-budget-goal",
	Singular:   "budget goal",
	ListShapes: [][]string{{"data", "goals"}, {"budgetGoals"}, {"goals"}},
	ItemShapes: [][]string{{"budgetGoal"}, {"goal"}, {"data"}},
}

// Payments is GET /payments -> {payments, total, page}.
var Payments = Resource[models.Payment]{
	Path:       "payments",
	CreatePath: "create-payment",
	Singular:   "payment",
	ListShapes: [][]string{{"payments"}, {"data", "payments"}},
	ItemShapes: [][]string{{"payment"}, {"data"}},
}

type object map[string]json.RawMessage

func asObject(raw json.RawMessage) (object, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, false
	}
	return o, true
}

// walk follows keys and returns the final value plus the object holding it.
func walk(root object, keys []string) (json.RawMessage, object, bool) {
	cur := root
	for i, k := range keys {
		v, ok := cur[k]
		if !ok {
			return nil, nil, false
		}
		if i == len(keys)-1 {
			return v, cur, true
		}
		next, ok := asObject(v)
		if !ok {
			return nil, nil, false
		}
		cur = next
	}
	return nil, nil, false
}

func intField(objs []object, key string) (int, bool) {
	for _, o := range objs {
		if v, ok := o[key]; ok {
			var n json.Number
			if err := json.Unmarshal(v, &n); err != nil {
				continue
			}
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
			if f, err := n.Float64(); err == nil {
				return int(f), true
			}
		}
	}
	return 0, false
}

// DecodeList normalises a list body into a Page. requestedPage is used when
// the body omits the page number.
func (r Resource[T]) DecodeList(body []byte, requestedPage int) (models.Page[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []T
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return models.Page[T]{}, fmt.Errorf("%w: %s list: %v", ErrDecode, r.Path, err)
		}
		return models.Page[T]{Records: nonNil(records), Total: len(records), Page: requestedPage}, nil
	}

	root, ok := asObject(trimmed)
	if !ok {
		return models.Page[T]{}, fmt.Errorf("%w: %s list is not an object", ErrDecode, r.Path)
	}
	for _, shape := range r.ListShapes {
		raw, holder, found := walk(root, shape)
		if !found {
			continue
		}
		var records []T
		if err := json.Unmarshal(raw, &records); err != nil {
			return models.Page[T]{}, fmt.Errorf("%w: %s list: %v", ErrDecode, r.Path, err)
		}
		scopes := []object{holder, root}
		total, ok := intField(scopes, "total")
		if !ok {
			total = len(records)
		}
		page, ok := intField(scopes, "page")
		if !ok || page < 1 {
			page = requestedPage
		}
		return models.Page[T]{Records: nonNil(records), Total: total, Page: page}, nil
	}
	return models.Page[T]{}, fmt.Errorf("%w: no %s array in list response", ErrDecode, r.Path)
}

// DecodeItem normalises a single-record body.
func (r Resource[T]) DecodeItem(body []byte) (T, error) {
	var rec T
	root, ok := asObject(body)
	if !ok {
		return rec, fmt.Errorf("%w: %s item is not an object", ErrDecode, r.Path)
	}
	raw := json.RawMessage(body)
	for _, shape := range r.ItemShapes {
		if v, _, found := walk(root, shape); found {
			if _, isObj := asObject(v); isObj {
				raw = v
				break
			}
		}
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: %s item: %v", ErrDecode, r.Path, err)
	}
	if rec.RecordID() == "" {
		return rec, fmt.Errorf("%w: %s item has no id", ErrDecode, r.Path)
	}
	return rec, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
