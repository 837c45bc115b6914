package mutation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Majid760/xpensemate-sub000/src/events"
	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/Majid760/xpensemate-sub000/src/notify"
	"github.com/Majid760/xpensemate-sub000/src/pagecache"
	"github.com/Majid760/xpensemate-sub000/src/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeRepo records calls and lets each test script the server's answers.
type fakeRepo struct {
	mu    sync.Mutex
	calls []string

	list   func(ctx context.Context, page, limit int) (models.Page[models.Expense], error)
	create func(ctx context.Context, e models.Expense) (models.Expense, error)
	update func(ctx context.Context, id string, e models.Expense) (models.Expense, error)
	del    func(ctx context.Context, id string) error
}

func (r *fakeRepo) record(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *fakeRepo) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRepo) called(call string) bool {
	for _, c := range r.Calls() {
		if c == call {
			return true
		}
	}
	return false
}

func (r *fakeRepo) List(ctx context.Context, page, limit int) (models.Page[models.Expense], error) {
	r.record(fmt.Sprintf("list %d", page))
	if r.list == nil {
		return models.Page[models.Expense]{Records: []models.Expense{}, Page: page}, nil
	}
	return r.list(ctx, page, limit)
}

func (r *fakeRepo) Create(ctx context.Context, e models.Expense) (models.Expense, error) {
	r.record("create")
	if r.create == nil {
		return e.WithID("srv-1"), nil
	}
	return r.create(ctx, e)
}

func (r *fakeRepo) Update(ctx context.Context, id string, e models.Expense) (models.Expense, error) {
	r.record("update " + id)
	if r.update == nil {
		return e, nil
	}
	return r.update(ctx, id, e)
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.record("delete " + id)
	if r.del == nil {
		return nil
	}
	return r.del(ctx, id)
}

type notifications struct {
	mu   sync.Mutex
	list []notify.Notification
}

func (n *notifications) Notify(sev notify.Severity, msg string) {
	n.mu.Lock()
	n.list = append(n.list, notify.Notification{Severity: sev, Message: msg})
	n.mu.Unlock()
}

func (n *notifications) all() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification(nil), n.list...)
}

type harness struct {
	ctrl  *Controller[models.Expense]
	repo  *fakeRepo
	store *store.Store[models.Expense]
	cache *pagecache.Cache[models.Expense]
	notes *notifications

	mu          sync.Mutex
	events      []events.Event
	transitions []Transition
}

func newHarness(t *testing.T, repo *fakeRepo) *harness {
	t.Helper()
	h := &harness{
		repo:  repo,
		store: store.New[models.Expense](10),
		cache: pagecache.New[models.Expense](10),
		notes: &notifications{},
	}
	bus := events.NewBus()
	bus.Subscribe(events.ExpenseUpdated, func(_ context.Context, ev events.Event) {
		h.mu.Lock()
		h.events = append(h.events, ev)
		h.mu.Unlock()
	})
	ctrl, err := New(Config[models.Expense]{
		Name:      "expenses",
		Repo:      repo,
		Store:     h.store,
		Cache:     h.cache,
		Notifier:  h.notes,
		Bus:       bus,
		Topic:     events.ExpenseUpdated,
		Messages:  DefaultMessages("expense"),
		NewTempID: func() string { return "tmp-1" },
		OnTransition: func(tr Transition) {
			h.mu.Lock()
			h.transitions = append(h.transitions, tr)
			h.mu.Unlock()
		},
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	h.ctrl = ctrl
	return h
}

func (h *harness) published() []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.Event(nil), h.events...)
}

func (h *harness) states() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []State{}
	for _, tr := range h.transitions {
		out = append(out, tr.To)
	}
	return out
}

func expense(id string) models.Expense {
	return models.Expense{
		ID:       id,
		Name:     "expense " + id,
		Amount:   decimal.NewFromInt(10),
		Date:     models.NewDate(2024, 3, 1),
		Category: "Food",
	}
}

// seed shows records on page with the given total.
func (h *harness) seed(page, total int, recIDs ...string) store.Snapshot[models.Expense] {
	recs := make([]models.Expense, len(recIDs))
	for i, id := range recIDs {
		recs[i] = expense(id)
	}
	h.store.SetPage(models.Page[models.Expense]{Records: recs, Total: total, Page: page})
	h.cache.Put(page, models.Page[models.Expense]{Records: recs, Total: total, Page: page})
	return h.store.Snapshot()
}

func recordIDs(s *store.Store[models.Expense]) []string {
	var out []string
	for _, r := range s.Records() {
		out = append(out, r.ID)
	}
	return out
}
