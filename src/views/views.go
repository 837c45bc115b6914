// Package views assembles one list view per resource: its store, page cache,
// notification emitter and mutation controller, all sharing an event bus.
package views

import (
	"time"

	"github.com/Majid760/xpensemate-sub000/src/api"
	"github.com/Majid760/xpensemate-sub000/src/events"
	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/Majid760/xpensemate-sub000/src/mutation"
	"github.com/Majid760/xpensemate-sub000/src/notify"
	"github.com/Majid760/xpensemate-sub000/src/pagecache"
	"github.com/Majid760/xpensemate-sub000/src/store"
)

// Deps are shared by every view.
type Deps struct {
	Bus             *events.Bus
	PerPage         int
	NotificationTTL time.Duration
	OnTransition    func(mutation.Transition)
}

// View is one list of records.
type View[T models.Identifiable[T]] struct {
	*mutation.Controller[T]
	Records *store.Store[T]
	Pages   *pagecache.Cache[T]
	Notices *notify.Emitter
}

func newView[T models.Identifiable[T]](name string, repo api.Repository[T], topic events.Topic, msgs mutation.Messages, deps Deps) (*View[T], error) {
	st := store.New[T](deps.PerPage)
	pc := pagecache.New[T](deps.PerPage)
	em := notify.NewEmitter(deps.NotificationTTL)

	var bus events.Publisher
	if deps.Bus != nil {
		bus = deps.Bus
	}
	ctrl, err := mutation.New(mutation.Config[T]{
		Name:         name,
		Repo:         repo,
		Store:        st,
		Cache:        pc,
		Notifier:     em,
		Bus:          bus,
		Topic:        topic,
		Messages:     msgs,
		OnTransition: deps.OnTransition,
	})
	if err != nil {
		return nil, err
	}
	return &View[T]{Controller: ctrl, Records: st, Pages: pc, Notices: em}, nil
}

// Expenses is the expense table.
type Expenses = View[models.Expense]

// NewExpenses builds the expense view.
func NewExpenses(repo api.Repository[models.Expense], deps Deps) (*Expenses, error) {
	return newView("expenses", repo, events.ExpenseUpdated, mutation.DefaultMessages(api.Expenses.Singular), deps)
}

// Payments is the payment table.
type Payments = View[models.Payment]

// NewPayments builds the payment view.
func NewPayments(repo api.Repository[models.Payment], deps Deps) (*Payments, error) {
	return newView("payments", repo, events.PaymentUpdated, mutation.DefaultMessages(api.Payments.Singular), deps)
}
