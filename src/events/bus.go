// Package events is the publish/subscribe channel list views use to tell
// sibling views that records changed. A Bus is injected; there is no global
// instance.
package events

import (
	"context"
	"sync"

	"github.com/Majid760/xpensemate-sub000/src/logger"
)

// Topic names a class of change.
type Topic string

const (
	BudgetGoalUpdated Topic = "budgetGoalUpdated"
	ExpenseUpdated    Topic = "expenseUpdated"
	PaymentUpdated    Topic = "paymentUpdated"
)

// Op is the mutation that produced an event.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is published after a mutation is confirmed by the server.
type Event struct {
	Topic    Topic
	Op       Op
	RecordID string
}

// Handler receives events for the topics it subscribed to.
type Handler func(ctx context.Context, ev Event)

// Publisher is the producer side of a Bus.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Subscriber is the consumer side of a Bus.
type Subscriber interface {
	Subscribe(topic Topic, h Handler) (unsubscribe func())
}

type subscription struct {
	id uint64
	h  Handler
}

// Bus delivers events synchronously, in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers h for topic. Calling the returned function removes it;
// calling it twice is harmless.
func (b *Bus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			list := b.subs[topic]
			for i, s := range list {
				if s.id == id {
					b.subs[topic] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish calls every handler subscribed to ev.Topic. Handlers run outside
// the bus lock, so they may subscribe or unsubscribe. A panicking handler is
// logged and skipped.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	list := append([]subscription(nil), b.subs[ev.Topic]...)
	b.mu.RUnlock()

	for _, s := range list {
		b.deliver(ctx, s.h, ev)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if p := recover(); p != nil {
			logger.FromContext(ctx).Error("Event handler panicked", "topic", ev.Topic, "op", ev.Op, "recordID", ev.RecordID, "panic", p)
		}
	}()
	h(ctx, ev)
}

// Subscribers reports how many handlers listen on topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
