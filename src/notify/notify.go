// Package notify shows transient, auto-dismissing messages about mutation
// outcomes. Each view owns one Emitter; a new notification replaces the
// current one instead of queueing behind it.
package notify

import (
	"sync"
	"time"
)

// Severity of a notification.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
)

// Notification is one user-facing message.
type Notification struct {
	Severity Severity
	Message  string
	ShownAt  time.Time
}

// Listener is told about every show (active=true) and dismiss (active=false).
type Listener func(n Notification, active bool)

// Notifier is what the mutation controller needs from an emitter.
type Notifier interface {
	Notify(sev Severity, msg string)
}

// Emitter holds at most one active notification.
type Emitter struct {
	mu        sync.Mutex
	ttl       time.Duration
	current   *Notification
	seq       uint64
	timer     *time.Timer
	listeners []Listener
	now       func() time.Time
}

// NewEmitter returns an emitter whose notifications dismiss after ttl.
// A ttl of zero keeps each notification until it is replaced or dismissed.
func NewEmitter(ttl time.Duration) *Emitter {
	return &Emitter{ttl: ttl, now: time.Now}
}

// OnChange registers a listener.
func (e *Emitter) OnChange(l Listener) {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}

// Notify shows a notification, replacing any active one.
func (e *Emitter) Notify(sev Severity, msg string) {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.seq++
	seq := e.seq
	n := Notification{Severity: sev, Message: msg, ShownAt: e.now()}
	e.current = &n
	if e.ttl > 0 {
		e.timer = time.AfterFunc(e.ttl, func() { e.expire(seq) })
	}
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()

	for _, l := range listeners {
		l(n, true)
	}
}

func (e *Emitter) expire(seq uint64) {
	e.mu.Lock()
	if e.seq != seq || e.current == nil {
		e.mu.Unlock()
		return
	}
	e.dismissLocked()
}

// Dismiss clears the active notification, if any.
func (e *Emitter) Dismiss() {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return
	}
	e.dismissLocked()
}

// dismissLocked releases the lock before calling listeners.
func (e *Emitter) dismissLocked() {
	n := *e.current
	e.current = nil
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()

	for _, l := range listeners {
		l(n, false)
	}
}

// Current returns the active notification.
func (e *Emitter) Current() (Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return Notification{}, false
	}
	return *e.current, true
}
