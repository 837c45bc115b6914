package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) listen(n Notification, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state := "dismiss"
	if active {
		state = "show"
	}
	r.events = append(r.events, state+":"+string(n.Severity)+":"+n.Message)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestNotifyShowsCurrent(t *testing.T) {
	e := NewEmitter(0)
	_, ok := e.Current()
	assert.False(t, ok)

	e.Notify(Success, "Expense added successfully!")
	n, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, Success, n.Severity)
	assert.Equal(t, "Expense added successfully!", n.Message)
	assert.False(t, n.ShownAt.IsZero())
}

func TestNewNotificationReplacesActive(t *testing.T) {
	e := NewEmitter(0)
	rec := &recorder{}
	e.OnChange(rec.listen)

	e.Notify(Success, "first")
	e.Notify(Error, "second")

	n, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, "second", n.Message)
	assert.Equal(t, []string{"show:success:first", "show:error:second"}, rec.snapshot())
}

func TestDismiss(t *testing.T) {
	e := NewEmitter(0)
	rec := &recorder{}
	e.OnChange(rec.listen)

	e.Dismiss()
	assert.Empty(t, rec.snapshot(), "dismissing nothing is silent")

	e.Notify(Error, "Failed to add the expense!")
	e.Dismiss()
	_, ok := e.Current()
	assert.False(t, ok)
	assert.Equal(t, []string{"show:error:Failed to add the expense!", "dismiss:error:Failed to add the expense!"}, rec.snapshot())
}

func TestAutoDismissAfterTTL(t *testing.T) {
	e := NewEmitter(20 * time.Millisecond)
	rec := &recorder{}
	e.OnChange(rec.listen)

	e.Notify(Success, "done")
	assert.Eventually(t, func() bool {
		_, ok := e.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"show:success:done", "dismiss:success:done"}, rec.snapshot())
}

func TestReplacementResetsTTL(t *testing.T) {
	e := NewEmitter(200 * time.Millisecond)
	e.Notify(Success, "old")
	time.Sleep(120 * time.Millisecond)
	e.Notify(Success, "new")
	time.Sleep(120 * time.Millisecond)

	n, ok := e.Current()
	require.True(t, ok, "the first timer must not dismiss its replacement")
	assert.Equal(t, "new", n.Message)

	assert.Eventually(t, func() bool {
		_, ok := e.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}
