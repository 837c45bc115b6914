package mutation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Majid760/xpensemate-sub000/src/api"
	"github.com/Majid760/xpensemate-sub000/src/events"
	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/Majid760/xpensemate-sub000/src/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config[models.Expense]{})
	assert.Error(t, err)
}

func TestCreateAppliesBeforeServerAnswers(t *testing.T) {
	release := make(chan struct{})
	sent := make(chan models.Expense, 1)
	repo := &fakeRepo{create: func(_ context.Context, e models.Expense) (models.Expense, error) {
		sent <- e
		<-release
		return e.WithID("srv-1"), nil
	}}
	h := newHarness(t, repo)
	h.seed(1, 2, "a", "b")

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Create(context.Background(), expense(""))
		done <- err
	}()

	require.Eventually(t, func() bool { return repo.called("create") }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"tmp-1", "a", "b"}, recordIDs(h.store))
	assert.Equal(t, 3, h.store.Total())
	assert.Empty(t, (<-sent).ID, "the temporary ID is never sent")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"srv-1", "a", "b"}, recordIDs(h.store))
	assert.Equal(t, 3, h.store.Total())
}

func TestCreateSuccess(t *testing.T) {
	h := newHarness(t, &fakeRepo{})
	h.seed(1, 2, "a", "b")

	created, err := h.ctrl.Create(context.Background(), expense(""))
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)

	assert.Equal(t, []string{"srv-1", "a", "b"}, recordIDs(h.store))
	assert.Equal(t, 3, h.store.Total())
	assert.Equal(t, 1, h.store.Page())
	assert.Equal(t, 0, h.cache.Len(), "a create shifts every page, so the cache is dropped")
	assert.Equal(t, []notify.Notification{{Severity: notify.Success, Message: "Expense added successfully!"}}, h.notes.all())
	assert.Equal(t, []events.Event{{Topic: events.ExpenseUpdated, Op: events.OpCreate, RecordID: "srv-1"}}, h.published())
	assert.Equal(t, []State{Applying, AwaitingServer, Committed}, h.states())
	assert.Equal(t, []string{"create"}, h.repo.Calls(), "page 1 needs no reload")
}

func TestCreateTransportFailureRollsBack(t *testing.T) {
	repo := &fakeRepo{create: func(context.Context, models.Expense) (models.Expense, error) {
		return models.Expense{}, fmt.Errorf("%w: dial tcp: connection refused", api.ErrNoResponse)
	}}
	h := newHarness(t, repo)
	before := h.seed(1, 2, "a", "b")

	_, err := h.ctrl.Create(context.Background(), expense(""))
	assert.ErrorIs(t, err, api.ErrNoResponse)

	assert.Equal(t, before, h.store.Snapshot())
	assert.Equal(t, 1, h.cache.Len(), "failed creates keep the cache")
	assert.Equal(t, []notify.Notification{{Severity: notify.Error, Message: "Failed to add the expense!"}}, h.notes.all())
	assert.Empty(t, h.published())
	assert.Equal(t, []State{Applying, AwaitingServer, RolledBack}, h.states())
}

func TestCreateFailureUsesServerMessage(t *testing.T) {
	repo := &fakeRepo{create: func(context.Context, models.Expense) (models.Expense, error) {
		return models.Expense{}, &api.APIError{Status: http.StatusBadRequest, Message: "Amount is required"}
	}}
	h := newHarness(t, repo)
	h.seed(1, 0)

	_, err := h.ctrl.Create(context.Background(), expense(""))
	require.Error(t, err)
	assert.Equal(t, "Amount is required", h.notes.all()[0].Message)
	assert.Empty(t, h.store.Records())
	assert.Equal(t, 0, h.store.Total())
}

func TestCreateFromLaterPageReloadsFirstPage(t *testing.T) {
	repo := &fakeRepo{list: func(_ context.Context, page, _ int) (models.Page[models.Expense], error) {
		return models.Page[models.Expense]{Records: []models.Expense{expense("srv-1"), expense("x")}, Total: 31, Page: page}, nil
	}}
	h := newHarness(t, repo)
	h.seed(3, 30, "u", "v")

	_, err := h.ctrl.Create(context.Background(), expense(""))
	require.NoError(t, err)

	assert.Equal(t, []string{"create", "list 1"}, repo.Calls())
	assert.Equal(t, 1, h.store.Page())
	assert.Equal(t, []string{"srv-1", "x"}, recordIDs(h.store))
	assert.Equal(t, 31, h.store.Total())
}

func TestCreateFailureFromLaterPageRestoresPage(t *testing.T) {
	repo := &fakeRepo{create: func(context.Context, models.Expense) (models.Expense, error) {
		return models.Expense{}, errors.New("boom")
	}}
	h := newHarness(t, repo)
	before := h.seed(3, 30, "u", "v")

	_, err := h.ctrl.Create(context.Background(), expense(""))
	require.Error(t, err)
	assert.Equal(t, before, h.store.Snapshot())
	assert.Equal(t, 3, h.store.Page())
}

func TestCloseDropsInFlightCreate(t *testing.T) {
	repo := &fakeRepo{create: func(ctx context.Context, _ models.Expense) (models.Expense, error) {
		<-ctx.Done()
		return models.Expense{}, ctx.Err()
	}}
	h := newHarness(t, repo)
	h.seed(1, 1, "a")

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Create(context.Background(), expense(""))
		done <- err
	}()
	require.Eventually(t, func() bool { return repo.called("create") }, time.Second, time.Millisecond)

	h.ctrl.Close()
	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, h.notes.all(), "a detached view is not notified")
	assert.Empty(t, h.published())
	assert.Equal(t, []State{Applying, AwaitingServer}, h.states(), "no commit or rollback after close")

	_, err := h.ctrl.Create(context.Background(), expense(""))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, h.ctrl.LoadPage(context.Background(), 1), ErrClosed)
	assert.ErrorIs(t, h.ctrl.Delete(context.Background(), "a"), ErrClosed)
}

func TestCreateReloadsWhenOverlappingLoadDroppedTheRecord(t *testing.T) {
	release := make(chan struct{})
	repo := &fakeRepo{
		create: func(_ context.Context, e models.Expense) (models.Expense, error) {
			<-release
			return e.WithID("srv-1"), nil
		},
		list: func(_ context.Context, page, _ int) (models.Page[models.Expense], error) {
			return models.Page[models.Expense]{Records: []models.Expense{expense("srv-1"), expense("a")}, Total: 2, Page: page}, nil
		},
	}
	h := newHarness(t, repo)
	h.seed(1, 1, "a")

	done := make(chan error, 1)
	go func() {
		_, err := h.ctrl.Create(context.Background(), expense(""))
		done <- err
	}()
	require.Eventually(t, func() bool { return repo.called("create") }, time.Second, time.Millisecond)

	// The cached page 1 predates the create and replaces the optimistic row.
	require.NoError(t, h.ctrl.LoadPage(context.Background(), 1))
	assert.Equal(t, []string{"a"}, recordIDs(h.store))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"create", "list 1"}, repo.Calls())
	assert.Equal(t, []string{"srv-1", "a"}, recordIDs(h.store))
	assert.Equal(t, 2, h.store.Total())
}
