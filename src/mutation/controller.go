// Package mutation coordinates optimistic create, update and delete against a
// list view's store and its backing API. Each mutation applies its change to
// the store at once, sends the request, and then either commits the server's
// answer or rolls back to the state it saw before applying.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Majid760/xpensemate-sub000/src/api"
	"github.com/Majid760/xpensemate-sub000/src/events"
	"github.com/Majid760/xpensemate-sub000/src/logger"
	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/Majid760/xpensemate-sub000/src/notify"
	"github.com/Majid760/xpensemate-sub000/src/pagecache"
	"github.com/Majid760/xpensemate-sub000/src/store"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// TempIDPrefix marks identifiers assigned locally to pending creates.
const TempIDPrefix = "tmp-"

var (
	// ErrClosed is returned once the view was detached with Close.
	ErrClosed = errors.New("mutation controller closed")
	// ErrNotFound means the target record is not held by the view.
	ErrNotFound = errors.New("record not in view")
)

// IsTemporary reports whether id was assigned locally.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Config wires a Controller.
type Config[T models.Identifiable[T]] struct {
	// Name labels log lines, e.g. "expenses".
	Name     string
	Repo     api.Repository[T]
	Store    *store.Store[T]
	Cache    *pagecache.Cache[T]
	Notifier notify.Notifier
	Bus      events.Publisher
	Topic    events.Topic
	Messages Messages
	// NewTempID defaults to TempIDPrefix + a random UUID.
	NewTempID func() string
	// OnTransition observes every state change.
	OnTransition func(Transition)
}

// Controller is safe for concurrent use. Mutations on different records run
// concurrently; mutations on the same record run one at a time.
type Controller[T models.Identifiable[T]] struct {
	cfg   Config[T]
	log   *slog.Logger
	queue *keyQueue

	life   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	aliases  map[string]string // temporary ID -> server ID
	loadSeq  uint64
	cacheGen uint64
}

// New builds a controller. Repo, Store and Cache are required.
func New[T models.Identifiable[T]](cfg Config[T]) (*Controller[T], error) {
	if cfg.Repo == nil || cfg.Store == nil || cfg.Cache == nil {
		return nil, errors.New("mutation: Repo, Store and Cache are required")
	}
	if cfg.NewTempID == nil {
		cfg.NewTempID = func() string { return TempIDPrefix + uuid.NewString() }
	}
	if cfg.Notifier == nil {
		cfg.Notifier = discardNotifier{}
	}
	if cfg.Bus == nil {
		cfg.Bus = discardPublisher{}
	}
	life, cancel := context.WithCancel(context.Background())
	return &Controller[T]{
		cfg:     cfg,
		log:     logger.Component("mutation").With(slog.String("resource", cfg.Name)),
		queue:   newKeyQueue(),
		life:    life,
		cancel:  cancel,
		aliases: make(map[string]string),
	}, nil
}

// Store returns the store the controller mutates.
func (c *Controller[T]) Store() *store.Store[T] { return c.cfg.Store }

// Close detaches the view. In-flight requests are cancelled and their results
// are dropped without commit, rollback or notification.
func (c *Controller[T]) Close() {
	c.cancel()
}

func (c *Controller[T]) closed() bool {
	return c.life.Err() != nil
}

// bind derives a request context cancelled by either ctx or Close.
func (c *Controller[T]) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.life, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}

func (c *Controller[T]) machine(op events.Op, key string) *machine {
	return &machine{op: op, key: key, log: c.log, report: c.cfg.OnTransition}
}

func (c *Controller[T]) alias(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target, ok := c.aliases[id]
	return target, ok
}

// lock acquires the per-record slot for id, following a temporary ID to its
// server ID when the create has already committed.
func (c *Controller[T]) lock(ctx context.Context, id string) (string, func(), error) {
	for {
		if err := c.queue.acquire(ctx, id); err != nil {
			return "", nil, err
		}
		if target, ok := c.alias(id); ok && target != id {
			c.queue.release(id)
			id = target
			continue
		}
		key := id
		return key, func() { c.queue.release(key) }, nil
	}
}

func (c *Controller[T]) invalidateCache() {
	c.mu.Lock()
	c.cacheGen++
	c.mu.Unlock()
	c.cfg.Cache.InvalidateAll()
}

func (c *Controller[T]) failureMessage(err error, fallback string) string {
	if msg := api.ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}

func (c *Controller[T]) rollback(m *machine, applied store.Applied[T]) {
	if !c.cfg.Store.RollbackIfLatest(applied) {
		c.cfg.Store.Undo(applied)
	}
	m.step(RolledBack)
}

// LoadPage shows page, from the cache when it holds it. A failed fetch leaves
// the store as it was and returns the error. When loads overlap only the
// latest one is applied.
func (c *Controller[T]) LoadPage(ctx context.Context, page int) error {
	if c.closed() {
		return ErrClosed
	}
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	gen := c.cacheGen
	c.mu.Unlock()

	if p, ok := c.cfg.Cache.Get(page); ok {
		c.log.Debug("Page served from cache", "page", page)
		c.cfg.Store.SetPage(p)
		return nil
	}

	reqCtx, stop := c.bind(ctx)
	defer stop()
	p, err := c.cfg.Repo.List(reqCtx, page, c.cfg.Store.PerPage())
	if c.closed() {
		return ErrClosed
	}
	if err != nil {
		c.log.Warn("Failed to load page, keeping stale view", "page", page, "error", err)
		return fmt.Errorf("load %s page %d: %w", c.cfg.Name, page, err)
	}
	if p.Page < 1 {
		p.Page = page
	}

	c.mu.Lock()
	latest := seq == c.loadSeq
	fresh := gen == c.cacheGen
	c.mu.Unlock()
	if fresh {
		c.cfg.Cache.Put(page, p)
	}
	if latest {
		c.cfg.Store.SetPage(p)
	}
	return nil
}

// Create adds rec optimistically under a temporary ID at the head of page 1
// and returns the server's record.
func (c *Controller[T]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if c.closed() {
		return zero, ErrClosed
	}
	tmpID := c.cfg.NewTempID()
	_, unlock, err := c.lock(ctx, tmpID)
	if err != nil {
		return zero, err
	}
	defer unlock()

	m := c.machine(events.OpCreate, tmpID)
	m.step(Applying)
	applied := c.cfg.Store.Apply(store.Change[T]{Kind: store.InsertHead, Record: rec.WithID(tmpID)})
	m.step(AwaitingServer)

	reqCtx, stop := c.bind(ctx)
	created, err := c.cfg.Repo.Create(reqCtx, rec.WithID(""))
	stop()
	if c.closed() {
		return zero, ErrClosed
	}
	if err != nil {
		c.rollback(m, applied)
		c.log.Warn("Create failed, rolled back", "tempID", tmpID, "error", err)
		c.cfg.Notifier.Notify(notify.Error, c.failureMessage(err, c.cfg.Messages.CreateFailed))
		return zero, err
	}

	shown := c.cfg.Store.Commit(created, tmpID)
	c.mu.Lock()
	c.aliases[tmpID] = created.RecordID()
	c.mu.Unlock()
	m.step(Committed)
	c.invalidateCache()
	c.log.Info("Record created", "id", created.RecordID(), "tempID", tmpID)
	c.cfg.Notifier.Notify(notify.Success, c.cfg.Messages.Created)
	c.cfg.Bus.Publish(ctx, events.Event{Topic: c.cfg.Topic, Op: events.OpCreate, RecordID: created.RecordID()})

	if !shown {
		c.log.Warn("Created record no longer in view, reloading page 1", "id", created.RecordID(), "tempID", tmpID)
	}
	if applied.PrevPage != 1 || !shown {
		if err := c.LoadPage(ctx, 1); err != nil {
			c.log.Warn("Reload of page 1 after create failed", "error", err)
		}
	}
	return created, nil
}

// Update replaces rec in place and returns the server's record.
func (c *Controller[T]) Update(ctx context.Context, rec T, opts ...Option) (T, error) {
	var zero T
	if c.closed() {
		return zero, ErrClosed
	}
	msgs := resolve(c.cfg.Messages.Updated, c.cfg.Messages.UpdateFailed, opts)

	id, unlock, err := c.lock(ctx, rec.RecordID())
	if err != nil {
		return zero, err
	}
	defer unlock()
	rec = rec.WithID(id)

	m := c.machine(events.OpUpdate, id)
	m.step(Applying)
	applied := c.cfg.Store.Apply(store.Change[T]{Kind: store.ReplaceInPlace, Record: rec})
	if !applied.Found {
		m.step(RolledBack)
		return zero, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	m.step(AwaitingServer)

	reqCtx, stop := c.bind(ctx)
	updated, err := c.cfg.Repo.Update(reqCtx, id, rec)
	stop()
	if c.closed() {
		return zero, ErrClosed
	}
	if errors.Is(err, api.ErrDecode) {
		// The server accepted the change but its body is unusable; keep the
		// optimistic value.
		c.log.Warn("Update response not decodable, keeping optimistic value", "id", id, "error", err)
		updated, err = rec, nil
	}
	if err != nil {
		c.rollback(m, applied)
		c.log.Warn("Update failed, rolled back", "id", id, "error", err)
		c.cfg.Notifier.Notify(notify.Error, c.failureMessage(err, msgs.failure))
		return zero, err
	}

	c.cfg.Store.Commit(updated, id)
	c.cfg.Cache.Patch(updated)
	m.step(Committed)
	c.cfg.Notifier.Notify(notify.Success, msgs.success)
	c.cfg.Bus.Publish(ctx, events.Event{Topic: c.cfg.Topic, Op: events.OpUpdate, RecordID: id})
	return updated, nil
}

// Delete removes the record optimistically.
func (c *Controller[T]) Delete(ctx context.Context, id string) error {
	if c.closed() {
		return ErrClosed
	}
	err := c.remove(ctx, id)
	switch {
	case errors.Is(err, ErrClosed):
		return err
	case errors.Is(err, ErrNotFound) && IsTemporary(id):
		// The create it waited on failed and already notified.
		return err
	case err != nil:
		c.cfg.Notifier.Notify(notify.Error, c.failureMessage(err, c.cfg.Messages.DeleteFailed))
	default:
		c.cfg.Notifier.Notify(notify.Success, c.cfg.Messages.Deleted)
	}
	return err
}

// DeleteBatch deletes ids concurrently as independent mutations. Each failed
// delete is rolled back on its own; the batch is not atomic. One notification
// summarises the batch.
func (c *Controller[T]) DeleteBatch(ctx context.Context, ids []string) error {
	if c.closed() {
		return ErrClosed
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
		failed []error
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := c.remove(ctx, id); err != nil {
				mu.Lock()
				failed = append(failed, err)
				result = multierror.Append(result, fmt.Errorf("delete %s: %w", id, err))
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if c.closed() {
		return ErrClosed
	}
	switch {
	case len(failed) == 0 && len(ids) == 1:
		c.cfg.Notifier.Notify(notify.Success, c.cfg.Messages.Deleted)
	case len(failed) == 0:
		c.cfg.Notifier.Notify(notify.Success, fmt.Sprintf(c.cfg.Messages.BatchDeleted, len(ids)))
	case len(failed) == 1:
		c.cfg.Notifier.Notify(notify.Error, c.failureMessage(failed[0], c.cfg.Messages.DeleteFailed))
	default:
		c.cfg.Notifier.Notify(notify.Error, fmt.Sprintf(c.cfg.Messages.BatchDeleteFailed, len(failed), len(ids)))
	}
	return result.ErrorOrNil()
}

// remove runs one delete mutation without notifying.
func (c *Controller[T]) remove(ctx context.Context, id string) error {
	id, unlock, err := c.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	m := c.machine(events.OpDelete, id)
	m.step(Applying)
	applied := c.cfg.Store.Apply(store.Change[T]{Kind: store.RemoveByID, ID: id})
	if !applied.Found {
		m.step(RolledBack)
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	m.step(AwaitingServer)

	reqCtx, stop := c.bind(ctx)
	err = c.cfg.Repo.Delete(reqCtx, id)
	stop()
	if c.closed() {
		return ErrClosed
	}
	if err != nil {
		c.rollback(m, applied)
		c.log.Warn("Delete failed, rolled back", "id", id, "error", err)
		return err
	}

	m.step(Committed)
	c.invalidateCache()
	c.log.Info("Record deleted", "id", id)
	c.cfg.Bus.Publish(ctx, events.Event{Topic: c.cfg.Topic, Op: events.OpDelete, RecordID: id})
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type discardNotifier struct{}

func (discardNotifier) Notify(notify.Severity, string) {}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, events.Event) {}
