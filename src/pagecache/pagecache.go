// Package pagecache memoizes fetched list pages so paging backward within a
// session does not refetch. Entries never expire; staleness is bounded only by
// explicit invalidation.
package pagecache

import (
	"fmt"

	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/patrickmn/go-cache"
)

const ckPage = "page_%d_limit_%d"

// Cache holds pages of one resource for one view.
type Cache[T models.Record] struct {
	c     *cache.Cache
	limit int
}

// New returns an empty cache for pages of the given size.
func New[T models.Record](limit int) *Cache[T] {
	return &Cache[T]{
		c:     cache.New(cache.NoExpiration, 0),
		limit: limit,
	}
}

func (pc *Cache[T]) key(page int) string {
	return fmt.Sprintf(ckPage, page, pc.limit)
}

// Get returns a copy of the cached page, or false on a miss.
func (pc *Cache[T]) Get(page int) (models.Page[T], bool) {
	v, found := pc.c.Get(pc.key(page))
	if !found {
		return models.Page[T]{}, false
	}
	p := v.(models.Page[T])
	p.Records = append([]T(nil), p.Records...)
	return p, true
}

// Put stores a page's fetch result.
func (pc *Cache[T]) Put(page int, payload models.Page[T]) {
	payload.Records = append([]T(nil), payload.Records...)
	pc.c.Set(pc.key(page), payload, cache.NoExpiration)
}

// Patch replaces rec in every cached page that holds a record with the same
// ID. It reports whether any page changed. Used after an in-place update,
// which does not move page boundaries.
func (pc *Cache[T]) Patch(rec T) bool {
	id := rec.RecordID()
	patched := false
	for k, item := range pc.c.Items() {
		p := item.Object.(models.Page[T])
		changed := false
		records := append([]T(nil), p.Records...)
		for i := range records {
			if records[i].RecordID() == id {
				records[i] = rec
				changed = true
			}
		}
		if changed {
			p.Records = records
			pc.c.Set(k, p, cache.NoExpiration)
			patched = true
		}
	}
	return patched
}

// InvalidateAll drops every cached page. Called after a create or delete
// succeeds, since a row-count change shifts every page boundary.
func (pc *Cache[T]) InvalidateAll() {
	pc.c.Flush()
}

// Len is the number of cached pages.
func (pc *Cache[T]) Len() int {
	return pc.c.ItemCount()
}
