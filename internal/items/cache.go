package items

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cache holds the authoritative in-memory item collection, ordered
// newest-first by inserted_at with unique ids. It is the only shared mutable
// state in the service; every read-modify-write serializes through one mutex
// so the feed consumer, the gateway and the inline editor never interleave.
type Cache struct {
	mu    sync.Mutex
	items []Item
	now   func() time.Time
}

func NewCache() *Cache {
	return &Cache{now: time.Now}
}

// ReplaceAll installs the full set from the remote store, sorted newest-first.
// Used on initial load.
func (c *Cache) ReplaceAll(items []Item) {
	next := cloneAll(items)
	sortNewestFirst(next)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = next
}

// Items returns a copy of the current ordered collection.
func (c *Cache) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.items)
}

// Len returns the current collection size.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Get returns the item with the given id, if present.
func (c *Cache) Get(id uuid.UUID) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if it.ID == id {
			return it.Clone(), true
		}
	}
	return Item{}, false
}

// ApplyRemoteChange merges one change feed event. Applying the same event
// twice is a no-op: inserts dedup by id, updates overwrite with identical
// values, deletes of absent ids do nothing. Returns false when the event was
// dropped rather than applied.
func (c *Cache) ApplyRemoteChange(event ChangeEvent) bool {
	id := event.TargetID()
	if id == uuid.Nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case EventInsert:
		// The feed may redeliver a row a local optimistic insert already added.
		if c.indexOf(id) != -1 {
			return false
		}
		c.items = append(c.items, event.New.Materialize(c.now()))
		sortNewestFirst(c.items)
		return true
	case EventUpdate:
		idx := c.indexOf(id)
		if idx == -1 {
			return false
		}
		c.items[idx] = event.New.Materialize(c.now())
		sortNewestFirst(c.items)
		return true
	case EventDelete:
		idx := c.indexOf(id)
		if idx == -1 {
			return false
		}
		c.items = append(c.items[:idx], c.items[idx+1:]...)
		return true
	}
	return false
}

// ApplyLocalMutation upserts by id: replace if present, prepend if absent,
// then re-sort newest-first. Used for optimistic writes and post-save merges.
func (c *Cache) ApplyLocalMutation(item Item) {
	item = item.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.indexOf(item.ID); idx != -1 {
		c.items[idx] = item
	} else {
		c.items = append([]Item{item}, c.items...)
	}
	sortNewestFirst(c.items)
}

// RemoveLocal drops the item ahead of server confirmation of a delete.
// Absence is not an error.
func (c *Cache) RemoveLocal(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.indexOf(id); idx != -1 {
		c.items = append(c.items[:idx], c.items[idx+1:]...)
	}
}

// Snapshot captures the full current collection by value. Callers performing
// an optimistic mutation hold this and Restore it verbatim on failure, which
// cannot accumulate partial-undo drift the way patched subsets can.
func (c *Cache) Snapshot() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.items)
}

// Restore installs a snapshot wholesale.
func (c *Cache) Restore(snapshot []Item) {
	next := cloneAll(snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = next
}

// indexOf must be called with the mutex held.
func (c *Cache) indexOf(id uuid.UUID) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

func sortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].InsertedAt.After(items[j].InsertedAt)
	})
}
