// Package cache implements the normalized entity cache shared by query
// results, mutation merges and realtime reconciliation. Entities are keyed
// by (typename, id); every write path converges on the same identity so the
// three sources of truth cannot diverge.
package cache

import (
	"reflect"
	"sync"
)

// Ref identifies a cached entity. It is also the value stored wherever a
// normalized field references another entity.
type Ref struct {
	Typename string
	ID       string
}

// Policy controls how a root field accepts a new value.
type Policy int

const (
	// Merge deep-merges embedded objects and overwrites scalars. This is
	// the default for every root field.
	Merge Policy = iota
	// Replace discards the previous value entirely on each write. Root
	// list fields whose identity changes on every fetch (store order and
	// customer listings) must use it, otherwise deleted or reordered rows
	// would interleave with stale ones.
	Replace
)

// Writer is the write surface handed to mutation merge functions. Both
// *Cache and *Batch implement it.
type Writer interface {
	WriteQuery(root string, data any)
	WriteEntity(typename, id string, fields map[string]any)
}

type watcher struct {
	root string
	fn   func(any)
	deps map[Ref]struct{}
}

// Cache is the in-memory normalized store. All writes are atomic per
// logical write: a multi-field entity write is never observable
// half-applied.
type Cache struct {
	mu       sync.Mutex
	entities map[Ref]map[string]any
	roots    map[string]any
	policies map[string]Policy

	watchers      map[int]*watcher
	nextWatcherID int
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entities: make(map[Ref]map[string]any),
		roots:    make(map[string]any),
		policies: make(map[string]Policy),
		watchers: make(map[int]*watcher),
	}
}

// SetRootPolicy declares the merge policy for a root field.
func (c *Cache) SetRootPolicy(root string, p Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policies[root] = p
}

// WriteQuery normalizes data and stores it under the named root field.
func (c *Cache) WriteQuery(root string, data any) {
	c.mu.Lock()
	ch := newChangeSet()
	c.writeQueryLocked(root, data, ch)
	pending := c.collectLocked(ch)
	c.mu.Unlock()
	fire(pending)
}

// WriteEntity upserts the entity identified by (typename, id), overwriting
// only the given fields. An unknown identity is inserted fresh.
func (c *Cache) WriteEntity(typename, id string, fields map[string]any) {
	c.mu.Lock()
	ch := newChangeSet()
	c.writeEntityLocked(Ref{Typename: typename, ID: id}, fields, ch)
	pending := c.collectLocked(ch)
	c.mu.Unlock()
	fire(pending)
}

// PrependRoot prepends ref to the named root list, if that root is
// currently cached as a list and does not already contain ref. The
// contains check keeps at-least-once event delivery idempotent.
func (c *Cache) PrependRoot(root string, ref Ref) {
	c.mu.Lock()
	ch := newChangeSet()
	if list, ok := c.roots[root].([]any); ok {
		present := false
		for _, item := range list {
			if r, ok := item.(Ref); ok && r == ref {
				present = true
				break
			}
		}
		if !present {
			c.roots[root] = append([]any{ref}, list...)
			ch.roots[root] = true
		}
	}
	pending := c.collectLocked(ch)
	c.mu.Unlock()
	fire(pending)
}

// ReadQuery denormalizes the value stored under root. ok is false on a
// cache miss, including a reference whose entity is not cached.
func (c *Cache) ReadQuery(root string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok, _ := c.readLocked(root)
	return v, ok
}

// Entity returns a denormalized copy of a single cached entity.
func (c *Cache) Entity(typename, id string) (map[string]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ref := Ref{Typename: typename, ID: id}
	fields, ok := c.entities[ref]
	if !ok {
		return nil, false
	}
	out, ok := c.denormLocked(fields, make(map[Ref]struct{}), make(map[Ref]bool))
	m, isMap := out.(map[string]any)
	return m, ok && isMap
}

// Len returns the number of cached entities.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entities)
}

// Watch registers fn to be re-invoked with the freshly read value of root
// whenever root, or any entity the last read of root touched, changes.
// The returned cancel func releases the subscription.
func (c *Cache) Watch(root string, fn func(any)) (cancel func()) {
	c.mu.Lock()
	id := c.nextWatcherID
	c.nextWatcherID++

	w := &watcher{root: root, fn: fn, deps: make(map[Ref]struct{})}
	if _, ok, touched := c.readLocked(root); ok {
		w.deps = touched
	}
	c.watchers[id] = w
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// changeSet accumulates what a logical write touched.
type changeSet struct {
	entities map[Ref]bool
	roots    map[string]bool
}

func newChangeSet() *changeSet {
	return &changeSet{entities: make(map[Ref]bool), roots: make(map[string]bool)}
}

type notification struct {
	fn   func(any)
	data any
}

// collectLocked re-reads every watcher affected by ch and returns the
// callbacks to invoke once the lock is released.
func (c *Cache) collectLocked(ch *changeSet) []notification {
	if len(ch.entities) == 0 && len(ch.roots) == 0 {
		return nil
	}

	var pending []notification
	for _, w := range c.watchers {
		hit := ch.roots[w.root]
		if !hit {
			for ref := range ch.entities {
				if _, ok := w.deps[ref]; ok {
					hit = true
					break
				}
			}
		}
		if !hit {
			continue
		}
		data, ok, touched := c.readLocked(w.root)
		if !ok {
			continue
		}
		w.deps = touched
		pending = append(pending, notification{fn: w.fn, data: data})
	}
	return pending
}

func fire(pending []notification) {
	for _, n := range pending {
		n.fn(n.data)
	}
}

func (c *Cache) writeQueryLocked(root string, data any, ch *changeSet) {
	norm := c.normalizeLocked(data, ch)

	old, exists := c.roots[root]
	var next any
	if !exists || c.policies[root] == Replace {
		next = norm
	} else {
		next = mergeValue(old, norm)
	}
	if !exists || !reflect.DeepEqual(old, next) {
		c.roots[root] = next
		ch.roots[root] = true
	}
}

func (c *Cache) writeEntityLocked(ref Ref, fields map[string]any, ch *changeSet) {
	norm := make(map[string]any, len(fields))
	for k, v := range fields {
		norm[k] = c.normalizeLocked(v, ch)
	}
	c.mergeEntityLocked(ref, norm, ch)
}

// normalizeLocked walks a decoded JSON value, lifting every object that
// carries an identity into the entity table and leaving a Ref behind.
func (c *Cache) normalizeLocked(v any, ch *changeSet) any {
	switch t := v.(type) {
	case map[string]any:
		ref, isEntity := identify(t)
		fields := make(map[string]any, len(t))
		for k, val := range t {
			fields[k] = c.normalizeLocked(val, ch)
		}
		if !isEntity {
			return fields
		}
		c.mergeEntityLocked(ref, fields, ch)
		return ref
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = c.normalizeLocked(item, ch)
		}
		return out
	default:
		return v
	}
}

func (c *Cache) mergeEntityLocked(ref Ref, fields map[string]any, ch *changeSet) {
	existing, ok := c.entities[ref]
	if !ok {
		existing = make(map[string]any, len(fields))
		c.entities[ref] = existing
		ch.entities[ref] = true
	}
	for k, v := range fields {
		old, had := existing[k]
		merged := mergeValue(old, v)
		if !had || !reflect.DeepEqual(old, merged) {
			existing[k] = merged
			ch.entities[ref] = true
		}
	}
}

// mergeValue implements the default field policy: embedded objects
// deep-merge, everything else (scalars, lists, refs) overwrites.
func mergeValue(old, next any) any {
	om, oldIsMap := old.(map[string]any)
	nm, nextIsMap := next.(map[string]any)
	if !oldIsMap || !nextIsMap {
		return next
	}
	out := make(map[string]any, len(om)+len(nm))
	for k, v := range om {
		out[k] = v
	}
	for k, v := range nm {
		out[k] = mergeValue(out[k], v)
	}
	return out
}

// identify extracts the cache identity from a decoded object. Objects
// without a typename or id stay embedded in their parent.
func identify(m map[string]any) (Ref, bool) {
	tn, _ := m["__typename"].(string)
	if tn == "" {
		return Ref{}, false
	}
	id, _ := m["_id"].(string)
	if id == "" {
		id, _ = m["id"].(string)
	}
	if id == "" {
		return Ref{}, false
	}
	return Ref{Typename: tn, ID: id}, true
}

func (c *Cache) readLocked(root string) (any, bool, map[Ref]struct{}) {
	touched := make(map[Ref]struct{})
	v, ok := c.roots[root]
	if !ok {
		return nil, false, touched
	}
	out, ok := c.denormLocked(v, touched, make(map[Ref]bool))
	return out, ok, touched
}

func (c *Cache) denormLocked(v any, touched map[Ref]struct{}, visiting map[Ref]bool) (any, bool) {
	switch t := v.(type) {
	case Ref:
		touched[t] = struct{}{}
		if visiting[t] {
			return nil, false
		}
		fields, ok := c.entities[t]
		if !ok {
			return nil, false
		}
		visiting[t] = true
		defer delete(visiting, t)
		out := make(map[string]any, len(fields))
		for k, val := range fields {
			dv, ok := c.denormLocked(val, touched, visiting)
			if !ok {
				return nil, false
			}
			out[k] = dv
		}
		return out, true
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			dv, ok := c.denormLocked(item, touched, visiting)
			if !ok {
				return nil, false
			}
			out[i] = dv
		}
		return out, true
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			dv, ok := c.denormLocked(val, touched, visiting)
			if !ok {
				return nil, false
			}
			out[k] = dv
		}
		return out, true
	default:
		return v, true
	}
}
