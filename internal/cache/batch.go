package cache

// Batch stages writes so a mutation's merge applies atomically: either
// every staged write lands in one locked pass, or none does. A merge
// function that fails simply never commits, leaving prior state untouched.
type Batch struct {
	c   *Cache
	ops []func(ch *changeSet)
}

// Batch returns a new staging handle over the cache.
func (c *Cache) Batch() *Batch {
	return &Batch{c: c}
}

func (b *Batch) WriteQuery(root string, data any) {
	b.ops = append(b.ops, func(ch *changeSet) {
		b.c.writeQueryLocked(root, data, ch)
	})
}

func (b *Batch) WriteEntity(typename, id string, fields map[string]any) {
	ref := Ref{Typename: typename, ID: id}
	b.ops = append(b.ops, func(ch *changeSet) {
		b.c.writeEntityLocked(ref, fields, ch)
	})
}

// Commit applies every staged write in a single atomic pass and notifies
// affected watchers once.
func (b *Batch) Commit() {
	if len(b.ops) == 0 {
		return
	}
	b.c.mu.Lock()
	ch := newChangeSet()
	for _, op := range b.ops {
		op(ch)
	}
	b.ops = nil
	pending := b.c.collectLocked(ch)
	b.c.mu.Unlock()
	fire(pending)
}

// Discard drops every staged write.
func (b *Batch) Discard() {
	b.ops = nil
}

var _ Writer = (*Cache)(nil)
var _ Writer = (*Batch)(nil)
