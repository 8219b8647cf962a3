// Package mirror keeps a local, read-only copy of one remote table consistent
// by applying insert/update/delete change-events in arrival order.
package mirror

import "sync"

// Table is a keyed mirror of a remote table. R is the row type, K the key type
// produced by the id extractor given at construction.
//
// All apply operations key purely on the row id carried by the event; for
// updates the old row is forwarded to callbacks but never used for matching,
// because its other fields may already be stale. Applies never block and never
// perform I/O.
type Table[K comparable, R any] struct {
	name string
	id   func(R) K

	mu      sync.RWMutex
	rows    map[K]R
	version uint64

	cbMu     sync.RWMutex
	nextCbID uint64
	onInsert map[uint64]func(row R)
	onUpdate map[uint64]func(oldRow, newRow R)
	onDelete map[uint64]func(row R)
}

// NewTable creates an empty mirror for the named table. id extracts the
// primary key from a row.
func NewTable[K comparable, R any](name string, id func(R) K) *Table[K, R] {
	return &Table[K, R]{
		name:     name,
		id:       id,
		rows:     make(map[K]R),
		onInsert: make(map[uint64]func(R)),
		onUpdate: make(map[uint64]func(R, R)),
		onDelete: make(map[uint64]func(R)),
	}
}

// Name returns the remote table name this mirror tracks.
func (t *Table[K, R]) Name() string {
	return t.name
}

// ApplyInsert stores the row under its id and notifies insert callbacks.
// An insert for an id that is already present replaces the stored value, which
// makes redelivered snapshot rows harmless.
func (t *Table[K, R]) ApplyInsert(row R) {
	t.mu.Lock()
	t.rows[t.id(row)] = row
	t.version++
	t.mu.Unlock()

	for _, cb := range t.insertCallbacks() {
		cb(row)
	}
}

// ApplyUpdate replaces the row keyed by newRow's id and notifies update
// callbacks. oldRow is passed through to callbacks untouched.
func (t *Table[K, R]) ApplyUpdate(oldRow, newRow R) {
	t.mu.Lock()
	t.rows[t.id(newRow)] = newRow
	t.version++
	t.mu.Unlock()

	for _, cb := range t.updateCallbacks() {
		cb(oldRow, newRow)
	}
}

// ApplyDelete removes the row keyed by row's id and notifies delete
// callbacks. Deleting an absent id is a no-op apart from the callbacks.
func (t *Table[K, R]) ApplyDelete(row R) {
	t.mu.Lock()
	delete(t.rows, t.id(row))
	t.version++
	t.mu.Unlock()

	for _, cb := range t.deleteCallbacks() {
		cb(row)
	}
}

// Get returns the current row for id.
func (t *Table[K, R]) Get(id K) (R, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

// Snapshot returns a copy of all current rows, in no particular order. It is
// cheap enough to be called on every re-evaluation of derived views.
func (t *Table[K, R]) Snapshot() []R {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := make([]R, 0, len(t.rows))
	for _, row := range t.rows {
		rows = append(rows, row)
	}
	return rows
}

// Len returns the number of live rows.
func (t *Table[K, R]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Version increases by one on every applied change-event. Derived-view caches
// use it to detect staleness.
func (t *Table[K, R]) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// OnInsert registers a callback invoked after every applied insert. The
// returned function removes the registration.
func (t *Table[K, R]) OnInsert(cb func(row R)) (unsubscribe func()) {
	t.cbMu.Lock()
	t.nextCbID++
	id := t.nextCbID
	t.onInsert[id] = cb
	t.cbMu.Unlock()
	return func() {
		t.cbMu.Lock()
		delete(t.onInsert, id)
		t.cbMu.Unlock()
	}
}

// OnUpdate registers a callback invoked after every applied update.
func (t *Table[K, R]) OnUpdate(cb func(oldRow, newRow R)) (unsubscribe func()) {
	t.cbMu.Lock()
	t.nextCbID++
	id := t.nextCbID
	t.onUpdate[id] = cb
	t.cbMu.Unlock()
	return func() {
		t.cbMu.Lock()
		delete(t.onUpdate, id)
		t.cbMu.Unlock()
	}
}

// OnDelete registers a callback invoked after every applied delete.
func (t *Table[K, R]) OnDelete(cb func(row R)) (unsubscribe func()) {
	t.cbMu.Lock()
	t.nextCbID++
	id := t.nextCbID
	t.onDelete[id] = cb
	t.cbMu.Unlock()
	return func() {
		t.cbMu.Lock()
		delete(t.onDelete, id)
		t.cbMu.Unlock()
	}
}

func (t *Table[K, R]) insertCallbacks() []func(R) {
	t.cbMu.RLock()
	defer t.cbMu.RUnlock()
	cbs := make([]func(R), 0, len(t.onInsert))
	for _, cb := range t.onInsert {
		cbs = append(cbs, cb)
	}
	return cbs
}

func (t *Table[K, R]) updateCallbacks() []func(R, R) {
	t.cbMu.RLock()
	defer t.cbMu.RUnlock()
	cbs := make([]func(R, R), 0, len(t.onUpdate))
	for _, cb := range t.onUpdate {
		cbs = append(cbs, cb)
	}
	return cbs
}

func (t *Table[K, R]) deleteCallbacks() []func(R) {
	t.cbMu.RLock()
	defer t.cbMu.RUnlock()
	cbs := make([]func(R), 0, len(t.onDelete))
	for _, cb := range t.onDelete {
		cbs = append(cbs, cb)
	}
	return cbs
}
