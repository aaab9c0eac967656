package queue

import "sync"

// Directory names live queues by opaque uint64 ids. The id plays the role
// the raw queue pointer played in the original driver: it is embedded in
// wire descriptors and messages as the owner identity, and every use goes
// through Lookup, which validates liveness and pins the queue.
//
// Ids are monotonic and never reused, so a stale id held by a foreign
// process can only miss; it can never alias a different queue.
type Directory[T any] struct {
	mu     sync.Mutex
	nextID uint64
	queues map[uint64]*Queue[T]
}

// NewDirectory creates an empty directory.
func NewDirectory[T any]() *Directory[T] {
	return &Directory[T]{
		nextID: 1,
		queues: make(map[uint64]*Queue[T]),
	}
}

// Register assigns the queue its id and makes it resolvable.
func (d *Directory[T]) Register(q *Queue[T]) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++

	q.mu.Lock()
	q.id = id
	q.mu.Unlock()

	d.queues[id] = q
	return id
}

// Lookup resolves an id and acquires a reference on the queue. Returns
// false if the id is unknown or the queue has been closed; the caller
// must Release the queue after use on success.
func (d *Directory[T]) Lookup(id uint64) (*Queue[T], bool) {
	d.mu.Lock()
	q, ok := d.queues[id]
	d.mu.Unlock()

	if !ok {
		return nil, false
	}
	if err := q.Acquire(); err != nil {
		return nil, false
	}
	return q, true
}

// Unregister removes the id. The queue itself is closed by its owner.
func (d *Directory[T]) Unregister(id uint64) {
	d.mu.Lock()
	delete(d.queues, id)
	d.mu.Unlock()
}
