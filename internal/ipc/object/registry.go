package object

import (
	"sort"
	"sync"
)

// Registry is a process's map of binder objects, keyed by (Owner, Key).
// Entries persist for the lifetime of the process and are drained in id
// order on release.
type Registry struct {
	mu   sync.Mutex
	objs map[ID]*Object

	// selfQueue is the owning process's queue id; entries with this owner
	// are exports, everything else is a reference.
	selfQueue uint64
}

// NewRegistry creates a registry for the process owning the given queue.
func NewRegistry(selfQueue uint64) *Registry {
	return &Registry{
		objs:      make(map[ID]*Object),
		selfQueue: selfQueue,
	}
}

// SelfQueue returns the owning process's queue id.
func (r *Registry) SelfQueue() uint64 {
	return r.selfQueue
}

// Find looks up an object by full id.
func (r *Registry) Find(owner, key uint64) (*Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	obj, ok := r.objs[ID{Owner: owner, Key: key}]
	return obj, ok
}

// FindLocal looks up an object exported by the owning process itself.
func (r *Registry) FindLocal(key uint64) (*Object, bool) {
	return r.Find(r.selfQueue, key)
}

// FindReference looks up a reference entry by key alone, taking the entry
// with the lowest foreign owner id if several match.
func (r *Registry) FindReference(key uint64) (*Object, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *Object
	for id, obj := range r.objs {
		if id.Owner == r.selfQueue || id.Key != key {
			continue
		}
		if best == nil || id.Owner < best.ID.Owner {
			best = obj
		}
	}
	return best, best != nil
}

// InsertOrGet returns the object with the given id, creating it if
// absent. If a concurrent inserter won, the existing entry is returned,
// the candidate discarded, and created is false.
func (r *Registry) InsertOrGet(owner, key uint64) (obj *Object, created bool) {
	id := ID{Owner: owner, Key: key}

	r.mu.Lock()
	defer r.mu.Unlock()

	if obj, ok := r.objs[id]; ok {
		return obj, false
	}
	obj = newObject(id)
	r.objs[id] = obj
	return obj, true
}

// InsertOrGetLocal inserts or finds an export of the owning process.
func (r *Registry) InsertOrGetLocal(key uint64) (*Object, bool) {
	return r.InsertOrGet(r.selfQueue, key)
}

// Erase removes an object from the registry.
func (r *Registry) Erase(obj *Object) {
	r.mu.Lock()
	delete(r.objs, obj.ID)
	r.mu.Unlock()
}

// Size returns the number of entries.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objs)
}

// Drain removes all entries and returns them in (Owner, Key) order, used
// at process release to fan death notifications out deterministically.
func (r *Registry) Drain() []*Object {
	r.mu.Lock()
	drained := make([]*Object, 0, len(r.objs))
	for _, obj := range r.objs {
		drained = append(drained, obj)
	}
	r.objs = make(map[ID]*Object)
	r.mu.Unlock()

	sort.Slice(drained, func(i, j int) bool {
		return drained[i].ID.Less(drained[j].ID)
	})
	return drained
}
