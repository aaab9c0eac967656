package object

import "sync"

// ID identifies a binder object across process boundaries.
type ID struct {
	// Owner is the directory id of the exporting process's queue.
	Owner uint64
	// Key is the exporting process's opaque object key.
	Key uint64
}

// Less orders ids lexicographically by (Owner, Key).
func (a ID) Less(b ID) bool {
	if a.Owner != b.Owner {
		return a.Owner < b.Owner
	}
	return a.Key < b.Key
}

// Event is a notifier subscription kind. Object death is the only event.
type Event int

// EventObjectDead fires when the owning process is released.
const EventObjectDead Event = 1

// NotifierKey identifies a notifier subscription on an object.
type NotifierKey struct {
	Cookie      uint64
	NotifyQueue uint64
}

// Notifier is a subscription by one process to the death of an object.
type Notifier struct {
	Event       Event
	Cookie      uint64
	NotifyQueue uint64
}

// Object is one registry entry: an exported object or a reference.
type Object struct {
	ID ID

	// RealCookie is the owner-chosen cookie, recorded when the owner first
	// exports the object and restored when a handle returns home.
	RealCookie uint64

	mu        sync.Mutex
	notifiers map[NotifierKey]*Notifier
}

func newObject(id ID) *Object {
	return &Object{
		ID:        id,
		notifiers: make(map[NotifierKey]*Notifier),
	}
}

// AddNotifier registers a death subscription on the object.
func (o *Object) AddNotifier(event Event, cookie, notifyQueue uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := NotifierKey{Cookie: cookie, NotifyQueue: notifyQueue}
	o.notifiers[key] = &Notifier{Event: event, Cookie: cookie, NotifyQueue: notifyQueue}
}

// RemoveNotifier removes a matching subscription, reporting whether one
// existed.
func (o *Object) RemoveNotifier(event Event, cookie, notifyQueue uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := NotifierKey{Cookie: cookie, NotifyQueue: notifyQueue}
	n, ok := o.notifiers[key]
	if !ok || n.Event != event {
		return false
	}
	delete(o.notifiers, key)
	return true
}

// TakeNotifiers removes and returns all subscriptions, for death fan-out.
func (o *Object) TakeNotifiers() []*Notifier {
	o.mu.Lock()
	defer o.mu.Unlock()

	taken := make([]*Notifier, 0, len(o.notifiers))
	for _, n := range o.notifiers {
		taken = append(taken, n)
	}
	o.notifiers = make(map[NotifierKey]*Notifier)
	return taken
}

// NotifierCount returns the number of live subscriptions.
func (o *Object) NotifierCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.notifiers)
}
