// Package object implements the per-process binder object registry.
//
// A binder object is identified by (Owner, Key): the directory id of the
// queue owned by the exporting process, and an opaque key meaningful only
// to that process. Entries whose Owner equals the holding process's own
// queue id were exported by that process; entries with a different Owner
// are references into another process and never carry notifiers.
//
// Each object guards its death-notifier set with its own lock so notifier
// traffic does not contend on the registry lock.
package object
