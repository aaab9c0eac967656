// Package router implements the binder transaction router: the write and
// read halves of the command protocol, the handle translation performed on
// every process crossing, reply routing, death notifications, and the
// cooperating thread-pool controller.
//
// Components:
//   - Core: queue directory, context-manager binding, logging and metrics
//   - Process: per-open-handle record with its process-wide queue, object
//     registry, worker table and looper counters
//   - Worker: per-OS-thread record with its private queue, reply
//     accounting and in-service transaction stack
//
// A user thread drives the dispatcher with a write batch (WriteCommands)
// followed by a read batch (ReadCommands). The write phase parses packed
// commands, translates embedded descriptors, and enqueues messages on
// target queues; the read phase drains the thread's queues, preferring
// replies on the private queue over process-wide work, and serialises
// results into the caller's buffer.
package router
