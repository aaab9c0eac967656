// Package queue provides the typed FIFO underlying all binder message
// routing, plus the directory that names live queues.
//
// Every process owns one process-wide queue and each of its workers owns a
// private queue. Foreign processes never hold a queue pointer directly:
// they hold the queue's directory id and resolve it on every send, which
// pins the queue with a reference for the duration of the operation.
//
// Components:
//   - Queue: unbounded FIFO with blocking pop, head push, external
//     refcounting and a drain callback for residual messages at close
//   - Directory: id-to-queue map; ids are monotonic and never reused
//
// Ordering guarantee: a PushHead is observed strictly before any
// concurrent PushTail by the next Pop.
package queue
