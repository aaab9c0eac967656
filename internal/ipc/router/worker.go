package router

import (
	"github.com/openmesa/binderd/internal/ipc/queue"
	"github.com/openmesa/binderd/internal/ipc/wire"
)

// Looper state flags.
const (
	looperRegistered = 1 << iota
	looperEntered
)

// Worker is the per-OS-thread record: a private queue for replies and
// thread-directed work, the outstanding-call counter, and the stack of
// synchronous requests currently being serviced.
//
// A worker is driven only by its own OS thread, so its fields need no
// lock; the looper counters it feeds live on the process and are guarded
// there.
type Worker struct {
	proc *Process
	tid  int32

	queue   *queue.Queue[*Message]
	queueID uint64

	state          int
	pendingReplies int

	// incoming holds non-one-way requests in LIFO order of receipt; the
	// top entry is the request whose reply is expected next.
	incoming []*Message

	// lastError is the most recent per-command failure, surfaced as a
	// bare opcode at the start of the next read.
	lastError uint32
}

func newWorker(p *Process, tid int32) *Worker {
	w := &Worker{
		proc: p,
		tid:  tid,
	}
	w.queue = queue.New[*Message](p.nonBlock, p.core.redirectDead)
	w.queueID = p.core.queues.Register(w.queue)
	return w
}

// TID returns the worker's OS thread id.
func (w *Worker) TID() int32 {
	return w.tid
}

// PendingReplies returns the number of outstanding synchronous calls.
func (w *Worker) PendingReplies() int {
	return w.pendingReplies
}

// pushIncoming records a request now being serviced by this worker.
func (w *Worker) pushIncoming(m *Message) {
	w.incoming = append(w.incoming, m)
}

// popIncoming takes the request whose reply is expected next.
func (w *Worker) popIncoming() (*Message, bool) {
	if len(w.incoming) == 0 {
		return nil, false
	}
	m := w.incoming[len(w.incoming)-1]
	w.incoming = w.incoming[:len(w.incoming)-1]
	return m, true
}

// looperTransition applies a looper control command to the worker state
// machine and the process pool counters. Rejections report ErrFailedReply
// and leave the counters untouched.
func (w *Worker) looperTransition(op uint32) error {
	p := w.proc

	switch op {
	case wire.BcEnterLooper:
		if w.state&looperEntered != 0 {
			return wire.ErrFailedReply
		}
		w.state |= looperEntered
		p.mu.Lock()
		p.numLoopers++
		p.mu.Unlock()

	case wire.BcExitLooper:
		if w.state&looperEntered == 0 {
			return wire.ErrFailedReply
		}
		w.state &^= looperEntered
		p.mu.Lock()
		p.numLoopers--
		p.mu.Unlock()

	case wire.BcRegisterLooper:
		if w.state&looperEntered != 0 {
			return wire.ErrFailedReply
		}
		w.state |= looperRegistered
		p.mu.Lock()
		if p.pendingLoopers > 0 {
			p.pendingLoopers--
		}
		p.mu.Unlock()

	default:
		return wire.ErrFailedReply
	}

	if p.core.metrics != nil {
		p.mu.Lock()
		num, pending := p.numLoopers, p.pendingLoopers
		p.mu.Unlock()
		p.core.metrics.SetLoopers(num, pending)
	}
	return nil
}
