package router

import (
	"sync"

	"github.com/openmesa/binderd/internal/ipc/object"
	"github.com/openmesa/binderd/internal/ipc/queue"
	"github.com/openmesa/binderd/internal/ipc/wire"
	"go.uber.org/zap"
)

// Process is one open handle on the device: a process-wide queue for
// inbound work not addressed to a specific worker, the object registry,
// and the worker table with the looper counters.
type Process struct {
	core *Core

	pid      int32
	euid     uint32
	nonBlock bool

	queue   *queue.Queue[*Message]
	queueID uint64

	registry *object.Registry

	mu       sync.Mutex
	workers  map[int32]*Worker
	released bool

	maxThreads     int
	numLoopers     int
	pendingLoopers int
}

// NewProcess creates a process record with a registered process-wide
// queue. Residual transactions left on the queue at close are redirected
// to their reply queues as dead-binder notices.
func (c *Core) NewProcess(pid int32, euid uint32, nonBlock bool) *Process {
	p := &Process{
		core:     c,
		pid:      pid,
		euid:     euid,
		nonBlock: nonBlock,
		workers:  make(map[int32]*Worker),
	}
	p.queue = queue.New[*Message](nonBlock, c.redirectDead)
	p.queueID = c.queues.Register(p.queue)
	p.registry = object.NewRegistry(p.queueID)

	if c.metrics != nil {
		c.metrics.ProcessOpened()
	}
	c.log.Debug("process opened",
		zap.Int32("pid", pid),
		zap.Uint64("queue", p.queueID))
	return p
}

// redirectDead is the drain callback for every queue in the system: a
// residual synchronous transaction is rewritten in place to a dead-binder
// notice and forwarded to its reply queue, so a blocked caller unblocks
// with a failure instead of hanging. It runs with the closing queue's
// lock dropped.
func (c *Core) redirectDead(m *Message) {
	if m.Type != wire.BcTransaction || m.ReplyTo == 0 {
		return
	}
	m.Type = wire.BrDeadBinder
	m.Cookie = 0
	if err := c.send(m.ReplyTo, m); err != nil {
		c.log.Debug("dead-binder redirect dropped", zap.Uint64("reply_queue", m.ReplyTo))
	}
}

// QueueID returns the directory id of the process-wide queue.
func (p *Process) QueueID() uint64 {
	return p.queueID
}

// PID returns the owning pid.
func (p *Process) PID() int32 {
	return p.pid
}

// SetMaxThreads sets the worker-pool budget.
func (p *Process) SetMaxThreads(n int) {
	p.mu.Lock()
	p.maxThreads = n
	p.mu.Unlock()
}

// Worker returns the record for the given OS thread, creating it on
// first use.
func (p *Process) Worker(tid int32) *Worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.workers[tid]; ok {
		return w
	}
	w := newWorker(p, tid)
	p.workers[tid] = w
	return w
}

// ThreadExit destroys the worker record for the given OS thread. Its
// in-service transactions and queued messages are redirected as
// dead-binder notices; an entered looper leaves the pool.
func (p *Process) ThreadExit(tid int32) {
	p.mu.Lock()
	w, ok := p.workers[tid]
	if ok {
		delete(p.workers, tid)
	}
	p.mu.Unlock()

	if !ok {
		return
	}
	p.freeWorker(w)
}

func (p *Process) freeWorker(w *Worker) {
	p.core.queues.Unregister(w.queueID)
	w.queue.Close()

	for _, m := range w.incoming {
		m.Type = wire.BrDeadBinder
		m.Cookie = 0
		if err := p.core.send(m.ReplyTo, m); err != nil {
			p.core.log.Debug("worker exit: reply redirect dropped",
				zap.Int32("tid", w.tid))
		}
	}
	w.incoming = nil

	if w.state&looperEntered != 0 {
		p.mu.Lock()
		p.numLoopers--
		p.mu.Unlock()
	}
}

// Release tears the process down: closes every queue (redirecting
// residual and in-service transactions), fans one dead-binder notice out
// per notifier on every owned object, and drops the registry. Idempotent.
func (p *Process) Release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return
	}
	p.released = true
	workers := p.workers
	p.workers = make(map[int32]*Worker)
	p.mu.Unlock()

	p.core.queues.Unregister(p.queueID)
	p.queue.Close()

	for _, w := range workers {
		p.freeWorker(w)
	}

	for _, obj := range p.registry.Drain() {
		if obj.ID.Owner != p.queueID {
			// Reference into another process; nothing to notify (I1).
			continue
		}
		for _, n := range obj.TakeNotifiers() {
			notice := &Message{
				Type:   wire.BrDeadBinder,
				Obj:    obj.ID,
				Cookie: n.Cookie,
			}
			if err := p.core.send(n.NotifyQueue, notice); err != nil {
				p.core.log.Debug("death notification dropped",
					zap.Uint64("notify_queue", n.NotifyQueue),
					zap.Uint64("object", obj.ID.Key))
				continue
			}
			if p.core.metrics != nil {
				p.core.metrics.DeathNotified()
			}
		}
	}

	if p.core.metrics != nil {
		p.core.metrics.ProcessReleased()
	}
	p.core.log.Debug("process released", zap.Int32("pid", p.pid), zap.Uint64("queue", p.queueID))
}

// Snapshot is a point-in-time view of a process for introspection.
type Snapshot struct {
	PID            int32  `json:"pid"`
	QueueID        uint64 `json:"queue_id"`
	QueueDepth     int    `json:"queue_depth"`
	Objects        int    `json:"objects"`
	Workers        int    `json:"workers"`
	MaxThreads     int    `json:"max_threads"`
	NumLoopers     int    `json:"num_loopers"`
	PendingLoopers int    `json:"pending_loopers"`
}

// Snapshot captures the process state for the admin API.
func (p *Process) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot{
		PID:            p.pid,
		QueueID:        p.queueID,
		QueueDepth:     p.queue.Size(),
		Objects:        p.registry.Size(),
		Workers:        len(p.workers),
		MaxThreads:     p.maxThreads,
		NumLoopers:     p.numLoopers,
		PendingLoopers: p.pendingLoopers,
	}
}
