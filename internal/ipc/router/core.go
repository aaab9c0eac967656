package router

import (
	"sync"

	"github.com/openmesa/binderd/internal/infrastructure/logging"
	"github.com/openmesa/binderd/internal/infrastructure/monitoring"
	"github.com/openmesa/binderd/internal/ipc/object"
	"github.com/openmesa/binderd/internal/ipc/queue"
	"github.com/openmesa/binderd/internal/ipc/wire"
	"go.uber.org/zap"
)

// Core is the shared routing state: the directory naming every live
// queue and the context-manager binding. One Core backs one device.
type Core struct {
	queues *queue.Directory[*Message]
	log    *logging.Logger

	metrics *monitoring.Metrics

	// Context manager: the well-known object behind target handle 0.
	// First bind wins and captures the binding euid.
	ctxMu    sync.Mutex
	ctxBound bool
	ctxObj   object.ID
	ctxEUID  uint32
}

// NewCore creates a routing core.
func NewCore(log *logging.Logger) *Core {
	if log == nil {
		log = &logging.Logger{Logger: zap.NewNop()}
	}
	return &Core{
		queues: queue.NewDirectory[*Message](),
		log:    log,
	}
}

// WithMetrics adds metrics tracking to the core.
func (c *Core) WithMetrics(m *monitoring.Metrics) *Core {
	c.metrics = m
	return c
}

// BindContextManager installs the context-manager object, owned by the
// given process. Only the first bind succeeds: a rebind from the same
// euid fails with ErrBusy, any other euid with ErrPermissionDenied.
func (c *Core) BindContextManager(p *Process, euid uint32) error {
	c.ctxMu.Lock()
	defer c.ctxMu.Unlock()

	if c.ctxBound {
		if c.ctxEUID != euid {
			return wire.ErrPermissionDenied
		}
		return wire.ErrBusy
	}

	obj, _ := p.registry.InsertOrGetLocal(0)
	c.ctxBound = true
	c.ctxObj = obj.ID
	c.ctxEUID = euid

	c.log.Info("context manager bound",
		zap.Int32("pid", p.pid),
		zap.Uint32("euid", euid),
		zap.Uint64("owner_queue", obj.ID.Owner))
	return nil
}

// contextManager returns the bound context-manager id, if any.
func (c *Core) contextManager() (object.ID, bool) {
	c.ctxMu.Lock()
	defer c.ctxMu.Unlock()
	return c.ctxObj, c.ctxBound
}

// send delivers a message to the queue named by id, validating liveness
// through the directory and holding a reference across the push.
func (c *Core) send(id uint64, m *Message) error {
	q, ok := c.queues.Lookup(id)
	if !ok {
		return wire.ErrDeadReply
	}
	defer q.Release()

	if err := q.PushTail(m); err != nil {
		return wire.ErrDeadReply
	}
	return nil
}

// sendHead re-queues a message at the head of the queue named by id.
func (c *Core) sendHead(id uint64, m *Message) error {
	q, ok := c.queues.Lookup(id)
	if !ok {
		return wire.ErrDeadReply
	}
	defer q.Release()

	if err := q.PushHead(m); err != nil {
		return wire.ErrDeadReply
	}
	return nil
}
