package device

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/openmesa/binderd/internal/infrastructure/config"
	"github.com/openmesa/binderd/internal/infrastructure/logging"
	"github.com/openmesa/binderd/internal/infrastructure/monitoring"
	"github.com/openmesa/binderd/internal/ipc/router"
	"github.com/openmesa/binderd/internal/ipc/wire"
	"go.uber.org/zap"
)

// ErrReleased reports a call on a handle whose process is gone.
var ErrReleased = errors.New("process already released")

// Options carries the sender identity and mode flags the host supplies
// at open time.
type Options struct {
	PID      int32
	EUID     uint32
	NonBlock bool
}

// Handle is one open handle on the device.
type Handle struct {
	ID   uuid.UUID
	proc *router.Process

	mu       sync.Mutex
	released bool
	euid     uint32
}

// WriteRead is the bulk exchange: a write batch to consume and a read
// buffer to fill, with the two progress counters the host echoes back to
// the caller.
type WriteRead struct {
	WriteBuffer   []byte
	WriteConsumed int

	ReadBuffer   []byte
	ReadConsumed int
}

// Device multiplexes binder IPC between the processes holding handles on
// it.
type Device struct {
	core *router.Core
	log  *logging.Logger
	cfg  config.DispatchConfig

	mu      sync.Mutex
	handles map[uuid.UUID]*Handle
}

// New creates a device.
func New(log *logging.Logger, cfg config.DispatchConfig) *Device {
	return &Device{
		core:    router.NewCore(log),
		log:     log,
		cfg:     cfg,
		handles: make(map[uuid.UUID]*Handle),
	}
}

// WithMetrics adds metrics tracking to the device and its router.
func (d *Device) WithMetrics(m *monitoring.Metrics) *Device {
	d.core.WithMetrics(m)
	return d
}

// Open creates a process record and returns its handle.
func (d *Device) Open(opts Options) *Handle {
	nonBlock := opts.NonBlock || d.cfg.NonBlock
	proc := d.core.NewProcess(opts.PID, opts.EUID, nonBlock)
	if d.cfg.MaxThreads > 0 {
		proc.SetMaxThreads(d.cfg.MaxThreads)
	}

	h := &Handle{
		ID:   uuid.New(),
		proc: proc,
		euid: opts.EUID,
	}

	d.mu.Lock()
	d.handles[h.ID] = h
	d.mu.Unlock()
	return h
}

// Release tears the handle's process down, fanning out death
// notifications and unblocking its workers. Idempotent.
func (d *Device) Release(h *Handle) {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.mu.Unlock()

	d.mu.Lock()
	delete(d.handles, h.ID)
	d.mu.Unlock()

	h.proc.Release()
}

// WriteRead runs the write batch, then the read batch, updating the
// progress counters even when a phase fails partway.
func (d *Device) WriteRead(h *Handle, tid int32, bwr *WriteRead) error {
	if h.isReleased() {
		return ErrReleased
	}
	w := h.proc.Worker(tid)

	if len(bwr.WriteBuffer) > bwr.WriteConsumed {
		n, err := h.proc.WriteCommands(w, bwr.WriteBuffer[bwr.WriteConsumed:])
		bwr.WriteConsumed += n
		if err != nil {
			return err
		}
	}

	if len(bwr.ReadBuffer) > bwr.ReadConsumed {
		n, err := h.proc.ReadCommands(w, bwr.ReadBuffer[bwr.ReadConsumed:])
		bwr.ReadConsumed += n
		if err != nil {
			return err
		}
	}

	return nil
}

// SetMaxThreads sets the process's worker-pool budget.
func (d *Device) SetMaxThreads(h *Handle, n int) error {
	if h.isReleased() {
		return ErrReleased
	}
	if n < 0 {
		return wire.ErrInvalidArgument
	}
	h.proc.SetMaxThreads(n)
	return nil
}

// SetContextManager binds the caller's process as the context manager.
// Only the first bind succeeds; see router.Core.BindContextManager.
func (d *Device) SetContextManager(h *Handle) error {
	if h.isReleased() {
		return ErrReleased
	}
	return d.core.BindContextManager(h.proc, h.euid)
}

// ThreadExit destroys the worker record for the calling OS thread.
func (d *Device) ThreadExit(h *Handle, tid int32) error {
	if h.isReleased() {
		return ErrReleased
	}
	h.proc.ThreadExit(tid)
	return nil
}

// Version reports the protocol version.
func (d *Device) Version() uint32 {
	return wire.ProtocolVersion
}

// Snapshots returns a point-in-time view of every open process, for the
// admin API.
func (d *Device) Snapshots() []router.Snapshot {
	d.mu.Lock()
	handles := make([]*Handle, 0, len(d.handles))
	for _, h := range d.handles {
		handles = append(handles, h)
	}
	d.mu.Unlock()

	snaps := make([]router.Snapshot, 0, len(handles))
	for _, h := range handles {
		snaps = append(snaps, h.proc.Snapshot())
	}
	return snaps
}

// Close releases every open handle, used at daemon shutdown.
func (d *Device) Close() {
	d.mu.Lock()
	handles := make([]*Handle, 0, len(d.handles))
	for _, h := range d.handles {
		handles = append(handles, h)
	}
	d.mu.Unlock()

	for _, h := range handles {
		d.Release(h)
	}
	d.log.Info("device closed", zap.Int("processes", len(handles)))
}

func (h *Handle) isReleased() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
