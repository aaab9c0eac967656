package router

import (
	"errors"
	"fmt"

	"github.com/openmesa/binderd/internal/ipc/object"
	"github.com/openmesa/binderd/internal/ipc/queue"
	"github.com/openmesa/binderd/internal/ipc/wire"
)

// ReadCommands drains the worker's incoming work into the caller's
// buffer and returns the number of bytes produced.
//
// Any stashed per-command error from the preceding write batch is
// surfaced first as a bare opcode. A spawn hint follows when process-wide
// work is visibly backing up and the pool budget allows another looper.
// The drain then prefers the worker's private queue (replies are awaited
// there) over the process-wide queue, so a worker blocked on a reply is
// never starved by new inbound work. A message that does not fit the
// remaining buffer space goes back to the head of its queue and the call
// returns with partial progress.
func (p *Process) ReadCommands(w *Worker, buf []byte) (int, error) {
	produced := 0

	if w.lastError != 0 && len(buf) >= wire.OpcodeSize {
		wire.PutOpcode(buf, w.lastError)
		w.lastError = 0
		produced += wire.OpcodeSize
	}

	produced += p.spawnOnBusy(buf[produced:])

	for len(buf)-produced >= wire.OpcodeSize {
		var m *Message
		var st queue.Status
		src := p.queue
		if w.queue.Size() > 0 || w.pendingReplies > 0 {
			// Replies are awaited: block on the private queue even after
			// partial progress.
			src = w.queue
			m, st = w.queue.Pop(true)
		} else {
			// Process-wide work blocks only an otherwise idle read; once
			// something was delivered the call returns instead of parking.
			m, st = p.queue.Pop(produced == 0)
		}
		if st == queue.Empty {
			break
		}
		if st == queue.Closed {
			if produced > 0 {
				break
			}
			return 0, fmt.Errorf("queue closed during read: %w", wire.ErrDeadReply)
		}

		var n int
		var err error
		switch m.Type {
		case wire.BcTransaction, wire.BcReply:
			n, err = p.readTransaction(w, m, buf[produced:])

		case wire.BrTransactionComplete:
			n, err = readBareOpcode(wire.BrTransactionComplete, buf[produced:])

		case wire.BcRequestDeathNotification, wire.BcClearDeathNotification:
			n, err = p.readNotifier(m, buf[produced:])

		case wire.BrDeadBinder:
			n, err = readDeadBinder(w, m, buf[produced:])

		default:
			return produced, fmt.Errorf("queued message type %#x: %w", m.Type, wire.ErrFault)
		}

		if err != nil {
			if errors.Is(err, wire.ErrNoSpace) {
				// Both queues belong to this process; a head push keeps the
				// message's position relative to later tail pushes.
				_ = src.PushHead(m)
				break
			}
			return produced, err
		}
		produced += n
	}

	if p.core.metrics != nil && produced > 0 {
		p.core.metrics.BytesRead(produced)
	}
	return produced, nil
}

// readTransaction serialises a queued transaction or reply into the user
// buffer, translating embedded descriptors for the receiving side.
func (p *Process) readTransaction(w *Worker, m *Message, out []byte) (int, error) {
	op := wire.BrTransaction
	if m.Type == wire.BcReply {
		op = wire.BrReply
	}

	dataOff := wire.Align8(wire.OpcodeSize + wire.TransactionHeaderSize)
	total := dataOff + wire.Align8(len(m.Data)) + len(m.Offsets)*wire.OffsetSize
	if total > len(out) {
		return 0, wire.ErrNoSpace
	}

	if err := translatePayload(m.Data, m.Offsets, p.translateRead); err != nil {
		return 0, err
	}

	hdr := wire.TransactionHeader{
		Target:      m.Obj.Key,
		Code:        m.Code,
		Flags:       m.Flags,
		SenderPID:   m.SenderPID,
		SenderEUID:  m.SenderEUID,
		DataSize:    uint32(len(m.Data)),
		OffsetsSize: uint32(len(m.Offsets) * wire.OffsetSize),
	}

	wire.PutOpcode(out, op)
	hdr.Encode(out[wire.OpcodeSize:])
	for i := wire.OpcodeSize + wire.TransactionHeaderSize; i < dataOff; i++ {
		out[i] = 0
	}
	copy(out[dataOff:], m.Data)
	for i := dataOff + len(m.Data); i < dataOff+wire.Align8(len(m.Data)); i++ {
		out[i] = 0
	}
	wire.EncodeOffsets(out[dataOff+wire.Align8(len(m.Data)):], m.Offsets)

	if m.Type == wire.BcTransaction {
		if !m.oneWay() {
			// The reply this worker eventually writes routes through here.
			w.pushIncoming(m)
		}
	} else {
		if w.pendingReplies > 0 {
			w.pendingReplies--
		}
	}

	return total, nil
}

// readNotifier processes a subscription request on the owner side. A
// registration emits nothing; a clear emits a completion opcode when a
// matching notifier was removed.
func (p *Process) readNotifier(m *Message, out []byte) (int, error) {
	obj, ok := p.registry.FindLocal(m.Obj.Key)
	if !ok {
		return 0, fmt.Errorf("notifier target (%d,%d) not owned here: %w",
			m.Obj.Owner, m.Obj.Key, wire.ErrFault)
	}

	if m.Type == wire.BcRequestDeathNotification {
		obj.AddNotifier(object.EventObjectDead, m.Cookie, m.ReplyTo)
		return 0, nil
	}

	if len(out) < wire.OpcodeSize {
		return 0, wire.ErrNoSpace
	}
	if obj.RemoveNotifier(object.EventObjectDead, m.Cookie, m.ReplyTo) {
		wire.PutOpcode(out, wire.BrClearDeathNotificationDone)
		return wire.OpcodeSize, nil
	}
	return 0, nil
}

// readDeadBinder emits a death notice: opcode plus the notifier cookie.
// A synthetic notice redirected from an in-flight transaction settles the
// worker's outstanding call.
func readDeadBinder(w *Worker, m *Message, out []byte) (int, error) {
	total := wire.OpcodeSize + wire.CookieSize
	if total > len(out) {
		return 0, wire.ErrNoSpace
	}

	wire.PutOpcode(out, wire.BrDeadBinder)
	wire.PutCookie(out[wire.OpcodeSize:], m.Cookie)

	if m.ReplyTo != 0 && w.pendingReplies > 0 {
		w.pendingReplies--
	}
	return total, nil
}

// readBareOpcode emits a payload-less response opcode.
func readBareOpcode(op uint32, out []byte) (int, error) {
	if len(out) < wire.OpcodeSize {
		return 0, wire.ErrNoSpace
	}
	wire.PutOpcode(out, op)
	return wire.OpcodeSize, nil
}

// spawnOnBusy emits at most one spawn hint per read call, only when the
// process-wide queue is backing up and the pool budget allows it.
func (p *Process) spawnOnBusy(out []byte) int {
	if len(out) < wire.OpcodeSize {
		return 0
	}
	if p.queue.Size() <= 1 {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.numLoopers+p.pendingLoopers >= p.maxThreads {
		return 0
	}
	wire.PutOpcode(out, wire.BrSpawnLooper)
	p.pendingLoopers++
	if p.core.metrics != nil {
		p.core.metrics.SpawnSignalled()
	}
	return wire.OpcodeSize
}
