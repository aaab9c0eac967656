package router

import (
	"fmt"

	"github.com/openmesa/binderd/internal/ipc/object"
	"github.com/openmesa/binderd/internal/ipc/wire"
	"go.uber.org/zap"
)

// WriteCommands parses a packed command batch issued by the given worker
// and returns the number of bytes consumed. A malformed opcode or a
// truncated payload aborts the batch; per-command failures are stashed in
// the worker's last-error slot and parsing continues, so the caller can
// resume from the returned offset.
func (p *Process) WriteCommands(w *Worker, buf []byte) (int, error) {
	consumed := 0

	for consumed+wire.OpcodeSize <= len(buf) {
		op := wire.Opcode(buf[consumed:])
		rest := buf[consumed+wire.OpcodeSize:]

		var n int
		var err error
		switch op {
		case wire.BcTransaction, wire.BcReply:
			n, err = p.writeTransaction(w, op, rest)

		case wire.BcRequestDeathNotification, wire.BcClearDeathNotification:
			n, err = p.writeNotifier(w, op, rest)

		case wire.BcEnterLooper, wire.BcExitLooper, wire.BcRegisterLooper:
			if lerr := w.looperTransition(op); lerr != nil {
				w.lastError = wire.BrFailedReply
			}

		default:
			return consumed, fmt.Errorf("opcode %#x: %w", op, wire.ErrInvalidArgument)
		}
		if err != nil {
			return consumed, err
		}
		consumed += wire.OpcodeSize + n
	}

	return consumed, nil
}

// writeTransaction handles BC_TRANSACTION and BC_REPLY. It returns the
// payload bytes consumed; framing and size violations are fatal, routing
// failures set the worker's last error and let the batch continue.
func (p *Process) writeTransaction(w *Worker, op uint32, rest []byte) (int, error) {
	hdr, err := wire.DecodeTransactionHeader(rest)
	if err != nil {
		return 0, err
	}
	if err := hdr.Validate(); err != nil {
		return 0, err
	}

	payload := hdr.PayloadSize()
	consumed := wire.TransactionHeaderSize + payload
	if consumed > len(rest) {
		return 0, fmt.Errorf("transaction payload truncated: %w", wire.ErrFault)
	}

	dataIn := rest[wire.TransactionHeaderSize : wire.TransactionHeaderSize+int(hdr.DataSize)]
	offsetsIn := rest[wire.TransactionHeaderSize+wire.Align8(int(hdr.DataSize)) : consumed]
	offsetsCount := int(hdr.OffsetsSize) / wire.OffsetSize

	var m *Message
	var dest uint64
	var objID object.ID

	if op == wire.BcTransaction {
		if hdr.Target == 0 {
			ctx, ok := p.core.contextManager()
			if !ok {
				return consumed, p.commandFailed(w, wire.BrFailedReply, "no context manager")
			}
			objID = ctx
		} else {
			obj, ok := p.registry.FindReference(hdr.Target)
			if !ok {
				// A process may address an object it exported itself.
				obj, ok = p.registry.FindLocal(hdr.Target)
			}
			if !ok {
				return consumed, p.commandFailed(w, wire.BrFailedReply, "unknown target")
			}
			objID = obj.ID
		}
		dest = objID.Owner
		m = newMessage(int(hdr.DataSize), offsetsCount)
		m.Obj = objID
	} else {
		req, ok := w.popIncoming()
		if !ok {
			return consumed, p.commandFailed(w, wire.BrFailedReply, "no transaction to reply to")
		}
		dest = req.ReplyTo
		m = reuseMessage(req, int(hdr.DataSize), offsetsCount)
	}

	m.Type = op
	m.Code = hdr.Code
	m.Flags = hdr.Flags
	m.SenderPID = p.pid
	m.SenderEUID = p.euid
	if m.oneWay() {
		m.ReplyTo = 0
	} else {
		m.ReplyTo = w.queueID
	}

	copy(m.Data, dataIn)
	copy(m.Offsets, wire.DecodeOffsets(offsetsIn, offsetsCount))

	if err := translatePayload(m.Data, m.Offsets, p.translateWrite); err != nil {
		return consumed, p.commandFailed(w, wire.BrFailedReply, "descriptor translation failed")
	}

	// The message belongs to the receiver once sent; snapshot what the
	// bookkeeping below still needs.
	oneWay := m.oneWay()
	dataLen := len(m.Data)

	if err := p.core.send(dest, m); err != nil {
		return consumed, p.commandFailed(w, wire.BrDeadReply, "target queue unreachable")
	}

	if op == wire.BcTransaction && !oneWay {
		w.pendingReplies++
	}

	// The completion ack lands on the worker's own queue before this call
	// returns, so the sender observes it ahead of any racing reply.
	ack := &Message{
		Type:  wire.BrTransactionComplete,
		Obj:   objID,
		Code:  hdr.Code,
		Flags: hdr.Flags,
	}
	if err := w.queue.PushTail(ack); err != nil {
		return consumed, p.commandFailed(w, wire.BrFailedReply, "worker queue closed")
	}

	if p.core.metrics != nil {
		p.core.metrics.TransactionRouted(wire.OpcodeName(op), oneWay)
		p.core.metrics.BytesWritten(dataLen)
	}
	return consumed, nil
}

// writeNotifier handles the death-notification subscription commands.
// The request travels to the object's owner queue and is processed on the
// owner side of the read path.
func (p *Process) writeNotifier(w *Worker, op uint32, rest []byte) (int, error) {
	nd, err := wire.DecodeNotifierData(rest)
	if err != nil {
		return 0, err
	}

	obj, ok := p.registry.FindReference(nd.Binder)
	if !ok {
		return wire.NotifierDataSize, p.commandFailed(w, wire.BrFailedReply, "no such reference")
	}

	m := &Message{
		Type:    op,
		Obj:     obj.ID,
		Cookie:  nd.Cookie,
		ReplyTo: p.queueID,
	}
	if err := p.core.send(obj.ID.Owner, m); err != nil {
		return wire.NotifierDataSize, p.commandFailed(w, wire.BrDeadReply, "owner queue unreachable")
	}
	return wire.NotifierDataSize, nil
}

// commandFailed stashes a per-command failure for the next read and logs
// it. The returned error is always nil: per-command failures do not abort
// the batch.
func (p *Process) commandFailed(w *Worker, code uint32, reason string) error {
	w.lastError = code
	p.core.log.Debug("command failed",
		zap.Int32("pid", p.pid),
		zap.Int32("tid", w.tid),
		zap.String("error", wire.OpcodeName(code)),
		zap.String("reason", reason))
	if p.core.metrics != nil {
		p.core.metrics.CommandFailed(wire.OpcodeName(code))
	}
	return nil
}
