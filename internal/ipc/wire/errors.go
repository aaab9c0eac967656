package wire

import "errors"

// Error kinds of the dispatcher. Fault, InvalidArgument and NoMemory are
// fatal to a write batch; FailedReply and DeadReply are per-command and
// surface through the worker's last-error slot; NoSpace is a retryable
// read-side condition, not a failure.
var (
	// ErrFault reports a malformed or truncated buffer.
	ErrFault = errors.New("bad user buffer")

	// ErrInvalidArgument reports an unknown opcode or an out-of-range size.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoMemory reports an allocation failure during parsing.
	ErrNoMemory = errors.New("out of memory")

	// ErrDeadReply reports an unreachable target queue.
	ErrDeadReply = errors.New("dead reply")

	// ErrFailedReply reports a protocol violation by the caller: unknown
	// object, wrong looper state, or an empty reply stack.
	ErrFailedReply = errors.New("failed reply")

	// ErrNoSpace reports a read buffer too small for the next message. The
	// message stays queued; a larger read retries it.
	ErrNoSpace = errors.New("read buffer too small")

	// ErrBusy reports that the context manager is already bound.
	ErrBusy = errors.New("context manager already bound")

	// ErrPermissionDenied reports a context-manager bind from an euid other
	// than the one that bound it first.
	ErrPermissionDenied = errors.New("permission denied")
)
