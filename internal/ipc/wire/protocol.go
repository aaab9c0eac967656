package wire

// ProtocolVersion is reported by the version probe.
const ProtocolVersion uint32 = 8

// MaxTransactionSize bounds the data portion of a single transaction.
const MaxTransactionSize = 4000

// Write-side opcodes (host to core).
const (
	BcTransaction uint32 = 0x40286300 + iota
	BcReply
	BcRequestDeathNotification
	BcClearDeathNotification
	BcEnterLooper
	BcExitLooper
	BcRegisterLooper
)

// Read-side opcodes (core to host).
const (
	BrTransaction uint32 = 0x80287200 + iota
	BrReply
	BrTransactionComplete
	BrDeadBinder
	BrClearDeathNotificationDone
	BrSpawnLooper
	BrFailedReply
	BrDeadReply
)

// Transaction flags.
const (
	// FlagOneWay marks a transaction as fire-and-forget: no reply is
	// expected and no reply queue travels with the message.
	FlagOneWay uint32 = 0x01
)

// Flat object tags.
const (
	TagBinder uint32 = iota + 1
	TagWeakBinder
	TagHandle
	TagWeakHandle
)

// OpcodeName returns a printable name for log output.
func OpcodeName(op uint32) string {
	switch op {
	case BcTransaction:
		return "BC_TRANSACTION"
	case BcReply:
		return "BC_REPLY"
	case BcRequestDeathNotification:
		return "BC_REQUEST_DEATH_NOTIFICATION"
	case BcClearDeathNotification:
		return "BC_CLEAR_DEATH_NOTIFICATION"
	case BcEnterLooper:
		return "BC_ENTER_LOOPER"
	case BcExitLooper:
		return "BC_EXIT_LOOPER"
	case BcRegisterLooper:
		return "BC_REGISTER_LOOPER"
	case BrTransaction:
		return "BR_TRANSACTION"
	case BrReply:
		return "BR_REPLY"
	case BrTransactionComplete:
		return "BR_TRANSACTION_COMPLETE"
	case BrDeadBinder:
		return "BR_DEAD_BINDER"
	case BrClearDeathNotificationDone:
		return "BR_CLEAR_DEATH_NOTIFICATION_DONE"
	case BrSpawnLooper:
		return "BR_SPAWN_LOOPER"
	case BrFailedReply:
		return "BR_FAILED_REPLY"
	case BrDeadReply:
		return "BR_DEAD_REPLY"
	default:
		return "UNKNOWN"
	}
}
