package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmesa/binderd/internal/infrastructure/config"
	"github.com/openmesa/binderd/internal/infrastructure/logging"
	"github.com/openmesa/binderd/internal/ipc/wire"
)

func newTestDevice() *Device {
	return New(logging.NewNop(), config.DispatchConfig{NonBlock: true})
}

func TestOpenAssignsDistinctHandles(t *testing.T) {
	dev := newTestDevice()

	a := dev.Open(Options{PID: 100, EUID: 0})
	b := dev.Open(Options{PID: 200, EUID: 1000})

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, dev.Snapshots(), 2)
}

func TestContextManagerBindingRules(t *testing.T) {
	dev := newTestDevice()

	first := dev.Open(Options{PID: 100, EUID: 1000})
	require.NoError(t, dev.SetContextManager(first))

	// A rebind by the same euid is busy; another euid is forbidden.
	sameUID := dev.Open(Options{PID: 101, EUID: 1000})
	assert.ErrorIs(t, dev.SetContextManager(sameUID), wire.ErrBusy)

	otherUID := dev.Open(Options{PID: 102, EUID: 2000})
	assert.ErrorIs(t, dev.SetContextManager(otherUID), wire.ErrPermissionDenied)
}

func TestWriteReadUpdatesCounters(t *testing.T) {
	dev := newTestDevice()

	mgr := dev.Open(Options{PID: 100, EUID: 0})
	require.NoError(t, dev.SetContextManager(mgr))
	client := dev.Open(Options{PID: 200, EUID: 1000})

	write := make([]byte, wire.OpcodeSize+wire.TransactionHeaderSize)
	wire.PutOpcode(write, wire.BcTransaction)
	hdr := wire.TransactionHeader{Target: 0, Code: 1}
	hdr.Encode(write[wire.OpcodeSize:])

	bwr := &WriteRead{
		WriteBuffer: write,
		ReadBuffer:  make([]byte, 256),
	}
	require.NoError(t, dev.WriteRead(client, 1, bwr))

	assert.Equal(t, len(write), bwr.WriteConsumed)
	// The completion ack came back in the same exchange.
	assert.Equal(t, wire.OpcodeSize, bwr.ReadConsumed)
	assert.Equal(t, wire.BrTransactionComplete, wire.Opcode(bwr.ReadBuffer))
}

func TestWriteReadResumesFromConsumed(t *testing.T) {
	dev := newTestDevice()
	h := dev.Open(Options{PID: 100, EUID: 0})

	batch := make([]byte, wire.OpcodeSize)
	wire.PutOpcode(batch, wire.BcEnterLooper)

	bwr := &WriteRead{WriteBuffer: batch}
	require.NoError(t, dev.WriteRead(h, 1, bwr))
	require.Equal(t, len(batch), bwr.WriteConsumed)

	// Nothing left to consume; the call is a no-op.
	require.NoError(t, dev.WriteRead(h, 1, bwr))
	assert.Equal(t, len(batch), bwr.WriteConsumed)
}

func TestSetMaxThreads(t *testing.T) {
	dev := newTestDevice()
	h := dev.Open(Options{PID: 100, EUID: 0})

	require.NoError(t, dev.SetMaxThreads(h, 4))
	assert.ErrorIs(t, dev.SetMaxThreads(h, -1), wire.ErrInvalidArgument)

	snaps := dev.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, 4, snaps[0].MaxThreads)
}

func TestReleaseIsIdempotent(t *testing.T) {
	dev := newTestDevice()
	h := dev.Open(Options{PID: 100, EUID: 0})

	dev.Release(h)
	dev.Release(h)
	assert.Empty(t, dev.Snapshots())

	err := dev.WriteRead(h, 1, &WriteRead{})
	assert.ErrorIs(t, err, ErrReleased)
	assert.ErrorIs(t, dev.SetMaxThreads(h, 1), ErrReleased)
	assert.ErrorIs(t, dev.SetContextManager(h), ErrReleased)
	assert.ErrorIs(t, dev.ThreadExit(h, 1), ErrReleased)
}

func TestVersion(t *testing.T) {
	dev := newTestDevice()
	assert.Equal(t, wire.ProtocolVersion, dev.Version())
}

func TestCloseReleasesEverything(t *testing.T) {
	dev := newTestDevice()
	dev.Open(Options{PID: 100, EUID: 0})
	dev.Open(Options{PID: 200, EUID: 0})

	dev.Close()
	assert.Empty(t, dev.Snapshots())
}
