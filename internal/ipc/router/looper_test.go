package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmesa/binderd/internal/ipc/wire"
)

func poolCounters(p *Process) (num, pending int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numLoopers, p.pendingLoopers
}

func TestLooperEnterExit(t *testing.T) {
	core := newTestCore()
	proc := core.NewProcess(100, 0, true)
	w := proc.Worker(1)

	writeAll(t, proc, w, encodeLooper(wire.BcEnterLooper))
	num, _ := poolCounters(proc)
	assert.Equal(t, 1, num)

	writeAll(t, proc, w, encodeLooper(wire.BcExitLooper))
	num, _ = poolCounters(proc)
	assert.Equal(t, 0, num)
}

func TestLooperDoubleEnterRejected(t *testing.T) {
	core := newTestCore()
	proc := core.NewProcess(100, 0, true)
	w := proc.Worker(1)

	writeAll(t, proc, w, encodeLooper(wire.BcEnterLooper))
	writeAll(t, proc, w, encodeLooper(wire.BcEnterLooper))

	recs := readAll(t, proc, w)
	assert.Equal(t, []uint32{wire.BrFailedReply}, opcodes(recs))

	num, _ := poolCounters(proc)
	assert.Equal(t, 1, num)
}

func TestLooperExitWithoutEnterRejected(t *testing.T) {
	core := newTestCore()
	proc := core.NewProcess(100, 0, true)
	w := proc.Worker(1)

	writeAll(t, proc, w, encodeLooper(wire.BcExitLooper))

	recs := readAll(t, proc, w)
	assert.Equal(t, []uint32{wire.BrFailedReply}, opcodes(recs))
}

func TestRegisterAfterEnterRejected(t *testing.T) {
	core := newTestCore()
	proc := core.NewProcess(100, 0, true)
	w := proc.Worker(1)

	writeAll(t, proc, w, encodeLooper(wire.BcEnterLooper))
	writeAll(t, proc, w, encodeLooper(wire.BcRegisterLooper))

	recs := readAll(t, proc, w)
	assert.Equal(t, []uint32{wire.BrFailedReply}, opcodes(recs))
}

func TestRegisterSettlesPendingSpawn(t *testing.T) {
	_, mgr, client := bootstrap(t)
	wCli := client.Worker(2)
	mgr.SetMaxThreads(4)

	// Two queued process-wide messages warrant a spawn hint.
	writeAll(t, client, wCli, encodeTxn(wire.BcTransaction, 0, 1, wire.FlagOneWay, nil, nil))
	writeAll(t, client, wCli, encodeTxn(wire.BcTransaction, 0, 2, wire.FlagOneWay, nil, nil))
	require.Equal(t, 2, mgr.queue.Size())

	fresh := mgr.Worker(10)
	recs := readAll(t, mgr, fresh)
	require.NotEmpty(t, recs)
	assert.Equal(t, wire.BrSpawnLooper, recs[0].op)

	_, pending := poolCounters(mgr)
	assert.Equal(t, 1, pending)

	// The spawned thread announces itself and settles the debt.
	spawned := mgr.Worker(11)
	writeAll(t, mgr, spawned, encodeLooper(wire.BcRegisterLooper))
	_, pending = poolCounters(mgr)
	assert.Equal(t, 0, pending)
}

func TestRegisterWithoutSpawnClampsAtZero(t *testing.T) {
	core := newTestCore()
	proc := core.NewProcess(100, 0, true)
	w := proc.Worker(1)

	writeAll(t, proc, w, encodeLooper(wire.BcRegisterLooper))

	num, pending := poolCounters(proc)
	assert.Equal(t, 0, num)
	assert.Equal(t, 0, pending)
}

func TestSpawnRequiresBacklogAndBudget(t *testing.T) {
	_, mgr, client := bootstrap(t)
	wCli := client.Worker(2)

	// One queued message is not a backlog.
	mgr.SetMaxThreads(4)
	writeAll(t, client, wCli, encodeTxn(wire.BcTransaction, 0, 1, wire.FlagOneWay, nil, nil))
	recs := readAll(t, mgr, mgr.Worker(10))
	require.Len(t, recs, 1)
	assert.Equal(t, wire.BrTransaction, recs[0].op)

	// A backlog with no budget stays quiet.
	mgr.SetMaxThreads(0)
	writeAll(t, client, wCli, encodeTxn(wire.BcTransaction, 0, 2, wire.FlagOneWay, nil, nil))
	writeAll(t, client, wCli, encodeTxn(wire.BcTransaction, 0, 3, wire.FlagOneWay, nil, nil))
	recs = readAll(t, mgr, mgr.Worker(11))
	for _, r := range recs {
		assert.NotEqual(t, wire.BrSpawnLooper, r.op)
	}
}

func TestSpawnEmittedAtMostOncePerRead(t *testing.T) {
	_, mgr, client := bootstrap(t)
	wCli := client.Worker(2)
	mgr.SetMaxThreads(4)

	for i := 0; i < 4; i++ {
		writeAll(t, client, wCli,
			encodeTxn(wire.BcTransaction, 0, uint32(i), wire.FlagOneWay, nil, nil))
	}

	recs := readAll(t, mgr, mgr.Worker(10))
	spawns := 0
	for _, r := range recs {
		if r.op == wire.BrSpawnLooper {
			spawns++
		}
	}
	assert.Equal(t, 1, spawns)
}

func TestPoolBudgetInvariant(t *testing.T) {
	_, mgr, client := bootstrap(t)
	wCli := client.Worker(2)
	mgr.SetMaxThreads(2)

	check := func() {
		num, pending := poolCounters(mgr)
		assert.LessOrEqual(t, num+pending, 2)
	}

	for i := 0; i < 6; i++ {
		writeAll(t, client, wCli,
			encodeTxn(wire.BcTransaction, 0, uint32(i), wire.FlagOneWay, nil, nil))
		check()
	}

	// Repeated backlogged reads cannot oversubscribe the pool.
	for tid := int32(10); tid < 16; tid++ {
		w := mgr.Worker(tid)
		buf := make([]byte, wire.OpcodeSize)
		_, err := mgr.ReadCommands(w, buf)
		require.NoError(t, err)
		check()
	}
}

func TestThreadExitRedirectsInService(t *testing.T) {
	_, mgr, client := bootstrap(t)
	wMgr := mgr.Worker(1)
	wCli := client.Worker(2)

	writeAll(t, client, wCli, encodeTxn(wire.BcTransaction, 0, 1, 0, []byte("call"), nil))
	readAll(t, client, wCli)
	readAll(t, mgr, wMgr) // request now in service

	mgr.ThreadExit(1)

	recs := readAll(t, client, wCli)
	require.Equal(t, []uint32{wire.BrDeadBinder}, opcodes(recs))
	assert.Equal(t, 0, wCli.PendingReplies())

	// A fresh record takes over the thread id.
	again := mgr.Worker(1)
	assert.NotSame(t, wMgr, again)
}
