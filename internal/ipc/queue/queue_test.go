package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := New[int](true, nil)

	for i := 1; i <= 3; i++ {
		require.NoError(t, q.PushTail(i))
	}
	assert.Equal(t, 3, q.Size())

	for i := 1; i <= 3; i++ {
		v, st := q.Pop(false)
		require.Equal(t, OK, st)
		assert.Equal(t, i, v)
	}

	_, st := q.Pop(false)
	assert.Equal(t, Empty, st)
}

func TestQueueHeadBeforeTail(t *testing.T) {
	q := New[string](true, nil)

	require.NoError(t, q.PushTail("second"))
	require.NoError(t, q.PushHead("first"))
	require.NoError(t, q.PushTail("third"))

	want := []string{"first", "second", "third"}
	for _, expected := range want {
		v, st := q.Pop(false)
		require.Equal(t, OK, st)
		assert.Equal(t, expected, v)
	}
}

func TestQueueBlockingPopWakesOnPush(t *testing.T) {
	q := New[int](false, nil)

	done := make(chan int, 1)
	go func() {
		v, st := q.Pop(true)
		if st == OK {
			done <- v
		}
	}()

	// Give the popper time to block.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.PushTail(42))

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("blocked pop never woke")
	}
}

func TestQueueNonBlockingNeverWaits(t *testing.T) {
	q := New[int](true, nil)

	_, st := q.Pop(true)
	assert.Equal(t, Empty, st)
}

func TestQueueCloseUnblocksPop(t *testing.T) {
	q := New[int](false, nil)

	done := make(chan Status, 1)
	go func() {
		_, st := q.Pop(true)
		done <- st
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case st := <-done:
		assert.Equal(t, Closed, st)
	case <-time.After(time.Second):
		t.Fatal("close did not unblock pop")
	}
}

func TestQueueAcquireAfterCloseFails(t *testing.T) {
	q := New[int](true, nil)

	require.NoError(t, q.Acquire())
	q.Release()

	q.Close()
	assert.ErrorIs(t, q.Acquire(), ErrClosed)
	assert.Error(t, q.PushTail(1))
	assert.Error(t, q.PushHead(1))
}

func TestQueueDrainOnClose(t *testing.T) {
	var drained []int
	q := New[int](true, func(v int) { drained = append(drained, v) })

	for i := 1; i <= 3; i++ {
		require.NoError(t, q.PushTail(i))
	}
	q.Close()

	assert.Equal(t, []int{1, 2, 3}, drained)
	assert.Equal(t, 0, q.Size())

	// Close is idempotent; nothing drains twice.
	q.Close()
	assert.Len(t, drained, 3)
}

func TestQueueConcurrentPushPop(t *testing.T) {
	q := New[int](false, nil)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_ = q.PushTail(i)
		}
	}()

	seen := 0
	for seen < n {
		_, st := q.Pop(true)
		require.Equal(t, OK, st)
		seen++
	}
	wg.Wait()
	assert.Equal(t, 0, q.Size())
}

func TestDirectoryLookup(t *testing.T) {
	d := NewDirectory[int]()

	q := New[int](true, nil)
	id := d.Register(q)
	assert.Equal(t, id, q.ID())

	got, ok := d.Lookup(id)
	require.True(t, ok)
	assert.Same(t, q, got)
	got.Release()

	_, ok = d.Lookup(id + 100)
	assert.False(t, ok)
}

func TestDirectoryLookupDeadQueueFails(t *testing.T) {
	d := NewDirectory[int]()

	q := New[int](true, nil)
	id := d.Register(q)

	q.Close()
	_, ok := d.Lookup(id)
	assert.False(t, ok)

	d.Unregister(id)
	_, ok = d.Lookup(id)
	assert.False(t, ok)
}

func TestDirectoryIDsNeverReused(t *testing.T) {
	d := NewDirectory[int]()

	first := d.Register(New[int](true, nil))
	d.Unregister(first)
	second := d.Register(New[int](true, nil))

	assert.NotEqual(t, first, second)
}
