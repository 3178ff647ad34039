package partkv

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestExecutorRunsSubmittedWork(t *testing.T) {
	e := NewRequestExecutor(2, nil)
	defer e.Shutdown()

	fut := e.Submit(func(scratch *Scratch) (interface{}, error) {
		return 42, nil
	})

	val, err, ok := fut.Wait(context.Background())
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, 42, val)
}

func TestRequestExecutorEachWorkerGetsOwnScratch(t *testing.T) {
	e := NewRequestExecutor(4, nil)
	defer e.Shutdown()

	var futures []*Future
	for i := 0; i < 20; i++ {
		i := i
		futures = append(futures, e.Submit(func(scratch *Scratch) (interface{}, error) {
			buf := scratch.Grow(8)
			buf = buf[:8]
			for j := range buf {
				buf[j] = byte(i)
			}
			scratch.Set(buf)
			out := make([]byte, len(scratch.Bytes()))
			copy(out, scratch.Bytes())
			return out, nil
		}))
	}

	for i, fut := range futures {
		val, err, ok := fut.Wait(context.Background())
		require.True(t, ok)
		require.NoError(t, err)
		got := val.([]byte)
		for _, b := range got {
			assert.Equal(t, byte(i), b, "scratch contents from one task must never leak into another's result")
		}
	}
}

func TestFutureWaitReturnsNotOkOnContextDone(t *testing.T) {
	e := NewRequestExecutor(1, nil)
	defer e.Shutdown()

	release := make(chan struct{})
	blocker := e.Submit(func(scratch *Scratch) (interface{}, error) {
		<-release
		return nil, nil
	})
	_ = blocker

	fut := e.Submit(func(scratch *Scratch) (interface{}, error) {
		return "done", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, ok := fut.Wait(ctx)
	assert.False(t, ok, "a waiter whose context expires before its task runs must return ok=false")

	close(release)
}

func TestRequestExecutorSubmitAfterShutdownIsClosed(t *testing.T) {
	e := NewRequestExecutor(1, nil)
	e.Shutdown()

	fut := e.Submit(func(scratch *Scratch) (interface{}, error) {
		return nil, nil
	})

	_, err, ok := fut.Wait(context.Background())
	require.True(t, ok)
	assert.ErrorIs(t, err, ErrExecutorClosed)
}

func TestRequestExecutorShutdownDrainsQueuedWork(t *testing.T) {
	e := NewRequestExecutor(1, nil)

	var completed atomic.Int32
	var futures []*Future
	for i := 0; i < 10; i++ {
		futures = append(futures, e.Submit(func(scratch *Scratch) (interface{}, error) {
			completed.Add(1)
			return nil, nil
		}))
	}

	e.Shutdown()

	for _, fut := range futures {
		_, _, ok := fut.Wait(context.Background())
		require.True(t, ok)
	}
	assert.Equal(t, int32(10), completed.Load(), "shutdown must finish every already-queued task before returning")
}

func TestRequestExecutorRecoversPanicAndKeepsServing(t *testing.T) {
	e := NewRequestExecutor(1, nil)
	defer e.Shutdown()

	panicking := e.Submit(func(scratch *Scratch) (interface{}, error) {
		panic("simulated catastrophic fault")
	})

	val, err, ok := panicking.Wait(context.Background())
	require.True(t, ok)
	assert.Nil(t, val)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated catastrophic fault")

	// The worker that recovered must still be looping and serving work.
	next := e.Submit(func(scratch *Scratch) (interface{}, error) {
		return "still alive", nil
	})
	val, err, ok = next.Wait(context.Background())
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, "still alive", val)
}
