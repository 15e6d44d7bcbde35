package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSequencer_FIFOPerKey(t *testing.T) {
	seq := NewSequencer()
	gate := make(chan struct{})

	var mu sync.Mutex
	var order []int

	// first job holds the lane until the rest are queued
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		seq.Do(context.Background(), "cust-1", func() {
			<-gate
			mu.Lock()
			order = append(order, 0)
			mu.Unlock()
		})
	}()
	require.Eventually(t, func() bool {
		seq.mu.Lock()
		defer seq.mu.Unlock()
		l, ok := seq.lanes["cust-1"]
		return ok && l.processing && l.jobs.Len() == 0
	}, time.Second, time.Millisecond)

	var wg sync.WaitGroup
	for i := 1; i <= 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq.Do(context.Background(), "cust-1", func() {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			})
		}()
		// enqueue in a known order
		require.Eventually(t, func() bool { return seq.Pending("cust-1") == i }, time.Second, time.Millisecond)
	}

	close(gate)
	wg.Wait()
	<-firstDone
	seq.Wait()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Zero(t, seq.Pending("cust-1"))
}

func TestSequencer_SingleInFlight(t *testing.T) {
	seq := NewSequencer()
	var inside, maxInside atomic.Int32

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq.Do(context.Background(), "cust-1", func() {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
			})
		}()
	}
	wg.Wait()
	seq.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestSequencer_KeysRunConcurrently(t *testing.T) {
	seq := NewSequencer()
	release := make(chan struct{})
	started := make(chan struct{})

	go seq.Do(context.Background(), "cust-1", func() {
		close(started)
		<-release
	})
	<-started

	ran := false
	require.NoError(t, seq.Do(context.Background(), "cust-2", func() { ran = true }))
	assert.True(t, ran)

	close(release)
	seq.Wait()
}

func TestSequencer_AbandonedBeforeStart(t *testing.T) {
	seq := NewSequencer()
	release := make(chan struct{})
	started := make(chan struct{})

	go seq.Do(context.Background(), "cust-1", func() {
		close(started)
		<-release
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ran := atomic.Bool{}
	err := seq.Do(ctx, "cust-1", func() { ran.Store(true) })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	seq.Wait()
	assert.False(t, ran.Load())
}

func TestSequencer_RecoversPanic(t *testing.T) {
	seq := NewSequencer()
	require.NoError(t, seq.Do(context.Background(), "cust-1", func() { panic("boom") }))

	ran := false
	require.NoError(t, seq.Do(context.Background(), "cust-1", func() { ran = true }))
	assert.True(t, ran)
	seq.Wait()
}
