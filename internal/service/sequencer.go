package service

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

const (
	jobPending int32 = iota
	jobRunning
	jobAbandoned
)

type job struct {
	fn    func()
	state atomic.Int32
	done  chan struct{}
}

// lane is one customer's FIFO; at most one job runs at a time
type lane struct {
	jobs       *list.List
	processing bool
}

// Sequencer runs work for the same key one at a time, in arrival order.
// Different keys run concurrently.
type Sequencer struct {
	mu    sync.Mutex
	lanes map[string]*lane
	wg    sync.WaitGroup
}

// NewSequencer creates an empty sequencer
func NewSequencer() *Sequencer {
	return &Sequencer{lanes: make(map[string]*lane)}
}

// Do queues fn behind earlier work for key and waits for it to finish.
// If ctx ends before fn starts, fn is skipped and ctx.Err() is returned;
// once started, fn always runs to completion.
func (s *Sequencer) Do(ctx context.Context, key string, fn func()) error {
	j := &job{fn: fn, done: make(chan struct{})}

	s.mu.Lock()
	l, ok := s.lanes[key]
	if !ok {
		l = &lane{jobs: list.New()}
		s.lanes[key] = l
	}
	l.jobs.PushBack(j)
	if !l.processing {
		l.processing = true
		s.wg.Add(1)
		go s.drain(key, l)
	}
	s.mu.Unlock()

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		if j.state.CompareAndSwap(jobPending, jobAbandoned) {
			return ctx.Err()
		}
		<-j.done
		return nil
	}
}

func (s *Sequencer) drain(key string, l *lane) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		front := l.jobs.Front()
		if front == nil {
			l.processing = false
			delete(s.lanes, key)
			s.mu.Unlock()
			return
		}
		l.jobs.Remove(front)
		s.mu.Unlock()

		j := front.Value.(*job)
		if j.state.CompareAndSwap(jobPending, jobRunning) {
			run(key, j.fn)
		}
		close(j.done)
	}
}

func run(key string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("customer_id", key).Msg("Recovered from panic in turn")
		}
	}()
	fn()
}

// Pending returns the number of queued jobs for key, excluding a running one
func (s *Sequencer) Pending(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lanes[key]; ok {
		return l.jobs.Len()
	}
	return 0
}

// Wait blocks until every lane has drained
func (s *Sequencer) Wait() {
	s.wg.Wait()
}
