package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olimjon10111985/asralashm/internal/async"
)

type orderCloser struct {
	done    *atomic.Int32
	atClose int32
	closed  bool
}

func (c *orderCloser) Close() error {
	c.atClose = c.done.Load()
	c.closed = true
	return nil
}

func TestShutdownDrainsQueueBeforeIndex(t *testing.T) {
	var done atomic.Int32
	q := async.NewQueue(1, 8, time.Second)
	for i := 0; i < 3; i++ {
		q.Go("upsert", func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			done.Add(1)
			return nil
		})
	}

	idx := &orderCloser{done: &done}
	shutdownSideEffects(q, idx)

	if !idx.closed {
		t.Fatalf("index client was not closed")
	}
	if idx.atClose != 3 {
		t.Fatalf("index closed after %d of 3 queued tasks", idx.atClose)
	}
}

func TestShutdownWithoutIndex(t *testing.T) {
	q := async.NewQueue(1, 1, time.Second)
	shutdownSideEffects(q, nil)
	if q.Go("late", func(context.Context) error { return nil }) {
		t.Fatalf("closed queue accepted a task")
	}
}
