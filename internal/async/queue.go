// Package async runs work detached from the reply path.
package async

import (
	"context"
	"log"
	"sync"
	"time"
)

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// Queue executes best-effort tasks on a fixed pool of workers. Task failures
// are logged and dropped; nothing is retried.
type Queue struct {
	tasks   chan task
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewQueue(workers, size int, timeout time.Duration) *Queue {
	if workers < 1 {
		workers = 1
	}
	if size < 0 {
		size = 0
	}
	q := &Queue{tasks: make(chan task, size), timeout: timeout}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Go enqueues fn and returns immediately. It reports false when the queue is
// full or closed.
func (q *Queue) Go(name string, fn func(ctx context.Context) error) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		log.Printf("⚠️ side effect %q dropped: queue closed", name)
		return false
	}
	select {
	case q.tasks <- task{name: name, fn: fn}:
		return true
	default:
		log.Printf("⚠️ side effect %q dropped: queue full", name)
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) work() {
	defer q.wg.Done()
	for t := range q.tasks {
		q.run(t)
	}
}

func (q *Queue) run(t task) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ side effect %q panicked: %v", t.name, r)
		}
	}()
	if err := t.fn(ctx); err != nil {
		log.Printf("⚠️ side effect %q failed: %v", t.name, err)
	}
}
