package async

import "sync"

// Serial runs functions submitted under the same key one at a time, in
// submission order. Different keys run concurrently. A key's goroutine exits
// once its backlog is drained.
type Serial struct {
	mu      sync.Mutex
	pending map[int64][]func()
	wg      sync.WaitGroup
}

func NewSerial() *Serial {
	return &Serial{pending: make(map[int64][]func())}
}

func (s *Serial) Do(key int64, fn func()) {
	s.mu.Lock()
	backlog, running := s.pending[key]
	s.pending[key] = append(backlog, fn)
	s.mu.Unlock()
	if running {
		return
	}
	s.wg.Add(1)
	go s.drain(key)
}

// Wait blocks until every submitted function has returned.
func (s *Serial) Wait() { s.wg.Wait() }

func (s *Serial) drain(key int64) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		backlog := s.pending[key]
		if len(backlog) == 0 {
			delete(s.pending, key)
			s.mu.Unlock()
			return
		}
		fn := backlog[0]
		s.pending[key] = backlog[1:]
		s.mu.Unlock()
		fn()
	}
}
