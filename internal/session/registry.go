package session

import "sync"

// Registry keeps one Session per chat. Callers must serialize access to a
// single session themselves; the registry only guards the map.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Get returns the chat's session, creating it in MainMenu on first use.
func (r *Registry) Get(chatID, userID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[chatID]
	if !ok {
		s = New(chatID, userID)
		r.sessions[chatID] = s
	}
	if userID != 0 {
		s.UserID = userID
	}
	return s
}

// Len is the number of chats seen since startup.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
