package semantic

import (
	"context"
	"time"

	"github.com/olimjon10111985/asralashm/internal/storage"
)

type Indexer interface {
	Upsert(ctx context.Context, docs []Document) error
}

// Dispatcher runs a detached task; it must not block the caller.
type Dispatcher interface {
	Go(name string, fn func(ctx context.Context) error) bool
}

// IndexedStore pushes every created entry to the index after the store
// accepted it. Index failures never reach the caller.
type IndexedStore struct {
	storage.Store
	index Indexer
	queue Dispatcher
}

func NewIndexedStore(store storage.Store, index Indexer, queue Dispatcher) *IndexedStore {
	return &IndexedStore{Store: store, index: index, queue: queue}
}

func (s *IndexedStore) CreateEntry(ctx context.Context, accountID int64, text string) (storage.Entry, error) {
	entry, err := s.Store.CreateEntry(ctx, accountID, text)
	if err != nil {
		return entry, err
	}
	doc := Document{
		ID:        DocumentID(entry.AccountID, entry.ID),
		AccountID: entry.AccountID,
		Text:      entry.Text,
	}
	if !entry.CreatedAt.IsZero() {
		doc.CreatedAt = entry.CreatedAt.UTC().Format(time.RFC3339)
	}
	s.queue.Go("index entry "+doc.ID, func(ctx context.Context) error {
		return s.index.Upsert(ctx, []Document{doc})
	})
	return entry, nil
}
