package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrHandleTaken = errors.New("handle already taken")
	ErrEmptyEntry  = errors.New("entry text is empty")
)

// Account is a registered diary owner. Handle is always stored lowercase.
type Account struct {
	ID           int64
	ExternalID   int64
	GivenName    string
	FamilyName   string
	Handle       string
	PasswordHash string
	CreatedAt    time.Time
}

// FullName joins the given and family names, falling back to the handle.
func (a Account) FullName() string {
	switch {
	case a.GivenName != "" && a.FamilyName != "":
		return a.GivenName + " " + a.FamilyName
	case a.GivenName != "":
		return a.GivenName
	case a.FamilyName != "":
		return a.FamilyName
	default:
		return a.Handle
	}
}

// NewAccount carries the registration fields. PasswordHash must already be hashed.
type NewAccount struct {
	ExternalID   int64
	GivenName    string
	FamilyName   string
	Handle       string
	PasswordHash string
}

// Entry is one journal item. Entries are never edited; CreatedAt is set by the store.
type Entry struct {
	ID        int64
	AccountID int64
	Text      string
	CreatedAt time.Time
}

// Stats aggregates counters for the admin report.
type Stats struct {
	TotalAccounts        int
	TotalEntries         int
	LastEntryAt          *time.Time
	AvgEntriesPerAccount float64
	NewestAccount        *Account
	TopWriter            *Account
	TopWriterEntries     int
	TodayEntries         int
	TodayActiveAccounts  int
}

// Store persists accounts and their entries.
// CreateAccount returns ErrHandleTaken when the normalized handle exists and leaves no partial state.
// ListEntries returns entries newest first.
// DeleteAccount removes the account and all of its entries in one transaction.
// Implementations must be safe for concurrent use.
type Store interface {
	CreateAccount(ctx context.Context, acc NewAccount) (Account, error)
	AccountByHandle(ctx context.Context, handle string) (Account, error)
	AccountByID(ctx context.Context, id int64) (Account, error)
	CreateEntry(ctx context.Context, accountID int64, text string) (Entry, error)
	ListEntries(ctx context.Context, accountID int64) ([]Entry, error)
	SearchAccounts(ctx context.Context, query string, limit int) ([]Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	Stats(ctx context.Context, now time.Time) (Stats, error)
}
