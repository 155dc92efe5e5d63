package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newAccount(handle string) NewAccount {
	return NewAccount{ExternalID: 100, GivenName: "Aziz", FamilyName: "Karim", Handle: handle, PasswordHash: "hash"}
}

func TestCreateAccount_LookupIsCaseInsensitive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx, newAccount("  Aziz "))
	require.NoError(t, err)
	assert.Equal(t, "aziz", acc.Handle)
	assert.NotZero(t, acc.ID)
	assert.False(t, acc.CreatedAt.IsZero())

	got, err := s.AccountByHandle(ctx, "AZIZ")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.Equal(t, "Aziz Karim", got.FullName())

	_, err = s.AccountByHandle(ctx, "azizz")
	assert.ErrorIs(t, err, ErrNotFound)

	byID, err := s.AccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", byID.PasswordHash)
}

func TestCreateAccount_DuplicateHandle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateAccount(ctx, newAccount("aziz"))
	require.NoError(t, err)

	_, err = s.CreateAccount(ctx, newAccount("AzIz"))
	require.ErrorIs(t, err, ErrHandleTaken)

	found, err := s.SearchAccounts(ctx, "aziz", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestEntries_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx, newAccount("aziz"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.CreateEntry(ctx, acc.ID, fmt.Sprintf("entry %d", i))
		require.NoError(t, err)
	}

	entries, err := s.ListEntries(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 2", entries[0].Text)
	assert.Equal(t, "entry 0", entries[2].Text)
	for _, e := range entries {
		assert.Equal(t, acc.ID, e.AccountID)
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestCreateEntry_Rejects(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx, newAccount("aziz"))
	require.NoError(t, err)

	_, err = s.CreateEntry(ctx, acc.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyEntry)

	_, err = s.CreateEntry(ctx, acc.ID+999, "orphan")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAccount_Cascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx, newAccount("aziz"))
	require.NoError(t, err)
	other, err := s.CreateAccount(ctx, newAccount("bobur"))
	require.NoError(t, err)

	_, err = s.CreateEntry(ctx, acc.ID, "one")
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, acc.ID, "two")
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, other.ID, "keep")
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, acc.ID))

	entries, err := s.ListEntries(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.AccountByID(ctx, acc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.AccountByHandle(ctx, "aziz")
	assert.ErrorIs(t, err, ErrNotFound)

	kept, err := s.ListEntries(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.ErrorIs(t, s.DeleteAccount(ctx, acc.ID), ErrNotFound)
}

func TestSearchAccounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.CreateAccount(ctx, NewAccount{GivenName: "Lola", FamilyName: "Olimova", Handle: "lolaxon", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = s.CreateAccount(ctx, NewAccount{GivenName: "Olimjon", FamilyName: "Karimov", Handle: "dada", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = s.CreateAccount(ctx, NewAccount{GivenName: "Bobur", FamilyName: "Aliyev", Handle: "olim_fan", PasswordHash: "h"})
	require.NoError(t, err)

	found, err := s.SearchAccounts(ctx, "OLIM", 10)
	require.NoError(t, err)
	assert.Len(t, found, 3)

	found, err = s.SearchAccounts(ctx, "karim", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "dada", found[0].Handle)

	found, err = s.SearchAccounts(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.SearchAccounts(ctx, "m%f", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.SearchAccounts(ctx, "m_f", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "olim_fan", found[0].Handle)

	found, err = s.SearchAccounts(ctx, "o", 2)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, empty.TotalAccounts)
	assert.Nil(t, empty.LastEntryAt)
	assert.Nil(t, empty.NewestAccount)
	assert.Nil(t, empty.TopWriter)

	a, err := s.CreateAccount(ctx, newAccount("aziz"))
	require.NoError(t, err)
	b, err := s.CreateAccount(ctx, newAccount("bobur"))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = s.CreateEntry(ctx, b.ID, "text")
		require.NoError(t, err)
	}
	_, err = s.CreateEntry(ctx, a.ID, "text")
	require.NoError(t, err)

	st, err := s.Stats(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalAccounts)
	assert.Equal(t, 4, st.TotalEntries)
	assert.InDelta(t, 2.0, st.AvgEntriesPerAccount, 0.001)
	require.NotNil(t, st.LastEntryAt)
	require.NotNil(t, st.NewestAccount)
	assert.Equal(t, "bobur", st.NewestAccount.Handle)
	require.NotNil(t, st.TopWriter)
	assert.Equal(t, "bobur", st.TopWriter.Handle)
	assert.Equal(t, 3, st.TopWriterEntries)
	assert.Equal(t, 4, st.TodayEntries)
	assert.Equal(t, 2, st.TodayActiveAccounts)

	yesterday, err := s.Stats(ctx, time.Now().UTC().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Zero(t, yesterday.TodayEntries)
}

func TestStatsTodayIgnoresCallerZone(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, err := s.CreateAccount(ctx, newAccount("aziz"))
	require.NoError(t, err)
	_, err = s.CreateEntry(ctx, a.ID, "text")
	require.NoError(t, err)

	now := time.Now()
	for _, offset := range []int{14, -12} {
		zone := time.FixedZone("test", offset*3600)
		st, err := s.Stats(ctx, now.In(zone))
		require.NoError(t, err)
		assert.Equal(t, 1, st.TodayEntries, "offset %d", offset)
		assert.Equal(t, 1, st.TodayActiveAccounts, "offset %d", offset)
	}
}
