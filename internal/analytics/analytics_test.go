package analytics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/olimjon10111985/asralashm/internal/storage"
)

type statsFunc func(ctx context.Context, now time.Time) (storage.Stats, error)

func (f statsFunc) Stats(ctx context.Context, now time.Time) (storage.Stats, error) { return f(ctx, now) }

func TestSummaryFull(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC)
	last := testDate.Add(-time.Hour)

	var gotNow time.Time
	src := statsFunc(func(_ context.Context, now time.Time) (storage.Stats, error) {
		gotNow = now
		return storage.Stats{
			TotalAccounts:        3,
			TotalEntries:         10,
			LastEntryAt:          &last,
			AvgEntriesPerAccount: 10.0 / 3.0,
			NewestAccount:        &storage.Account{Handle: "bobur", GivenName: "Bobur", FamilyName: "Aliyev"},
			TopWriter:            &storage.Account{Handle: "aziz", GivenName: "Aziz", FamilyName: "Karim"},
			TopWriterEntries:     7,
			TodayEntries:         4,
			TodayActiveAccounts:  2,
		}, nil
	})

	report, err := Build(context.Background(), src, testDate)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !gotNow.Equal(testDate) {
		t.Fatalf("stats called with %v", gotNow)
	}

	summary := report.Summary()
	for _, want := range []string{
		"📊 Statistika (2024-01-15)",
		"Foydalanuvchilar soni: 3",
		"Kundalik yozuvlari soni: 10",
		"Oxirgi yozuv vaqti: 2024-01-15 20:00:00",
		"foydalanuvchi: 3.3",
		"Bugungi yozuvlar soni: 4",
		"Bugun faol bo'lgan foydalanuvchilar: 2",
		"bobur (Bobur Aliyev)",
		"aziz (Aziz Karim), 7 ta yozuv",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "*") {
		t.Errorf("plain-text summary must not carry markup:\n%s", summary)
	}
}

func TestSummaryEmptyStore(t *testing.T) {
	src := statsFunc(func(context.Context, time.Time) (storage.Stats, error) { return storage.Stats{}, nil })
	report, err := Build(context.Background(), src, time.Now())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	summary := report.Summary()
	if !strings.Contains(summary, "hali yozuvlar yo'q") {
		t.Errorf("expected empty last entry marker:\n%s", summary)
	}
	if strings.Count(summary, ": yo'q") != 2 {
		t.Errorf("expected newest and top writer to be empty:\n%s", summary)
	}
}

func TestBuildError(t *testing.T) {
	src := statsFunc(func(context.Context, time.Time) (storage.Stats, error) {
		return storage.Stats{}, errors.New("db closed")
	})
	if _, err := Build(context.Background(), src, time.Now()); err == nil {
		t.Fatal("expected error")
	}
}
