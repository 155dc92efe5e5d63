package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olimjon10111985/asralashm/internal/storage"
)

const timeLayout = "2006-01-02 15:04:05"

// StatsSource is the subset of the store the report needs.
type StatsSource interface {
	Stats(ctx context.Context, now time.Time) (storage.Stats, error)
}

// Report is a snapshot of usage counters for one day.
type Report struct {
	Date  string
	Stats storage.Stats
}

// Build collects the counters as of now.
func Build(ctx context.Context, src StatsSource, now time.Time) (*Report, error) {
	stats, err := src.Stats(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return &Report{Date: now.UTC().Format("2006-01-02"), Stats: stats}, nil
}

// Summary renders the report for the admin chat.
func (r *Report) Summary() string {
	s := r.Stats

	lastEntry := "hali yozuvlar yo'q"
	if s.LastEntryAt != nil {
		lastEntry = s.LastEntryAt.UTC().Format(timeLayout)
	}
	newest := "yo'q"
	if s.NewestAccount != nil {
		newest = describe(*s.NewestAccount)
	}
	top := "yo'q"
	if s.TopWriter != nil {
		top = fmt.Sprintf("%s, %d ta yozuv", describe(*s.TopWriter), s.TopWriterEntries)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Statistika (%s):\n", r.Date)
	fmt.Fprintf(&b, "- Foydalanuvchilar soni: %d\n", s.TotalAccounts)
	fmt.Fprintf(&b, "- Kundalik yozuvlari soni: %d\n", s.TotalEntries)
	fmt.Fprintf(&b, "- Oxirgi yozuv vaqti: %s\n", lastEntry)
	fmt.Fprintf(&b, "- O'rtacha yozuvlar soni / foydalanuvchi: %.1f\n", s.AvgEntriesPerAccount)
	fmt.Fprintf(&b, "- Bugungi yozuvlar soni: %d\n", s.TodayEntries)
	fmt.Fprintf(&b, "- Bugun faol bo'lgan foydalanuvchilar: %d\n", s.TodayActiveAccounts)
	fmt.Fprintf(&b, "- Oxirgi qo'shilgan foydalanuvchi: %s\n", newest)
	fmt.Fprintf(&b, "- Eng ko'p yozgan foydalanuvchi: %s", top)
	return b.String()
}

func describe(a storage.Account) string {
	return a.Handle + " (" + a.FullName() + ")"
}
