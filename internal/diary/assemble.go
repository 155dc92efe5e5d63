// Package diary turns an account's journal history into the bounded context
// block handed to the persona generator.
package diary

import (
	"strings"

	"github.com/olimjon10111985/asralashm/internal/storage"
)

// MaxEntries bounds how many genuine entries reach the generator.
const MaxEntries = 20

// ChatLogPrefix marks synthetic entries that record a chat turn.
const ChatLogPrefix = "Suhbat:"

const (
	entriesHeading = "Kundalikdan parchalar (har bir qatorda sana bo'lishi mumkin):\n- "
	onlyLogsMarker = "Kundalik hali bo'sh yoki faqat suhbat loglari bor."
	emptyMarker    = "Kundalik hali bo'sh yoki kamroq ma'lumot bor."
	lineSeparator  = "\n- "
)

type Kind int

const (
	KindEntries Kind = iota
	KindOnlyLogs
	KindEmpty
)

// Block is the assembled context. Kind tells the three textual shapes apart.
type Block struct {
	Kind Kind
	Text string
}

// Assemble expects entries newest first and keeps the most recent MaxEntries
// that are neither blank nor chat logs.
func Assemble(entries []storage.Entry) Block {
	if len(entries) == 0 {
		return Block{Kind: KindEmpty, Text: emptyMarker}
	}

	lines := make([]string, 0, MaxEntries)
	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" || IsChatLog(text) {
			continue
		}
		if !e.CreatedAt.IsZero() {
			text = "[" + e.CreatedAt.UTC().Format("2006-01-02") + "] " + text
		}
		lines = append(lines, text)
		if len(lines) == MaxEntries {
			break
		}
	}

	if len(lines) == 0 {
		return Block{Kind: KindOnlyLogs, Text: onlyLogsMarker}
	}
	return Block{Kind: KindEntries, Text: entriesHeading + strings.Join(lines, lineSeparator)}
}

// IsChatLog reports whether text is a synthetic chat-log entry.
func IsChatLog(text string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), strings.ToLower(ChatLogPrefix))
}

// ChatLog formats a question and the persona's reply as a chat-log entry body.
func ChatLog(question, reply string) string {
	return ChatLogPrefix + " foydalanuvchi savoli: " + question + "\nMening javobim: " + reply
}
