// Package persona answers questions in the voice of a profile owner, either
// through a remote chat-completion provider or with deterministic templates.
package persona

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/olimjon10111985/asralashm/internal/diary"
	"github.com/olimjon10111985/asralashm/internal/llm"
)

type Mode int

const (
	ModeStub Mode = iota
	ModeRemote
	// ModeUnconfigured is remote mode without a usable credential.
	ModeUnconfigured
)

const (
	stubNotice         = "(AI rejimi o'chirilgan, bu oddiy stub javob.)"
	unconfiguredNotice = "(AI API kaliti qo'yilmagan, faqat stub javob ko'rsatilmoqda.)"
	excerptLines       = 4
)

type Generator struct {
	mode    Mode
	client  llm.Client
	rules   Rules
	timeout time.Duration
}

func NewStub(rules Rules) *Generator {
	return &Generator{mode: ModeStub, rules: rules}
}

func NewUnconfigured(rules Rules) *Generator {
	return &Generator{mode: ModeUnconfigured, rules: rules}
}

// NewRemote wraps client; every call is bounded by timeout.
func NewRemote(client llm.Client, rules Rules, timeout time.Duration) *Generator {
	return &Generator{mode: ModeRemote, client: client, rules: rules, timeout: timeout}
}

// Select picks the mode from the result of building the remote client:
// no client and no error is stub mode, an error is unconfigured remote mode.
func Select(client llm.Client, err error, rules Rules, timeout time.Duration) *Generator {
	switch {
	case err != nil:
		log.Printf("⚠️ remote generation unavailable, falling back to stub replies: %v", err)
		return NewUnconfigured(rules)
	case client == nil:
		return NewStub(rules)
	default:
		return NewRemote(client, rules, timeout)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeStub:
		return "stub"
	case ModeRemote:
		return "remote"
	case ModeUnconfigured:
		return "unconfigured"
	}
	return "unknown"
}

func (g *Generator) Mode() Mode { return g.mode }

// Generate always returns text; provider failures degrade to a templated reply.
func (g *Generator) Generate(ctx context.Context, id Identity, block diary.Block, question string) string {
	switch g.mode {
	case ModeRemote:
		return g.remote(ctx, id, block, question)
	case ModeUnconfigured:
		return template(id, block, unconfiguredNotice)
	default:
		return template(id, block, stubNotice)
	}
}

func (g *Generator) remote(ctx context.Context, id Identity, block diary.Block, question string) string {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := g.client.Generate(ctx, buildMessages(g.rules, id, block, question))
	if err != nil {
		log.Printf("⚠️ persona generation failed for @%s after %s: %v", id.Handle, time.Since(started).Round(time.Millisecond), err)
		return fallback(id, block)
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		log.Printf("⚠️ persona generation for @%s returned empty content [model=%s]", id.Handle, resp.Model)
		return fallback(id, block)
	}
	log.Printf("🤖 persona reply for @%s [model=%s, tokens: prompt=%d, completion=%d, total=%d]",
		id.Handle, resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)
	return content
}

func template(id Identity, block diary.Block, notice string) string {
	return id.FullName() + ".\n\n" + block.Text + "\n\n" + notice
}

// fallback never exposes the provider error; it only echoes what the diary holds.
func fallback(id Identity, block diary.Block) string {
	intro := "Men " + id.FullName() + "man. "
	if block.Kind != diary.KindEntries {
		return intro + "Hozircha o'zim haqimda ko'p narsa yozib qoldirmaganman, shuning uchun bu savolga aniq javob bera olmayman."
	}
	lines := strings.Split(block.Text, "\n")
	if len(lines) > excerptLines {
		lines = lines[:excerptLines]
	}
	return intro + "Hammasini aniq eslay olmayman, lekin asosan shu kabi narsalar haqida yozganman. " +
		"Savolingga hozircha shuncha javob bera olaman.\n" + strings.Join(lines, "\n")
}
