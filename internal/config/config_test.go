package config

import (
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.AIMode != AIModeGroq {
		t.Fatalf("want groq mode by default, got %q", cfg.AIMode)
	}
	if cfg.GenerationTimeout != 60*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.GenerationTimeout)
	}
	if cfg.MaxTokens != 768 || cfg.Temperature != 0.5 {
		t.Fatalf("unexpected generation limits: %d %v", cfg.MaxTokens, cfg.Temperature)
	}
	if cfg.RequiredChannelID != "@asralashm" || cfg.DatabasePath != "database.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Transport != TransportPolling {
		t.Fatalf("want polling transport, got %q", cfg.Transport)
	}
}

func TestParse_MissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	if _, err := Parse(); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("AI_MODE", "ollama")
	t.Setenv("TRANSPORT", "webhook")
	t.Setenv("GENERATION_TEMPERATURE", "3")

	_, err := Parse()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"AI_MODE", "WEBHOOK_URL", "WEBHOOK_SECRET", "GENERATION_TEMPERATURE"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %s", err, want)
		}
	}
}

func TestWebhookEndpoint(t *testing.T) {
	cfg := &Config{WebhookURL: "https://bot.example.com/", WebhookPath: "/telegram"}
	if got := cfg.WebhookEndpoint(); got != "https://bot.example.com/telegram" {
		t.Fatalf("unexpected endpoint %q", got)
	}
}

func TestValidate_LogRotation(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("LOG_FILE_PATH", "logs/bot.log")
	t.Setenv("LOG_MAX_SIZE_MB", "0")

	_, err := Parse()
	if err == nil || !strings.Contains(err.Error(), "LOG_MAX_SIZE_MB") {
		t.Fatalf("expected log rotation error, got %v", err)
	}
}

func TestValidate_WebhookSecret(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TRANSPORT", "webhook")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com")

	for _, bad := range []string{"", "has space", strings.Repeat("a", 257)} {
		t.Setenv("WEBHOOK_SECRET", bad)
		if _, err := Parse(); err == nil || !strings.Contains(err.Error(), "WEBHOOK_SECRET") {
			t.Fatalf("secret %q: expected WEBHOOK_SECRET error, got %v", bad, err)
		}
	}

	t.Setenv("WEBHOOK_SECRET", "s3cret_token-1")
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.WebhookSecret != "s3cret_token-1" {
		t.Fatalf("unexpected secret %q", cfg.WebhookSecret)
	}
}
