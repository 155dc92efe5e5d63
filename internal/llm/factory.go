package llm

import (
	"errors"
	"fmt"
	"log"

	"github.com/olimjon10111985/asralashm/internal/config"
)

// ErrNotConfigured means the selected remote provider lacks its credential.
var ErrNotConfigured = errors.New("remote provider is not configured")

// NewFromConfig builds the remote client for cfg.AIMode. Stub mode has no
// client and returns (nil, nil).
func NewFromConfig(cfg *config.Config) (Client, error) {
	switch cfg.AIMode {
	case config.AIModeStub:
		return nil, nil
	case config.AIModeGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("groq: %w", ErrNotConfigured)
		}
		return NewOpenAI(OpenAIOptions{
			APIKey:      cfg.GroqAPIKey,
			BaseURL:     cfg.GroqAPIBase,
			Model:       cfg.GroqModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.GenerationTimeout,
		}), nil
	case config.AIModeYandex:
		if cfg.YandexOAuthToken == "" || cfg.YandexFolderID == "" {
			return nil, fmt.Errorf("yandex: %w", ErrNotConfigured)
		}
		if w := yandexLimitsWarning(cfg.MaxTokens, cfg.Temperature); w != "" {
			log.Printf("⚠️ %s", w)
		}
		c, err := NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown ai mode: %s", cfg.AIMode)
	}
}
