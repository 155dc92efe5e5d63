package config

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type AIMode string

const (
	AIModeStub   AIMode = "stub"
	AIModeGroq   AIMode = "groq"
	AIModeYandex AIMode = "yandex"
)

type Transport string

const (
	TransportPolling Transport = "polling"
	TransportWebhook Transport = "webhook"
)

var webhookSecretRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

type Config struct {
	TelegramBotToken  string `env:"TELEGRAM_BOT_TOKEN,required"`
	AdminUserID       int64  `env:"ADMIN_TELEGRAM_ID"`
	RequiredChannelID string `env:"REQUIRED_CHANNEL_ID" envDefault:"@asralashm"`

	// Generation
	AIMode            AIMode        `env:"AI_MODE" envDefault:"groq"`
	GroqAPIBase       string        `env:"GROQ_API_BASE" envDefault:"https://api.groq.com/openai/v1"`
	GroqAPIKey        string        `env:"GROQ_API_KEY"`
	GroqModel         string        `env:"GROQ_MODEL" envDefault:"openai/gpt-oss-20b"`
	YandexOAuthToken  string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID    string        `env:"YANDEX_FOLDER_ID"`
	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`
	MaxTokens         int           `env:"GENERATION_MAX_TOKENS" envDefault:"768"`
	Temperature       float32       `env:"GENERATION_TEMPERATURE" envDefault:"0.5"`
	PersonaRulesPath  string        `env:"PERSONA_RULES_PATH"`

	// Storage
	DatabasePath string `env:"DATABASE_PATH" envDefault:"database.db"`

	// Semantic index (optional)
	ChromaBaseURL string        `env:"CHROMA_BASE_URL"`
	ChromaTimeout time.Duration `env:"CHROMA_TIMEOUT" envDefault:"30s"`

	// Best-effort side effects
	SideEffectWorkers   int           `env:"SIDE_EFFECT_WORKERS" envDefault:"2"`
	SideEffectQueueSize int           `env:"SIDE_EFFECT_QUEUE" envDefault:"256"`
	SideEffectTimeout   time.Duration `env:"SIDE_EFFECT_TIMEOUT" envDefault:"30s"`

	// Transport
	Transport Transport `env:"TRANSPORT" envDefault:"polling"`
	// WebhookURL is the public base URL; WebhookPath is appended to it.
	WebhookURL  string `env:"WEBHOOK_URL"`
	WebhookPath string `env:"WEBHOOK_PATH" envDefault:"telegram"`
	// WebhookSecret is echoed by Telegram in X-Telegram-Bot-Api-Secret-Token.
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Reports; empty disables the daily push
	DailyReportCron string `env:"DAILY_REPORT_CRON" envDefault:"0 21 * * *"`

	// Logging; empty keeps stderr only
	LogFilePath   string `env:"LOG_FILE_PATH"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Parse reads the environment into a Config and validates it.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.TelegramBotToken) == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN must not be empty"))
	}
	switch c.AIMode {
	case AIModeStub, AIModeGroq, AIModeYandex:
	default:
		errs = append(errs, fmt.Errorf("unknown AI_MODE %q", c.AIMode))
	}
	switch c.Transport {
	case TransportPolling:
	case TransportWebhook:
		if c.WebhookURL == "" {
			errs = append(errs, errors.New("WEBHOOK_URL is required for webhook transport"))
		}
		if !webhookSecretRe.MatchString(c.WebhookSecret) {
			errs = append(errs, errors.New("WEBHOOK_SECRET is required for webhook transport: 1-256 of A-Z a-z 0-9 _ -"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TRANSPORT %q", c.Transport))
	}
	if c.GenerationTimeout <= 0 {
		errs = append(errs, errors.New("GENERATION_TIMEOUT must be positive"))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, errors.New("GENERATION_MAX_TOKENS must be positive"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("GENERATION_TEMPERATURE %.2f out of range [0,2]", c.Temperature))
	}
	if c.ChromaTimeout <= 0 {
		errs = append(errs, errors.New("CHROMA_TIMEOUT must be positive"))
	}
	if c.SideEffectTimeout <= 0 {
		errs = append(errs, errors.New("SIDE_EFFECT_TIMEOUT must be positive"))
	}
	if c.SideEffectWorkers <= 0 || c.SideEffectQueueSize <= 0 {
		errs = append(errs, errors.New("SIDE_EFFECT_WORKERS and SIDE_EFFECT_QUEUE must be positive"))
	}
	if c.LogFilePath != "" && (c.LogMaxSizeMB <= 0 || c.LogMaxBackups < 0) {
		errs = append(errs, errors.New("LOG_MAX_SIZE_MB must be positive and LOG_MAX_BACKUPS non-negative"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH must not be empty"))
	}
	return errors.Join(errs...)
}

// WebhookEndpoint is the full URL registered with Telegram.
func (c *Config) WebhookEndpoint() string {
	return strings.TrimRight(c.WebhookURL, "/") + "/" + strings.Trim(c.WebhookPath, "/")
}
