package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/olimjon10111985/asralashm/internal/async"
	"github.com/olimjon10111985/asralashm/internal/auth"
	"github.com/olimjon10111985/asralashm/internal/config"
	"github.com/olimjon10111985/asralashm/internal/dialog"
	"github.com/olimjon10111985/asralashm/internal/llm"
	"github.com/olimjon10111985/asralashm/internal/persona"
	"github.com/olimjon10111985/asralashm/internal/scheduler"
	"github.com/olimjon10111985/asralashm/internal/semantic"
	"github.com/olimjon10111985/asralashm/internal/session"
	"github.com/olimjon10111985/asralashm/internal/storage"
	"github.com/olimjon10111985/asralashm/internal/telegram"
	"github.com/olimjon10111985/asralashm/internal/webhook"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	if cfg.LogFilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFilePath,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			Compress:   true,
		}
		defer rotator.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, rotator))
		log.Printf("📝 Logging to %s", cfg.LogFilePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.OpenSQLite(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	rules, err := persona.LoadRules(cfg.PersonaRulesPath)
	if err != nil {
		log.Printf("persona rules not loaded, using built-in ones: %v", err)
	}
	client, err := llm.NewFromConfig(cfg)
	gen := persona.Select(client, err, rules, cfg.GenerationTimeout)
	log.Printf("🧠 Generation: AI_MODE=%s, replies are %s", cfg.AIMode, gen.Mode())

	queue := async.NewQueue(cfg.SideEffectWorkers, cfg.SideEffectQueueSize, cfg.SideEffectTimeout)

	var (
		dialogStore storage.Store = store
		recall      telegram.Recaller
		indexCloser io.Closer
	)
	defer func() { shutdownSideEffects(queue, indexCloser) }()
	if cfg.ChromaBaseURL != "" {
		index := semantic.NewClient(cfg.ChromaBaseURL, cfg.ChromaTimeout)
		indexCloser = index
		dialogStore = semantic.NewIndexedStore(store, index, queue)
		recall = index
		log.Printf("🔎 Semantic index enabled at %s", cfg.ChromaBaseURL)
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}

	var gate dialog.Gate
	if cfg.RequiredChannelID != "" {
		gate = telegram.NewChannelGate(api, cfg.RequiredChannelID)
	}

	machine := dialog.New(dialogStore, gen, gate, auth.NewHasher(), queue)
	bot := telegram.New(api, telegram.Options{
		Machine:     machine,
		Sessions:    session.NewRegistry(),
		Stats:       store,
		Recall:      recall,
		AdminUserID: cfg.AdminUserID,
	})

	sched := scheduler.New(cfg.DailyReportCron)
	sched.SetReportFunction(bot.SendDailyReport)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	switch cfg.Transport {
	case config.TransportWebhook:
		if err := bot.SetWebhook(cfg.WebhookEndpoint(), cfg.WebhookSecret); err != nil {
			log.Fatalf("failed to register webhook: %v", err)
		}
		srv := webhook.NewServer(cfg.ListenAddr, webhook.NewRouter(ctx, cfg.WebhookPath, cfg.WebhookSecret, bot))
		if err := srv.Run(ctx); err != nil {
			log.Printf("webhook server stopped: %v", err)
		}
		bot.Wait()
	default:
		bot.Start(ctx)
	}
	log.Println("👋 Bot stopped")
}

// shutdownSideEffects drains queued side effects, then closes the index
// client they may still be using.
func shutdownSideEffects(queue *async.Queue, index io.Closer) {
	queue.Close()
	if index == nil {
		return
	}
	if err := index.Close(); err != nil {
		log.Printf("⚠️ failed to close semantic index client: %v", err)
	}
}
