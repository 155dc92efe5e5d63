package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/olimjon10111985/asralashm/internal/analytics"
	"github.com/olimjon10111985/asralashm/internal/async"
	"github.com/olimjon10111985/asralashm/internal/dialog"
	"github.com/olimjon10111985/asralashm/internal/semantic"
	"github.com/olimjon10111985/asralashm/internal/session"
)

const recallTopK = 5

// Recaller queries the semantic index.
type Recaller interface {
	Query(ctx context.Context, accountID int64, question string, topK int) ([]semantic.Hit, error)
}

type Options struct {
	Machine     *dialog.Machine
	Sessions    *session.Registry
	Stats       analytics.StatsSource
	Recall      Recaller
	AdminUserID int64
}

type Bot struct {
	api         *tgbotapi.BotAPI
	s           sender
	machine     *dialog.Machine
	sessions    *session.Registry
	serial      *async.Serial
	stats       analytics.StatsSource
	recall      Recaller
	adminUserID int64
}

func New(api *tgbotapi.BotAPI, opts Options) *Bot {
	b := newBot(botAPISender{api: api}, opts)
	b.api = api
	return b
}

func newBot(s sender, opts Options) *Bot {
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewRegistry()
	}
	return &Bot{
		s:           s,
		machine:     opts.Machine,
		sessions:    sessions,
		serial:      async.NewSerial(),
		stats:       opts.Stats,
		recall:      opts.Recall,
		adminUserID: opts.AdminUserID,
	}
}

// Start long-polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	log.Printf("🤖 Polling as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.serial.Wait()
			return
		case update, ok := <-updates:
			if !ok {
				b.serial.Wait()
				return
			}
			b.Dispatch(ctx, update)
		}
	}
}

// SetWebhook registers url with Telegram so updates arrive over HTTP. Telegram
// echoes secret in the X-Telegram-Bot-Api-Secret-Token header of every update.
// WebhookConfig has no secret field, hence the raw request.
func (b *Bot) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	if _, err := b.s.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	log.Printf("🔗 Webhook set to %s", url)
	return nil
}

// Dispatch queues an update behind earlier updates of the same chat.
func (b *Bot) Dispatch(ctx context.Context, update tgbotapi.Update) {
	chat := update.FromChat()
	if chat == nil {
		return
	}
	b.serial.Do(chat.ID, func() { b.handleUpdate(ctx, update) })
}

// Wait blocks until every dispatched update has been handled.
func (b *Bot) Wait() { b.serial.Wait() }

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ panic while handling update %d: %v", update.UpdateID, r)
		}
	}()
	switch {
	case update.Message != nil:
		b.handleIncomingMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	sess := b.sessions.Get(msg.Chat.ID, msg.From.ID)
	log.Printf("📨 Message from %d (@%s) in state %s", msg.From.ID, msg.From.UserName, sess.State)

	ev := dialog.Event{Kind: dialog.EventText, Text: msg.Text, FirstName: msg.From.FirstName}
	switch {
	case msg.IsCommand():
		switch msg.Command() {
		case "start":
			ev.Kind = dialog.EventStart
		case "cancel":
			ev.Kind = dialog.EventCancel
		case "about":
			b.reply(msg.Chat.ID, dialog.Reply{Text: dialog.AboutText, Keyboard: session.KeyboardMain})
			return
		case "stats":
			b.handleStats(ctx, msg)
			return
		case "recall":
			b.handleRecall(ctx, msg)
			return
		default:
			ev.Kind = dialog.EventUnsupported
		}
	case msg.Text == "":
		ev.Kind = dialog.EventUnsupported
	}

	for _, r := range b.machine.Handle(ctx, sess, ev) {
		b.reply(msg.Chat.ID, r)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("⚠️ failed to answer callback: %v", err)
	}
	if cb.Message == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	if !strings.HasPrefix(cb.Data, chooseProfilePrefix) {
		return
	}
	id, ok := parseChoice(cb.Data)
	if !ok {
		b.reply(chatID, dialog.Reply{
			Text:     "Profilni aniqlab bo'lmadi. /start bilan qaytadan urinib ko'ring.",
			Keyboard: session.KeyboardMain,
		})
		return
	}
	sess := b.sessions.Get(chatID, cb.From.ID)
	log.Printf("👆 Profile #%d chosen by %d", id, cb.From.ID)
	for _, r := range b.machine.Handle(ctx, sess, dialog.Event{Kind: dialog.EventSelect, TargetID: id}) {
		b.reply(chatID, r)
	}
}

// admin reports whether the sender may use admin commands, replying otherwise.
func (b *Bot) admin(msg *tgbotapi.Message) bool {
	switch {
	case b.adminUserID == 0:
		b.reply(msg.Chat.ID, dialog.Reply{Text: "Admin ID sozlanmagan. ADMIN_TELEGRAM_ID ni o'rnating.", Keyboard: session.KeyboardMain})
		return false
	case msg.From.ID != b.adminUserID:
		b.reply(msg.Chat.ID, dialog.Reply{Text: "Bu buyruq faqat admin uchun.", Keyboard: session.KeyboardMain})
		return false
	}
	return true
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admin(msg) {
		return
	}
	report, err := analytics.Build(ctx, b.stats, time.Now())
	if err != nil {
		log.Printf("❌ stats: %v", err)
		b.reply(msg.Chat.ID, dialog.Reply{Text: "Statistikani olishda xatolik yuz berdi.", Keyboard: session.KeyboardMain})
		return
	}
	b.reply(msg.Chat.ID, dialog.Reply{Text: report.Summary(), Keyboard: session.KeyboardMain})
}

// handleRecall serves "/recall <account id> <question>".
func (b *Bot) handleRecall(ctx context.Context, msg *tgbotapi.Message) {
	if !b.admin(msg) {
		return
	}
	if b.recall == nil {
		b.sendMessage(msg.Chat.ID, "Semantik qidiruv o'chirilgan (CHROMA_BASE_URL qo'yilmagan).")
		return
	}
	idArg, question, _ := strings.Cut(strings.TrimSpace(msg.CommandArguments()), " ")
	accountID, err := strconv.ParseInt(idArg, 10, 64)
	question = strings.TrimSpace(question)
	if err != nil || question == "" {
		b.sendMessage(msg.Chat.ID, "Foydalanish: /recall <hisob id> <savol>")
		return
	}
	hits, err := b.recall.Query(ctx, accountID, question, recallTopK)
	if err != nil {
		log.Printf("❌ recall for #%d: %v", accountID, err)
		b.sendMessage(msg.Chat.ID, "Semantik qidiruvda xatolik: "+err.Error())
		return
	}
	if len(hits) == 0 {
		b.sendMessage(msg.Chat.ID, "Mos yozuvlar topilmadi.")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔎 #%d uchun eng yaqin yozuvlar:\n", accountID)
	for i, h := range hits {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, strings.TrimSpace(h.Text))
	}
	b.sendMessage(msg.Chat.ID, strings.TrimRight(sb.String(), "\n"))
}

// SendDailyReport pushes the statistics summary to the admin chat.
func (b *Bot) SendDailyReport(ctx context.Context) error {
	if b.adminUserID == 0 {
		log.Println("⚠️ ADMIN_TELEGRAM_ID is not set, skipping daily report")
		return nil
	}
	report, err := analytics.Build(ctx, b.stats, time.Now())
	if err != nil {
		return err
	}
	if _, err := b.s.Send(tgbotapi.NewMessage(b.adminUserID, report.Summary())); err != nil {
		return fmt.Errorf("send daily report: %w", err)
	}
	log.Printf("📊 Daily report sent to admin %d (%d chats in memory)", b.adminUserID, b.sessions.Len())
	return nil
}

func (b *Bot) reply(chatID int64, r dialog.Reply) {
	if _, err := b.s.Send(render(chatID, r)); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
