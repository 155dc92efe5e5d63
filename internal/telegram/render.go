package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/olimjon10111985/asralashm/internal/dialog"
	"github.com/olimjon10111985/asralashm/internal/session"
)

const chooseProfilePrefix = "choose_profile:"

func render(chatID int64, r dialog.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	switch {
	case len(r.Choices) > 0:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(r.Choices))
		for _, c := range r.Choices {
			data := chooseProfilePrefix + strconv.FormatInt(c.TargetID, 10)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(c.Label, data)))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	case r.Link != nil:
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(r.Link.Label, r.Link.URL)),
		)
	default:
		if kb, ok := replyKeyboard(r.Keyboard); ok {
			msg.ReplyMarkup = kb
		}
	}
	return msg
}

func replyKeyboard(k session.Keyboard) (tgbotapi.ReplyKeyboardMarkup, bool) {
	btn := tgbotapi.NewKeyboardButton
	row := tgbotapi.NewKeyboardButtonRow

	var rows [][]tgbotapi.KeyboardButton
	switch k {
	case session.KeyboardMain:
		rows = [][]tgbotapi.KeyboardButton{
			row(btn(dialog.ButtonSearch)),
			row(btn(dialog.ButtonStart), btn(dialog.ButtonRegister), btn(dialog.ButtonLogin)),
		}
	case session.KeyboardBack, session.KeyboardChat:
		rows = [][]tgbotapi.KeyboardButton{row(btn(dialog.ButtonStart), btn(dialog.ButtonBack))}
	case session.KeyboardProfile:
		rows = [][]tgbotapi.KeyboardButton{
			row(btn(dialog.ButtonNewEntry)),
			row(btn(dialog.ButtonDelete)),
			row(btn(dialog.ButtonStart)),
			row(btn(dialog.ButtonBack)),
		}
	case session.KeyboardRegStart:
		rows = [][]tgbotapi.KeyboardButton{
			row(btn(dialog.ButtonNoAccount)),
			row(btn(dialog.ButtonStart), btn(dialog.ButtonBack)),
		}
	case session.KeyboardStart:
		rows = [][]tgbotapi.KeyboardButton{row(btn(dialog.ButtonStart))}
	default:
		return tgbotapi.ReplyKeyboardMarkup{}, false
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb, true
}

// parseChoice extracts the profile id from callback data.
func parseChoice(data string) (int64, bool) {
	rest, ok := strings.CutPrefix(data, chooseProfilePrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
