package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChannelGate admits users subscribed to a channel.
type ChannelGate struct {
	s       sender
	channel string
}

// NewChannelGate checks membership in channel, given as "@name" or a numeric chat id.
func NewChannelGate(api *tgbotapi.BotAPI, channel string) *ChannelGate {
	return &ChannelGate{s: botAPISender{api: api}, channel: channel}
}

func (g *ChannelGate) IsMember(_ context.Context, userID int64) (bool, error) {
	cfg := tgbotapi.GetChatMemberConfig{ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID}}
	if id, err := strconv.ParseInt(g.channel, 10, 64); err == nil {
		cfg.ChatID = id
	} else {
		cfg.SuperGroupUsername = g.channel
	}
	member, err := g.s.GetChatMember(cfg)
	if err != nil {
		return false, err
	}
	switch member.Status {
	case "member", "administrator", "creator":
		return true, nil
	}
	return false, nil
}

func (g *ChannelGate) JoinLink() string {
	return "https://t.me/" + strings.TrimPrefix(g.channel, "@")
}
