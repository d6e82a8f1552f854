// Package telegram wraps the bot client used for admin alerts. The market
// package routes every finance/signup/moderation message through it.
package telegram

import (
	"github.com/PaulSonOfLars/gotgbot/v2"
)

// Bot exposes the raw API client; callers pick the chat and parse mode.
type Bot struct {
	Api *gotgbot.Bot
}

func NewBot(token string) (*Bot, error) {
	api, err := gotgbot.NewBot(token, nil)
	if err != nil {
		return nil, err
	}

	return &Bot{
		Api: api,
	}, nil
}
