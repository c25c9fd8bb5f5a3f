package bot

import (
	"fmt"
)

func New(cfg Config, d Dispatcher) (Bot, error) {
	switch cfg.Provider {
	case "telegram":
		return NewTelegram(cfg.Token, d, cfg.OwnerChatID)
	case "discord":
		return NewDiscord(cfg.Token, d)
	case "console", "":
		return NewConsole(d), nil
	default:
		return nil, fmt.Errorf("unknown bot provider: %s", cfg.Provider)
	}
}

func NewTelegram(token string, d Dispatcher, ownerChatID int64) (Bot, error) {
	return newTelegram(token, d, ownerChatID)
}

func NewDiscord(token string, d Dispatcher) (Bot, error) {
	return newDiscord(token, d)
}
