package bot

import (
	"context"
	"io"

	"github.com/bowerhall/codegene/internal/agent"
	"github.com/bwmarrin/discordgo"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/peterh/liner"
)

type Bot interface {
	Start(ctx context.Context) error
	Send(chatID int64, message string) error
}

// Dispatcher handles user events, normally *agent.Agent
type Dispatcher interface {
	Dispatch(ctx context.Context, ev agent.Event) agent.Response
}

type Config struct {
	Provider    string
	Token       string
	OwnerChatID int64 // Telegram: restrict to this chat ID
}

type telegram struct {
	api         *tgbotapi.BotAPI
	dispatcher  Dispatcher
	ownerChatID int64
}

type discord struct {
	session    *discordgo.Session
	dispatcher Dispatcher
	ctx        context.Context
}

type console struct {
	dispatcher   Dispatcher
	line         *liner.State
	out          io.Writer
	imagePending bool
}
