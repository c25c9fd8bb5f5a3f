package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bowerhall/codegene/internal/agent"
	"github.com/bowerhall/codegene/internal/extract"
	"github.com/bowerhall/codegene/internal/logger"
	"github.com/bowerhall/codegene/internal/speech"
	"github.com/bwmarrin/discordgo"
)

// discordLimit is the longest text a single Discord message may carry
const discordLimit = 2000

func newDiscord(token string, d Dispatcher) (Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	bot := &discord{
		session:    session,
		dispatcher: d,
	}

	session.AddHandler(bot.handleMessage)

	return bot, nil
}

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}
	logger.Info("discord bot started")

	<-ctx.Done()
	return d.session.Close()
}

func (d *discord) Send(chatID int64, message string) error {
	channelID := fmt.Sprintf("%d", chatID)
	for _, part := range chunk(message, discordLimit) {
		if _, err := d.session.ChannelMessageSend(channelID, part); err != nil {
			logger.Error("discord send failed", "error", err, "channelID", channelID)
			return err
		}
	}
	logger.Info("discord message sent", "channelID", channelID, "chars", len(message))
	return nil
}

func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	logger.Info("message received", "from", m.Author.Username, "text", truncate(m.Content, 50), "attachments", len(m.Attachments))

	for _, att := range m.Attachments {
		if att.Size > maxMediaSize {
			d.reply(s, m, []string{fmt.Sprintf("File processing error: %s is larger than 20MB", att.Filename)})
			continue
		}

		data, _, err := download(att.URL)
		if err != nil {
			logger.Error("failed to download attachment", "file", att.Filename, "error", err)
			d.reply(s, m, []string{"File processing error: " + err.Error()})
			continue
		}

		var ev agent.Event = agent.UploadEvent{File: extract.File{Name: att.Filename, MimeType: att.ContentType, Data: data}}
		if strings.HasPrefix(att.ContentType, "audio/") {
			ev = agent.VoiceEvent{Clip: speech.Clip{Filename: att.Filename, Data: data}}
		}
		d.reply(s, m, render(d.dispatcher.Dispatch(d.ctx, ev)))
	}

	if m.Content == "" {
		return
	}

	var ev agent.Event = agent.TextEvent{Text: m.Content}
	if name, args, ok := parseCommand(m.Content); ok {
		ev = agent.CommandEvent{Name: name, Args: args}
	} else {
		s.ChannelTyping(m.ChannelID)
	}

	d.reply(s, m, render(d.dispatcher.Dispatch(d.ctx, ev)))
}

func (d *discord) reply(s *discordgo.Session, m *discordgo.MessageCreate, texts []string) {
	for _, text := range texts {
		for _, part := range chunk(text, discordLimit) {
			if _, err := s.ChannelMessageSendReply(m.ChannelID, part, m.Reference()); err != nil {
				logger.Error("discord reply failed", "error", err)
			} else {
				logger.Info("reply sent", "chars", len(part))
			}
		}
	}
}
