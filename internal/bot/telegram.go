package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bowerhall/codegene/internal/agent"
	"github.com/bowerhall/codegene/internal/extract"
	"github.com/bowerhall/codegene/internal/logger"
	"github.com/bowerhall/codegene/internal/speech"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramLimit is the longest text a single Telegram message may carry
const telegramLimit = 4096

func newTelegram(token string, d Dispatcher, ownerChatID int64) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &telegram{api: api, dispatcher: d, ownerChatID: ownerChatID}, nil
}

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	logger.Info("telegram bot started", "user", t.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if t.ownerChatID != 0 && msg.Chat.ID != t.ownerChatID {
		logger.Warn("ignoring message from unknown chat", "chatID", msg.Chat.ID)
		return
	}

	from := ""
	if msg.From != nil {
		from = msg.From.UserName
	}

	switch {
	case msg.IsCommand():
		logger.Info("command received", "from", from, "command", msg.Command())
		t.dispatch(ctx, msg, agent.CommandEvent{Name: msg.Command(), Args: msg.CommandArguments()})

	case msg.Voice != nil:
		logger.Info("voice received", "from", from, "seconds", msg.Voice.Duration)
		data, _, err := t.downloadFile(msg.Voice.FileID)
		if err != nil {
			logger.Error("failed to download voice", "error", err)
			t.reply(msg, []string{"Microphone error: " + err.Error()})
			return
		}
		t.dispatch(ctx, msg, agent.VoiceEvent{Clip: speech.Clip{
			Filename: "voice.ogg",
			Data:     data,
			Duration: time.Duration(msg.Voice.Duration) * time.Second,
		}})

	case len(msg.Photo) > 0:
		photo := msg.Photo[len(msg.Photo)-1]
		logger.Info("photo received", "from", from, "caption", truncate(msg.Caption, 50))
		data, mediaType, err := t.downloadFile(photo.FileID)
		if err != nil {
			logger.Error("failed to download photo", "error", err)
			t.reply(msg, []string{"File processing error: " + err.Error()})
			return
		}
		name := fmt.Sprintf("photo_%s.jpg", photo.FileUniqueID)
		t.upload(ctx, msg, extract.File{Name: name, MimeType: mediaType, Data: data})

	case msg.Document != nil:
		doc := msg.Document
		logger.Info("document received", "from", from, "file", doc.FileName, "mime", doc.MimeType)
		if doc.FileSize > maxMediaSize {
			t.reply(msg, []string{fmt.Sprintf("File processing error: %s is larger than 20MB", doc.FileName)})
			return
		}
		data, _, err := t.downloadFile(doc.FileID)
		if err != nil {
			logger.Error("failed to download document", "error", err)
			t.reply(msg, []string{"File processing error: " + err.Error()})
			return
		}
		t.upload(ctx, msg, extract.File{Name: doc.FileName, MimeType: doc.MimeType, Data: data})

	default:
		logger.Info("message received", "from", from, "text", truncate(msg.Text, 50))
		t.dispatch(ctx, msg, agent.TextEvent{Text: msg.Text})
	}
}

// upload sends the file and then the caption, which Telegram delivers in
// the same message, as a question.
func (t *telegram) upload(ctx context.Context, msg *tgbotapi.Message, f extract.File) {
	t.dispatch(ctx, msg, agent.UploadEvent{File: f})
	if msg.Caption != "" {
		t.dispatch(ctx, msg, agent.TextEvent{Text: msg.Caption})
	}
}

func (t *telegram) dispatch(ctx context.Context, msg *tgbotapi.Message, ev agent.Event) {
	if _, ok := ev.(agent.TextEvent); ok {
		t.SendTyping(msg.Chat.ID)
	}

	resp := t.dispatcher.Dispatch(ctx, ev)
	t.reply(msg, render(resp))
}

func (t *telegram) reply(msg *tgbotapi.Message, texts []string) {
	for _, text := range texts {
		for _, part := range chunk(text, telegramLimit) {
			reply := tgbotapi.NewMessage(msg.Chat.ID, part)
			reply.ReplyToMessageID = msg.MessageID

			if _, err := t.api.Send(reply); err != nil {
				logger.Error("send failed", "error", err)
			} else {
				logger.Info("reply sent", "chars", len(part))
			}
		}
	}
}

func (t *telegram) Send(chatID int64, message string) error {
	var err error
	for _, part := range chunk(message, telegramLimit) {
		if _, err = t.api.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			logger.Error("proactive send failed", "error", err, "chatID", chatID)
			return err
		}
	}
	logger.Info("proactive message sent", "chatID", chatID, "chars", len(message))
	return nil
}

func (t *telegram) SendTyping(chatID int64) error {
	_, err := t.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

func (t *telegram) downloadFile(fileID string) ([]byte, string, error) {
	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, "", err
	}

	return download(file.Link(t.api.Token))
}
