package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/bowerhall/codegene/internal/chat"
	"github.com/bowerhall/codegene/internal/extract"
	"github.com/bowerhall/codegene/internal/input"
	"github.com/bowerhall/codegene/internal/logger"
	"github.com/bowerhall/codegene/internal/session"
	"github.com/bowerhall/codegene/internal/speech"
)

// handleVoice turns a voice clip into text and handles it like typed input.
// Recognition failures end the event with a notice and start no turn.
func (a *Agent) handleVoice(ctx context.Context, clip speech.Clip) Response {
	if a.recognizer == nil {
		return notice(LevelError, "Voice input is not configured")
	}

	text, err := a.recognizer.Transcribe(ctx, clip)
	if err != nil {
		logger.Debug("speech recognition failed", "error", err)
		switch {
		case errors.Is(err, speech.ErrNoSpeech):
			return notice(LevelError, "Could not understand audio")
		case errors.Is(err, speech.ErrServiceUnavailable):
			return notice(LevelError, "Speech recognition service unavailable")
		default:
			return notice(LevelError, fmt.Sprintf("Microphone error: %v", err))
		}
	}

	resp := a.handleText(ctx, text)
	resp.Notices = append([]Notice{{Level: LevelSuccess, Text: "Recognized: " + text}}, resp.Notices...)
	return resp
}

// handleUpload keeps an image for the next turn and adds any other file to
// the current chat right away. A file with the same name as the previous
// upload is skipped with a notice.
func (a *Agent) handleUpload(ctx context.Context, f extract.File) Response {
	if !a.session.MarkUpload(f.Name) {
		logger.Debug("duplicate upload skipped", "file", f.Name)
		return notice(LevelWarning, fmt.Sprintf("'%s' was already added.", f.Name))
	}

	if isImageUpload(f) {
		a.session.SetAttachment(session.Attachment{
			Filename: f.Name,
			MimeType: f.MimeType,
			Data:     f.Data,
		})
		logger.Debug("image attached", "file", f.Name, "size", len(f.Data))
		return notice(LevelInfo, fmt.Sprintf("📸 Image '%s' is ready. Type a question or press Enter to send.", f.Name))
	}

	chatID, err := a.session.Chats().CurrentID()
	if err != nil {
		return notice(LevelError, fmt.Sprintf("File processing error: %v", err))
	}

	content := a.extractor.Text(ctx, f)
	msg := chat.Message{Role: chat.RoleUser, Content: input.FilePreview(f.Name, content)}
	if err := a.session.Chats().Append(chatID, msg); err != nil {
		return notice(LevelError, fmt.Sprintf("File processing error: %v", err))
	}

	logger.Info("file added to chat", "chat", chatID, "file", f.Name, "kind", extract.DetectKind(f).String())
	return Response{
		Notices: []Notice{{Level: LevelInfo, Text: fmt.Sprintf("📄 Added '%s' to the chat.", f.Name)}},
		Refresh: true,
	}
}

func isImageUpload(f extract.File) bool {
	if f.MimeType != "" {
		return input.IsImage(f.MimeType)
	}
	return extract.DetectKind(f) == extract.KindImage
}
