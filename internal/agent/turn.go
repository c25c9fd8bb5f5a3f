package agent

import (
	"context"
	"fmt"

	"github.com/bowerhall/codegene/internal/chat"
	"github.com/bowerhall/codegene/internal/extract"
	"github.com/bowerhall/codegene/internal/input"
	"github.com/bowerhall/codegene/internal/logger"
)

const busyNotice = "Already processing a previous request. Please wait."

// turn tracks the state of one submission
type turn struct {
	state   TurnState
	observe TransitionFunc
}

func (t *turn) to(next TurnState) {
	if next == t.state {
		return
	}
	logger.Debug("turn state", "from", t.state.String(), "to", next.String())
	if t.observe != nil {
		t.observe(t.state, next)
	}
	t.state = next
}

func (t *turn) fail(err error) Response {
	t.to(StateFailed)
	return notice(LevelError, fmt.Sprintf("❌ Error while processing image or question:\n%v", err))
}

// Submit runs one chat turn for text, folding in the pending image if there
// is one. A turn started while another is in flight is rejected, never
// queued, and leaves the session untouched.
func (a *Agent) Submit(ctx context.Context, text string) (resp Response) {
	if !a.session.TryAcquire() {
		logger.Debug("turn rejected, request in flight")
		return notice(LevelWarning, busyNotice)
	}

	t := &turn{state: StateIdle, observe: a.observe}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("turn panicked", "panic", r)
			resp = t.fail(fmt.Errorf("%v", r))
		}
		a.session.Release()
		t.to(StateIdle)
	}()

	chatID, err := a.session.Chats().CurrentID()
	if err != nil {
		logger.Error("turn without current chat", "error", err)
		return t.fail(err)
	}

	var img *input.Image
	if att := a.session.TakeAttachment(); att != nil {
		t.to(StateExtracting)

		file := extract.File{Name: att.Filename, MimeType: att.MimeType, Data: att.Data}
		ocrText := a.extractor.OCR(ctx, file)

		encoded, err := extract.EncodePNGBase64(att.Data)
		if err != nil {
			return t.fail(err)
		}

		img = &input.Image{Filename: att.Filename, OCRText: ocrText, PNGBase64: encoded}
	}

	t.to(StateNormalizing)
	systemPrompt := a.settings.SystemPrompt()
	req := input.Normalize(text, systemPrompt, img)

	if err := a.session.Chats().Append(chatID, chat.Message{Role: chat.RoleUser, Content: req.Rendered}); err != nil {
		return t.fail(err)
	}

	t.to(StateAwaitingModel)
	model := a.settings.Model()
	answer, err := a.llm.Complete(ctx, systemPrompt, req.Payload, model)
	if err != nil {
		logger.Error("model call failed", "model", model, "error", err)
		if a.alerts != nil {
			a.alerts.Warn(backendComponent, "model call failed", err)
		}
		return t.fail(err)
	}
	if a.alerts != nil {
		a.alerts.Resolve(backendComponent)
	}

	t.to(StateRecording)
	if err := a.session.Chats().Append(chatID, chat.Message{Role: chat.RoleAssistant, Content: answer}); err != nil {
		return t.fail(err)
	}

	logger.Info("turn completed", "chat", chatID, "image", img != nil, "chars", len(answer))
	return Response{Reply: answer, Refresh: true}
}
