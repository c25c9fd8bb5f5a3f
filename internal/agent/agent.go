package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/bowerhall/codegene/internal/alerts"
	"github.com/bowerhall/codegene/internal/config"
	"github.com/bowerhall/codegene/internal/extract"
	"github.com/bowerhall/codegene/internal/llm"
	"github.com/bowerhall/codegene/internal/logger"
	"github.com/bowerhall/codegene/internal/session"
	"github.com/bowerhall/codegene/internal/speech"
)

// backendComponent names the model backend in operator alerts
const backendComponent = "model backend"

func New(model llm.LLM, sess *session.Session, extractor *extract.Extractor, settings *config.Settings) *Agent {
	return &Agent{
		llm:       model,
		session:   sess,
		extractor: extractor,
		settings:  settings,
		now:       time.Now,
	}
}

func (a *Agent) SetRecognizer(r speech.Recognizer) {
	a.recognizer = r
}

func (a *Agent) SetAlerter(alerter *alerts.Alerter) {
	a.alerts = alerter
}

func (a *Agent) SetExporter(e Exporter) {
	a.exporter = e
}

// SetObserver registers fn to be called on every turn state change
func (a *Agent) SetObserver(fn TransitionFunc) {
	a.observe = fn
}

func (a *Agent) Session() *session.Session {
	return a.session
}

// Dispatch handles one event from a front-end
func (a *Agent) Dispatch(ctx context.Context, ev Event) Response {
	switch e := ev.(type) {
	case TextEvent:
		return a.handleText(ctx, e.Text)
	case VoiceEvent:
		return a.handleVoice(ctx, e.Clip)
	case UploadEvent:
		return a.handleUpload(ctx, e.File)
	case CommandEvent:
		return a.handleCommand(ctx, e.Name, e.Args)
	default:
		logger.Warn("unsupported event", "type", fmt.Sprintf("%T", ev))
		return notice(LevelError, fmt.Sprintf("Unsupported event %T", ev))
	}
}

// handleText routes plain text to the tool of the active page
func (a *Agent) handleText(ctx context.Context, text string) Response {
	switch a.session.Page() {
	case session.PageResearch:
		return a.Research(ctx, text, "")
	case session.PageImageGen:
		return a.ImageGen(text)
	case session.PageTools:
		return a.selectTool(text)
	default:
		return a.Submit(ctx, text)
	}
}

func notice(level Level, text string) Response {
	return Response{Notices: []Notice{{Level: level, Text: text}}}
}
