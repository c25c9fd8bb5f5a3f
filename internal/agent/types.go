package agent

import (
	"context"
	"time"

	"github.com/bowerhall/codegene/internal/alerts"
	"github.com/bowerhall/codegene/internal/config"
	"github.com/bowerhall/codegene/internal/extract"
	"github.com/bowerhall/codegene/internal/llm"
	"github.com/bowerhall/codegene/internal/session"
	"github.com/bowerhall/codegene/internal/speech"
	"github.com/bowerhall/codegene/internal/storage"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient message for the user, shown next to any reply
type Notice struct {
	Level Level
	Text  string
}

// Response is everything a front-end needs to show after an event.
// Refresh is set when the current chat's log changed.
type Response struct {
	Notices []Notice
	Reply   string
	Refresh bool
}

// Event is one user action delivered by a front-end
type Event interface {
	isEvent()
}

type TextEvent struct {
	Text string
}

type VoiceEvent struct {
	Clip speech.Clip
}

type UploadEvent struct {
	File extract.File
}

// CommandEvent is a slash command, Name without the slash
type CommandEvent struct {
	Name string
	Args string
}

func (TextEvent) isEvent()    {}
func (VoiceEvent) isEvent()   {}
func (UploadEvent) isEvent()  {}
func (CommandEvent) isEvent() {}

type TurnState int

const (
	StateIdle TurnState = iota
	StateExtracting
	StateNormalizing
	StateAwaitingModel
	StateRecording
	StateFailed
)

func (s TurnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExtracting:
		return "extracting"
	case StateNormalizing:
		return "normalizing"
	case StateAwaitingModel:
		return "awaiting_model"
	case StateRecording:
		return "recording"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TransitionFunc observes turn state changes
type TransitionFunc func(from, to TurnState)

// Exporter stores chat transcripts
type Exporter interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
	List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	Healthy(ctx context.Context) bool
}

type Agent struct {
	llm        llm.LLM
	session    *session.Session
	extractor  *extract.Extractor
	settings   *config.Settings
	recognizer speech.Recognizer
	alerts     *alerts.Alerter
	exporter   Exporter
	observe    TransitionFunc
	now        func() time.Time
}
