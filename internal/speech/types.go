package speech

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoSpeech means the clip held nothing intelligible
	ErrNoSpeech = errors.New("could not understand audio")
	// ErrServiceUnavailable means the recognition backend failed or timed out
	ErrServiceUnavailable = errors.New("speech recognition service unavailable")
	// ErrPhraseTooLong means the clip exceeds the phrase limit
	ErrPhraseTooLong = errors.New("voice message too long")
)

// Clip is a recorded voice message
type Clip struct {
	Filename string
	Data     []byte
	Duration time.Duration
}

type Recognizer interface {
	Transcribe(ctx context.Context, clip Clip) (string, error)
}

type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	ListenTimeout time.Duration
	PhraseLimit   time.Duration
}
