package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/bowerhall/codegene/internal/logger"
)

// Whisper transcribes clips through an OpenAI-compatible transcription
// endpoint, such as a local whisper server.
type Whisper struct {
	client        *openai.Client
	model         string
	listenTimeout time.Duration
	phraseLimit   time.Duration
}

func NewWhisper(cfg Config) *Whisper {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	listen := cfg.ListenTimeout
	if listen <= 0 {
		listen = 5 * time.Second
	}

	phrase := cfg.PhraseLimit
	if phrase <= 0 {
		phrase = 10 * time.Second
	}

	return &Whisper{
		client:        openai.NewClientWithConfig(config),
		model:         model,
		listenTimeout: listen,
		phraseLimit:   phrase,
	}
}

// Transcribe returns the recognized utterance. The request gets the listen
// timeout plus the phrase limit, the longest a live capture could block.
func (w *Whisper) Transcribe(ctx context.Context, clip Clip) (string, error) {
	if clip.Duration > w.phraseLimit {
		return "", fmt.Errorf("%w: %s exceeds %s", ErrPhraseTooLong, clip.Duration, w.phraseLimit)
	}
	if len(clip.Data) == 0 {
		return "", ErrNoSpeech
	}

	ctx, cancel := context.WithTimeout(ctx, w.listenTimeout+w.phraseLimit)
	defer cancel()

	filename := clip.Filename
	if filename == "" {
		filename = "voice.ogg"
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   bytes.NewReader(clip.Data),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("transcription timed out", "file", filename)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}

	logger.Debug("transcribed voice clip", "file", filename, "chars", len(text))
	return text, nil
}
