package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bowerhall/codegene/internal/alerts"
	"github.com/bowerhall/codegene/internal/chat"
	"github.com/bowerhall/codegene/internal/config"
	"github.com/bowerhall/codegene/internal/extract"
	"github.com/bowerhall/codegene/internal/input"
	"github.com/bowerhall/codegene/internal/llm"
	"github.com/bowerhall/codegene/internal/session"
	"github.com/bowerhall/codegene/internal/speech"
	"github.com/bowerhall/codegene/internal/storage"
	"github.com/stretchr/testify/require"
)

type call struct {
	system string
	user   string
	model  string
}

type fakeLLM struct {
	mu      sync.Mutex
	calls   []call
	reply   string
	err     error
	pingErr error
	// block, when set, makes Complete wait until it is closed
	block   chan struct{}
	started chan struct{}
	panics  bool
}

func (f *fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{system: systemPrompt, user: userPrompt, model: model})
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.panics {
		panic("backend exploded")
	}
	return f.reply, f.err
}

func (f *fakeLLM) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeLLM) lastCall(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeOCR struct {
	text string
}

func (f fakeOCR) Recognize(ctx context.Context, img []byte) (string, error) {
	return f.text, nil
}

type fakeRecognizer struct {
	text string
	err  error
}

func (f fakeRecognizer) Transcribe(ctx context.Context, clip speech.Clip) (string, error) {
	return f.text, f.err
}

type fakeExporter struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (f *fakeExporter) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[name] = data
	f.types[name] = contentType
	return "codegene-exports/" + name, nil
}

func (f *fakeExporter) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ObjectInfo
	for name, data := range f.objects {
		if strings.HasPrefix(name, prefix) {
			out = append(out, storage.ObjectInfo{Name: name, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (f *fakeExporter) Healthy(ctx context.Context) bool {
	return true
}

func newTestAgent(t *testing.T, model *fakeLLM) *Agent {
	t.Helper()

	store := chat.NewStore()
	idx, err := chat.NewIndex()
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	store.SetIndex(idx)

	settings := config.NewSettings(config.SettingsData{Model: "test-model"})
	return New(model, session.New(store), extract.New(fakeOCR{text: "OCR TEXT"}), settings)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func currentMessages(t *testing.T, a *Agent) []chat.Message {
	t.Helper()
	c, err := a.Session().Chats().Current()
	require.NoError(t, err)
	return c.Messages
}

func TestSubmitTextTurn(t *testing.T) {
	model := &fakeLLM{reply: "4"}
	a := newTestAgent(t, model)

	resp := a.Dispatch(context.Background(), TextEvent{Text: "What is 2+2?"})

	require.Equal(t, "4", resp.Reply)
	require.True(t, resp.Refresh)
	require.Empty(t, resp.Notices)

	msgs := currentMessages(t, a)
	require.Equal(t, []chat.Message{
		{Role: chat.RoleUser, Content: "What is 2+2?"},
		{Role: chat.RoleAssistant, Content: "4"},
	}, msgs)

	got := model.lastCall(t)
	require.Equal(t, "What is 2+2?", got.user)
	require.Equal(t, config.DefaultSystemPrompt, got.system)
	require.Equal(t, "test-model", got.model)
	require.False(t, a.Session().Processing())
}

func TestSubmitImageTurn(t *testing.T) {
	model := &fakeLLM{reply: "It is a diagram."}
	a := newTestAgent(t, model)
	ctx := context.Background()

	resp := a.Dispatch(ctx, UploadEvent{File: extract.File{Name: "diagram.png", MimeType: "image/png", Data: pngBytes(t)}})
	require.Len(t, resp.Notices, 1)
	require.Contains(t, resp.Notices[0].Text, "diagram.png")
	require.Empty(t, currentMessages(t, a))

	a.Dispatch(ctx, TextEvent{Text: "explain this"})

	msgs := currentMessages(t, a)
	require.Len(t, msgs, 2)
	require.True(t, strings.HasPrefix(msgs[0].Content, "<img src='data:image/png;base64,"))
	require.True(t, strings.HasSuffix(msgs[0].Content, "explain this"))

	payload := model.lastCall(t).user
	require.Contains(t, payload, "OCR TEXT")
	require.Contains(t, payload, "diagram.png")
	require.Contains(t, payload, "explain this")
}

func TestAttachmentUsedOnce(t *testing.T) {
	model := &fakeLLM{reply: "ok"}
	a := newTestAgent(t, model)
	ctx := context.Background()

	a.Dispatch(ctx, UploadEvent{File: extract.File{Name: "shot.png", MimeType: "image/png", Data: pngBytes(t)}})
	a.Dispatch(ctx, TextEvent{Text: "first"})
	a.Dispatch(ctx, TextEvent{Text: "second"})

	embedded := 0
	for _, m := range currentMessages(t, a) {
		if strings.Contains(m.Content, "<img src=") {
			embedded++
		}
	}
	require.Equal(t, 1, embedded)
	require.Equal(t, "second", model.lastCall(t).user)
}

func TestBadImageFailsTurnAndDropsAttachment(t *testing.T) {
	model := &fakeLLM{reply: "ok"}
	a := newTestAgent(t, model)
	ctx := context.Background()

	a.Dispatch(ctx, UploadEvent{File: extract.File{Name: "broken.png", MimeType: "image/png", Data: []byte("not a png")}})
	resp := a.Dispatch(ctx, TextEvent{Text: "what is it"})

	require.Len(t, resp.Notices, 1)
	require.Equal(t, LevelError, resp.Notices[0].Level)
	require.Contains(t, resp.Notices[0].Text, "Error while processing image or question")
	require.Zero(t, model.callCount())
	require.False(t, a.Session().Processing())

	_, pending := a.Session().PendingAttachment()
	require.False(t, pending)
}

func TestConcurrentSubmitRejected(t *testing.T) {
	model := &fakeLLM{reply: "done", block: make(chan struct{}), started: make(chan struct{}, 1)}
	a := newTestAgent(t, model)
	ctx := context.Background()

	first := make(chan Response, 1)
	go func() {
		first <- a.Submit(ctx, "slow question")
	}()
	<-model.started

	before := currentMessages(t, a)
	resp := a.Submit(ctx, "impatient question")

	require.Len(t, resp.Notices, 1)
	require.Equal(t, LevelWarning, resp.Notices[0].Level)
	require.Equal(t, busyNotice, resp.Notices[0].Text)
	require.Equal(t, before, currentMessages(t, a))

	close(model.block)
	require.Equal(t, "done", (<-first).Reply)
	require.Equal(t, 1, model.callCount())
	require.Len(t, currentMessages(t, a), 2)
}

func TestGateReleasedOnModelError(t *testing.T) {
	model := &fakeLLM{err: fmt.Errorf("%w: connection refused", llm.ErrModelCallFailed)}
	a := newTestAgent(t, model)

	var notified []string
	a.SetAlerter(alerts.New(func(msg string) { notified = append(notified, msg) }, time.Minute))

	resp := a.Submit(context.Background(), "hello")

	require.Len(t, resp.Notices, 1)
	require.Contains(t, resp.Notices[0].Text, "connection refused")
	require.False(t, a.Session().Processing())
	require.Len(t, notified, 1)
	require.Contains(t, notified[0], backendComponent)

	// the user message stays, no assistant message is recorded
	msgs := currentMessages(t, a)
	require.Len(t, msgs, 1)
	require.Equal(t, chat.RoleUser, msgs[0].Role)

	model.err = nil
	model.reply = "back"
	a.Submit(context.Background(), "hello again")
	require.Len(t, notified, 2)
	require.Contains(t, notified[1], "recovered")
}

func TestGateReleasedOnPanic(t *testing.T) {
	model := &fakeLLM{panics: true}
	a := newTestAgent(t, model)

	resp := a.Submit(context.Background(), "boom")

	require.Len(t, resp.Notices, 1)
	require.Contains(t, resp.Notices[0].Text, "backend exploded")
	require.False(t, a.Session().Processing())
}

func TestTurnTransitions(t *testing.T) {
	model := &fakeLLM{reply: "ok"}
	a := newTestAgent(t, model)

	var states []TurnState
	a.SetObserver(func(from, to TurnState) {
		states = append(states, to)
	})

	ctx := context.Background()
	a.Submit(ctx, "plain")
	require.Equal(t, []TurnState{StateNormalizing, StateAwaitingModel, StateRecording, StateIdle}, states)

	states = nil
	a.Dispatch(ctx, UploadEvent{File: extract.File{Name: "a.png", MimeType: "image/png", Data: pngBytes(t)}})
	a.Submit(ctx, "with image")
	require.Equal(t, []TurnState{StateExtracting, StateNormalizing, StateAwaitingModel, StateRecording, StateIdle}, states)

	states = nil
	model.err = errors.New("down")
	a.Submit(ctx, "failing")
	require.Equal(t, []TurnState{StateNormalizing, StateAwaitingModel, StateFailed, StateIdle}, states)
}

func TestFileUploadTruncated(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{})
	content := strings.Repeat("a", input.PreviewLimit+500)

	resp := a.Dispatch(context.Background(), UploadEvent{File: extract.File{Name: "notes.txt", MimeType: "text/plain", Data: []byte(content)}})
	require.True(t, resp.Refresh)

	msgs := currentMessages(t, a)
	require.Len(t, msgs, 1)
	require.Equal(t, "📄 Uploaded file: notes.txt\n\n"+strings.Repeat("a", input.PreviewLimit), msgs[0].Content)
}

func TestFileUploadDeduplicated(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{})
	ctx := context.Background()
	f := extract.File{Name: "notes.txt", MimeType: "text/plain", Data: []byte("hello")}

	a.Dispatch(ctx, UploadEvent{File: f})
	resp := a.Dispatch(ctx, UploadEvent{File: f})
	require.Len(t, resp.Notices, 1)
	require.Equal(t, LevelWarning, resp.Notices[0].Level)
	require.Equal(t, "'notes.txt' was already added.", resp.Notices[0].Text)
	require.False(t, resp.Refresh)
	require.Len(t, currentMessages(t, a), 1)

	// a new chat accepts the same file again
	a.Dispatch(ctx, CommandEvent{Name: "new"})
	a.Dispatch(ctx, UploadEvent{File: f})
	require.Len(t, currentMessages(t, a), 1)
}

func TestCorruptUploadBecomesText(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{})

	a.Dispatch(context.Background(), UploadEvent{File: extract.File{Name: "broken.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.4 truncated")}})

	msgs := currentMessages(t, a)
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0].Content, "broken.pdf")
	require.Contains(t, msgs[0].Content, "error")
}

func TestVoiceInput(t *testing.T) {
	model := &fakeLLM{reply: "hi there"}
	a := newTestAgent(t, model)
	ctx := context.Background()

	resp := a.Dispatch(ctx, VoiceEvent{})
	require.Equal(t, "Voice input is not configured", resp.Notices[0].Text)

	a.SetRecognizer(fakeRecognizer{text: "hello"})
	resp = a.Dispatch(ctx, VoiceEvent{})
	require.Equal(t, "hi there", resp.Reply)
	require.Equal(t, "Recognized: hello", resp.Notices[0].Text)
	require.Equal(t, "hello", model.lastCall(t).user)
}

func TestVoiceFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unintelligible", speech.ErrNoSpeech, "Could not understand audio"},
		{"service down", fmt.Errorf("%w: timeout", speech.ErrServiceUnavailable), "Speech recognition service unavailable"},
		{"other", speech.ErrPhraseTooLong, "Microphone error: " + speech.ErrPhraseTooLong.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeLLM{}
			a := newTestAgent(t, model)
			a.SetRecognizer(fakeRecognizer{err: tt.err})

			resp := a.Dispatch(context.Background(), VoiceEvent{})
			require.Len(t, resp.Notices, 1)
			require.Equal(t, tt.want, resp.Notices[0].Text)
			require.Zero(t, model.callCount())
			require.Empty(t, currentMessages(t, a))
		})
	}
}

func TestResearchPage(t *testing.T) {
	model := &fakeLLM{reply: "deep answer"}
	a := newTestAgent(t, model)
	ctx := context.Background()

	a.Dispatch(ctx, CommandEvent{Name: "research"})
	require.Equal(t, session.PageResearch, a.Session().Page())

	resp := a.Dispatch(ctx, TextEvent{Text: "   "})
	require.Equal(t, "⚠️ Please enter a query first.", resp.Notices[0].Text)
	require.Zero(t, model.callCount())

	resp = a.Dispatch(ctx, TextEvent{Text: "history of go"})
	require.Equal(t, "deep answer", resp.Reply)
	require.Equal(t, config.DefaultResearchPrompt, model.lastCall(t).system)
	require.Empty(t, currentMessages(t, a))
}

func TestToolsPage(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{})
	ctx := context.Background()

	resp := a.Dispatch(ctx, CommandEvent{Name: "tools"})
	require.Contains(t, resp.Reply, "Image Generator")

	a.Dispatch(ctx, TextEvent{Text: "1"})
	require.Equal(t, session.PageImageGen, a.Session().Page())

	resp = a.Dispatch(ctx, TextEvent{Text: "a red fox"})
	require.Equal(t, "Image generated for: a red fox (placeholder)", resp.Notices[0].Text)

	a.Dispatch(ctx, CommandEvent{Name: "chat"})
	require.Equal(t, session.PageChat, a.Session().Page())
}

func TestChatCommands(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{reply: "ok"})
	ctx := context.Background()
	chats := a.Session().Chats()

	first, err := chats.CurrentID()
	require.NoError(t, err)
	a.Dispatch(ctx, CommandEvent{Name: "rename", Args: "foo"})
	a.Dispatch(ctx, CommandEvent{Name: "new"})
	a.Dispatch(ctx, CommandEvent{Name: "rename", Args: "bar"})

	resp := a.Dispatch(ctx, CommandEvent{Name: "chats"})
	require.Contains(t, resp.Reply, "1. bar")
	require.Contains(t, resp.Reply, "2. foo")

	resp = a.Dispatch(ctx, CommandEvent{Name: "chats", Args: "FOO"})
	require.NotContains(t, resp.Reply, "bar")
	require.Contains(t, resp.Reply, "2. foo")

	a.Dispatch(ctx, CommandEvent{Name: "open", Args: "2"})
	current, err := chats.CurrentID()
	require.NoError(t, err)
	require.Equal(t, first, current)

	resp = a.Dispatch(ctx, CommandEvent{Name: "open", Args: "9"})
	require.Equal(t, LevelWarning, resp.Notices[0].Level)

	resp = a.Dispatch(ctx, CommandEvent{Name: "nope"})
	require.Equal(t, "Unknown command /nope. Try /help.", resp.Notices[0].Text)
}

func TestFindCommand(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{reply: "bananas are yellow"})
	ctx := context.Background()

	a.Submit(ctx, "what color are bananas")
	resp := a.Dispatch(ctx, CommandEvent{Name: "find", Args: "bananas"})
	require.Contains(t, resp.Reply, "bananas are yellow")

	resp = a.Dispatch(ctx, CommandEvent{Name: "history"})
	require.Contains(t, resp.Reply, "You: what color are bananas")
	require.Contains(t, resp.Reply, "Assistant: bananas are yellow")
}

func TestStatus(t *testing.T) {
	model := &fakeLLM{pingErr: errors.New("refused")}
	a := newTestAgent(t, model)

	out := a.Status(context.Background())
	require.Contains(t, out, "Chats: 1")
	require.Contains(t, out, "Name: test-model")
	require.Contains(t, out, "Backend: unreachable (refused)")
	require.Contains(t, out, "Turn: idle")
	require.Contains(t, out, "Exports: disabled")
}

func TestExport(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{reply: "4"})
	ctx := context.Background()

	resp := a.Export(ctx)
	require.Equal(t, "Export storage is not configured.", resp.Notices[0].Text)

	exp := newFakeExporter()
	a.SetExporter(exp)
	a.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	a.Submit(ctx, "What is 2+2?")

	resp = a.Export(ctx)
	require.Equal(t, LevelSuccess, resp.Notices[0].Level)

	id, err := a.Session().Chats().CurrentID()
	require.NoError(t, err)
	name := "chats/" + id + "/20260102-030405.md"
	require.Contains(t, exp.objects, name)
	require.Equal(t, exportContentType, exp.types[name])
	require.Contains(t, string(exp.objects[name]), "## You\n\nWhat is 2+2?")
	require.Contains(t, string(exp.objects[name]), "## Assistant\n\n4")

	resp = a.Dispatch(ctx, CommandEvent{Name: "exports"})
	require.Contains(t, resp.Reply, name)
}

func TestHeartbeatCheck(t *testing.T) {
	model := &fakeLLM{pingErr: errors.New("refused")}
	var notified []string
	hb := NewHeartbeat(model, alerts.New(func(msg string) { notified = append(notified, msg) }, time.Hour))

	require.Error(t, hb.Check(context.Background()))
	require.Len(t, notified, 1)
	require.Contains(t, notified[0], "backend unreachable")

	// cooldown keeps repeated failures quiet
	require.Error(t, hb.Check(context.Background()))
	require.Len(t, notified, 1)

	model.pingErr = nil
	require.NoError(t, hb.Check(context.Background()))
	require.Len(t, notified, 2)
	require.Contains(t, notified[1], "recovered")
}

func TestHeartbeatInvalidSchedule(t *testing.T) {
	hb := NewHeartbeat(&fakeLLM{}, alerts.New(nil, time.Minute))
	require.Error(t, hb.Start(context.Background(), "not a schedule"))
}

func TestTextViewsHideInlineImages(t *testing.T) {
	a := newTestAgent(t, &fakeLLM{reply: "a box diagram"})
	ctx := context.Background()

	a.Dispatch(ctx, UploadEvent{File: extract.File{Name: "diagram.png", MimeType: "image/png", Data: pngBytes(t)}})
	a.Dispatch(ctx, TextEvent{Text: "explain this"})
	require.Contains(t, currentMessages(t, a)[0].Content, "base64,")

	resp := a.Dispatch(ctx, CommandEvent{Name: "history"})
	require.NotContains(t, resp.Reply, "base64,")
	require.Contains(t, resp.Reply, "You: [image] explain this")

	resp = a.Dispatch(ctx, CommandEvent{Name: "find", Args: "explain"})
	require.NotContains(t, resp.Reply, "base64,")
	require.Contains(t, resp.Reply, "[image] explain this")
}
