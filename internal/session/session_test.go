package session

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bowerhall/codegene/internal/chat"
)

func TestGateTryEnterAndExit(t *testing.T) {
	var g Gate

	if g.Busy() {
		t.Fatal("new gate should be idle")
	}

	// first enter should succeed
	if !g.TryEnter() {
		t.Error("first TryEnter should succeed")
	}

	// second enter should fail (already processing)
	if g.TryEnter() {
		t.Error("second TryEnter should fail")
	}
	if !g.Busy() {
		t.Error("gate should stay busy after a rejected enter")
	}

	g.Exit()

	if !g.TryEnter() {
		t.Error("TryEnter after Exit should succeed")
	}
	g.Exit()
}

func TestGateExitWhenIdle(t *testing.T) {
	var g Gate

	g.Exit()
	g.Exit()

	if g.Busy() {
		t.Error("exit on idle gate should leave it idle")
	}
}

func TestGateConcurrentEnter(t *testing.T) {
	var g Gate
	var wg sync.WaitGroup
	var admitted atomic.Int32

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryEnter() {
				admitted.Add(1)
			}
		}()
	}

	wg.Wait()

	if admitted.Load() != 1 {
		t.Errorf("expected exactly 1 admitted turn, got %d", admitted.Load())
	}
}

func TestNewSessionDefaults(t *testing.T) {
	s := New(chat.NewStore())

	if s.Chats().Len() != 1 {
		t.Fatalf("expected 1 initial chat, got %d", s.Chats().Len())
	}
	if _, err := s.Chats().Current(); err != nil {
		t.Errorf("expected a current chat: %v", err)
	}
	if s.Page() != PageChat {
		t.Errorf("expected chat page, got %s", s.Page())
	}
	if _, ok := s.PendingAttachment(); ok {
		t.Error("expected no pending attachment")
	}
	if s.Processing() {
		t.Error("expected idle gate")
	}
}

func TestNewSessionKeepsExistingChats(t *testing.T) {
	store := chat.NewStore()
	id := store.CreateChat()

	s := New(store)

	if s.Chats().Len() != 1 {
		t.Errorf("expected 1 chat, got %d", s.Chats().Len())
	}
	if current, _ := s.Chats().CurrentID(); current != id {
		t.Errorf("expected current %s, got %s", id, current)
	}
}

func TestSessionTryAcquireAndRelease(t *testing.T) {
	s := New(chat.NewStore())

	if !s.TryAcquire() {
		t.Error("first TryAcquire should succeed")
	}
	if s.TryAcquire() {
		t.Error("second TryAcquire should fail")
	}

	s.Release()

	if !s.TryAcquire() {
		t.Error("TryAcquire after Release should succeed")
	}
	s.Release()
}

func TestAttachmentTakeClears(t *testing.T) {
	s := New(chat.NewStore())

	s.SetAttachment(Attachment{Filename: "a.png", MimeType: "image/png", Data: []byte("a")})
	s.SetAttachment(Attachment{Filename: "b.png", MimeType: "image/png", Data: []byte("b")})

	name, ok := s.PendingAttachment()
	if !ok || name != "b.png" {
		t.Errorf("expected newest attachment b.png, got %q", name)
	}

	a := s.TakeAttachment()
	if a == nil || a.Filename != "b.png" {
		t.Fatalf("unexpected attachment: %+v", a)
	}

	if again := s.TakeAttachment(); again != nil {
		t.Errorf("attachment should be single use, got %+v", again)
	}
}

func TestMarkUploadDeduplicates(t *testing.T) {
	s := New(chat.NewStore())

	if !s.MarkUpload("report.pdf") {
		t.Error("first upload should be processed")
	}
	if s.MarkUpload("report.pdf") {
		t.Error("same filename should be skipped")
	}
	if !s.MarkUpload("other.pdf") {
		t.Error("new filename should be processed")
	}

	s.ClearUploadMarker()

	if !s.MarkUpload("other.pdf") {
		t.Error("filename should be processed again after clearing the marker")
	}
}

func TestSetPage(t *testing.T) {
	s := New(chat.NewStore())

	s.SetPage(PageResearch)
	if s.Page() != PageResearch {
		t.Errorf("expected research page, got %s", s.Page())
	}
}
