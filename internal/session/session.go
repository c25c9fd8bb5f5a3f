package session

import "github.com/bowerhall/codegene/internal/chat"

// TryEnter moves the gate from idle to busy. It reports false, leaving the
// gate untouched, when a turn is already in flight.
func (g *Gate) TryEnter() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Exit returns the gate to idle. Calling it on an idle gate is a no-op.
func (g *Gate) Exit() {
	g.busy.Store(false)
}

func (g *Gate) Busy() bool {
	return g.busy.Load()
}

// New builds a session around chats, creating the first chat when the store
// is empty. The session starts on the chat page with no pending attachment.
func New(chats *chat.Store) *Session {
	if chats.Len() == 0 {
		chats.CreateChat()
	}
	return &Session{
		chats: chats,
		page:  PageChat,
	}
}

func (s *Session) Chats() *chat.Store {
	return s.chats
}

// TryAcquire attempts to start a turn.
// Returns true if acquired, false if already processing.
func (s *Session) TryAcquire() bool {
	return s.gate.TryEnter()
}

// Release ends the current turn.
func (s *Session) Release() {
	s.gate.Exit()
}

func (s *Session) Processing() bool {
	return s.gate.Busy()
}

func (s *Session) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *Session) SetPage(p Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = p
}

// SetAttachment replaces any pending attachment
func (s *Session) SetAttachment(a Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &a
}

// TakeAttachment returns the pending attachment and clears the slot
func (s *Session) TakeAttachment() *Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.pending
	s.pending = nil
	return a
}

// PendingAttachment returns the filename of the pending attachment, if any
func (s *Session) PendingAttachment() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return "", false
	}
	return s.pending.Filename, true
}

// MarkUpload records name as the last processed upload. It reports false
// when name is the upload already processed, which must then be skipped.
func (s *Session) MarkUpload(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == s.lastUpload {
		return false
	}
	s.lastUpload = name
	return true
}

// ClearUploadMarker lets the same filename be processed again
func (s *Session) ClearUploadMarker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpload = ""
}
