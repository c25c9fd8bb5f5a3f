package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bowerhall/codegene/internal/logger"
)

const snippetLength = 120

func NewStore() *Store {
	return &Store{chats: make(map[string]*Chat)}
}

// SetIndex attaches a full-text index. Messages appended afterwards are
// indexed as they arrive.
func (s *Store) SetIndex(idx *Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = idx
}

// CreateChat starts an empty chat and makes it current
func (s *Store) CreateChat() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.chats[id] = &Chat{
		ID:        id,
		Title:     DefaultTitle,
		CreatedAt: time.Now(),
	}
	s.order = append(s.order, id)
	s.current = id

	return id
}

func (s *Store) Current() (Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[s.current]
	if !ok {
		return Chat{}, ErrNoCurrentChat
	}
	return snapshot(c), nil
}

func (s *Store) CurrentID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.chats[s.current]; !ok {
		return "", ErrNoCurrentChat
	}
	return s.current, nil
}

func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[id]; !ok {
		return fmt.Errorf("select %s: %w", id, ErrChatNotFound)
	}
	s.current = id
	return nil
}

func (s *Store) Get(id string) (Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[id]
	if !ok {
		return Chat{}, fmt.Errorf("get %s: %w", id, ErrChatNotFound)
	}
	return snapshot(c), nil
}

func (s *Store) SetTitle(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[id]
	if !ok {
		return fmt.Errorf("rename %s: %w", id, ErrChatNotFound)
	}
	c.Title = title
	return nil
}

// Append adds msg to the end of the chat's log
func (s *Store) Append(id string, msg Message) error {
	s.mu.Lock()
	c, ok := s.chats[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("append to %s: %w", id, ErrChatNotFound)
	}
	c.Messages = append(c.Messages, msg)
	pos := len(c.Messages) - 1
	idx := s.index
	s.mu.Unlock()

	if idx != nil {
		if err := idx.Add(id, pos, msg); err != nil {
			logger.Warn("message index failed", "chat", id, "error", err)
		}
	}

	return nil
}

// Search returns chats whose title contains query, ignoring case, newest
// first. An empty query matches every chat.
func (s *Store) Search(query string) []Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	results := make([]Chat, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		c := s.chats[s.order[i]]
		if needle == "" || strings.Contains(strings.ToLower(c.Title), needle) {
			results = append(results, snapshot(c))
		}
	}

	return results
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// FindMessages runs a full-text search over message contents
func (s *Store) FindMessages(query string, limit int) ([]Hit, error) {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()

	if idx == nil {
		return nil, fmt.Errorf("message search is not enabled")
	}

	refs, err := idx.lookup(query, limit)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0, len(refs))
	for _, ref := range refs {
		c, ok := s.chats[ref.chatID]
		if !ok || ref.pos >= len(c.Messages) {
			continue
		}
		msg := c.Messages[ref.pos]
		hits = append(hits, Hit{
			ChatID:  c.ID,
			Title:   c.Title,
			Role:    msg.Role,
			Snippet: snippet(msg.Content),
		})
	}

	return hits, nil
}

func snapshot(c *Chat) Chat {
	copied := *c
	copied.Messages = make([]Message, len(c.Messages))
	copy(copied.Messages, c.Messages)
	return copied
}

func snippet(content string) string {
	content = strings.Join(strings.Fields(PlainText(content)), " ")
	runes := []rune(content)
	if len(runes) <= snippetLength {
		return content
	}
	return string(runes[:snippetLength]) + "..."
}
