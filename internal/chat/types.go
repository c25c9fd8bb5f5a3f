package chat

import (
	"errors"
	"sync"
	"time"
)

const DefaultTitle = "New Chat"

var (
	// ErrNoCurrentChat means the store was used before any chat existed
	ErrNoCurrentChat = errors.New("no current chat")
	ErrChatNotFound  = errors.New("chat not found")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

type Chat struct {
	ID        string
	Title     string
	CreatedAt time.Time
	Messages  []Message
}

type Store struct {
	mu      sync.RWMutex
	chats   map[string]*Chat
	order   []string
	current string
	index   *Index
}

// Hit is one message matched by a full-text search
type Hit struct {
	ChatID  string
	Title   string
	Role    Role
	Snippet string
}
