package session

import (
	"sync"
	"sync/atomic"

	"github.com/bowerhall/codegene/internal/chat"
)

// Page is the view that plain text input is routed to
type Page string

const (
	PageChat     Page = "chat"
	PageTools    Page = "tools"
	PageImageGen Page = "imagegen"
	PageResearch Page = "research"
)

// Attachment is an uploaded image waiting for the next submitted turn
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// Gate admits at most one turn at a time. It is idle when created.
type Gate struct {
	busy atomic.Bool
}

// Session is the complete state of one conversation front-end. The zero
// value is not usable; call New.
type Session struct {
	mu         sync.Mutex
	chats      *chat.Store
	gate       Gate
	page       Page
	pending    *Attachment
	lastUpload string
}
