package llm

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/bowerhall/codegene/internal/logger"
)

// responseShape tags what a backend reply looks like
type responseShape int

const (
	// shapeStructured has an object "message" carrying a "content" member
	shapeStructured responseShape = iota
	// shapeMapping is any other JSON object
	shapeMapping
	// shapeOpaque is everything else, including non-JSON bodies
	shapeOpaque
)

func (s responseShape) String() string {
	switch s {
	case shapeStructured:
		return "structured"
	case shapeMapping:
		return "mapping"
	default:
		return "opaque"
	}
}

func classify(raw []byte) (gjson.Result, responseShape) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, shapeOpaque
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return doc, shapeOpaque
	}

	msg := doc.Get("message")
	if msg.IsObject() && msg.Get("content").Exists() {
		return doc, shapeStructured
	}

	return doc, shapeMapping
}

// ExtractContent pulls the assistant text out of a reply body, whatever
// its shape. It never panics; anything unrecognized comes back as the body
// itself.
func ExtractContent(raw []byte) (content string) {
	defer func() {
		if r := recover(); r != nil {
			content = opaque(raw)
		}
	}()

	doc, shape := classify(raw)
	logger.Debug("model reply shape", "shape", shape.String(), "bytes", len(raw))

	var (
		text string
		ok   bool
	)
	switch shape {
	case shapeStructured:
		text, ok = structuredMessage(doc)
	case shapeMapping:
		text, ok = genericMapping(doc)
	}
	if ok {
		return text
	}

	return opaque(raw)
}

func structuredMessage(doc gjson.Result) (string, bool) {
	msg := doc.Get("message")
	if !msg.IsObject() {
		return "", false
	}

	content := msg.Get("content")
	if !content.Exists() {
		return "", false
	}
	if content.Type == gjson.Null {
		return "", true
	}

	return content.String(), true
}

func genericMapping(doc gjson.Result) (string, bool) {
	if !doc.IsObject() {
		return "", false
	}

	msg := doc.Get("message")
	switch {
	case !msg.Exists():
		return "", true
	case msg.IsObject():
		return msg.Get("content").String(), true
	default:
		// a scalar or null message has no content to dig out
		return "", false
	}
}

func opaque(raw []byte) string {
	return strings.TrimSpace(string(raw))
}
