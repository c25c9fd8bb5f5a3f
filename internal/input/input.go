package input

import (
	"fmt"
	"strings"
)

// PreviewLimit caps how much extracted text a file upload adds to a chat
const PreviewLimit = 1500

const imagePromptTemplate = `%s
The user uploaded an image named '%s'.

Extracted text from the image:
%s

Now answer the user's question based on the image and text:
%s`

const imageTagTemplate = "<img src='data:image/png;base64,%s' style='max-width:200px;border-radius:10px;margin-bottom:8px; display:block;'/>"

// Request is one normalized submission. Payload goes to the model while
// Rendered is what the conversation records and displays.
type Request struct {
	Payload  string
	Rendered string
}

// Image is the part of a pending image attachment that normalization needs
type Image struct {
	Filename string
	OCRText  string
	// PNGBase64 is the attachment re-encoded as base64 PNG
	PNGBase64 string
}

// Normalize merges the submitted text with an optional pending image.
// assistantRole introduces the image prompt, usually the system prompt.
func Normalize(text, assistantRole string, img *Image) Request {
	text = strings.TrimSpace(text)
	if img == nil {
		return Request{Payload: text, Rendered: text}
	}

	return Request{
		Payload:  fmt.Sprintf(imagePromptTemplate, assistantRole, img.Filename, img.OCRText, text),
		Rendered: fmt.Sprintf(imageTagTemplate, img.PNGBase64) + text,
	}
}

// FilePreview builds the chat message recorded for a non-image upload
func FilePreview(filename, content string) string {
	return fmt.Sprintf("📄 Uploaded file: %s\n\n", filename) + Truncate(content, PreviewLimit)
}

// Truncate returns at most limit characters of s
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

// IsImage reports whether a declared MIME type names an image
func IsImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image/")
}
