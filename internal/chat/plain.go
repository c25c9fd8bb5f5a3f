package chat

import (
	"regexp"
	"strings"
)

// ImagePlaceholder stands in for an embedded image in text-only views
const ImagePlaceholder = "[image]"

var inlineImage = regexp.MustCompile(`<img\s[^>]*src=['"]data:[^'"]*['"][^>]*>`)

// PlainText returns content with inline data-URI images replaced by
// ImagePlaceholder. Stored messages keep their rendered form.
func PlainText(content string) string {
	if !strings.Contains(content, "data:") {
		return content
	}
	return strings.TrimSpace(inlineImage.ReplaceAllString(content, ImagePlaceholder+" "))
}
