package extract

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bowerhall/codegene/internal/logger"
)

const UnsupportedMarker = "Unsupported file type"

// Extractor turns uploaded files into plain text. Its methods never fail:
// problems come back as readable text in place of the content.
type Extractor struct {
	ocr OCR
}

func New(ocr OCR) *Extractor {
	return &Extractor{ocr: ocr}
}

// DetectKind classifies a file by its declared MIME type. Files without a
// usable declared type fall back to the extension, then to content sniffing.
func DetectKind(f File) Kind {
	if kind, ok := kindFromMime(f.MimeType); ok {
		return kind
	}

	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".txt", ".text", ".md":
		return KindText
	case ".pdf":
		return KindPDF
	case ".csv":
		return KindCSV
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return KindImage
	}

	if len(f.Data) == 0 {
		return KindUnknown
	}
	kind, _ := kindFromMime(http.DetectContentType(f.Data))
	return kind
}

// kindFromMime reports ok=false when the type is absent or unrecognized
func kindFromMime(declared string) (Kind, bool) {
	if declared == "" {
		return KindUnknown, false
	}

	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(declared))
	}

	switch {
	case mediaType == "application/octet-stream":
		return KindUnknown, false
	case mediaType == "text/plain", mediaType == "text/markdown", mediaType == "text/x-markdown":
		return KindText, true
	case mediaType == "application/pdf":
		return KindPDF, true
	case mediaType == "text/csv", mediaType == "application/csv",
		mediaType == "text/comma-separated-values", mediaType == "text/x-csv":
		return KindCSV, true
	case strings.HasPrefix(mediaType, "image/"):
		return KindImage, true
	default:
		// clients label CSV as application/vnd.ms-excel and the like,
		// so an unrecognized type defers to the extension
		return KindUnknown, false
	}
}

// Text extracts the textual content of f
func (e *Extractor) Text(ctx context.Context, f File) (out string) {
	kind := DetectKind(f)

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("extractor panic", "file", f.Name, "kind", kind.String(), "panic", r)
			out = failure(fmt.Errorf("%v", r))
		}
	}()

	var (
		text string
		err  error
	)

	switch kind {
	case KindText:
		text, err = plainText(f.Data)
	case KindPDF:
		text, err = pdfText(f.Data)
	case KindCSV:
		text, err = csvTable(f.Data)
	case KindImage:
		return e.OCR(ctx, f)
	default:
		return UnsupportedMarker
	}

	if err != nil {
		logger.Debug("extraction failed", "file", f.Name, "kind", kind.String(), "error", err)
		return failure(err)
	}

	return text
}

func failure(err error) string {
	return fmt.Sprintf("File processing error: %v", err)
}

func plainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("invalid UTF-8 in text file")
	}
	return string(data), nil
}
