package extract

import "context"

// File is an uploaded file as received from a front-end
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindPDF
	KindCSV
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPDF:
		return "pdf"
	case KindCSV:
		return "csv"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// OCR recognizes text in an encoded PNG image
type OCR interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}
