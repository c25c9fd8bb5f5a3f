package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/bowerhall/codegene/internal/logger"
)

// OCR runs text recognition on an image upload. The image is flattened to
// RGB before it reaches the engine.
func (e *Extractor) OCR(ctx context.Context, f File) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = ocrFailure(fmt.Errorf("%v", r))
		}
	}()

	if e.ocr == nil {
		return ocrFailure(fmt.Errorf("no OCR engine configured"))
	}

	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return ocrFailure(fmt.Errorf("decode image: %w", err))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, toRGB(img)); err != nil {
		return ocrFailure(fmt.Errorf("encode image: %w", err))
	}

	text, err := e.ocr.Recognize(ctx, buf.Bytes())
	if err != nil {
		logger.Warn("ocr failed", "file", f.Name, "error", err)
		return ocrFailure(err)
	}

	return strings.TrimSpace(text)
}

func ocrFailure(err error) string {
	return fmt.Sprintf("OCR failed: %v", err)
}

// toRGB drops the alpha channel without compositing
func toRGB(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}

// EncodePNGBase64 re-encodes any supported raster image as an RGB PNG and
// returns it base64 encoded.
func EncodePNGBase64(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, toRGB(img)); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
