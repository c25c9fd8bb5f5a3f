package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tesseract runs the tesseract CLI, feeding the image on stdin and reading
// the recognized text from stdout.
type Tesseract struct {
	Command string
	Lang    string
}

func NewTesseract(command string) *Tesseract {
	if command == "" {
		command = "tesseract"
	}
	return &Tesseract{Command: command}
}

func (t *Tesseract) Recognize(ctx context.Context, png []byte) (string, error) {
	args := []string{"stdin", "stdout"}
	if t.Lang != "" {
		args = append(args, "-l", t.Lang)
	}

	cmd := exec.CommandContext(ctx, t.Command, args...)
	cmd.Stdin = bytes.NewReader(png)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", t.Command, err, msg)
		}
		return "", fmt.Errorf("%s: %w", t.Command, err)
	}

	return stdout.String(), nil
}
