package bot

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bowerhall/codegene/internal/agent"
)

// maxMediaSize is the maximum size for media attachments (20MB).
const maxMediaSize = 20 * 1024 * 1024

var downloadClient = &http.Client{Timeout: 30 * time.Second}

// parseCommand splits "/name args" into its parts. Chat clients append
// "@botname" to commands in groups, which is dropped.
func parseCommand(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || len(text) == 1 {
		return "", "", false
	}

	name, args, _ = strings.Cut(text[1:], " ")
	name, _, _ = strings.Cut(name, "@")
	return name, strings.TrimSpace(args), name != ""
}

// render flattens a response into the messages a chat client sends
func render(resp agent.Response) []string {
	var out []string
	for _, n := range resp.Notices {
		out = append(out, n.Text)
	}
	if resp.Reply != "" {
		out = append(out, resp.Reply)
	}
	return out
}

// chunk splits s into pieces of at most limit runes, preferring line breaks
func chunk(s string, limit int) []string {
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// download fetches a media URL, capped at maxMediaSize
func download(url string) ([]byte, string, error) {
	resp, err := downloadClient.Get(url)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize))
	if err != nil {
		return nil, "", err
	}

	return data, http.DetectContentType(data), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}
