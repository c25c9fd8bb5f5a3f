package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bowerhall/codegene/internal/chat"
	"github.com/bowerhall/codegene/internal/logger"
)

const (
	exportPrefix      = "chats/"
	exportContentType = "text/markdown; charset=utf-8"
)

// RenderMarkdown formats a chat transcript for export
func RenderMarkdown(c chat.Chat, exportedAt time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", c.Title))
	sb.WriteString(fmt.Sprintf("- Chat: `%s`\n", c.ID))
	sb.WriteString(fmt.Sprintf("- Created: %s\n", c.CreatedAt.UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("- Exported: %s\n", exportedAt.UTC().Format(time.RFC3339)))

	for _, m := range c.Messages {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n", speaker(m.Role)))
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	return sb.String()
}

// Export uploads the current chat as Markdown
func (a *Agent) Export(ctx context.Context) Response {
	if a.exporter == nil {
		return notice(LevelWarning, "Export storage is not configured.")
	}

	c, err := a.session.Chats().Current()
	if err != nil {
		return notice(LevelError, err.Error())
	}

	now := a.now()
	name := fmt.Sprintf("%s%s/%s.md", exportPrefix, c.ID, now.UTC().Format("20060102-150405"))
	path, err := a.exporter.Upload(ctx, name, []byte(RenderMarkdown(c, now)), exportContentType)
	if err != nil {
		logger.Error("export failed", "chat", c.ID, "error", err)
		return notice(LevelError, fmt.Sprintf("Export failed: %v", err))
	}

	logger.Info("chat exported", "chat", c.ID, "path", path)
	return notice(LevelSuccess, fmt.Sprintf("Exported '%s' to %s", c.Title, path))
}

func (a *Agent) listExports(ctx context.Context) Response {
	if a.exporter == nil {
		return notice(LevelWarning, "Export storage is not configured.")
	}

	objects, err := a.exporter.List(ctx, exportPrefix)
	if err != nil {
		return notice(LevelError, fmt.Sprintf("Could not list exports: %v", err))
	}
	if len(objects) == 0 {
		return notice(LevelInfo, "No exports yet.")
	}

	var sb strings.Builder
	for _, obj := range objects {
		sb.WriteString(fmt.Sprintf("%s (%s)\n", obj.Name, formatBytes(uint64(obj.Size))))
	}

	return Response{Reply: strings.TrimRight(sb.String(), "\n")}
}
