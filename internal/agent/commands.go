package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bowerhall/codegene/internal/chat"
	"github.com/bowerhall/codegene/internal/logger"
	"github.com/bowerhall/codegene/internal/session"
)

const helpText = `Commands:
/new - start a new chat
/chats [query] - list chats, optionally filtered by title
/open <n> - open a chat from /chats
/rename <title> - rename the current chat
/history - show the current chat
/find <words> - search all messages
/tools - pick a tool
/imagegen [prompt] - image generator
/research [query] - deep research
/chat - back to chatting
/status - session and host status
/export - export the current chat
/exports - list exported chats`

func (a *Agent) handleCommand(ctx context.Context, name, args string) Response {
	args = strings.TrimSpace(args)
	logger.Debug("command", "name", name)

	switch strings.ToLower(name) {
	case "start", "help":
		return Response{Reply: helpText}
	case "new":
		return a.newChat()
	case "chats":
		return a.listChats(args)
	case "open":
		return a.openChat(args)
	case "rename":
		return a.renameChat(args)
	case "history":
		return a.history()
	case "find":
		return a.findMessages(args)
	case "tools":
		a.session.SetPage(session.PageTools)
		return Response{Reply: toolsMenu}
	case "imagegen":
		a.session.SetPage(session.PageImageGen)
		if args == "" {
			return notice(LevelInfo, "🖼️ Image Generator: describe the image you want.")
		}
		return a.ImageGen(args)
	case "research":
		a.session.SetPage(session.PageResearch)
		if args == "" {
			return notice(LevelInfo, "🔎 Deep Research: enter your research query.")
		}
		return a.Research(ctx, args, "")
	case "chat":
		a.session.SetPage(session.PageChat)
		return notice(LevelInfo, "💬 Back to chat.")
	case "status":
		return Response{Reply: a.Status(ctx)}
	case "export":
		return a.Export(ctx)
	case "exports":
		return a.listExports(ctx)
	default:
		return notice(LevelWarning, fmt.Sprintf("Unknown command /%s. Try /help.", name))
	}
}

func (a *Agent) newChat() Response {
	a.session.Chats().CreateChat()
	a.session.SetPage(session.PageChat)
	a.session.ClearUploadMarker()
	return Response{
		Notices: []Notice{{Level: LevelSuccess, Text: "Started a new chat."}},
		Refresh: true,
	}
}

func (a *Agent) listChats(query string) Response {
	chats := a.session.Chats()
	all := chats.Search("")
	matches := chats.Search(query)
	if len(matches) == 0 {
		return notice(LevelInfo, "No chats match that search.")
	}

	// numbers always refer to the unfiltered list so /open works after a search
	position := make(map[string]int, len(all))
	for i, c := range all {
		position[c.ID] = i + 1
	}

	current, _ := chats.CurrentID()

	var b strings.Builder
	b.WriteString("Recents:\n")
	for _, c := range matches {
		marker := " "
		if c.ID == current {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %d. %s (%d messages)\n", marker, position[c.ID], c.Title, len(c.Messages))
	}

	return Response{Reply: strings.TrimRight(b.String(), "\n")}
}

func (a *Agent) openChat(arg string) Response {
	if arg == "" {
		return notice(LevelWarning, "Usage: /open <n>")
	}

	chats := a.session.Chats()
	id := arg
	if n, err := strconv.Atoi(arg); err == nil {
		all := chats.Search("")
		if n < 1 || n > len(all) {
			return notice(LevelWarning, fmt.Sprintf("No chat number %d.", n))
		}
		id = all[n-1].ID
	}

	if err := chats.Select(id); err != nil {
		return notice(LevelWarning, fmt.Sprintf("No chat %q.", arg))
	}
	a.session.SetPage(session.PageChat)
	a.session.ClearUploadMarker()

	c, _ := chats.Get(id)
	return Response{
		Notices: []Notice{{Level: LevelInfo, Text: fmt.Sprintf("Opened '%s'.", c.Title)}},
		Refresh: true,
	}
}

func (a *Agent) renameChat(title string) Response {
	if title == "" {
		return notice(LevelWarning, "Usage: /rename <title>")
	}

	id, err := a.session.Chats().CurrentID()
	if err != nil {
		return notice(LevelError, err.Error())
	}
	if err := a.session.Chats().SetTitle(id, title); err != nil {
		return notice(LevelError, err.Error())
	}

	return notice(LevelSuccess, fmt.Sprintf("Renamed to '%s'.", title))
}

func (a *Agent) history() Response {
	c, err := a.session.Chats().Current()
	if err != nil {
		return notice(LevelError, err.Error())
	}
	if len(c.Messages) == 0 {
		return notice(LevelInfo, "This chat is empty.")
	}

	var b strings.Builder
	for i, m := range c.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s: %s", speaker(m.Role), chat.PlainText(m.Content))
	}

	return Response{Reply: b.String()}
}

func (a *Agent) findMessages(query string) Response {
	if query == "" {
		return notice(LevelWarning, "Usage: /find <words>")
	}

	hits, err := a.session.Chats().FindMessages(query, 10)
	if err != nil {
		return notice(LevelError, err.Error())
	}
	if len(hits) == 0 {
		return notice(LevelInfo, "No messages found.")
	}

	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "[%s] %s: %s\n", h.Title, speaker(h.Role), h.Snippet)
	}

	return Response{Reply: strings.TrimRight(b.String(), "\n")}
}

func speaker(role chat.Role) string {
	if role == chat.RoleAssistant {
		return "Assistant"
	}
	return "You"
}
