package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/bowerhall/codegene/internal/agent"
	"github.com/bowerhall/codegene/internal/extract"
	"github.com/bowerhall/codegene/internal/input"
	"github.com/bowerhall/codegene/internal/logger"
	"github.com/bowerhall/codegene/internal/speech"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
)

const consolePrompt = "codegene> "

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	replyStyle   = lipgloss.NewStyle()
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// NewConsole returns a terminal front-end. Besides the agent's commands it
// understands /upload <path>, /voice <path> and /quit.
func NewConsole(d Dispatcher) Bot {
	return &console{dispatcher: d, out: os.Stdout}
}

func (c *console) Start(ctx context.Context) error {
	c.line = liner.NewLiner()
	c.line.SetCtrlCAborts(true)
	defer c.line.Close()

	// log lines would tear up the prompt
	logFile := filepath.Join(os.TempDir(), "codegene.log")
	if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
		logger.SetOutput(f)
		defer f.Close()
		defer logger.SetOutput(os.Stderr)
	}

	fmt.Fprintln(c.out, infoStyle.Render("CodeGene AI. Type /help for commands, /quit to leave."))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		text, err := c.line.Prompt(promptStyle.Render(consolePrompt))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return nil
			}
			return err
		}

		if strings.TrimSpace(text) != "" {
			c.line.AppendHistory(text)
		}

		if quit := c.handleLine(ctx, text); quit {
			return nil
		}
	}
}

// handleLine dispatches one line of input and prints the response. It
// reports whether the user asked to leave.
func (c *console) handleLine(ctx context.Context, text string) bool {
	trimmed := strings.TrimSpace(text)

	name, args, isCommand := parseCommand(trimmed)
	if !isCommand {
		// an empty line only sends a pending image
		if trimmed == "" && !c.imagePending {
			return false
		}
		c.imagePending = false
		c.print(c.dispatcher.Dispatch(ctx, agent.TextEvent{Text: text}))
		return false
	}

	switch strings.ToLower(name) {
	case "quit", "exit":
		return true
	case "upload":
		f, err := readLocalFile(args)
		if err != nil {
			c.print(agent.Response{Notices: []agent.Notice{{Level: agent.LevelError, Text: "File processing error: " + err.Error()}}})
			return false
		}
		resp := c.dispatcher.Dispatch(ctx, agent.UploadEvent{File: f})
		if input.IsImage(f.MimeType) && len(resp.Notices) > 0 && resp.Notices[0].Level == agent.LevelInfo {
			c.imagePending = true
		}
		c.print(resp)
	case "voice":
		f, err := readLocalFile(args)
		if err != nil {
			c.print(agent.Response{Notices: []agent.Notice{{Level: agent.LevelError, Text: "Microphone error: " + err.Error()}}})
			return false
		}
		c.print(c.dispatcher.Dispatch(ctx, agent.VoiceEvent{Clip: speech.Clip{Filename: f.Name, Data: f.Data}}))
	default:
		if strings.EqualFold(name, "new") || strings.EqualFold(name, "open") {
			c.imagePending = false
		}
		c.print(c.dispatcher.Dispatch(ctx, agent.CommandEvent{Name: name, Args: args}))
	}

	return false
}

func (c *console) print(resp agent.Response) {
	for _, n := range resp.Notices {
		fmt.Fprintln(c.out, levelStyle(n.Level).Render(n.Text))
	}
	if resp.Reply != "" {
		fmt.Fprintln(c.out, replyStyle.Render(resp.Reply))
	}
}

// Send prints operator alerts inline
func (c *console) Send(chatID int64, message string) error {
	_, err := fmt.Fprintln(c.out, warningStyle.Render(message))
	return err
}

func levelStyle(level agent.Level) lipgloss.Style {
	switch level {
	case agent.LevelSuccess:
		return successStyle
	case agent.LevelWarning:
		return warningStyle
	case agent.LevelError:
		return errorStyle
	default:
		return infoStyle
	}
}

func readLocalFile(path string) (extract.File, error) {
	if path == "" {
		return extract.File{}, fmt.Errorf("no file path given")
	}

	info, err := os.Stat(path)
	if err != nil {
		return extract.File{}, err
	}
	if info.Size() > maxMediaSize {
		return extract.File{}, fmt.Errorf("%s is larger than 20MB", info.Name())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return extract.File{}, err
	}

	return extract.File{
		Name:     filepath.Base(path),
		MimeType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:     data,
	}, nil
}
