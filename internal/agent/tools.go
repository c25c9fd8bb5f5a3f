package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/bowerhall/codegene/internal/logger"
	"github.com/bowerhall/codegene/internal/session"
)

const toolsMenu = `🧰 Tools
1. Image Generator
2. Deep Research
Reply with a number or a name.`

// selectTool handles text typed on the tools page
func (a *Agent) selectTool(text string) Response {
	choice := strings.ToLower(strings.TrimSpace(text))

	switch {
	case choice == "1" || strings.Contains(choice, "image"):
		a.session.SetPage(session.PageImageGen)
		return notice(LevelInfo, "🖼️ Image Generator: describe the image you want.")
	case choice == "2" || strings.Contains(choice, "research"):
		a.session.SetPage(session.PageResearch)
		return notice(LevelInfo, "🔎 Deep Research: enter your research query.")
	default:
		return Response{Reply: toolsMenu}
	}
}

// Research answers query with the research prompt. The exchange is shown
// to the user but not recorded in any chat.
func (a *Agent) Research(ctx context.Context, query, model string) Response {
	if strings.TrimSpace(query) == "" {
		return notice(LevelWarning, "⚠️ Please enter a query first.")
	}

	if model == "" {
		model = a.settings.Model()
	}

	answer, err := a.llm.Complete(ctx, a.settings.ResearchPrompt(), query, model)
	if err != nil {
		logger.Error("research call failed", "model", model, "error", err)
		return notice(LevelError, fmt.Sprintf("Error calling the model: %v", err))
	}

	return Response{Reply: answer}
}

// ImageGen has no image backend yet and only acknowledges the prompt
func (a *Agent) ImageGen(prompt string) Response {
	return notice(LevelInfo, fmt.Sprintf("Image generated for: %s (placeholder)", strings.TrimSpace(prompt)))
}
