package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	app "github.com/agroscan/agroscan-bot/internal/application"
)

// analysisDoneMsg arrives when a started analysis finishes, applied or not.
type analysisDoneMsg struct {
	requestID string
	applied   bool
}

// waitForAnalysis blocks on the request off the UI loop.
func waitForAnalysis(ctx context.Context, req *app.Request) tea.Cmd {
	return func() tea.Msg {
		applied, _ := req.Wait(ctx)
		return analysisDoneMsg{requestID: req.ID, applied: applied}
	}
}
