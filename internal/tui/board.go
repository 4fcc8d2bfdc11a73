package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"levelup/internal/engine"
)

// RunBoard runs the interactive dashboard for session until the user quits.
func RunBoard(ctx context.Context, session *engine.Session, out io.Writer) error {
	m := newBoardModel(ctx, session)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
