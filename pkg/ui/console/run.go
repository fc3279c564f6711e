// Package console is the interactive operator view over a running session.
package console

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ircbot/pkg/bus"
)

// SendFunc delivers one operator line to the channel.
type SendFunc func(ctx context.Context, text string) error

// Info is the static header content.
type Info struct {
	Server   string
	Channel  string
	Nickname string
}

// Run shows session events until the operator quits or ctx ends.
func Run(ctx context.Context, events <-chan bus.Event, send SendFunc, info Info) error {
	program := tea.NewProgram(newModel(ctx, events, send, info), tea.WithContext(ctx), tea.WithMouseCellMotion())
	_, err := program.Run()
	if err != nil && ctx.Err() == nil {
		return err
	}

	fmt.Println(renderGoodbyeBanner(info))
	return nil
}

func renderGoodbyeBanner(info Info) string {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("24")).
		Padding(1, 2)

	return style.Render(fmt.Sprintf("Left %s as %s", info.Channel, info.Nickname))
}
