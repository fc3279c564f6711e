package console

import "github.com/charmbracelet/lipgloss"

// theme groups reusable styles for console regions.
type theme struct {
	header     lipgloss.Style
	headerMeta lipgloss.Style
	divider    lipgloss.Style
	timestamp  lipgloss.Style
	nick       lipgloss.Style
	self       lipgloss.Style
	membership lipgloss.Style
	system     lipgloss.Style
	command    lipgloss.Style
	failure    lipgloss.Style
	status     lipgloss.Style
	statusBusy lipgloss.Style
	statusErr  lipgloss.Style
	hint       lipgloss.Style
	inputLabel lipgloss.Style
	input      lipgloss.Style
	viewport   lipgloss.Style
}

func defaultTheme() theme {
	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("24")),
		headerMeta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("153")),
		divider: lipgloss.NewStyle().
			Foreground(lipgloss.Color("67")),
		timestamp: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		nick: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")),
		self: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("44")),
		membership: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("109")),
		system: lipgloss.NewStyle().
			Foreground(lipgloss.Color("180")),
		command: lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")),
		failure: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203")),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true),
		statusBusy: lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")).
			Bold(true),
		statusErr: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		inputLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")),
		input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("67")).
			Background(lipgloss.Color("236")).
			Padding(0, 1),
		viewport: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("24")).
			Background(lipgloss.Color("233")).
			Padding(0, 1),
	}
}
