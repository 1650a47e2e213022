package editor

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/escconf/internal/ui"
	"github.com/muurk/escconf/internal/version"
)

// AppName is shown in the editor header
const AppName = "ESC CONFIGURATOR"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Width(26).
			Foreground(ui.MutedColor)

	selectedLabelStyle = labelStyle.
				Foreground(ui.SuccessColor).
				Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor)

	selectedValueStyle = lipgloss.NewStyle().
				Foreground(ui.SuccessColor).
				Bold(true)

	outOfSyncStyle = lipgloss.NewStyle().
			Foreground(ui.WarningColor)

	pendingStyle = lipgloss.NewStyle().
			Foreground(ui.WarningColor).
			Italic(true)

	statusOKStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(ui.ErrorColor).
				Bold(true)

	modifiedStyle = lipgloss.NewStyle().
			Foreground(ui.WarningColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)
)

// renderContainer wraps a screen with the application header and a footer
// holding the help text
func renderContainer(content, footer string, width, height int) string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Foreground(ui.TextColor).Bold(true).Render(AppName+" "+version.Version),
	)

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(ui.PrimaryColor).
		Width(width-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(ui.PrimaryColor).
		Width(width-4).
		Padding(0, 1)

	inner := lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(header),
		lipgloss.NewStyle().Width(width-4).Padding(0, 1).Render(content),
		footerStyle.Render(mutedStyle.Render(footer)),
	)

	border := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(ui.PrimaryColor).
		Width(width - 2)
	if height > 2 {
		border = border.Height(height - 2).AlignVertical(lipgloss.Top)
	}

	return border.Render(inner)
}

// renderModal centers content over the whole terminal
func renderModal(content string, width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.PrimaryColor).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}
