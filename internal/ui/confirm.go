package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm shows a warning box listing what is about to happen and asks
// for a yes/no answer on in. Anything but "y" or "yes" declines.
func Confirm(in io.Reader, out io.Writer, title string, items []string, question string) bool {
	width := GetTerminalWidth()

	lines := []string{
		"",
		WarningTitleStyle.Render(fmt.Sprintf("   %s  %s", WarningMarker, title)),
		"",
	}
	itemStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, item := range items {
		lines = append(lines, itemStyle.Render("   • "+item))
	}
	lines = append(lines, "")

	_, _ = fmt.Fprintln(out, WarningBoxStyle(width).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(question+" [y/N]: "))

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		_, _ = fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		cancelStyle := lipgloss.NewStyle().Foreground(MutedColor)
		_, _ = fmt.Fprintln(out, cancelStyle.Render("  Operation cancelled."))
		return false
	}
}
