package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled CLI output. Commands print results through it so
// tests can capture the output.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// SetWidth overrides the terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = ClampWidth(width)
	return p
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Printf writes formatted content
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(RenderSuccessBox(title, details, p.width))
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details map[string]string) {
	p.Println(RenderWarningBox(title, details, p.width))
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(RenderErrorBox(title, err, troubleshooting, p.width))
}

// sortedKeys keeps detail rows in a stable order
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderHeader renders a command header box
func RenderHeader(title, command string, params map[string]string, width int) string {
	titleLine := HeaderTitleStyle.Render(strings.ToUpper(title))
	commandLine := HeaderCommandStyle.Render(command)
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(params) > 0 {
		var paramLines []string
		for _, key := range sortedKeys(params) {
			keyStyled := HeaderParamKeyStyle.Render(key + ":")
			paramLines = append(paramLines, keyStyled+" "+HeaderParamValueStyle.Render(params[key]))
		}
		divider := RenderHorizontalDivider(max(10, width-6), "─")
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, strings.Join(paramLines, "\n"))
	}

	return HeaderBorderStyle(width).Render(content)
}

func renderDetails(lines []string, details map[string]string) []string {
	for _, key := range sortedKeys(details) {
		keyStyled := ResultKeyStyle.Render("   " + key + ":")
		lines = append(lines, keyStyled+" "+ResultValueStyle.Render(details[key]))
	}
	return lines
}

// RenderSuccessBox renders a success result box
func RenderSuccessBox(title string, details map[string]string, width int) string {
	lines := []string{
		"",
		SuccessTitleStyle.Render("   " + SuccessMarker + "  SUCCESS  ─  " + title),
		"",
	}
	if len(details) > 0 {
		lines = append(renderDetails(lines, details), "")
	}
	return SuccessBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderWarningBox renders a warning result box
func RenderWarningBox(title string, details map[string]string, width int) string {
	lines := []string{
		"",
		WarningTitleStyle.Render("   " + WarningMarker + "  WARNING  ─  " + title),
		"",
	}
	if len(details) > 0 {
		lines = append(renderDetails(lines, details), "")
	}
	return WarningBoxStyle(width).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders an error result box with troubleshooting
func RenderErrorBox(title string, err error, troubleshooting []string, width int) string {
	lines := []string{
		"",
		ErrorTitleStyle.Render("   " + FailureMarker + "  FAILED  ─  " + title),
		"",
	}

	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+err.Error()), "")
	}

	if len(troubleshooting) > 0 {
		tips := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
		for _, tip := range troubleshooting {
			tips = append(tips, TroubleshootingItemStyle.Render("  • "+tip))
		}
		lines = append(lines, TroubleshootingBoxStyle(width).Render(strings.Join(tips, "\n")), "")
	}

	return ErrorBoxStyle(width).Render(strings.Join(lines, "\n"))
}
