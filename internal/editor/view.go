package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/ui"
)

// View renders the editor
func (m Model) View() string {
	if m.showingHelp {
		m.help.ShowAll = true
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Keys"),
			"",
			m.help.View(m.keys),
			"",
			mutedStyle.Render("Out-of-sync settings ("+ui.OutOfSyncMarker+") differ between ESCs."),
			mutedStyle.Render("Committing one writes the value to every ESC."),
			"",
			mutedStyle.Render("Press any key to close"),
		)
		return renderModal(content, m.width, m.height)
	}

	return renderContainer(m.renderContent(), m.help.View(m.keys), m.width, m.height)
}

func (m Model) renderContent() string {
	store := m.form.Store()

	info := fmt.Sprintf("File: %s • %s • %d ESCs", m.path, store.Layout().Name, store.Len())
	parts := []string{valueStyle.Render(info)}

	switch {
	case m.status != "" && m.statusIsErr:
		parts = append(parts, statusErrorStyle.Render(ui.FailureMarker+" "+m.status))
	case m.status != "":
		parts = append(parts, statusOKStyle.Render(m.status))
	case m.form.HasChanges():
		parts = append(parts, modifiedStyle.Render(ui.WarningMarker+" MODIFIED"))
	default:
		parts = append(parts, "")
	}
	if m.status != "" && m.form.HasChanges() {
		parts = append(parts, modifiedStyle.Render(ui.WarningMarker+" MODIFIED"))
	}

	parts = append(parts, ui.RenderHorizontalDivider(max(10, m.width-8), "─"), "")

	changed := map[string]bool{}
	for _, name := range m.form.Changed() {
		changed[name] = true
	}

	parts = append(parts, titleStyle.Render("Common Settings"))
	lastESC := -1
	for i, r := range m.rows {
		if r.esc >= 0 && r.esc != lastESC {
			lastESC = r.esc
			parts = append(parts, "", titleStyle.Render(m.escTitle(r.esc)))
		}
		parts = append(parts, m.renderRow(i, r, changed[r.desc.Name]))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) escTitle(index int) string {
	escs := m.form.Store().Snapshot()
	title := fmt.Sprintf("ESC %d", index+1)
	if index < len(escs) {
		e := escs[index]
		if e.Name != "" {
			title += " " + e.Name
		}
		if e.Firmware != "" {
			title += fmt.Sprintf(" (%s %s)", e.Firmware, e.Version)
		}
	}
	return title
}

// renderRow renders one setting line:
//
//	→ Beep Strength             [███████░░░░░░░]  40
func (m Model) renderRow(i int, r row, changed bool) string {
	selected := i == m.cursor

	arrow := "  "
	lStyle, vStyle := labelStyle, valueStyle
	if selected {
		arrow = "→ "
		lStyle, vStyle = selectedLabelStyle, selectedValueStyle
	}

	label := r.desc.Label
	if r.esc >= 0 {
		label = "  " + label
	}

	value, inSync := m.valueOf(r)
	var cell string
	switch {
	case r.field != nil && r.field.Number != nil:
		cell = m.renderNumber(r, selected, vStyle)
	case r.field != nil && r.field.Slider != nil:
		cell = m.renderSlider(r, vStyle)
	case !inSync && r.esc < 0:
		cell = outOfSyncStyle.Render("(ESCs disagree)")
	default:
		cell = vStyle.Render(r.desc.FormatValue(value))
		if r.desc.Kind == escsettings.KindEnum && selected {
			cell = mutedStyle.Render("◀ ") + cell + mutedStyle.Render(" ▶")
		}
	}

	var markers []string
	if r.esc < 0 && !inSync {
		markers = append(markers, outOfSyncStyle.Render(ui.OutOfSyncMarker))
	}
	if changed {
		markers = append(markers, modifiedStyle.Render(ui.ChangedMarker))
	}
	if r.field != nil && r.field.Field.Dirty() && !(selected && m.editing) {
		markers = append(markers, pendingStyle.Render("pending"))
	}

	line := lipgloss.JoinHorizontal(lipgloss.Left, arrow, lStyle.Render(label), cell)
	if len(markers) > 0 {
		line += " " + strings.Join(markers, " ")
	}
	return line
}

func (m Model) renderNumber(r row, selected bool, style lipgloss.Style) string {
	if selected && m.editing {
		return "[" + m.input.View() + "]"
	}
	text := r.field.Field.Display()
	if r.desc.Unit != "" {
		text += " " + r.desc.Unit
	}
	if !r.field.Field.InSync() && !r.field.Field.Dirty() {
		return outOfSyncStyle.Render(text)
	}
	return style.Render(text)
}

func (m Model) renderSlider(r row, style lipgloss.Style) string {
	text := r.field.Field.Display()
	if r.desc.Unit != "" {
		text += " " + r.desc.Unit
	}
	if !r.field.Field.InSync() && !r.field.Field.Dirty() {
		style = outOfSyncStyle
	}
	return m.bar.ViewAs(r.field.Slider.Position()) + "  " + style.Render(text)
}
