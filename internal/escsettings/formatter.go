package escsettings

import (
	"fmt"
	"strings"
)

// SettingView is the presentation of one setting, used for JSON output and the edit server
type SettingView struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Kind    string   `json:"kind"`
	Value   int      `json:"value"`
	Display string   `json:"display"`
	InSync  bool     `json:"inSync"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Unit    string   `json:"unit,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// ESCView is the per-ESC part of a View
type ESCView struct {
	Index      int           `json:"index"`
	Name       string        `json:"name,omitempty"`
	Firmware   string        `json:"firmware,omitempty"`
	Version    string        `json:"version,omitempty"`
	Individual []SettingView `json:"individual"`
}

// View is the presentation of a whole store
type View struct {
	Layout string        `json:"layout"`
	Common []SettingView `json:"common"`
	ESCs   []ESCView     `json:"escs"`
}

func settingView(d Descriptor, value int, inSync bool) SettingView {
	v := SettingView{
		Name:    d.Name,
		Label:   d.Label,
		Kind:    d.Kind.String(),
		Value:   value,
		Display: d.FormatValue(value),
		InSync:  inSync,
		Unit:    d.Unit,
		Options: d.Options,
	}
	if d.Kind.Numeric() {
		v.Min, v.Max, v.Step = d.Min, d.Max, d.Step
	}
	return v
}

// BuildView collects the presentation of every setting in the store
func BuildView(s *Store) View {
	layout := s.Layout()
	view := View{Layout: layout.Name}

	for _, d := range layout.Common() {
		value, inSync, err := s.Common(d.Name)
		if err != nil {
			continue
		}
		view.Common = append(view.Common, settingView(d, value, inSync))
	}

	for i, e := range s.Snapshot() {
		ev := ESCView{Index: e.Index, Name: e.Name, Firmware: e.Firmware, Version: e.Version}
		for _, d := range layout.Individual() {
			value, err := s.Individual(i, d.Name)
			if err != nil {
				continue
			}
			ev.Individual = append(ev.Individual, settingView(d, value, true))
		}
		view.ESCs = append(view.ESCs, ev)
	}
	return view
}

func escTitle(e ESCView) string {
	title := fmt.Sprintf("ESC %d", e.Index+1)
	if e.Name != "" {
		title += " (" + e.Name + ")"
	}
	if e.Firmware != "" {
		title += " " + e.Firmware
		if e.Version != "" {
			title += " " + e.Version
		}
	}
	return title
}

// FormatCompact returns a compact multi-line format suitable for terminal display
func FormatCompact(s *Store) string {
	return FormatViewCompact(BuildView(s))
}

// FormatViewCompact formats a View the way FormatCompact formats a store.
// Used for views fetched from an edit server.
func FormatViewCompact(view View) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Layout: %s (%d ESCs)\n", view.Layout, len(view.ESCs)))
	for _, sv := range view.Common {
		marker := ""
		if !sv.InSync {
			marker = " *"
		}
		b.WriteString(fmt.Sprintf("%s=%s%s\n", sv.Name, sv.Display, marker))
	}
	for _, e := range view.ESCs {
		parts := make([]string, len(e.Individual))
		for i, sv := range e.Individual {
			parts[i] = sv.Name + "=" + sv.Display
		}
		b.WriteString(fmt.Sprintf("ESC %d: %s\n", e.Index+1, strings.Join(parts, " ")))
	}
	return b.String()
}

// FormatDetailed returns a comprehensive formatted string with every setting
func FormatDetailed(s *Store) string {
	view := BuildView(s)
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("╔════════════════════════════════════════════════════════════════╗\n")
	b.WriteString("║                      ESC CONFIGURATION                         ║\n")
	b.WriteString("╚════════════════════════════════════════════════════════════════╝\n")
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Layout: %s\n", view.Layout))
	b.WriteString(fmt.Sprintf("ESCs:   %d\n", len(view.ESCs)))
	b.WriteString("\n")

	b.WriteString("=== Common Settings ===\n")
	width := 0
	for _, sv := range view.Common {
		width = max(width, len(sv.Label)+1)
	}
	outOfSync := 0
	for _, sv := range view.Common {
		line := fmt.Sprintf("%-*s  %s", width, sv.Label+":", sv.Display)
		if !sv.InSync {
			line += "  (ESCs disagree)"
			outOfSync++
		}
		b.WriteString(line + "\n")
	}
	if outOfSync > 0 {
		b.WriteString(fmt.Sprintf("\n%d setting(s) differ between ESCs; the first ESC's value is shown.\n", outOfSync))
	}

	for _, e := range view.ESCs {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("=== %s ===\n", escTitle(e)))
		if len(e.Individual) == 0 {
			b.WriteString("(no individual settings)\n")
		}
		for _, sv := range e.Individual {
			b.WriteString(fmt.Sprintf("%s: %s\n", sv.Label, sv.Display))
		}
	}

	return b.String()
}

// FormatDiff returns a formatted diff between two stores of the same layout
func FormatDiff(old, new *Store) string {
	var b strings.Builder

	b.WriteString("=== Settings Differences ===\n")

	layout := old.Layout()
	oldESCs, newESCs := old.Snapshot(), new.Snapshot()
	hasChanges := false

	for i := 0; i < min(len(oldESCs), len(newESCs)); i++ {
		for _, d := range layout.Descriptors {
			ov, ook := oldESCs[i].Settings[d.Name]
			nv, nok := newESCs[i].Settings[d.Name]
			if ook == nok && ov == nv {
				continue
			}
			from, to := "(unset)", "(unset)"
			if ook {
				from = d.FormatValue(ov)
			}
			if nok {
				to = d.FormatValue(nv)
			}
			b.WriteString(fmt.Sprintf("  ESC %d %s: %s → %s\n", oldESCs[i].Index+1, d.Label, from, to))
			hasChanges = true
		}
	}
	if len(oldESCs) != len(newESCs) {
		b.WriteString(fmt.Sprintf("  ESC count: %d → %d\n", len(oldESCs), len(newESCs)))
		hasChanges = true
	}

	if !hasChanges {
		b.WriteString("\n(no differences detected)\n")
	}

	return b.String()
}
