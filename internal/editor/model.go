package editor

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/ui"
)

// Message types for async operations
type saveCompleteMsg struct {
	result *escsettings.VerificationResult
}

type reloadMsg struct {
	store *escsettings.Store
}

type reloadErrorMsg struct {
	err error
}

// row is one editable line. Numeric common settings carry their form
// field; esc is -1 for common settings.
type row struct {
	desc  escsettings.Descriptor
	esc   int
	field *escsettings.FormField
}

func (r row) label() string {
	if r.esc >= 0 {
		return fmt.Sprintf("ESC %d %s", r.esc+1, r.desc.Label)
	}
	return r.desc.Label
}

// Model is the interactive settings editor
type Model struct {
	form *escsettings.Form
	path string
	rows []row

	// UI state
	width  int
	height int
	cursor int

	// editing is set while the number row under the cursor has focus
	editing bool
	input   textinput.Model
	bar     progress.Model

	// Status line
	status      string
	statusIsErr bool
	saving      bool
	lastSaved   time.Time

	// quitArmed is set after q with unsaved changes; a second q quits
	quitArmed   bool
	showingHelp bool

	reloads <-chan *escsettings.Store
	errs    <-chan error

	help help.Model
	keys keyMap
}

// New creates an editor for form. path is where ctrl+s saves.
func New(form *escsettings.Form, path string) Model {
	input := textinput.New()
	input.CharLimit = 16
	input.Width = 12
	input.Prompt = ""

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 30

	width, height := ui.GetTerminalSize()

	m := Model{
		form:   form,
		path:   path,
		width:  width,
		height: height,
		input:  input,
		bar:    bar,
		help:   help.New(),
		keys:   defaultKeyMap(),
	}
	m.rows = buildRows(form)
	return m
}

// WithReloads makes the editor re-sync whenever a store arrives on reloads.
// Load failures from errs are shown in the status line.
func (m Model) WithReloads(reloads <-chan *escsettings.Store, errs <-chan error) Model {
	m.reloads = reloads
	m.errs = errs
	return m
}

func buildRows(form *escsettings.Form) []row {
	store := form.Store()
	layout := store.Layout()

	var rows []row
	for _, d := range layout.Common() {
		r := row{desc: d, esc: -1}
		if ff, ok := form.Field(d.Name); ok {
			r.field = ff
		}
		rows = append(rows, r)
	}
	for i := 0; i < store.Len(); i++ {
		for _, d := range layout.Individual() {
			rows = append(rows, row{desc: d, esc: i})
		}
	}
	return rows
}

// Init starts listening for file reloads
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForReload(m.reloads), waitForReloadError(m.errs))
}

func waitForReload(reloads <-chan *escsettings.Store) tea.Cmd {
	if reloads == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-reloads
		if !ok {
			return nil
		}
		return reloadMsg{store: s}
	}
}

func waitForReloadError(errs <-chan error) tea.Cmd {
	if errs == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-errs
		if !ok {
			return nil
		}
		return reloadErrorMsg{err: err}
	}
}

func saveCmd(path string, store *escsettings.Store) tea.Cmd {
	return func() tea.Msg {
		return saveCompleteMsg{result: escsettings.SaveAndVerify(path, store)}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = ui.ClampWidth(msg.Width)
		m.height = msg.Height
		return m, nil

	case saveCompleteMsg:
		return m.handleSaved(msg), nil

	case reloadMsg:
		return m.handleReload(msg.store), waitForReload(m.reloads)

	case reloadErrorMsg:
		m.setError("Reload failed: " + escsettings.GetShortErrorMessage(msg.err))
		return m, waitForReloadError(m.errs)

	case tea.KeyMsg:
		if m.showingHelp {
			m.showingHelp = false
			return m, nil
		}
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m Model) current() row {
	return m.rows[m.cursor]
}

// updateNormal handles keys while no number field has focus
func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Quit) {
		m.quitArmed = false
	}
	if len(m.rows) == 0 {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	r := m.current()

	switch {
	case key.Matches(msg, m.keys.Quit):
		if msg.String() == "ctrl+c" || !m.form.HasChanges() || m.quitArmed {
			return m, tea.Quit
		}
		m.quitArmed = true
		m.setError("Unsaved changes: press q again to quit, ctrl+s to save")

	case key.Matches(msg, m.keys.Up):
		m.leaveRow()
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		m.leaveRow()
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right):
		step := 1
		if key.Matches(msg, m.keys.Left) {
			step = -1
		}
		m.adjust(r, step)

	case key.Matches(msg, m.keys.Enter):
		switch {
		case r.field != nil && r.field.Number != nil:
			return m.startEditing(r)
		case r.field != nil && r.field.Slider != nil:
			m.release(r)
		case r.desc.Kind == escsettings.KindBool:
			m.toggle(r)
		}

	case key.Matches(msg, m.keys.Toggle):
		if r.desc.Kind == escsettings.KindBool {
			m.toggle(r)
		}

	case key.Matches(msg, m.keys.Cancel):
		if r.field != nil && r.field.Field.Dirty() {
			r.field.Field.Cancel()
			m.form.SyncField(r.desc.Name)
		}

	case key.Matches(msg, m.keys.Undo):
		if snap, err := m.form.Undo(); err != nil {
			m.setError(err.Error())
		} else {
			m.setStatus("Undid " + snap.Description)
		}

	case key.Matches(msg, m.keys.Reset):
		if m.form.HasChanges() {
			m.form.Reset()
			m.setStatus("Reverted to the saved file")
		}

	case key.Matches(msg, m.keys.Save):
		if m.saving {
			return m, nil
		}
		m.leaveRow()
		m.saving = true
		m.setStatus("Saving...")
		return m, saveCmd(m.path, m.form.Store())

	case key.Matches(msg, m.keys.Help):
		m.showingHelp = true
	}

	return m, nil
}

// updateEditing handles keys while a number field has focus
func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	r := m.current()

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		r.field.Field.Cancel()
		m.form.SyncField(r.desc.Name)
		m.editing = false
		m.input.Blur()
		return m, nil

	case "enter", "tab", "up", "down":
		m.commitInput(r)
		switch msg.String() {
		case "up":
			m.cursor = max(0, m.cursor-1)
		case "down", "tab":
			m.cursor = min(len(m.rows)-1, m.cursor+1)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	r.field.Number.SetText(m.input.Value())
	return m, cmd
}

func (m Model) startEditing(r row) (tea.Model, tea.Cmd) {
	m.editing = true
	m.input.SetValue(r.field.Field.Display())
	m.input.CursorEnd()
	return m, m.input.Focus()
}

// commitInput blurs the focused number field, committing its text
func (m *Model) commitInput(r row) {
	r.field.Number.SetText(m.input.Value())
	input := r.field.Field.Display()
	value := r.field.Number.Blur()
	m.editing = false
	m.input.Blur()
	m.reportCommit(r, input, value)
}

// leaveRow releases a slider that was dragged but not committed
func (m *Model) leaveRow() {
	r := m.current()
	if r.field != nil && r.field.Slider != nil && r.field.Field.Dirty() {
		m.release(r)
	}
}

func (m *Model) release(r row) {
	input := r.field.Field.Display()
	value := r.field.Slider.Release()
	m.reportCommit(r, input, value)
}

func (m *Model) reportCommit(r row, input string, value int) {
	display := r.desc.FormatValue(value)
	if input != r.field.Field.Display() {
		m.setStatus(fmt.Sprintf("%s: %s → %s", r.desc.Label, input, display))
		return
	}
	m.setStatus(fmt.Sprintf("%s set to %s", r.desc.Label, display))
}

// adjust handles ←/→: drag sliders, cycle enums, flip bools
func (m *Model) adjust(r row, step int) {
	switch {
	case r.field != nil && r.field.Slider != nil:
		r.field.Slider.Nudge(step)
	case r.desc.Kind == escsettings.KindEnum:
		m.cycle(r, step)
	case r.desc.Kind == escsettings.KindBool:
		m.toggle(r)
	}
}

func (m *Model) valueOf(r row) (int, bool) {
	store := m.form.Store()
	if r.esc >= 0 {
		v, err := store.Individual(r.esc, r.desc.Name)
		return v, err == nil
	}
	v, inSync, err := store.Common(r.desc.Name)
	return v, err == nil && inSync
}

func (m *Model) cycle(r row, step int) {
	opts := r.desc.Options
	if len(opts) == 0 {
		return
	}
	current, _ := m.valueOf(r)
	idx := -1
	for i, o := range opts {
		if o.Value == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = 0
	} else {
		idx = (idx + step + len(opts)) % len(opts)
	}
	m.setChoice(r, opts[idx].Value)
}

func (m *Model) toggle(r row) {
	current, _ := m.valueOf(r)
	next := 1
	if current != 0 {
		next = 0
	}
	m.setChoice(r, next)
}

func (m *Model) setChoice(r row, value int) {
	var err error
	if r.esc >= 0 {
		_, err = m.form.SetIndividual(r.esc, r.desc.Name, value)
	} else {
		err = m.form.SetChoice(r.desc.Name, value)
	}
	if err != nil {
		m.setError(escsettings.GetShortErrorMessage(err))
		return
	}
	m.setStatus(fmt.Sprintf("%s set to %s", r.label(), r.desc.FormatValue(value)))
}

func (m Model) handleSaved(msg saveCompleteMsg) Model {
	m.saving = false
	res := msg.result
	if res == nil || !res.Success {
		text := "Save failed"
		if res != nil && res.Error != nil {
			text += ": " + escsettings.GetShortErrorMessage(res.Error)
		}
		m.setError(text)
		return m
	}

	m.form.MarkSaved()
	m.lastSaved = time.Now()
	m.setStatus(fmt.Sprintf("%s Saved and verified %s (%s)", ui.SuccessMarker, filepath.Base(m.path), res.Duration.Round(time.Millisecond)))
	return m
}

// handleReload re-syncs every field when the file changed on disk.
// The reloaded content becomes the saved baseline.
func (m Model) handleReload(loaded *escsettings.Store) Model {
	store := m.form.Store()
	if !escsettings.Differs(store, loaded) {
		return m
	}
	if err := store.Replace(loaded); err != nil {
		m.setError("Reload ignored: " + escsettings.GetShortErrorMessage(err))
		return m
	}

	m.form.Refresh()
	m.form.MarkSaved()
	m.editing = false
	m.input.Blur()
	m.setStatus("File changed on disk, reloaded")
	return m
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusIsErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusIsErr = true
}

// Form returns the form being edited
func (m Model) Form() *escsettings.Form {
	return m.form
}
