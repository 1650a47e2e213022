package escsettings

import (
	"fmt"
	"sort"

	"github.com/muurk/escconf/internal/numfield"
)

// FormOptions configures a Form
type FormOptions struct {
	// NumberSentinel and SliderSentinel override what out-of-sync fields display
	NumberSentinel numfield.Sentinel
	SliderSentinel numfield.Sentinel

	// OnCommit is called after every committed value with the text that was committed
	OnCommit func(name, input string, value int)

	// HistorySize bounds the undo stack (10 when zero)
	HistorySize int
}

// FormField is one numeric common setting of a Form.
// Exactly one of Number and Slider is set, both share Field.
type FormField struct {
	Desc   Descriptor
	Field  *numfield.Field
	Number *numfield.Number
	Slider *numfield.Slider
}

// Applied reports the outcome of a committed value
type Applied struct {
	Name    string `json:"name"`
	Input   string `json:"input"`
	Value   int    `json:"value"`
	Display string `json:"display"`
}

// Form is the pending edit set of a Store. It owns one numfield.Field per
// numeric common setting and writes commits through to the store.
// A Form is driven by a single goroutine; the Store it writes to is shared.
type Form struct {
	store   *Store
	history *History
	opts    FormOptions

	fields []*FormField
	byName map[string]*FormField

	// baseline is the store content at creation or the last MarkSaved
	baseline []ESC
}

// NewForm builds the fields of every numeric common setting of the store's layout
func NewForm(store *Store, opts FormOptions) *Form {
	f := &Form{
		store:    store,
		history:  NewHistory(store, opts.HistorySize),
		opts:     opts,
		byName:   make(map[string]*FormField),
		baseline: store.Snapshot(),
	}

	for _, d := range store.Layout().Common() {
		if !d.Kind.Numeric() {
			continue
		}
		ff := &FormField{Desc: d}
		if d.Kind == KindSlider {
			ff.Slider = numfield.NewSlider(d.Name, d.FieldOptions(opts.SliderSentinel, f.write))
			ff.Field = ff.Slider.Field
		} else {
			ff.Number = numfield.NewNumber(d.Name, d.FieldOptions(opts.NumberSentinel, f.write))
			ff.Field = ff.Number.Field
		}
		f.fields = append(f.fields, ff)
		f.byName[d.Name] = ff
	}

	f.Refresh()
	return f
}

// write is the OnChange handler of every field
func (f *Form) write(name string, value int) {
	f.history.SaveSnapshot("set " + name)
	// The name comes from the layout, SetCommon cannot fail here.
	_ = f.store.SetCommon(name, value)
}

// Store returns the backing store
func (f *Form) Store() *Store { return f.store }

// History returns the undo history
func (f *Form) History() *History { return f.history }

// Fields returns the numeric fields in layout order
func (f *Form) Fields() []*FormField { return f.fields }

// Field returns the numeric field of a setting
func (f *Form) Field(name string) (*FormField, bool) {
	ff, ok := f.byName[name]
	return ff, ok
}

func (f *Form) lookup(name string) (*FormField, error) {
	ff, ok := f.byName[name]
	if !ok {
		if d, known := f.store.Layout().Lookup(name); known {
			return nil, NewValidationError(name, fmt.Sprintf("%s %s setting has no numeric field", d.Scope, d.Kind))
		}
		return nil, NewUnknownSettingError(name, f.store.Layout().Name)
	}
	return ff, nil
}

// Edit sets the pending display text of a field
func (f *Form) Edit(name, text string) error {
	ff, err := f.lookup(name)
	if err != nil {
		return err
	}
	ff.Field.Edit(text)
	return nil
}

// Commit commits the pending text of a field to the store
func (f *Form) Commit(name string) (Applied, error) {
	ff, err := f.lookup(name)
	if err != nil {
		return Applied{}, err
	}

	input := ff.Field.Display()
	value := ff.Field.Commit()
	if f.opts.OnCommit != nil {
		f.opts.OnCommit(name, input, value)
	}
	return Applied{Name: name, Input: input, Value: value, Display: ff.Field.Display()}, nil
}

// Set edits and commits a field in one step
func (f *Form) Set(name, text string) (Applied, error) {
	if err := f.Edit(name, text); err != nil {
		return Applied{}, err
	}
	return f.Commit(name)
}

// SetChoice sets a common bool or enum setting.
// Unlike numeric fields, choices outside the option set are rejected.
func (f *Form) SetChoice(name string, value int) error {
	d, ok := f.store.Layout().Lookup(name)
	if !ok {
		return NewUnknownSettingError(name, f.store.Layout().Name)
	}
	if err := validateChoice(d, value); err != nil {
		return err
	}
	if d.Scope != ScopeCommon {
		return NewValidationError(name, "individual setting, use SetIndividual")
	}

	f.history.SaveSnapshot("set " + name)
	if err := f.store.SetCommon(name, value); err != nil {
		return err
	}
	if f.opts.OnCommit != nil {
		f.opts.OnCommit(name, d.FormatValue(value), value)
	}
	return nil
}

// SetIndividual sets a setting on one ESC. Numeric values are clamped
// into range, choices are validated.
func (f *Form) SetIndividual(index int, name string, value int) (int, error) {
	d, ok := f.store.Layout().Lookup(name)
	if !ok {
		return 0, NewUnknownSettingError(name, f.store.Layout().Name)
	}
	if d.Kind.Numeric() {
		value = d.Range().Clamp(value)
	} else if err := validateChoice(d, value); err != nil {
		return 0, err
	}

	f.history.SaveSnapshot(fmt.Sprintf("set %s on ESC %d", name, index))
	if err := f.store.SetIndividual(index, name, value); err != nil {
		return 0, err
	}
	return value, nil
}

// Parse converts user text for a setting into a canonical value.
// Numeric text goes through the field's commit rules; choices accept
// a label, a number, or on/off for bools.
func (f *Form) Parse(name, text string) (int, error) {
	d, ok := f.store.Layout().Lookup(name)
	if !ok {
		return 0, NewUnknownSettingError(name, f.store.Layout().Name)
	}
	return ParseValue(d, text)
}

// Apply writes canonical values, as stored in a profile. Numeric values are
// committed through their fields so they are clamped like interactive edits.
// Settings that fail are collected and the rest are still applied.
func (f *Form) Apply(values map[string]int) ([]Applied, []error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var applied []Applied
	var errs []error
	for _, name := range names {
		value := values[name]
		if ff, ok := f.byName[name]; ok {
			text := numfield.FormatDisplay(numfield.ToDisplay(value, ff.Desc.Transform()))
			a, err := f.Set(name, text)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			applied = append(applied, a)
			continue
		}
		if err := f.SetChoice(name, value); err != nil {
			errs = append(errs, err)
			continue
		}
		d, _ := f.store.Layout().Lookup(name)
		applied = append(applied, Applied{Name: name, Input: d.FormatValue(value), Value: value, Display: d.FormatValue(value)})
	}
	return applied, errs
}

// Refresh re-syncs every field from the store, dropping pending edits
func (f *Form) Refresh() {
	for _, ff := range f.fields {
		f.syncField(ff)
	}
}

// SyncField re-syncs one field from the store unless it holds a pending edit
func (f *Form) SyncField(name string) {
	ff, ok := f.byName[name]
	if !ok || ff.Field.Dirty() {
		return
	}
	f.syncField(ff)
}

func (f *Form) syncField(ff *FormField) {
	value, inSync, err := f.store.Common(ff.Desc.Name)
	if err != nil {
		ff.Field.Sync(numfield.Fallback(ff.Field.Options().Range), false)
		return
	}
	ff.Field.Sync(value, inSync)
}

// Undo reverts the last commit
func (f *Form) Undo() (*Snapshot, error) {
	snap, err := f.history.Undo()
	if err != nil {
		return nil, err
	}
	f.Refresh()
	return snap, nil
}

// Changed returns the names of settings that differ from the baseline, sorted
func (f *Form) Changed() []string {
	current := f.store.Snapshot()
	set := map[string]bool{}

	n := max(len(current), len(f.baseline))
	for i := 0; i < n; i++ {
		var cur, base map[string]int
		if i < len(current) {
			cur = current[i].Settings
		}
		if i < len(f.baseline) {
			base = f.baseline[i].Settings
		}
		for k, v := range cur {
			if bv, ok := base[k]; !ok || bv != v {
				set[k] = true
			}
		}
		for k := range base {
			if _, ok := cur[k]; !ok {
				set[k] = true
			}
		}
	}

	names := make([]string, 0, len(set))
	for k := range set {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// HasChanges reports whether the store differs from the baseline
func (f *Form) HasChanges() bool {
	return len(f.Changed()) > 0
}

// Reset restores the baseline and re-syncs the fields
func (f *Form) Reset() {
	f.history.SaveSnapshot("reset")
	f.store.Restore(f.baseline)
	f.Refresh()
}

// MarkSaved makes the current store content the new baseline
func (f *Form) MarkSaved() {
	f.baseline = f.store.Snapshot()
}
