package escsettings

import (
	"fmt"
	"maps"
	"sync"
)

// ESC is the settings dump of one speed controller.
// Settings holds canonical values keyed by setting name.
type ESC struct {
	Index    int            `yaml:"index" json:"index"`
	Name     string         `yaml:"name,omitempty" json:"name,omitempty"`
	Firmware string         `yaml:"firmware,omitempty" json:"firmware,omitempty"`
	Version  string         `yaml:"version,omitempty" json:"version,omitempty"`
	Settings map[string]int `yaml:"settings" json:"settings"`
}

// Clone returns a deep copy of the ESC
func (e ESC) Clone() ESC {
	e.Settings = maps.Clone(e.Settings)
	if e.Settings == nil {
		e.Settings = map[string]int{}
	}
	return e
}

// Change describes a write to the store
type Change struct {
	Name  string
	Value int
	// Index is the ESC written, or -1 for a common write
	Index int
	// Reload is set when the whole store was replaced
	Reload bool
}

// Store holds the settings of a set of ESCs sharing one layout.
// It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	layout *Layout
	escs   []ESC

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan Change
}

// NewStore creates a store for the given ESCs. The ESCs are copied.
func NewStore(layout *Layout, escs []ESC) *Store {
	s := &Store{layout: layout, subs: make(map[int]chan Change)}
	s.escs = cloneESCs(escs)
	return s
}

func cloneESCs(escs []ESC) []ESC {
	out := make([]ESC, len(escs))
	for i, e := range escs {
		out[i] = e.Clone()
	}
	return out
}

// Layout returns the layout of the store
func (s *Store) Layout() *Layout {
	return s.layout
}

// Len returns the number of ESCs
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.escs)
}

// Common returns the value of a common setting as held by the first ESC.
// inSync is false when the ESCs disagree or some ESC lacks the setting.
func (s *Store) Common(name string) (value int, inSync bool, err error) {
	if _, ok := s.layout.Lookup(name); !ok {
		return 0, false, NewUnknownSettingError(name, s.layout.Name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	found := false
	inSync = true
	for _, e := range s.escs {
		v, ok := e.Settings[name]
		if !ok {
			inSync = false
			continue
		}
		if !found {
			value, found = v, true
			continue
		}
		if v != value {
			inSync = false
		}
	}
	if !found {
		return 0, false, NewValidationError(name, "no ESC holds this setting")
	}
	return value, inSync, nil
}

// Individual returns the value of a setting on one ESC
func (s *Store) Individual(index int, name string) (int, error) {
	if _, ok := s.layout.Lookup(name); !ok {
		return 0, NewUnknownSettingError(name, s.layout.Name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.escs) {
		return 0, NewIndexError(index, len(s.escs))
	}
	v, ok := s.escs[index].Settings[name]
	if !ok {
		return 0, NewValidationError(name, fmt.Sprintf("ESC %d does not hold this setting", index))
	}
	return v, nil
}

// SetCommon writes a value to every ESC
func (s *Store) SetCommon(name string, value int) error {
	if _, ok := s.layout.Lookup(name); !ok {
		return NewUnknownSettingError(name, s.layout.Name)
	}

	s.mu.Lock()
	for i := range s.escs {
		if s.escs[i].Settings == nil {
			s.escs[i].Settings = map[string]int{}
		}
		s.escs[i].Settings[name] = value
	}
	s.mu.Unlock()

	s.publish(Change{Name: name, Value: value, Index: -1})
	return nil
}

// SetIndividual writes a value to one ESC
func (s *Store) SetIndividual(index int, name string, value int) error {
	if _, ok := s.layout.Lookup(name); !ok {
		return NewUnknownSettingError(name, s.layout.Name)
	}

	s.mu.Lock()
	if index < 0 || index >= len(s.escs) {
		n := len(s.escs)
		s.mu.Unlock()
		return NewIndexError(index, n)
	}
	if s.escs[index].Settings == nil {
		s.escs[index].Settings = map[string]int{}
	}
	s.escs[index].Settings[name] = value
	s.mu.Unlock()

	s.publish(Change{Name: name, Value: value, Index: index})
	return nil
}

// Snapshot returns a deep copy of the ESCs
func (s *Store) Snapshot() []ESC {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneESCs(s.escs)
}

// Restore replaces the ESCs with a copy of escs and notifies subscribers
func (s *Store) Restore(escs []ESC) {
	s.mu.Lock()
	s.escs = cloneESCs(escs)
	s.mu.Unlock()

	s.publish(Change{Index: -1, Reload: true})
}

// Replace loads the contents of another store with the same layout
func (s *Store) Replace(other *Store) error {
	if other.layout.Name != s.layout.Name {
		return NewLayoutError(fmt.Sprintf("cannot replace %s settings with %s settings", s.layout.Name, other.layout.Name))
	}
	s.Restore(other.Snapshot())
	return nil
}

// Subscribe registers for change notifications. Slow subscribers miss
// changes rather than block writers. Call cancel to unsubscribe.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 32)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
