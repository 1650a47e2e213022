package escsettings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// FileVersion is the settings file format version written by SaveFile
const FileVersion = 1

// File is the on-disk form of a settings dump
type File struct {
	Version int    `yaml:"version"`
	Layout  string `yaml:"layout"`
	ESCs    []ESC  `yaml:"escs"`
}

// NewFile creates settings for count ESCs holding the layout minimums
func NewFile(layout *Layout, count int) *Store {
	escs := make([]ESC, count)
	for i := range escs {
		escs[i] = ESC{Index: i, Firmware: layout.Name, Settings: layout.Defaults()}
	}
	return NewStore(layout, escs)
}

// ParseFile decodes a settings file
func ParseFile(data []byte) (*Store, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, NewParseError("invalid settings YAML", err)
	}
	if f.Version > FileVersion {
		return nil, NewParseError(fmt.Sprintf("unsupported file version %d", f.Version), nil)
	}
	if f.Layout == "" {
		return nil, NewLayoutError("settings file has no layout")
	}
	layout, err := LookupLayout(f.Layout)
	if err != nil {
		return nil, err
	}
	for i := range f.ESCs {
		if f.ESCs[i].Settings == nil {
			f.ESCs[i].Settings = map[string]int{}
		}
	}
	sort.SliceStable(f.ESCs, func(i, j int) bool { return f.ESCs[i].Index < f.ESCs[j].Index })
	return NewStore(layout, f.ESCs), nil
}

// LoadFile reads a settings file
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewIOError(fmt.Sprintf("failed to read %s", path), err)
	}
	return ParseFile(data)
}

// Marshal encodes the store as a settings file
func Marshal(s *Store) ([]byte, error) {
	f := File{
		Version: FileVersion,
		Layout:  s.Layout().Name,
		ESCs:    s.Snapshot(),
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	return data, nil
}

// SaveFile writes the store atomically (temp file + rename)
func SaveFile(path string, s *Store) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return NewIOError("failed to create settings directory", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return NewIOError("failed to write temporary settings file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return NewIOError("failed to rename settings file", err)
	}
	return nil
}

// VerificationResult contains the result of reading a saved file back
type VerificationResult struct {
	Success    bool
	Mismatches []string
	Duration   time.Duration
	Error      error
}

// VerifySaved re-reads path and compares it against the expected store
func VerifySaved(path string, expected *Store) *VerificationResult {
	start := time.Now()
	result := &VerificationResult{}

	actual, err := LoadFile(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to read back settings: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Mismatches = compareStores(expected, actual)
	result.Duration = time.Since(start)
	if len(result.Mismatches) == 0 {
		result.Success = true
	} else {
		result.Error = fmt.Errorf("verification failed: %s", formatMismatches(result.Mismatches))
	}
	return result
}

// compareStores lists the differences between two stores (empty if equal)
func compareStores(expected, actual *Store) []string {
	var mismatches []string

	if expected.Layout().Name != actual.Layout().Name {
		mismatches = append(mismatches, fmt.Sprintf("layout: expected %s, got %s", expected.Layout().Name, actual.Layout().Name))
		return mismatches
	}

	exp, act := expected.Snapshot(), actual.Snapshot()
	if len(exp) != len(act) {
		mismatches = append(mismatches, fmt.Sprintf("ESC count: expected %d, got %d", len(exp), len(act)))
		return mismatches
	}

	for i := range exp {
		if exp[i].Index != act[i].Index {
			mismatches = append(mismatches, fmt.Sprintf("ESC %d: index is %d", exp[i].Index+1, act[i].Index))
			continue
		}
		names := make([]string, 0, len(exp[i].Settings))
		for name := range exp[i].Settings {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			want := exp[i].Settings[name]
			got, ok := act[i].Settings[name]
			switch {
			case !ok:
				mismatches = append(mismatches, fmt.Sprintf("ESC %d %s: expected %d, missing", exp[i].Index+1, name, want))
			case got != want:
				mismatches = append(mismatches, fmt.Sprintf("ESC %d %s: expected %d, got %d", exp[i].Index+1, name, want, got))
			}
		}
	}
	return mismatches
}

// formatMismatches creates a human-readable summary of mismatches
func formatMismatches(mismatches []string) string {
	if len(mismatches) == 0 {
		return "none"
	}
	if len(mismatches) == 1 {
		return mismatches[0]
	}
	result := fmt.Sprintf("%d mismatches: ", len(mismatches))
	for i, m := range mismatches {
		if i > 0 {
			result += "; "
		}
		result += m
	}
	return result
}

// SaveAndVerify writes the store and reads it back. If the read-back does not
// match, the previous file content is restored.
func SaveAndVerify(path string, s *Store) *VerificationResult {
	previous, readErr := os.ReadFile(path)

	if err := SaveFile(path, s); err != nil {
		return &VerificationResult{Error: fmt.Errorf("save failed: %w", err)}
	}

	result := VerifySaved(path, s)
	if result.Success {
		return result
	}

	if readErr == nil {
		if err := writeAtomic(path, previous); err != nil {
			result.Error = fmt.Errorf("%w, and restoring the previous file failed: %w", result.Error, err)
			return result
		}
		result.Error = fmt.Errorf("%w, previous file restored", result.Error)
	}
	return result
}
