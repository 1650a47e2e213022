package escsettings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.yaml")
	s := testStore(t)

	if err := SaveFile(path, s); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temporary file to be renamed away")
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if loaded.Layout().Name != LayoutBLHeliS {
		t.Errorf("Expected layout %s, got %s", LayoutBLHeliS, loaded.Layout().Name)
	}
	if diff := cmp.Diff(s.Snapshot(), loaded.Snapshot()); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFile(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		check func(error) bool
	}{
		{"bad yaml", "layout: [", IsParseError},
		{"future version", "version: 9\nlayout: AM32\n", IsParseError},
		{"no layout", "version: 1\nescs: []\n", IsLayoutError},
		{"unknown layout", "version: 1\nlayout: KISS\n", IsLayoutError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFile([]byte(tt.data))
			if err == nil || !tt.check(err) {
				t.Errorf("Unexpected error %v", err)
			}
		})
	}
}

func TestParseFile_SortsAndFillsESCs(t *testing.T) {
	data := `
version: 1
layout: Bluejay
escs:
  - index: 1
    settings:
      BEEP_STRENGTH: 60
  - index: 0
`
	s, err := ParseFile([]byte(data))
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	escs := s.Snapshot()
	if len(escs) != 2 || escs[0].Index != 0 || escs[1].Index != 1 {
		t.Fatalf("Expected ESCs sorted by index, got %+v", escs)
	}
	if escs[0].Settings == nil {
		t.Error("Expected empty settings map, got nil")
	}

	_, inSync, _ := s.Common("BEEP_STRENGTH")
	if inSync {
		t.Error("Expected BEEP_STRENGTH out of sync when one ESC lacks it")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !IsIOError(err) {
		t.Errorf("Expected I/O error, got %v", err)
	}
}

func TestNewFile(t *testing.T) {
	layout, _ := LookupLayout(LayoutAM32)
	s := NewFile(layout, 2)

	if s.Len() != 2 {
		t.Fatalf("Expected 2 ESCs, got %d", s.Len())
	}
	_, critical := SeparateWarningsAndErrors(ValidateStore(s))
	if len(critical) != 0 {
		t.Errorf("Expected a valid new file, got %v", critical)
	}
}

func TestVerifySaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.yaml")
	s := testStore(t)
	_ = SaveFile(path, s)

	if result := VerifySaved(path, s); !result.Success {
		t.Fatalf("Expected verification success, got %v", result.Error)
	}

	_ = s.SetIndividual(0, "BEEP_STRENGTH", 99)
	result := VerifySaved(path, s)
	if result.Success {
		t.Fatal("Expected verification failure")
	}

	want := []string{"ESC 1 BEEP_STRENGTH: expected 99, got 40"}
	if diff := cmp.Diff(want, result.Mismatches); diff != "" {
		t.Errorf("Mismatches (-want +got):\n%s", diff)
	}
}

func TestVerifySaved_LayoutMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.yaml")
	am32, _ := LookupLayout(LayoutAM32)
	_ = SaveFile(path, NewFile(am32, 4))

	result := VerifySaved(path, testStore(t))
	if result.Success || len(result.Mismatches) != 1 || !strings.HasPrefix(result.Mismatches[0], "layout:") {
		t.Errorf("Expected a layout mismatch, got %+v", result)
	}
}

func TestSaveAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.yaml")
	s := testStore(t)

	result := SaveAndVerify(path, s)
	if !result.Success {
		t.Fatalf("Expected success, got %v", result.Error)
	}
}

func TestFormatMismatches(t *testing.T) {
	if got := formatMismatches(nil); got != "none" {
		t.Errorf("Expected none, got %q", got)
	}
	got := formatMismatches([]string{"a", "b"})
	if got != "2 mismatches: a; b" {
		t.Errorf("Unexpected summary %q", got)
	}
}

func TestWatchReloadsOnExternalWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	old := WatchDebounce
	WatchDebounce = 20 * time.Millisecond
	t.Cleanup(func() { WatchDebounce = old })

	path := filepath.Join(t.TempDir(), "quad.yaml")
	s := testStore(t)
	if err := SaveFile(path, s); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloads := make(chan *Store, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(s *Store) {
			select {
			case reloads <- s:
			default:
			}
		}, nil)
	}()

	_ = s.SetCommon("BEEP_STRENGTH", 99)

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(200 * time.Millisecond)
	defer tick.Stop()

	// Keep writing until the watcher has registered and reports the change.
	for got := false; !got; {
		select {
		case reloaded := <-reloads:
			if v, _, _ := reloaded.Common("BEEP_STRENGTH"); v == 99 {
				got = true
			}
		case <-tick.C:
			_ = SaveFile(path, s)
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Watch did not return after cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "quad.yaml"), func(*Store) {}, nil)
	if err == nil {
		t.Error("Expected error watching a missing directory")
	}
}

func TestDiffers(t *testing.T) {
	a, b := testStore(t), testStore(t)
	if Differs(a, b) {
		t.Error("Expected identical stores not to differ")
	}
	_ = b.SetCommon("BEEP_STRENGTH", 1)
	if !Differs(a, b) {
		t.Error("Expected stores to differ")
	}
}
