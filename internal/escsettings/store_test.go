package escsettings

import (
	"sync"
	"testing"
	"time"
)

// testStore returns four BLHeli_S ESCs that agree on everything except
// BEACON_STRENGTH, which ESC 3 holds at 200.
func testStore(t *testing.T) *Store {
	t.Helper()

	layout, err := LookupLayout(LayoutBLHeliS)
	if err != nil {
		t.Fatalf("LookupLayout failed: %v", err)
	}

	escs := make([]ESC, 4)
	for i := range escs {
		settings := layout.Defaults()
		settings["BEEP_STRENGTH"] = 40
		settings["BEACON_STRENGTH"] = 80
		settings["MOTOR_DIRECTION"] = 1
		escs[i] = ESC{Index: i, Firmware: "BLHeli_S", Version: "16.7", Settings: settings}
	}
	escs[2].Settings["BEACON_STRENGTH"] = 200

	return NewStore(layout, escs)
}

func TestStoreCommon(t *testing.T) {
	s := testStore(t)

	tests := []struct {
		name       string
		wantValue  int
		wantInSync bool
	}{
		{"BEEP_STRENGTH", 40, true},
		{"BEACON_STRENGTH", 80, false},
		{"TEMPERATURE_PROTECTION", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, inSync, err := s.Common(tt.name)
			if err != nil {
				t.Fatalf("Common(%s) failed: %v", tt.name, err)
			}
			if value != tt.wantValue {
				t.Errorf("Expected value %d, got %d", tt.wantValue, value)
			}
			if inSync != tt.wantInSync {
				t.Errorf("Expected inSync=%v, got %v", tt.wantInSync, inSync)
			}
		})
	}
}

func TestStoreCommon_UnknownSetting(t *testing.T) {
	s := testStore(t)

	_, _, err := s.Common("MOTOR_KV")
	if !IsUnknownSettingError(err) {
		t.Errorf("Expected unknown setting error, got %v", err)
	}
}

func TestStoreCommon_MissingOnOneESC(t *testing.T) {
	layout, _ := LookupLayout(LayoutBLHeliS)
	s := NewStore(layout, []ESC{
		{Index: 0, Settings: map[string]int{"BEEP_STRENGTH": 40}},
		{Index: 1, Settings: map[string]int{}},
	})

	value, inSync, err := s.Common("BEEP_STRENGTH")
	if err != nil {
		t.Fatalf("Common failed: %v", err)
	}
	if value != 40 || inSync {
		t.Errorf("Expected (40, false), got (%d, %v)", value, inSync)
	}

	if _, _, err := s.Common("BEACON_STRENGTH"); !IsValidationError(err) {
		t.Errorf("Expected validation error for a setting no ESC holds, got %v", err)
	}
}

func TestStoreSetCommon(t *testing.T) {
	s := testStore(t)

	if err := s.SetCommon("BEACON_STRENGTH", 100); err != nil {
		t.Fatalf("SetCommon failed: %v", err)
	}

	value, inSync, _ := s.Common("BEACON_STRENGTH")
	if value != 100 || !inSync {
		t.Errorf("Expected (100, true), got (%d, %v)", value, inSync)
	}

	if err := s.SetCommon("NOT_A_SETTING", 1); !IsUnknownSettingError(err) {
		t.Errorf("Expected unknown setting error, got %v", err)
	}
}

func TestStoreSetIndividual(t *testing.T) {
	s := testStore(t)

	if err := s.SetIndividual(1, "MOTOR_DIRECTION", 2); err != nil {
		t.Fatalf("SetIndividual failed: %v", err)
	}

	got, err := s.Individual(1, "MOTOR_DIRECTION")
	if err != nil || got != 2 {
		t.Errorf("Expected 2, got %d (err %v)", got, err)
	}
	if other, _ := s.Individual(0, "MOTOR_DIRECTION"); other != 1 {
		t.Errorf("ESC 0 changed to %d", other)
	}

	if err := s.SetIndividual(4, "MOTOR_DIRECTION", 2); !IsIndexError(err) {
		t.Errorf("Expected index error, got %v", err)
	}
	if _, err := s.Individual(-1, "MOTOR_DIRECTION"); !IsIndexError(err) {
		t.Errorf("Expected index error, got %v", err)
	}
}

func TestStoreSnapshotIsDeepCopy(t *testing.T) {
	s := testStore(t)

	snap := s.Snapshot()
	snap[0].Settings["BEEP_STRENGTH"] = 1

	if v, _, _ := s.Common("BEEP_STRENGTH"); v != 40 {
		t.Errorf("Snapshot shares maps with the store, value now %d", v)
	}
}

func TestStoreRestoreAndReplace(t *testing.T) {
	s := testStore(t)
	before := s.Snapshot()

	_ = s.SetCommon("BEEP_STRENGTH", 99)
	s.Restore(before)
	if v, _, _ := s.Common("BEEP_STRENGTH"); v != 40 {
		t.Errorf("Expected 40 after Restore, got %d", v)
	}

	am32, _ := LookupLayout(LayoutAM32)
	if err := s.Replace(NewFile(am32, 4)); !IsLayoutError(err) {
		t.Errorf("Expected layout error replacing with another layout, got %v", err)
	}

	other := testStore(t)
	_ = other.SetCommon("BEEP_STRENGTH", 7)
	if err := s.Replace(other); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if v, _, _ := s.Common("BEEP_STRENGTH"); v != 7 {
		t.Errorf("Expected 7 after Replace, got %d", v)
	}
}

func TestStoreSubscribe(t *testing.T) {
	s := testStore(t)

	ch, cancel := s.Subscribe()
	defer cancel()

	_ = s.SetCommon("BEEP_STRENGTH", 50)
	_ = s.SetIndividual(2, "MOTOR_DIRECTION", 2)

	want := []Change{
		{Name: "BEEP_STRENGTH", Value: 50, Index: -1},
		{Name: "MOTOR_DIRECTION", Value: 2, Index: 2},
	}
	for _, w := range want {
		select {
		case got := <-ch:
			if got != w {
				t.Errorf("Expected %+v, got %+v", w, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %+v", w)
		}
	}

	s.Restore(s.Snapshot())
	if got := <-ch; !got.Reload {
		t.Errorf("Expected reload change, got %+v", got)
	}
}

func TestStoreSubscribeCancel(t *testing.T) {
	s := testStore(t)

	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after cancel")
	}

	// Publishing after cancel must not panic.
	_ = s.SetCommon("BEEP_STRENGTH", 50)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := testStore(t)
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.SetCommon("BEEP_STRENGTH", i*100+j)
				_, _, _ = s.Common("BEEP_STRENGTH")
				_ = s.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	if _, inSync, _ := s.Common("BEEP_STRENGTH"); !inSync {
		t.Error("Expected common writes to leave ESCs in sync")
	}
}
