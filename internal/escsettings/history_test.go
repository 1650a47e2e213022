package escsettings

import (
	"strconv"
	"testing"
)

func TestHistoryBounded(t *testing.T) {
	s := testStore(t)
	h := NewHistory(s, 2)

	for _, v := range []int{10, 20, 30} {
		h.SaveSnapshot("before " + strconv.Itoa(v/10))
		_ = s.SetCommon("BEEP_STRENGTH", v)
	}

	if h.Len() != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", h.Len())
	}
	snaps := h.Snapshots()
	if snaps[0].Description != "before 2" || snaps[1].Description != "before 3" {
		t.Errorf("Expected oldest snapshot dropped, got %q, %q", snaps[0].Description, snaps[1].Description)
	}
	if h.Latest() != snaps[1] {
		t.Error("Latest() is not the last snapshot")
	}
}

func TestHistoryUndo(t *testing.T) {
	s := testStore(t)
	h := NewHistory(s, 0)

	h.SaveSnapshot("set BEEP_STRENGTH")
	_ = s.SetCommon("BEEP_STRENGTH", 200)

	if _, err := h.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if v, _, _ := s.Common("BEEP_STRENGTH"); v != 40 {
		t.Errorf("Expected 40 after undo, got %d", v)
	}
	if h.Len() != 0 || h.Latest() != nil {
		t.Error("Expected empty history after undo")
	}
	if _, err := h.Undo(); err == nil {
		t.Error("Expected error undoing an empty history")
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(testStore(t), 5)
	h.SaveSnapshot("a")
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Expected empty history, got %d", h.Len())
	}
}
