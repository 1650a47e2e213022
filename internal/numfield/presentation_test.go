package numfield

import (
	"math"
	"testing"
)

func TestNumberTyping(t *testing.T) {
	rec := &recorder{}
	n := NewNumber("BEACON_STRENGTH", byteOptions(rec))
	n.Sync(12, true)

	n.Type('3')
	if n.Text() != "123" {
		t.Fatalf("Text() = %q, want %q", n.Text(), "123")
	}
	n.Backspace()
	n.Backspace()
	n.Type('9')
	if n.Text() != "19" {
		t.Fatalf("Text() = %q, want %q", n.Text(), "19")
	}
	if len(rec.commits) != 0 {
		t.Fatalf("typing committed %d values", len(rec.commits))
	}

	if got := n.Blur(); got != 19 {
		t.Errorf("Blur() = %d, want 19", got)
	}
	if len(rec.commits) != 1 || rec.commits[0].Value != 19 {
		t.Errorf("OnChange calls = %+v", rec.commits)
	}
}

func TestNumberBackspaceOnEmpty(t *testing.T) {
	n := NewNumber("X", Options{Range: Range{Min: 0, Max: 9}})
	n.SetText("")
	n.Backspace()
	if n.Text() != "" {
		t.Errorf("Text() = %q, want empty", n.Text())
	}
	if got := n.Blur(); got != 0 {
		t.Errorf("Blur() of empty text = %d, want fallback 0", got)
	}
}

func TestNumberOutOfSyncShowsZero(t *testing.T) {
	n := NewNumber("BEACON_STRENGTH", byteOptions(&recorder{}))
	n.Sync(80, false)

	if n.Text() != "0" {
		t.Fatalf("Text() = %q, want sentinel %q", n.Text(), "0")
	}

	n.Type('5')
	if got := n.Blur(); got != 5 {
		t.Errorf("Blur() = %d, want 5", got)
	}
}

func kvSlider(rec *recorder) *Slider {
	tr := Transform{Factor: 40, Offset: 20}
	return NewSlider("MOTOR_KV", Options{
		Transform: tr,
		Range:     RangeFromDisplay(20, 10220, tr),
		OnChange:  rec.onChange,
	})
}

func TestSliderDragAndRelease(t *testing.T) {
	rec := &recorder{}
	s := kvSlider(rec)
	s.Sync(50, true)

	if s.Display() != "2020" {
		t.Fatalf("Display() = %q, want %q", s.Display(), "2020")
	}

	s.Drag(99999)
	if s.Display() != "10220" {
		t.Errorf("Drag past the end shows %q, want %q", s.Display(), "10220")
	}
	if s.Position() != 1 {
		t.Errorf("Position() = %v, want 1", s.Position())
	}
	if len(rec.commits) != 0 {
		t.Fatalf("Drag() committed %d values", len(rec.commits))
	}

	if got := s.Release(); got != 255 {
		t.Errorf("Release() = %d, want 255", got)
	}
	if len(rec.commits) != 1 || rec.commits[0] != (commit{Name: "MOTOR_KV", Value: 255}) {
		t.Errorf("OnChange calls = %+v", rec.commits)
	}
}

func TestSliderDragIgnoresNaN(t *testing.T) {
	s := kvSlider(&recorder{})
	s.Sync(10, true)
	s.Drag(math.NaN())
	if s.Dirty() {
		t.Error("Drag(NaN) marked the slider dirty")
	}
}

func TestSliderNudge(t *testing.T) {
	s := NewSlider("SINE_MODE_RANGE", Options{Range: Range{Min: 0, Max: 20}, Step: 2})
	s.Sync(10, true)

	s.Nudge(1)
	if s.Display() != "12" {
		t.Errorf("Nudge(1) display = %q, want %q", s.Display(), "12")
	}

	s.Nudge(-10)
	if s.Display() != "0" {
		t.Errorf("Nudge(-10) display = %q, want %q", s.Display(), "0")
	}

	if got := s.Release(); got != 0 {
		t.Errorf("Release() = %d, want 0", got)
	}
}

func TestSliderOutOfSyncRestsAtMin(t *testing.T) {
	s := NewSlider("BEEP_STRENGTH", byteOptions(&recorder{}))
	s.Sync(128, false)

	if s.Display() != "1" {
		t.Errorf("Display() = %q, want sentinel %q", s.Display(), "1")
	}
	if s.Position() != 0 {
		t.Errorf("Position() = %v, want 0", s.Position())
	}
}

func TestSliderSentinelOverride(t *testing.T) {
	opts := byteOptions(&recorder{})
	opts.Sentinel = Sentinel{Mode: SentinelZero}
	s := NewSlider("BEEP_STRENGTH", opts)
	s.Sync(128, false)

	if s.Display() != "0" {
		t.Errorf("Display() = %q, want %q", s.Display(), "0")
	}
}
