// Package numfield implements the bounded numeric field used by every numeric
// ESC setting editor.
//
// A setting is stored as an integer in its canonical unit (the raw firmware
// value). Editors show a display value derived from it with a linear
// transform, and only hand a value back to the owner when the user finishes
// an edit.
//
// # Value Transform
//
//	display   = value*factor + offset            (rounded if Round is set)
//	canonical = round((display - offset) / factor), clamped into [Min, Max]
//
// Range bounds are canonical. Descriptors that publish their bounds in
// display units convert them with RangeFromDisplay.
//
// Invalid input is never an error. Anything that does not parse as a finite
// number resolves to Fallback, which is the minimum canonical value, and
// anything outside the range is clamped. The field can therefore always be
// committed.
//
// # Input Adapter
//
// Field keeps two values: the committed canonical value and the pending
// display text. Edits only touch the pending text. Commit converts it, snaps
// the pending text back to the clamped value and calls OnChange(name, value).
//
//	f := numfield.NewField("BEEP_STRENGTH", numfield.Options{
//	    Range: numfield.Range{Min: 1, Max: 255},
//	    OnChange: func(name string, value int) {
//	        store.SetCommon(name, value)
//	    },
//	})
//	f.Sync(40, true)
//	f.Edit("1250")
//	f.Commit() // 255, OnChange("BEEP_STRENGTH", 255)
//
// Number and Slider wrap Field with the two presentations used by the
// editors: a discrete text field committed on blur and a slider committed on
// release.
//
// # Out of sync
//
// When the owner reports that a value is not authoritative (for example the
// connected ESCs disagree on it), Display returns the configured Sentinel
// instead of the stored value until the user edits or commits the field.
//
// # Thread Safety
//
// A Field is driven by a single event loop and is not safe for concurrent
// use.
package numfield
