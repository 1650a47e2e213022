// Package escsettings models the settings of a set of brushless ESCs.
//
// Settings enter and leave the program as YAML settings files, one dump of
// canonical values per ESC. A firmware Layout (BLHeli_S, Bluejay, AM32)
// describes every setting: its kind, its display range and the transform
// between the stored integer and the value shown to the user.
//
// # Common and Individual Settings
//
// Common settings are edited once and written to every ESC. When the ESCs
// disagree on a common setting, Store.Common reports it as out of sync and the
// numeric field shows a sentinel instead of the first ESC's value until the
// user commits a new one. Individual settings (motor direction) are set per ESC.
//
// # Usage Example
//
//	store, err := escsettings.LoadFile("quad.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	form := escsettings.NewForm(store, escsettings.FormOptions{})
//	applied, err := form.Set("BEEP_STRENGTH", "1250")
//	// applied.Value == 255, clamped like any interactive edit
//
//	result := escsettings.SaveAndVerify("quad.yaml", store)
//	if !result.Success {
//	    log.Fatalf("Save failed: %v", result.Error)
//	}
//
// # Thread Safety
//
// Store is safe for concurrent use. Form and the numfield fields it owns are
// driven from a single goroutine.
package escsettings
