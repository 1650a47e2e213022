// Package ui provides styled terminal output for the escconf CLI.
//
// Commands print through a Printer: a header box naming the operation,
// then success, warning or failure boxes with key/value details. The same
// color palette and markers are used by the interactive editor.
//
//	p := ui.NewPrinter(cmd.OutOrStdout())
//	p.PrintHeader("Apply Profile", "escconf profile apply race quad.yaml",
//	    map[string]string{"File": "quad.yaml", "Profile": "race"})
//	p.PrintSuccess("Profile applied", map[string]string{"Changed": "3 settings"})
//
// Confirm asks a yes/no question before destructive operations.
//
// Logging is controlled separately via ESCCONF_LOG_LEVEL and goes to
// stderr, so styled output on stdout stays clean.
package ui
