// Package editor is the interactive terminal editor behind "escconf edit".
//
// Every common setting is one row. Number rows take focus on Enter and
// commit when they lose it; sliders move with ←/→ and commit on Enter or
// when the cursor leaves the row; bool rows toggle with space; enum rows
// cycle with ←/→. Individual settings are listed per ESC below.
//
// Settings the ESCs disagree on show the out-of-sync sentinel and a ≠
// marker until a value is committed. ctrl+s saves and verifies the file;
// when the file changes on disk every row is re-synced from it.
package editor
