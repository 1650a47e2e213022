package editor

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/logging"
)

// Run opens the editor on the settings file at path until the user quits.
// Changes made to the file by other programs are picked up while it runs.
func Run(ctx context.Context, path string, form *escsettings.Form) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reloads := make(chan *escsettings.Store)
	errs := make(chan error)

	go func() {
		err := escsettings.Watch(ctx, path,
			func(s *escsettings.Store) {
				select {
				case reloads <- s:
				case <-ctx.Done():
				}
			},
			func(err error) {
				select {
				case errs <- err:
				case <-ctx.Done():
				}
			},
		)
		if err != nil {
			logging.Warn("Not watching settings file", zap.String("path", path), zap.Error(err))
		}
	}()

	model := New(form, path).WithReloads(reloads, errs)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}
	return nil
}
