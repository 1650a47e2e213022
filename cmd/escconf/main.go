// Escconf is a configuration utility for ESC settings dumps.
//
// It shows, edits and serves the settings of a set of speed controllers
// stored in a YAML settings file. Numeric settings are edited through
// bounded fields that clamp and snap every committed value, so a file
// written by escconf always holds values the firmware accepts.
//
// Usage:
//
//	escconf [command] [flags]
//
// See 'escconf --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/escconf/internal/config"
	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/logging"
	"github.com/muurk/escconf/internal/remote"
	"github.com/muurk/escconf/internal/version"
)

func main() {
	err := newRootCmd().Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := troubleshootingHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

func troubleshootingHint(err error) string {
	if hint := remote.GetTroubleshootingHint(err); hint != "" {
		return hint
	}
	var se *escsettings.SettingError
	if errors.As(err, &se) {
		return escsettings.GetTroubleshootingHint(err)
	}
	return ""
}

// app holds the state shared by every command
type app struct {
	logLevel   string
	configPath string

	registry *config.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "escconf",
		Short: "ESC Settings Configuration Utility",
		Long: `A utility for viewing and editing ESC settings files.

Settings are edited through bounded fields: values typed in display units
are converted, clamped into the firmware range and snapped to the setting
step before they are written. Common settings on which the ESCs disagree
are reported as out of sync until a value is committed to all of them.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	// Disable automatic completion command generation
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default is the user config directory)")

	root.AddCommand(
		newShowCmd(a),
		newSetCmd(a),
		newNewCmd(a),
		newEditCmd(a),
		newServeCmd(a),
		newScanCmd(a),
		newRemoteCmd(a),
		newProfileCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the user configuration and starts logging
func (a *app) setup() error {
	var err error
	if a.configPath != "" {
		a.registry, err = config.LoadRegistryFrom(a.configPath)
	} else {
		a.registry, err = config.LoadRegistry()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if errs := a.registry.Preferences.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid preferences: %w", errs[0])
	}

	level := a.logLevel
	if level == "" {
		level = a.registry.Preferences.LogLevel
	}
	return logging.Initialize(level)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Detailed())
		},
	}
}
