package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/escconf/internal/discovery"
	"github.com/muurk/escconf/internal/editor"
	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/logging"
	"github.com/muurk/escconf/internal/server"
	"github.com/muurk/escconf/internal/ui"
	"github.com/muurk/escconf/internal/version"
)

// resolvePath returns the settings file named on the command line, or the
// file opened most recently when none is given.
func (a *app) resolvePath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if last := a.registry.Preferences.LastFile; last != "" {
		return last, nil
	}
	return "", fmt.Errorf("no settings file given and none opened before")
}

// remember records path as the most recently opened settings file
func (a *app) remember(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if a.registry.Preferences.LastFile == path {
		return
	}
	a.registry.Preferences.LastFile = path
	if err := a.registry.Save(); err != nil {
		logging.Warn("Failed to save config", zap.Error(err))
	}
}

// formOptions builds form options from the configured sentinels
func (a *app) formOptions() (escsettings.FormOptions, error) {
	number, slider, err := a.registry.Preferences.Sentinels()
	if err != nil {
		return escsettings.FormOptions{}, err
	}
	return escsettings.FormOptions{
		NumberSentinel: number,
		SliderSentinel: slider,
		OnCommit:       logging.LogCommit,
	}, nil
}

func (a *app) openForm(path string) (*escsettings.Form, error) {
	store, err := escsettings.LoadFile(path)
	if err != nil {
		return nil, err
	}
	opts, err := a.formOptions()
	if err != nil {
		return nil, err
	}
	return escsettings.NewForm(store, opts), nil
}

func printWarnings(w io.Writer, store *escsettings.Store) {
	warnings, errs := escsettings.SeparateWarningsAndErrors(escsettings.ValidateStore(store))
	if len(errs) > 0 {
		fmt.Fprint(w, escsettings.FormatValidationErrors(errs))
	}
	for _, warn := range warnings {
		fmt.Fprintf(w, "%s %s\n", ui.WarningMarker, escsettings.GetShortErrorMessage(warn))
	}
}

// showCmd displays a settings file
func newShowCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show [file]",
		Short: "Show the settings of a settings file",
		Long: `Display the settings held in an ESC settings file.

Common settings are shown once when every ESC agrees on them and marked
out of sync otherwise. Individual settings are listed per ESC.`,
		Example: `  # Show the file opened last
  escconf show

  # Compact output format
  escconf show quad.yaml --format compact

  # JSON output for scripting
  escconf show quad.yaml --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.resolvePath(args)
			if err != nil {
				return err
			}
			store, err := escsettings.LoadFile(path)
			if err != nil {
				return err
			}
			a.remember(path)

			out := cmd.OutOrStdout()
			switch format {
			case "compact":
				fmt.Fprintln(out, escsettings.FormatCompact(store))
			case "json":
				data, err := json.MarshalIndent(escsettings.BuildView(store), "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			case "detailed":
				fmt.Fprintln(out, escsettings.FormatDetailed(store))
			default:
				return fmt.Errorf("unknown format %q (use detailed, compact or json)", format)
			}

			printWarnings(cmd.ErrOrStderr(), store)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "detailed", "Output format (detailed, compact, json)")
	return cmd
}

// setCmd commits values to a settings file
func newSetCmd(a *app) *cobra.Command {
	var (
		esc    int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "set <file> <NAME=VALUE>...",
		Short: "Set settings in a settings file",
		Long: `Commit one or more values to a settings file.

Numeric values are given in display units. They are converted, clamped
into the setting range and snapped to its step, exactly as in the editor.
Text that is not a number commits the setting minimum. Bool settings take
on/off, enum settings take a value or an option label.

Common settings are written to every ESC. With --esc the values are
written to that ESC only.`,
		Example: `  # Set the beep strength on every ESC
  escconf set quad.yaml BEEP_STRENGTH=120

  # Values are clamped and snapped: this stores 1500
  escconf set quad.yaml PPM_MIN_THROTTLE=9999

  # Reverse the third motor
  escconf set quad.yaml MOTOR_DIRECTION=Reversed --esc 3

  # Preview without writing
  escconf set quad.yaml BEEP_STRENGTH=80 --dry-run`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			form, err := a.openForm(path)
			if err != nil {
				return err
			}
			store := form.Store()
			if esc < 0 || esc > store.Len() {
				return escsettings.NewIndexError(esc-1, store.Len())
			}
			before := escsettings.NewStore(store.Layout(), store.Snapshot())

			out := cmd.OutOrStdout()
			var failed []error
			for _, assignment := range args[1:] {
				name, text, ok := strings.Cut(assignment, "=")
				if !ok {
					failed = append(failed, fmt.Errorf("%q: expected NAME=VALUE", assignment))
					continue
				}
				name = strings.ToUpper(strings.TrimSpace(name))

				line, err := applyAssignment(form, esc-1, name, text)
				if err != nil {
					failed = append(failed, err)
					continue
				}
				fmt.Fprintln(out, line)
			}

			if len(failed) > 0 {
				for _, err := range failed {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", ui.FailureMarker, escsettings.GetShortErrorMessage(err))
				}
				return fmt.Errorf("%d of %d value(s) rejected, file not written", len(failed), len(args)-1)
			}

			if dryRun {
				fmt.Fprint(out, escsettings.FormatDiff(before, store))
				return nil
			}

			result := escsettings.SaveAndVerify(path, store)
			if !result.Success {
				return result.Error
			}
			a.remember(path)

			ui.NewPrinter(out).PrintSuccess("Settings saved and verified", map[string]string{
				"File":     path,
				"Changed":  strconv.Itoa(len(form.Changed())),
				"Duration": result.Duration.Round(time.Millisecond).String(),
			})
			return nil
		},
	}

	cmd.Flags().IntVar(&esc, "esc", 0, "Write to this ESC only (1-based)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the differences without writing the file")
	return cmd
}

// applyAssignment commits one value and returns the line reporting it.
// index is the ESC to write, or -1 for every ESC.
func applyAssignment(form *escsettings.Form, index int, name, text string) (string, error) {
	if index >= 0 {
		value, err := form.Parse(name, text)
		if err != nil {
			return "", err
		}
		value, err = form.SetIndividual(index, name, value)
		if err != nil {
			return "", err
		}
		d, _ := form.Store().Layout().Lookup(name)
		return fmt.Sprintf("ESC %d %s: %s → %s", index+1, name, text, d.FormatValue(value)), nil
	}

	if _, ok := form.Field(name); ok {
		applied, err := form.Set(name, text)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: %s → %s", name, applied.Input, applied.Display), nil
	}

	value, err := form.Parse(name, text)
	if err != nil {
		return "", err
	}
	if err := form.SetChoice(name, value); err != nil {
		return "", err
	}
	d, _ := form.Store().Layout().Lookup(name)
	return fmt.Sprintf("%s: %s → %s", name, text, d.FormatValue(value)), nil
}

// newCmd creates a settings file
func newNewCmd(a *app) *cobra.Command {
	var (
		layout string
		count  int
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create a settings file",
		Long: `Create a settings file for a number of ESCs of one layout.
Every setting starts at its minimum.

Available layouts: ` + strings.Join(escsettings.Layouts(), ", "),
		Example: `  # Four BLHeli_S ESCs
  escconf new quad.yaml

  # Eight AM32 ESCs
  escconf new octo.yaml --layout AM32 --escs 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			l, err := escsettings.LookupLayout(layout)
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("--escs must be at least 1")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := escsettings.SaveFile(path, escsettings.NewFile(l, count)); err != nil {
				return err
			}
			a.remember(path)

			fmt.Fprintf(cmd.OutOrStdout(), "%s Created %s (%s, %d ESCs)\n", ui.SuccessMarker, path, l.Name, count)
			return nil
		},
	}

	cmd.Flags().StringVar(&layout, "layout", escsettings.LayoutBLHeliS, "Settings layout")
	cmd.Flags().IntVar(&count, "escs", 4, "Number of ESCs")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

// editCmd launches the interactive editor
func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a settings file interactively",
		Long: `Launch the terminal editor for a settings file.

Number fields commit when they lose focus, sliders commit on release.
Changes are kept in memory until saved with ctrl+s. When the file changes
on disk the editor reloads it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.resolvePath(args)
			if err != nil {
				return err
			}
			form, err := a.openForm(path)
			if err != nil {
				return err
			}
			a.remember(path)

			return editor.Run(cmd.Context(), path, form)
		},
	}
}

// serveCmd runs the edit server
func newServeCmd(a *app) *cobra.Command {
	var (
		host      string
		port      int
		advertise bool
		name      string
	)

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve a settings file to browser clients",
		Long: `Run the edit server for a settings file.

Clients read settings over HTTP and edit them over a WebSocket. Pending
edits stay private to each client; every commit is written to the file
and broadcast to all clients. External changes to the file are picked up
and pushed to the clients.

The server is announced over mDNS unless --advertise=false.`,
		Example: `  # Serve on the configured port
  escconf serve quad.yaml

  # Serve on localhost only without mDNS
  escconf serve quad.yaml --host 127.0.0.1 --advertise=false`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := a.registry.Preferences
			if !cmd.Flags().Changed("port") {
				port = prefs.ServerPort
			}
			if !cmd.Flags().Changed("advertise") {
				advertise = prefs.Advertise
			}

			path, err := a.resolvePath(args)
			if err != nil {
				return err
			}
			store, err := escsettings.LoadFile(path)
			if err != nil {
				return err
			}
			opts, err := a.formOptions()
			if err != nil {
				return err
			}
			opts.OnCommit = nil
			a.remember(path)

			srv, err := server.New(&server.Config{
				Host:         host,
				Port:         port,
				Store:        store,
				Path:         path,
				FormOptions:  opts,
				Advertise:    advertise,
				InstanceName: name,
			})
			if err != nil {
				return err
			}

			ui.NewPrinter(cmd.OutOrStdout()).PrintHeader("Edit Server", "escconf serve", map[string]string{
				"File":      path,
				"Layout":    store.Layout().Name,
				"ESCs":      strconv.Itoa(store.Len()),
				"Listen":    fmt.Sprintf("%s:%d", host, port),
				"Advertise": strconv.FormatBool(advertise),
				"Version":   version.Version,
			})
			return srv.Start()
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Address to listen on (all interfaces when empty)")
	cmd.Flags().IntVar(&port, "port", 8484, "Port to listen on")
	cmd.Flags().BoolVar(&advertise, "advertise", true, "Announce the server over mDNS")
	cmd.Flags().StringVar(&name, "name", "", "mDNS instance name (default escconf-<hostname>)")
	return cmd
}

// scanCmd discovers edit servers on the network
func newScanCmd(a *app) *cobra.Command {
	var timeout int

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for edit servers on the network",
		Long: `Scan for escconf edit servers using mDNS/DNS-SD discovery.

Servers found are remembered in the config file.`,
		Example: `  # Scan with the configured timeout
  escconf scan

  # Longer scan for busy networks
  escconf scan --timeout 15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") && a.registry.Preferences.DiscoverTimeout > 0 {
				timeout = a.registry.Preferences.DiscoverTimeout
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanning for edit servers (timeout: %ds)...\n\n", timeout)

			scanner := discovery.NewScanner()
			scanner.Timeout = time.Duration(timeout) * time.Second
			instances, err := scanner.Scan(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if len(instances) == 0 {
				fmt.Fprintln(out, "No edit servers found.")
				fmt.Fprintln(out, "\nTroubleshooting:")
				fmt.Fprintln(out, "  - Ensure 'escconf serve' is running with --advertise")
				fmt.Fprintln(out, "  - Check that both machines are on the same network")
				fmt.Fprintln(out, "  - Try increasing --timeout for slower networks")
				return nil
			}

			fmt.Fprintf(out, "Found %d server(s):\n\n", len(instances))
			for i, inst := range instances {
				fmt.Fprintf(out, "%d. %s\n", i+1, inst)
				fmt.Fprintf(out, "   URL:     %s\n", inst.BaseURL())
				if v := inst.GetMetadata(discovery.TXTVersion); v != "" {
					fmt.Fprintf(out, "   Version: %s\n", v)
				}
				fmt.Fprintln(out)
				a.registry.UpdateServerLastSeen(inst.Name, inst.Host, inst.IP, inst.Port, inst.GetMetadata(discovery.TXTLayout))
			}

			if err := a.registry.Save(); err != nil {
				logging.Warn("Failed to save config", zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&timeout, "timeout", int(discovery.DefaultScanTimeout/time.Second), "Scan timeout in seconds")
	return cmd
}
