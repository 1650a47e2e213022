package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/escconf/internal/discovery"
	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/remote"
	"github.com/muurk/escconf/internal/ui"
)

func newRemoteCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Read and commit settings on a running edit server",
		Long: `Talk to an edit server started with 'escconf serve'.

Without --server the network is scanned and the only server found is used.`,
	}
	cmd.PersistentFlags().StringVar(&addr, "server", "", "Edit server URL or host:port (skips discovery)")

	client := func(cmd *cobra.Command) (*remote.Client, error) {
		base, err := a.serverURL(cmd, addr)
		if err != nil {
			return nil, err
		}
		c := remote.NewClientWithURL(base)
		if _, err := c.Ping(cmd.Context()); err != nil {
			return nil, err
		}
		return c, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the settings served",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client(cmd)
			if err != nil {
				return err
			}
			view, err := c.View(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), escsettings.FormatViewCompact(*view))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <NAME=VALUE>...",
		Short: "Commit numeric settings on the server",
		Long: `Commit numeric common settings on the edit server. The server clamps
and snaps each value and broadcasts it to its other clients.`,
		Example: `  escconf remote set PPM_MIN_THROTTLE=1250 --server 192.168.1.20:8484`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, assignment := range args {
				name, text, ok := strings.Cut(assignment, "=")
				if !ok {
					return fmt.Errorf("%q: expected NAME=VALUE", assignment)
				}
				applied, err := c.Commit(cmd.Context(), strings.ToUpper(strings.TrimSpace(name)), text)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s → %s\n", applied.Name, applied.Input, applied.Display)
			}
			return nil
		},
	})

	return cmd
}

// serverURL returns the base URL of the edit server to talk to, scanning
// the network when addr is empty
func (a *app) serverURL(cmd *cobra.Command, addr string) (string, error) {
	if addr != "" {
		if strings.Contains(addr, "://") {
			return strings.TrimSuffix(addr, "/"), nil
		}
		return "http://" + addr, nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "No server specified, attempting auto-discovery...")

	scanner := discovery.NewScanner()
	if t := a.registry.Preferences.DiscoverTimeout; t > 0 {
		scanner.Timeout = time.Duration(t) * time.Second
	}
	instances, err := scanner.Scan(cmd.Context())
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	switch len(instances) {
	case 0:
		return "", fmt.Errorf("no edit servers found. Use --server to specify one")
	case 1:
		inst := instances[0]
		fmt.Fprintf(out, "%s Found %s\n\n", ui.SuccessMarker, inst)
		return inst.BaseURL(), nil
	default:
		fmt.Fprintf(out, "Found %d servers:\n", len(instances))
		for i, inst := range instances {
			fmt.Fprintf(out, "%d. %s\n", i+1, inst)
		}
		return "", fmt.Errorf("multiple edit servers found. Use --server to specify which one")
	}
}
