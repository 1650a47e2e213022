package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/escconf/internal/escsettings"
	"github.com/muurk/escconf/internal/ui"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage named settings profiles",
		Long: `Profiles store the common settings of a file under a name so they can
be applied to other files of the same layout.`,
	}
	cmd.AddCommand(
		newProfileSaveCmd(a),
		newProfileApplyCmd(a),
		newProfileListCmd(a),
		newProfileDeleteCmd(a),
	)
	return cmd
}

func newProfileSaveCmd(a *app) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "save <name> [file]",
		Short: "Save the common settings of a file as a profile",
		Long: `Save the common settings of a file as a profile.
Settings the ESCs disagree on are left out.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			path, err := a.resolvePath(args[1:])
			if err != nil {
				return err
			}
			store, err := escsettings.LoadFile(path)
			if err != nil {
				return err
			}

			values := map[string]int{}
			var skipped []string
			for _, d := range store.Layout().Common() {
				value, inSync, err := store.Common(d.Name)
				if err != nil {
					return err
				}
				if !inSync {
					skipped = append(skipped, d.Name)
					continue
				}
				values[d.Name] = value
			}

			a.registry.SaveProfile(name, store.Layout().Name, description, values)
			if err := a.registry.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s Saved profile %q (%s, %d settings)\n", ui.SuccessMarker, name, store.Layout().Name, len(values))
			if len(skipped) > 0 {
				fmt.Fprintf(out, "%s Skipped out-of-sync settings: %s\n", ui.WarningMarker, strings.Join(skipped, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Profile description")
	return cmd
}

func newProfileApplyCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "apply <name> [file]",
		Short: "Apply a profile to a settings file",
		Long: `Apply a profile to a settings file.

Every value is committed through its field, so values are clamped exactly
like interactive edits. The differences are shown for confirmation before
the file is written.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.registry.GetProfile(args[0])
			if err != nil {
				return err
			}
			path, err := a.resolvePath(args[1:])
			if err != nil {
				return err
			}
			form, err := a.openForm(path)
			if err != nil {
				return err
			}
			store := form.Store()
			if profile.Layout != store.Layout().Name {
				return escsettings.NewLayoutError(fmt.Sprintf("profile %q is for %s, file is %s", args[0], profile.Layout, store.Layout().Name))
			}
			before := escsettings.NewStore(store.Layout(), store.Snapshot())

			out := cmd.OutOrStdout()
			_, errs := form.Apply(profile.Settings)
			for _, err := range errs {
				fmt.Fprintf(out, "%s %s\n", ui.WarningMarker, escsettings.GetShortErrorMessage(err))
			}

			if !form.HasChanges() {
				fmt.Fprintln(out, "File already matches the profile.")
				return nil
			}

			if !yes {
				items := diffLines(escsettings.FormatDiff(before, store))
				if !ui.Confirm(cmd.InOrStdin(), out, fmt.Sprintf("Apply profile %q to %s", args[0], path), items, "Write these changes?") {
					return nil
				}
			}

			result := escsettings.SaveAndVerify(path, store)
			if !result.Success {
				return result.Error
			}
			a.remember(path)
			fmt.Fprintf(out, "%s Applied profile %q to %s\n", ui.SuccessMarker, args[0], path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Write without asking for confirmation")
	return cmd
}

// diffLines returns the change lines of a FormatDiff report
func diffLines(diff string) []string {
	var items []string
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "  ") {
			items = append(items, strings.TrimSpace(line))
		}
	}
	return items
}

func newProfileListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			names := a.registry.ProfileNames()
			if len(names) == 0 {
				fmt.Fprintln(out, "No profiles saved. Use 'escconf profile save <name> <file>' to create one.")
				return nil
			}

			for _, name := range names {
				p := a.registry.Profiles[name]
				fmt.Fprintf(out, "%s (%s, %d settings, saved %s)\n", name, p.Layout, len(p.Settings), p.SavedAt.Format("2006-01-02 15:04"))
				if p.Description != "" {
					fmt.Fprintf(out, "   %s\n", p.Description)
				}
			}
			return nil
		},
	}
}

func newProfileDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>...",
		Short: "Delete saved profiles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				if err := a.registry.DeleteProfile(name); err != nil {
					return err
				}
			}
			if err := a.registry.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", ui.SuccessMarker, strings.Join(args, ", "))
			return nil
		},
	}
}
