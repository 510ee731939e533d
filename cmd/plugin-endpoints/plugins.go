package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newPluginsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.host.InstalledPlugins(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Identifier", "Name", "Version", "Active"})
			for _, p := range list {
				t.AppendRow(table.Row{p.ID.String(), p.Name, p.Version, strconv.FormatBool(p.Active)})
			}
			style := table.StyleLight
			style.Options.DrawBorder = false
			t.SetStyle(style)
			t.Render()
			return nil
		},
	}

	cmd.AddCommand(newLifecycleCommand(opts, "activate", true))
	cmd.AddCommand(newLifecycleCommand(opts, "deactivate", false))
	return cmd
}

func newLifecycleCommand(opts *rootOptions, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <slug>",
		Short: "Set the active flag of an installed plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := a.resolver.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if active {
				err = a.host.Activate(cmd.Context(), id)
			} else {
				err = a.host.Deactivate(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %sd\n", id, use)
			return nil
		},
	}
}
