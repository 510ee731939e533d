package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newPackageCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "package <slug>",
		Short: "Package the current install of a plugin and print its URL",
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
			url, err := a.archives.Package(filepath.Join(opts.cfg.Host.PluginsDir, id.Dir()))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}
