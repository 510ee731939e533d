package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete archives older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.archives.Sweep()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d archive(s), freed %d bytes, skipped %d, errors %d\n",
				len(res.Deleted), res.FreedBytes, len(res.Skipped), len(res.Errors))
			return nil
		},
	}
}
