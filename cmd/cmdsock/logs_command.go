package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"cmdsock/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var connID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the current daemon log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			path := filepath.Join(cfg.LogDir(), "cmdsock.log")
			match := logs.ConnFilter(connID)
			stdout := cmd.OutOrStdout()

			tail, offset, err := logs.Last(path, lines, match)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(stdout, line)
			}
			if !follow {
				if len(tail) == 0 && lines > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "No log lines in %s\n", path)
				}
				return nil
			}

			return logs.Follow(cmd.Context(), path, offset, 0, match, func(line string) error {
				_, err := fmt.Fprintln(stdout, line)
				return err
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines, following daemon restarts")
	cmd.Flags().StringVar(&connID, "conn", "", "Only show lines for this connection id (full or 8-character prefix)")
	return cmd
}
