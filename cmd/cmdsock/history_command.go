package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cmdsock/internal/history"
)

var historyColumns = []tableColumn{
	{header: "Started"},
	{header: "Outcome"},
	{header: "Exit", align: alignRight},
	{header: "Duration", align: alignRight},
	{header: "Bytes", align: alignRight},
	{header: "Command", maxWidth: 60},
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently handled connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()
			path := cfg.HistoryPath()

			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if !cfg.History.Enabled {
					fmt.Fprintln(stdout, "History is disabled (set history.enabled = true and restart the daemon)")
					return nil
				}
				fmt.Fprintln(stdout, "No connections recorded yet")
				return nil
			}

			store, err := history.Open(path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "No connections recorded yet")
				return nil
			}

			fmt.Fprint(stdout, renderTable(historyColumns, historyRows(entries)))
			fmt.Fprintln(stdout)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	return cmd
}

func historyRows(entries []history.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		exit := "-"
		if entry.ExitCode != nil {
			exit = strconv.Itoa(*entry.ExitCode)
		}
		rows = append(rows, []string{
			entry.StartedAt.Local().Format("2006-01-02 15:04:05"),
			string(entry.Outcome),
			exit,
			entry.Duration().Round(time.Millisecond).String(),
			strconv.FormatInt(entry.ResponseBytes, 10),
			singleLine(entry.Command),
		})
	}
	return rows
}

// singleLine keeps multi-line commands on one table row.
func singleLine(command string) string {
	return strings.Join(strings.Fields(command), " ")
}
