package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cmdsock/internal/ipc"
)

func newExecCommand(ctx *commandContext) *cobra.Command {
	var retry bool
	cmd := &cobra.Command{
		Use:   "exec <command...> | exec -",
		Short: "Run a shell command through the daemon and stream its output",
		Long: "Sends the arguments, joined by spaces, as one command line. Use - to read the\n" +
			"command from stdin. Only stdout is returned; the exit status is not.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")
			if len(args) == 1 && args[0] == "-" {
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), ipc.RequestLimit+1))
				if err != nil {
					return fmt.Errorf("read command from stdin: %w", err)
				}
				command = string(data)
			}
			if len(command) > ipc.RequestLimit {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: command exceeds %d bytes; only the first %[1]d are sent\n", ipc.RequestLimit)
			}

			socket := ctx.socketPath()
			stdout := cmd.OutOrStdout()
			if retry {
				_, err := ipc.ExecWithRetry(cmd.Context(), socket, command, stdout, ipc.DefaultRetryPolicy)
				return err
			}
			_, err := ipc.Exec(cmd.Context(), socket, command, stdout)
			return err
		},
	}
	// Everything after the first argument belongs to the remote command.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&retry, "retry", false, "Retry when the daemon socket is not reachable yet")
	return cmd
}
