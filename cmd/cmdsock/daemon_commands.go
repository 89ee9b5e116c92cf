package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cmdsock/internal/daemonctl"
)

const (
	startWaitTimeout = 10 * time.Second
	stopGracePeriod  = 5 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the cmdsock daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, daemonLaunchOptions(ctx), startWaitTimeout)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the cmdsock daemon (in-flight commands keep running)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(ctx.configValue(), stopGracePeriod)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon ignored SIGTERM; killed process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := daemonctl.BuildStatus(cmd.Context(), ctx.configValue())
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range buildStatusLines(status) {
				fmt.Fprintln(stdout, renderStatusLine(line.label, line.kind, line.detail, colorize))
			}
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the cmdsock daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(ctx.configValue(), exe, daemonLaunchOptions(ctx), stopGracePeriod, startWaitTimeout)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Daemon ignored SIGTERM; killed process (pid %d)\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

type statusLine struct {
	label  string
	kind   statusKind
	detail string
}

func buildStatusLines(status *daemonctl.Status) []statusLine {
	lines := make([]statusLine, 0, 5)

	if status.Running {
		detail := "Running"
		if status.PID > 0 {
			detail = fmt.Sprintf("Running (pid %d)", status.PID)
		}
		lines = append(lines, statusLine{"Daemon", statusOK, detail})
	} else {
		lines = append(lines, statusLine{"Daemon", statusWarn, "Not running (run `cmdsock start`)"})
	}

	switch {
	case status.Reachable:
		lines = append(lines, statusLine{"Socket", statusOK, fmt.Sprintf("%s (mode %#o)", status.SocketPath, status.SocketMode)})
	case status.SocketPresent:
		lines = append(lines, statusLine{"Socket", statusError, fmt.Sprintf("%s refuses connections (stale socket?)", status.SocketPath)})
	default:
		lines = append(lines, statusLine{"Socket", statusInfo, fmt.Sprintf("%s not present", status.SocketPath)})
	}

	lines = append(lines, statusLine{"Lock", statusInfo, fmt.Sprintf("%s (held: %s)", status.LockPath, yesNo(status.Running))})

	if status.HistoryEnabled {
		lines = append(lines, statusLine{"History", statusOK, status.HistoryPath})
	} else {
		lines = append(lines, statusLine{"History", statusInfo, "Disabled"})
	}
	return lines
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	var opts daemonctl.LaunchOptions
	if socket := ctx.socketOverride(); socket != "" {
		opts.SocketPath = socket
	}
	if cfg := strings.TrimSpace(ctx.configPath()); cfg != "" {
		opts.ConfigPath = cfg
	}
	return opts
}
