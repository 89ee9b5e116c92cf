package daemonctl

import (
	"context"
	"errors"
	"os"
	"time"

	"cmdsock/internal/config"
	"cmdsock/internal/daemon"
	"cmdsock/internal/ipc"
)

// Status is a locally built snapshot of the daemon. Nothing in it comes from
// the daemon over the socket.
type Status struct {
	Running        bool
	PID            int
	SocketPath     string
	SocketPresent  bool
	SocketMode     os.FileMode
	Reachable      bool
	LockPath       string
	PIDPath        string
	HistoryEnabled bool
	HistoryPath    string
}

// BuildStatus inspects the lock, pid file and socket, and probes the socket
// with an empty connection.
func BuildStatus(ctx context.Context, cfg *config.Config) (*Status, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	status := &Status{
		SocketPath:     cfg.Paths.SocketPath,
		LockPath:       cfg.LockPath(),
		PIDPath:        cfg.PIDPath(),
		HistoryEnabled: cfg.History.Enabled,
		HistoryPath:    cfg.HistoryPath(),
	}

	held, err := daemon.LockHeld(status.LockPath)
	if err != nil {
		return nil, err
	}
	status.Running = held
	if held {
		if pid, err := daemon.ReadPID(status.PIDPath); err == nil {
			status.PID = pid
		}
	}

	if info, err := os.Stat(status.SocketPath); err == nil && info.Mode()&os.ModeSocket != 0 {
		status.SocketPresent = true
		status.SocketMode = info.Mode().Perm()
	}
	if status.SocketPresent {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		status.Reachable = ipc.Probe(probeCtx, status.SocketPath) == nil
		cancel()
	}
	return status, nil
}
