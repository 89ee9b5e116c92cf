package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cmdsock/internal/config"
	"cmdsock/internal/daemon"
	"cmdsock/internal/history"
	"cmdsock/internal/ipc"
	"cmdsock/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the cmdsock daemon and blocks until ctx is canceled or the
// process receives SIGINT or SIGTERM. Failing to bind or listen on the socket
// is returned as an error.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logDir := cfg.LogDir()
	logPath := filepath.Join(logDir, fmt.Sprintf("cmdsock-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(logDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update cmdsock.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: logDir, Pattern: "cmdsock-*.log", Keep: []string{logPath}},
	)

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	defer d.Stop()

	var handlerOpts []ipc.HandlerOption
	if cfg.Server.ForwardStderr {
		handlerOpts = append(handlerOpts, ipc.WithStderr(os.Stderr))
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		// Handlers are not drained, so entries finishing after this close
		// are dropped with history.ErrClosed.
		defer store.Close()
		pruneHistory(signalCtx, logger, store, cfg.History.RetentionDays)
		handlerOpts = append(handlerOpts, ipc.WithRecorder(store))
	}

	handler := ipc.NewHandler(cfg.Server.Shell, logger, handlerOpts...)
	server, err := ipc.NewServer(ipc.Options{
		SocketPath: cfg.Paths.SocketPath,
		Backlog:    cfg.Server.Backlog,
		SocketMode: cfg.SocketFileMode(),
	}, handler, logger)
	if err != nil {
		logging.ErrorWithContext(logger, "socket setup failed", "ipc_listen_failed",
			logging.String(logging.FieldSocket, cfg.Paths.SocketPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "daemon cannot accept connections"),
			logging.String(logging.FieldErrorHint, "ensure the socket directory exists and is writable"),
		)
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer server.Close()
	go server.Serve()

	logger.Info("cmdsock daemon ready",
		logging.String(logging.FieldSocket, server.Path()),
		logging.String("log_path", logPath),
		logging.Bool("history_enabled", cfg.History.Enabled),
		logging.String(logging.FieldEventType, "daemon_ready"),
	)

	<-signalCtx.Done()
	logger.Info("cmdsock daemon shutting down", logging.Int64("connections_accepted", int64(server.Accepted())))
	return nil
}

func pruneHistory(ctx context.Context, logger *slog.Logger, store *history.Store, retentionDays int) {
	if retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed, err := store.Prune(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(logger, "history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "old history entries remain"),
			logging.String(logging.FieldErrorHint, "check the history database path and disk space"),
		)
		return
	}
	if removed > 0 {
		logger.Info("history pruned", logging.Int64("removed", removed), logging.Int("retention_days", retentionDays))
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "cmdsock.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
