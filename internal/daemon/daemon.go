package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"cmdsock/internal/config"
	"cmdsock/internal/logging"
)

// ErrAlreadyRunning is returned by Start when another process holds the
// daemon lock for the same state directory.
var ErrAlreadyRunning = errors.New("another cmdsock daemon instance is already running")

// Daemon enforces single-instance execution for one state directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	lockPath string
	pidPath  string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	SocketPath   string
	LockFilePath string
	PIDFilePath  string
}

// New constructs a daemon for cfg. Nothing is locked until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: lockPath,
		pidPath:  cfg.PIDPath(),
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and writes the pid file.
func (d *Daemon) Start() error {
	if d.running.Load() {
		return errors.New("daemon already started")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	if err := writePIDFile(d.pidPath); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("write pid file: %w", err)
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("cmdsock daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("pid", os.Getpid()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop removes the pid file and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	if err := os.Remove(d.pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(d.logger, "failed to remove pid file", "daemon_pid_cleanup_failed",
			logging.String("pid_file", d.pidPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "status may report a stale pid"),
			logging.String(logging.FieldErrorHint, "remove the pid file manually"),
		)
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "lock is released when the process exits"),
		)
	}
	d.logger.Info("cmdsock daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Status reports the in-process view of the daemon.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		SocketPath:   d.cfg.Paths.SocketPath,
		LockFilePath: d.lockPath,
		PIDFilePath:  d.pidPath,
	}
	if status.Running {
		status.PID = os.Getpid()
		status.StartedAt = d.startedAt
	}
	return status
}
