package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"cmdsock/internal/config"
	"cmdsock/internal/daemon"
	"cmdsock/internal/history"
	"cmdsock/internal/ipc"
	"cmdsock/internal/logging"
	"cmdsock/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	history    *history.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
}

// setupCLITestEnv runs the daemon's lock and listener in-process so commands
// can reach it over a real socket.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithHistory())
	isolateHome(t, testsupport.BaseDir(cfg))
	configPath := writeTestConfig(t, cfg)

	logger := logging.NewNop()
	d, err := daemon.New(cfg, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	store := testsupport.MustOpenHistory(t, cfg)
	handler := ipc.NewHandler(cfg.Server.Shell, logger, ipc.WithRecorder(store))
	srv, err := ipc.NewServer(ipc.Options{
		SocketPath: cfg.Paths.SocketPath,
		Backlog:    cfg.Server.Backlog,
		SocketMode: cfg.SocketFileMode(),
	}, handler, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	go srv.Serve()
	t.Cleanup(func() { _ = srv.Close() })

	return &cliTestEnv{
		cfg:        cfg,
		history:    store,
		daemon:     d,
		server:     srv,
		socketPath: cfg.Paths.SocketPath,
		configPath: configPath,
	}
}

func isolateHome(t *testing.T, base string) {
	t.Helper()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, socket, configPath, strings.NewReader(""))
}

func runCLIWithInput(t *testing.T, args []string, socket, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(stdin)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// syncBuffer is a thread-safe wrapper around bytes.Buffer for use in tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
