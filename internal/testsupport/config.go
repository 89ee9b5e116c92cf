package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"cmdsock/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The socket lives in its own short temp directory so the path stays within
// the AF_UNIX limit regardless of the test name.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	socketDir, err := os.MkdirTemp("", "cs")
	if err != nil {
		t.Fatalf("mkdir socket dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(socketDir) })

	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.SocketPath = filepath.Join(socketDir, "d.sock")
	cfgVal.History.Path = ""
	cfgVal.Server.ForwardStderr = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHistory enables the history store at its default location.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithShell overrides the shell used to run requests.
func WithShell(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Shell = path
	}
}

// WithSocketPath overrides the socket location.
func WithSocketPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.SocketPath = path
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
