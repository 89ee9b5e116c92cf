package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cmdsock/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "cmdsock", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.SocketPath != config.DefaultSocketPath {
		t.Fatalf("unexpected socket path: got %q want %q", cfg.Paths.SocketPath, config.DefaultSocketPath)
	}
	wantState := filepath.Join(tempHome, ".local", "share", "cmdsock")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Server.Backlog != 10 {
		t.Fatalf("expected backlog 10, got %d", cfg.Server.Backlog)
	}
	if cfg.SocketFileMode() != 0o666 {
		t.Fatalf("expected socket mode 0666, got %o", cfg.SocketFileMode())
	}
	if cfg.Server.Shell != "/bin/sh" {
		t.Fatalf("unexpected shell: %q", cfg.Server.Shell)
	}
	if cfg.History.Enabled {
		t.Fatal("expected history disabled by default")
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.LogDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "cmdsock.toml")

	type payload struct {
		Paths struct {
			SocketPath string `toml:"socket_path"`
			StateDir   string `toml:"state_dir"`
		} `toml:"paths"`
		Server struct {
			Backlog    int    `toml:"backlog"`
			SocketMode string `toml:"socket_mode"`
		} `toml:"server"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.SocketPath = filepath.Join(tempDir, "run", "cmd.sock")
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Server.Backlog = 32
	custom.Server.SocketMode = "0600"
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config %q to be loaded, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.SocketPath != custom.Paths.SocketPath {
		t.Fatalf("unexpected socket path: %q", cfg.Paths.SocketPath)
	}
	if cfg.Server.Backlog != 32 {
		t.Fatalf("expected backlog 32, got %d", cfg.Server.Backlog)
	}
	if cfg.SocketFileMode() != 0o600 {
		t.Fatalf("expected socket mode 0600, got %o", cfg.SocketFileMode())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected log format to be lowercased, got %q", cfg.Logging.Format)
	}
	if cfg.Server.Shell != "/bin/sh" {
		t.Fatalf("expected default shell to survive partial config, got %q", cfg.Server.Shell)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"backlog":     "[server]\nbacklog = 0\n",
		"socket mode": "[server]\nsocket_mode = \"rw-rw-rw-\"\n",
		"wide mode":   "[server]\nsocket_mode = \"01777\"\n",
		"log format":  "[logging]\nformat = \"xml\"\n",
		"unknown key": "[server]\nworkers = 4\n",
		"long socket": "[paths]\nsocket_path = \"/" + strings.Repeat("s", 120) + "\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cmdsock.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected Load to reject %s", name)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	def := config.Default()
	if cfg.Server.Backlog != def.Server.Backlog || cfg.Server.SocketMode != def.Server.SocketMode {
		t.Fatalf("sample config diverges from defaults: %+v", cfg.Server)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/sockets/cmd.sock")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "sockets", "cmd.sock") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
