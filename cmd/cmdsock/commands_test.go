package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestExecCommandStreamsOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"exec", "echo", "hello", "world"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if out != "hello world\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExecCommandPassesFlagsThrough(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"exec", "ls", "-d", "/"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if out != "/\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExecCommandReadsStdin(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLIWithInput(t, []string{"exec", "-"}, env.socketPath, env.configPath, strings.NewReader("echo from-stdin"))
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if out != "from-stdin\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExecCommandWarnsOnOversizedCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	long := "echo ok" + strings.Repeat(" ", 9000)
	out, errOut, err := runCLIWithInput(t, []string{"exec", "-"}, env.socketPath, env.configPath, strings.NewReader(long))
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if out != "ok\n" {
		t.Fatalf("unexpected output %q", out)
	}
	requireContains(t, errOut, "exceeds 8191 bytes")
}

func TestExecCommandWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(filepath.Dir(env.socketPath), "absent.sock")

	_, _, err := runCLI(t, []string{"exec", "true"}, missing, env.configPath)
	if err == nil {
		t.Fatal("expected error when the socket is missing")
	}
	requireContains(t, err.Error(), "cmdsock start")
}

func TestStatusCommandRunning(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon Status")
	requireContains(t, out, fmt.Sprintf("[OK] Running (pid %d)", os.Getpid()))
	requireContains(t, out, "(mode 0666)")
	requireContains(t, out, "History:")
}

func TestStatusCommandStopped(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := env.server.Close(); err != nil {
		t.Fatalf("close server: %v", err)
	}
	env.daemon.Stop()

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[WARN] Not running")
	requireContains(t, out, "not present")
}

func TestStopCommandWhenNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	env.daemon.Stop()

	out, _, err := runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"exec", "echo", "recorded"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("exec: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool {
		entries, err := env.history.Recent(context.Background(), 0)
		return err == nil && len(entries) > 0
	})

	out, _, err := runCLI(t, []string{"history", "--limit", "5"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "COMMAND")
	requireContains(t, out, "echo recorded")
	requireContains(t, out, "completed")
}

func TestHistoryCommandDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.History.Enabled = false
	env.cfg.History.Path = filepath.Join(filepath.Dir(env.cfg.HistoryPath()), "unused.db")
	configPath := writeTestConfig(t, env.cfg)

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "History is disabled")
}

func TestSocketFlagOverridesConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	other := filepath.Join(filepath.Dir(env.socketPath), "other.sock")

	_, _, err := runCLI(t, []string{"exec", "true"}, other, env.configPath)
	if err == nil || !strings.Contains(err.Error(), other) {
		t.Fatalf("expected dial of the overridden socket %s, got %v", other, err)
	}
}

func TestSocketFlagIsValidated(t *testing.T) {
	env := setupCLITestEnv(t)
	long := filepath.Join(filepath.Dir(env.socketPath), strings.Repeat("s", 120)+".sock")

	_, _, err := runCLI(t, []string{"exec", "true"}, long, env.configPath)
	if err == nil {
		t.Fatal("expected an over-long socket path to be rejected")
	}
	requireContains(t, err.Error(), "longer than 107 bytes")
}

func TestLogsCommandShowsTail(t *testing.T) {
	env := setupCLITestEnv(t)
	logDir := env.cfg.LogDir()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	content := "first\nconn 1234abcd – connection closed\nconn 99999999 – connection closed\n"
	if err := os.WriteFile(filepath.Join(logDir, "cmdsock.log"), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "conn 1234abcd – connection closed\nconn 99999999 – connection closed\n" {
		t.Fatalf("unexpected tail %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--conn", "1234abcd"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs --conn: %v", err)
	}
	if out != "conn 1234abcd – connection closed\n" {
		t.Fatalf("unexpected filtered output %q", out)
	}
}

func TestLogsCommandFollowStopsOnCancel(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.LogDir(), "cmdsock.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	if err := os.WriteFile(logPath, []byte("before\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := newRootCommand()
	cmd.SetArgs([]string{"--socket", env.socketPath, "--config", env.configPath, "logs", "--follow", "-n", "1"})
	cmd.SetContext(ctx)
	stdout := &syncBuffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&syncBuffer{})

	done := make(chan error, 1)
	go func() {
		done <- cmd.Execute()
	}()

	waitFor(t, 5*time.Second, func() bool { return strings.Contains(stdout.String(), "before") })
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString("after\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()
	waitFor(t, 5*time.Second, func() bool { return strings.Contains(stdout.String(), "after") })

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("logs --follow: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("logs --follow did not stop on cancel")
	}
}
