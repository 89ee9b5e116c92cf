package main

import (
	"os"
	"path/filepath"
	"testing"

	"cmdsock/internal/config"
)

func TestConfigInitWritesSample(t *testing.T) {
	base := t.TempDir()
	isolateHome(t, base)
	target := filepath.Join(base, "conf", "cmdsock.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Server.Backlog != config.DefaultBacklog {
		t.Fatalf("expected sample backlog %d, got %d", config.DefaultBacklog, cfg.Server.Backlog)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateUsesConfigFlag(t *testing.T) {
	base := t.TempDir()
	isolateHome(t, base)
	path := filepath.Join(base, "cmdsock.toml")
	content := "[paths]\nstate_dir = \"" + filepath.Join(base, "state") + "\"\n\n[server]\nbacklog = 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, _, err := runCLI(t, []string{"config", "validate"}, "", path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+path)
	requireContains(t, out, "backlog 3")
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsInvalid(t *testing.T) {
	base := t.TempDir()
	isolateHome(t, base)
	path := filepath.Join(base, "bad.toml")
	if err := os.WriteFile(path, []byte("[server]\nbacklog = 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "validate"}, "", path); err == nil {
		t.Fatal("expected invalid backlog to fail validation")
	}
}
