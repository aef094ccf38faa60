package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ctrlvocab/internal/faults"
)

func TestConfigInitShowValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")

	res := runCLI(t, "", "", "config", "init", "--path", target)
	if res.err != nil {
		t.Fatalf("config init: %v", res.err)
	}
	requireContains(t, res.stdout, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if res := runCLI(t, "", "", "config", "init", "--path", target); res.err == nil {
		t.Fatal("expected init to refuse overwriting without --force")
	}
	if res := runCLI(t, "", "", "config", "init", "--path", target, "--force"); res.err != nil {
		t.Fatalf("config init --force: %v", res.err)
	}

	res = runCLI(t, target, "", "config", "validate")
	if res.err != nil {
		t.Fatalf("config validate: %v", res.err)
	}
	requireContains(t, res.stdout, "Configuration valid")

	res = runCLI(t, target, "", "config", "show")
	if res.err != nil {
		t.Fatalf("config show: %v", res.err)
	}
	requireContains(t, res.stdout, "# loaded from "+target)
	requireContains(t, res.stdout, "batch_size = 50000")
}

func TestInvalidConfigIsConfigurationError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[pipeline]\nbatch_size = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := runCLI(t, path, "", "config", "validate")
	if !errors.Is(res.err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", res.err)
	}
}

func TestLogLevelFlagValidated(t *testing.T) {
	cfgPath := writeCLIConfig(t)
	res := runCLI(t, cfgPath, "", "--log-level", "loud", "config", "show")
	if !errors.Is(res.err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", res.err)
	}
}
