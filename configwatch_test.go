package fluid

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, doc string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestWatchConfigReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluid.toml")
	writeConfig(t, path, "curl = 10\n")

	cw, err := WatchConfig(context.Background(), path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("WatchConfig() error = %v", err)
	}
	defer cw.Close()

	writeConfig(t, path, "curl = 42\n")

	select {
	case cfg := <-cw.Updates():
		if cfg.Curl != 42 {
			t.Errorf("Curl = %v, want 42", cfg.Curl)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no config update after write")
	}
}

func TestWatchConfigSkipsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluid.toml")
	writeConfig(t, path, "curl = 10\n")

	cw, err := WatchConfig(context.Background(), path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("WatchConfig() error = %v", err)
	}
	defer cw.Close()

	writeConfig(t, path, "sim_resolution = -1\n")
	select {
	case cfg := <-cw.Updates():
		t.Fatalf("got update %+v for invalid file", cfg)
	case <-time.After(300 * time.Millisecond):
	}

	writeConfig(t, path, "curl = 7\n")
	select {
	case cfg := <-cw.Updates():
		if cfg.Curl != 7 {
			t.Errorf("Curl = %v, want 7", cfg.Curl)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no config update after fixing the file")
	}
}

func TestWatchConfigIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fluid.toml")
	writeConfig(t, path, "")

	cw, err := WatchConfig(context.Background(), path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("WatchConfig() error = %v", err)
	}
	defer cw.Close()

	writeConfig(t, filepath.Join(dir, "other.toml"), "curl = 1\n")
	select {
	case cfg := <-cw.Updates():
		t.Fatalf("got update %+v for unrelated file", cfg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConfigWatcherCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fluid.toml")
	writeConfig(t, path, "")

	cw, err := WatchConfig(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("WatchConfig() error = %v", err)
	}
	if err := cw.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
	_ = cw.Close()
}

func TestWatchConfigMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "fluid.toml")
	if _, err := WatchConfig(context.Background(), path, 0); err == nil {
		t.Error("WatchConfig() error = nil, want error for missing directory")
	}
}
