package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestGetFocusDirWithExplicitEnv(t *testing.T) {
	tmpDir := t.TempDir()
	customDir := filepath.Join(tmpDir, "custom")

	t.Setenv("FOCUS_DIR", customDir)
	t.Setenv("XDG_DATA_HOME", "")

	got := GetFocusDir()
	if got != customDir {
		t.Fatalf("expected %q, got %q", customDir, got)
	}
}

func TestGetFocusDirFallsBackToXDG(t *testing.T) {
	tmpDir := t.TempDir()
	xdgDir := filepath.Join(tmpDir, "xdg")

	t.Setenv("FOCUS_DIR", "")
	t.Setenv("XDG_DATA_HOME", xdgDir)

	got := GetFocusDir()
	want := filepath.Join(xdgDir, "focus")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGetDBAndBackupsPath(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("FOCUS_DIR", tmpDir)

	if got, want := GetDBPath(), filepath.Join(tmpDir, "focus.db"); got != want {
		t.Fatalf("GetDBPath expected %q, got %q", want, got)
	}

	if got, want := GetBackupsDir(), filepath.Join(tmpDir, "backups"); got != want {
		t.Fatalf("GetBackupsDir expected %q, got %q", want, got)
	}
}

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	tmpDir := t.TempDir()
	t.Setenv("FOCUS_DIR", tmpDir)
	t.Chdir(tmpDir)

	Init()
	s, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if s.DBPath != filepath.Join(tmpDir, "focus.db") {
		t.Fatalf("unexpected db path %q", s.DBPath)
	}
	if s.BlockedTimeout != DefaultBlockedTimeout {
		t.Fatalf("expected blocked timeout %s, got %s", DefaultBlockedTimeout, s.BlockedTimeout)
	}
	if s.MaxHandles != DefaultMaxHandles {
		t.Fatalf("expected max handles %d, got %d", DefaultMaxHandles, s.MaxHandles)
	}
	if s.Version != 0 {
		t.Fatalf("expected version 0 (latest), got %d", s.Version)
	}
	if s.Store != DefaultStore {
		t.Fatalf("expected store %q, got %q", DefaultStore, s.Store)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	resetViper(t)
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("FOCUS_DB", filepath.Join(tmpDir, "other.db"))
	t.Setenv("FOCUS_BLOCKED_TIMEOUT", "250ms")
	t.Setenv("FOCUS_SCHEMA_VERSION", "4")
	t.Setenv("FOCUS_STORE", "work")

	Init()
	s, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if s.DBPath != filepath.Join(tmpDir, "other.db") {
		t.Fatalf("unexpected db path %q", s.DBPath)
	}
	if s.BlockedTimeout != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", s.BlockedTimeout)
	}
	if s.Version != 4 {
		t.Fatalf("expected version 4, got %d", s.Version)
	}
	if s.Store != "work" {
		t.Fatalf("expected store work, got %q", s.Store)
	}
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	resetViper(t)
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)
	t.Setenv("FOCUS_MAX_HANDLES", "8")

	Init()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int64("max-handles", DefaultMaxHandles, "")
	if err := flags.Parse([]string{"--max-handles", "3"}); err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if err := BindFlags(flags); err != nil {
		t.Fatalf("BindFlags returned error: %v", err)
	}

	s, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.MaxHandles != 3 {
		t.Fatalf("expected flag value 3, got %d", s.MaxHandles)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("FOCUS_MAX_HANDLES", "0")

	Init()
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero max handles")
	}
}

func TestLoadRejectsEmptyStore(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("FOCUS_STORE", "  ")

	Init()
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for empty store name")
	}
}
