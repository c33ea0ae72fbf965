package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettings_Default(t *testing.T) {
	t.Setenv(DataRootEnv, "")
	settings := LoadSettings()
	if settings.DataRoot != DefaultDataRoot {
		t.Errorf("DataRoot = %q, want %q", settings.DataRoot, DefaultDataRoot)
	}
}

func TestLoadSettings_EnvOverride(t *testing.T) {
	t.Setenv(DataRootEnv, "/tmp/curate-data")
	settings := LoadSettings()
	if settings.DataRoot != "/tmp/curate-data" {
		t.Errorf("DataRoot = %q", settings.DataRoot)
	}
}

func TestSettingsLayout(t *testing.T) {
	s := Settings{DataRoot: "/data"}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"raw", s.RawDir(), filepath.Join("/data", "raw")},
		{"interim", s.InterimDir(), filepath.Join("/data", "interim")},
		{"processed", s.ProcessedDir(), filepath.Join("/data", "processed")},
		{"final", s.FinalDir(), filepath.Join("/data", "final")},
		{"cache db", s.CacheDBPath(), filepath.Join("/data", "interim", CacheDBFile)},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s dir = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestEnsureDirectories(t *testing.T) {
	s := Settings{DataRoot: filepath.Join(t.TempDir(), "data")}
	if err := s.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}
	for _, dir := range []string{s.RawDir(), s.InterimDir(), s.ProcessedDir(), s.FinalDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", dir, err)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/data", filepath.Join(home, "data")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.input); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
