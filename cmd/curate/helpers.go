package main

import (
	"time"

	"github.com/nspond/curate/internal/config"
)

// mustLoadSettings loads pipeline settings and ensures the data
// directories exist, exiting on failure.
func mustLoadSettings() config.Settings {
	settings := config.LoadSettings()
	if err := settings.EnsureDirectories(); err != nil {
		exitWithError(ExitConfigError, "preparing data directories: %v", err)
	}
	return settings
}

// mustLoadGlobalConfig loads the global configuration, exiting on
// failure.
func mustLoadGlobalConfig() *config.GlobalConfig {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading global config: %v", err)
	}
	return cfg
}

// timestampUTC formats a time for run metadata.
func timestampUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
