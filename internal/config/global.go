package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in
// ~/.config/curate/config.yml: API credentials and the contact email
// sent to NCBI with requests.
type GlobalConfig struct {
	NCBIAPIKey string `yaml:"ncbi_api_key,omitempty"`
	S2APIKey   string `yaml:"s2_api_key,omitempty"`
	Email      string `yaml:"email,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "curate"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables overriding the global config file.
const (
	NCBIAPIKeyEnv = "NCBI_API_KEY"
	S2APIKeyEnv   = "S2_API_KEY"
	EmailEnv      = "CURATE_EMAIL"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/curate/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file and applies
// environment overrides. Returns an empty config (not an error) if the
// file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg := &GlobalConfig{}
	path := GlobalConfigPath()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing global config: %w", err)
			}
		}
	}

	if key := os.Getenv(NCBIAPIKeyEnv); key != "" {
		cfg.NCBIAPIKey = key
	}
	if key := os.Getenv(S2APIKeyEnv); key != "" {
		cfg.S2APIKey = key
	}
	if email := os.Getenv(EmailEnv); email != "" {
		cfg.Email = email
	}

	globalConfigCache = cfg
	return cfg, nil
}

// ResetGlobalConfigCache clears the cached global config (for tests).
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}
