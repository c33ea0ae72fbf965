package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nspond/curate/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the data layout and credentials the tool would use, after
applying the global config file and environment overrides. API keys
are reported as set or unset, never printed.

Examples:
  curate config show
  curate config show --human`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigResponse is the JSON output of config show.
type ConfigResponse struct {
	DataRoot      string `json:"data_root"`
	RawDir        string `json:"raw_dir"`
	InterimDir    string `json:"interim_dir"`
	ProcessedDir  string `json:"processed_dir"`
	FinalDir      string `json:"final_dir"`
	CacheDBPath   string `json:"cache_db_path"`
	GlobalConfig  string `json:"global_config"`
	Email         string `json:"email"`
	NCBIAPIKeySet bool   `json:"ncbi_api_key_set"`
	S2APIKeySet   bool   `json:"s2_api_key_set"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	settings := config.LoadSettings()
	global := mustLoadGlobalConfig()

	response := ConfigResponse{
		DataRoot:      settings.DataRoot,
		RawDir:        settings.RawDir(),
		InterimDir:    settings.InterimDir(),
		ProcessedDir:  settings.ProcessedDir(),
		FinalDir:      settings.FinalDir(),
		CacheDBPath:   settings.CacheDBPath(),
		GlobalConfig:  config.GlobalConfigPath(),
		Email:         global.Email,
		NCBIAPIKeySet: global.NCBIAPIKey != "",
		S2APIKeySet:   global.S2APIKey != "",
	}

	if humanOutput {
		fmt.Printf("Data root:      %s\n", response.DataRoot)
		fmt.Printf("Raw dir:        %s\n", response.RawDir)
		fmt.Printf("Interim dir:    %s\n", response.InterimDir)
		fmt.Printf("Processed dir:  %s\n", response.ProcessedDir)
		fmt.Printf("Final dir:      %s\n", response.FinalDir)
		fmt.Printf("Cache DB:       %s\n", response.CacheDBPath)
		fmt.Printf("Global config:  %s\n", response.GlobalConfig)
		fmt.Printf("Email:          %s\n", orDash(response.Email))
		fmt.Printf("NCBI API key:   %s\n", setOrUnset(response.NCBIAPIKeySet))
		fmt.Printf("S2 API key:     %s\n", setOrUnset(response.S2APIKeySet))
	} else {
		outputJSON(response)
	}
	return nil
}

func setOrUnset(set bool) string {
	if set {
		return "set"
	}
	return "unset"
}
