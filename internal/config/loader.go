package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDir  = ".config/workspaces-list"
	configFile = "config.json"
)

// rawConfig is the JSON-unmarshaling intermediary.
type rawConfig struct {
	Workspaces rawWorkspacesConfig `json:"workspaces"`
	Monitor    rawMonitorConfig    `json:"monitor"`
	UI         rawUIConfig         `json:"ui"`
	History    rawHistoryConfig    `json:"history"`
}

type rawWorkspacesConfig struct {
	List     []rawWorkspaceConfig `json:"list"`
	ScanRoot string               `json:"scanRoot"`
}

type rawWorkspaceConfig struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type rawMonitorConfig struct {
	AgentName         string `json:"agentName"`
	ClaudeDataDir     string `json:"claudeDataDir"`
	RecomputeInterval string `json:"recomputeInterval"`
	RescanInterval    string `json:"rescanInterval"`
	ExecutingWindow   string `json:"executingWindow"`
	MinWaitingAge     string `json:"minWaitingAge"`
	WaitingWindow     string `json:"waitingWindow"`
	FinishedWindow    string `json:"finishedWindow"`
}

type rawUIConfig struct {
	ShowFooter  *bool `json:"showFooter"`
	ShowPreview *bool `json:"showPreview"`
}

type rawHistoryConfig struct {
	Enabled   *bool  `json:"enabled"`
	DBPath    string `json:"dbPath"`
	Retention string `json:"retention"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/workspaces-list/config.json
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigPath()
		if path == "" {
			return cfg, nil // Return defaults when home is unknown
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	// Merge raw config into defaults
	mergeConfig(cfg, &raw)

	// Expand paths
	cfg.Monitor.ClaudeDataDir = ExpandPath(cfg.Monitor.ClaudeDataDir)
	cfg.Workspaces.ScanRoot = ExpandPath(cfg.Workspaces.ScanRoot)
	cfg.History.DBPath = ExpandPath(cfg.History.DBPath)

	// Expand paths in the workspace list and warn if a path doesn't exist
	for i := range cfg.Workspaces.List {
		cfg.Workspaces.List[i].Path = ExpandPath(cfg.Workspaces.List[i].Path)
		if _, err := os.Stat(cfg.Workspaces.List[i].Path); os.IsNotExist(err) {
			slog.Warn("workspace path not found", "name", cfg.Workspaces.List[i].Name, "path", cfg.Workspaces.List[i].Path)
		}
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) {
	// Workspaces
	if len(raw.Workspaces.List) > 0 {
		cfg.Workspaces.List = make([]WorkspaceConfig, len(raw.Workspaces.List))
		for i, rw := range raw.Workspaces.List {
			cfg.Workspaces.List[i] = WorkspaceConfig{
				Name: rw.Name,
				Path: rw.Path,
			}
		}
	}
	if raw.Workspaces.ScanRoot != "" {
		cfg.Workspaces.ScanRoot = raw.Workspaces.ScanRoot
	}

	// Monitor
	if raw.Monitor.AgentName != "" {
		cfg.Monitor.AgentName = raw.Monitor.AgentName
	}
	if raw.Monitor.ClaudeDataDir != "" {
		cfg.Monitor.ClaudeDataDir = raw.Monitor.ClaudeDataDir
	}
	mergeDuration(&cfg.Monitor.RecomputeInterval, raw.Monitor.RecomputeInterval)
	mergeDuration(&cfg.Monitor.RescanInterval, raw.Monitor.RescanInterval)
	mergeDuration(&cfg.Monitor.ExecutingWindow, raw.Monitor.ExecutingWindow)
	mergeDuration(&cfg.Monitor.MinWaitingAge, raw.Monitor.MinWaitingAge)
	mergeDuration(&cfg.Monitor.WaitingWindow, raw.Monitor.WaitingWindow)
	mergeDuration(&cfg.Monitor.FinishedWindow, raw.Monitor.FinishedWindow)

	// UI
	if raw.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *raw.UI.ShowFooter
	}
	if raw.UI.ShowPreview != nil {
		cfg.UI.ShowPreview = *raw.UI.ShowPreview
	}

	// History
	if raw.History.Enabled != nil {
		cfg.History.Enabled = *raw.History.Enabled
	}
	if raw.History.DBPath != "" {
		cfg.History.DBPath = raw.History.DBPath
	}
	mergeDuration(&cfg.History.Retention, raw.History.Retention)
}

func mergeDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// testConfigPath overrides ConfigPath during tests.
var testConfigPath string

// SetTestConfigPath points Load and Save at a fixed file.
func SetTestConfigPath(path string) { testConfigPath = path }

// ResetTestConfigPath restores the default config location.
func ResetTestConfigPath() { testConfigPath = "" }

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if testConfigPath != "" {
		return testConfigPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}
