package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	Workspaces saveWorkspacesConfig `json:"workspaces"`
	Monitor    saveMonitorConfig    `json:"monitor"`
	UI         UIConfig             `json:"ui"`
	History    saveHistoryConfig    `json:"history"`
}

type saveWorkspacesConfig struct {
	List     []WorkspaceConfig `json:"list,omitempty"`
	ScanRoot string            `json:"scanRoot,omitempty"`
}

type saveMonitorConfig struct {
	AgentName         string `json:"agentName,omitempty"`
	ClaudeDataDir     string `json:"claudeDataDir,omitempty"`
	RecomputeInterval string `json:"recomputeInterval,omitempty"`
	RescanInterval    string `json:"rescanInterval,omitempty"`
	ExecutingWindow   string `json:"executingWindow,omitempty"`
	MinWaitingAge     string `json:"minWaitingAge,omitempty"`
	WaitingWindow     string `json:"waitingWindow,omitempty"`
	FinishedWindow    string `json:"finishedWindow,omitempty"`
}

type saveHistoryConfig struct {
	Enabled   *bool  `json:"enabled,omitempty"`
	DBPath    string `json:"dbPath,omitempty"`
	Retention string `json:"retention,omitempty"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	return saveConfig{
		Workspaces: saveWorkspacesConfig{
			List:     cfg.Workspaces.List,
			ScanRoot: cfg.Workspaces.ScanRoot,
		},
		Monitor: saveMonitorConfig{
			AgentName:         cfg.Monitor.AgentName,
			ClaudeDataDir:     cfg.Monitor.ClaudeDataDir,
			RecomputeInterval: cfg.Monitor.RecomputeInterval.String(),
			RescanInterval:    cfg.Monitor.RescanInterval.String(),
			ExecutingWindow:   cfg.Monitor.ExecutingWindow.String(),
			MinWaitingAge:     cfg.Monitor.MinWaitingAge.String(),
			WaitingWindow:     cfg.Monitor.WaitingWindow.String(),
			FinishedWindow:    cfg.Monitor.FinishedWindow.String(),
		},
		UI: cfg.UI,
		History: saveHistoryConfig{
			Enabled:   &cfg.History.Enabled,
			DBPath:    cfg.History.DBPath,
			Retention: cfg.History.Retention.String(),
		},
	}
}

// Save writes the config to ~/.config/workspaces-list/config.json,
// preserving any top-level keys it doesn't manage.
func Save(cfg *Config) error {
	path := ConfigPath()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	merged := make(map[string]json.RawMessage)
	if existing, err := os.ReadFile(path); err == nil {
		// Best effort; a corrupt file is replaced wholesale.
		_ = json.Unmarshal(existing, &merged)
	}

	b, err := json.Marshal(toSaveConfig(cfg))
	if err != nil {
		return err
	}
	var managed map[string]json.RawMessage
	if err := json.Unmarshal(b, &managed); err != nil {
		return err
	}
	for k, v := range managed {
		merged[k] = v
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// AddWorkspace appends a workspace to the configured list and saves. The
// path is stored as given; duplicates are rejected.
func AddWorkspace(name, path string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	expanded := ExpandPath(path)
	for _, ws := range cfg.Workspaces.List {
		if ws.Path == expanded || ws.Path == path {
			return fmt.Errorf("workspace already configured: %s", path)
		}
	}
	if name == "" {
		name = filepath.Base(expanded)
	}
	cfg.Workspaces.List = append(cfg.Workspaces.List, WorkspaceConfig{Name: name, Path: path})
	return Save(cfg)
}

// RemoveWorkspace drops a workspace from the configured list and saves.
func RemoveWorkspace(path string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	expanded := ExpandPath(path)
	kept := cfg.Workspaces.List[:0]
	found := false
	for _, ws := range cfg.Workspaces.List {
		if ws.Path == expanded || ws.Path == path {
			found = true
			continue
		}
		kept = append(kept, ws)
	}
	if !found {
		return fmt.Errorf("workspace not configured: %s", path)
	}
	cfg.Workspaces.List = kept
	return Save(cfg)
}
