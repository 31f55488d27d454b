package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Workspaces WorkspacesConfig `json:"workspaces"`
	Monitor    MonitorConfig    `json:"monitor"`
	UI         UIConfig         `json:"ui"`
	History    HistoryConfig    `json:"history"`
}

// WorkspacesConfig selects which directories are watched.
type WorkspacesConfig struct {
	// List is the explicit set of workspaces.
	List []WorkspaceConfig `json:"list"`
	// ScanRoot, when set, is a directory whose immediate children holding a
	// .git entry are added to the list at startup and on reload.
	ScanRoot string `json:"scanRoot,omitempty"`
}

// WorkspaceConfig is a single configured workspace.
type WorkspaceConfig struct {
	Name string `json:"name"` // display name; empty means the directory base name
	Path string `json:"path"` // path to the workspace root (supports ~ expansion)
}

// MonitorConfig tunes status inference.
type MonitorConfig struct {
	// AgentName is the process name scanned for in the process table.
	AgentName string `json:"agentName"`
	// ClaudeDataDir is where the agent keeps its session logs.
	ClaudeDataDir string `json:"claudeDataDir"`

	RecomputeInterval time.Duration `json:"recomputeInterval"`
	RescanInterval    time.Duration `json:"rescanInterval"`
	ExecutingWindow   time.Duration `json:"executingWindow"`
	MinWaitingAge     time.Duration `json:"minWaitingAge"`
	WaitingWindow     time.Duration `json:"waitingWindow"`
	FinishedWindow    time.Duration `json:"finishedWindow"`
}

// UIConfig configures UI appearance.
type UIConfig struct {
	ShowFooter  bool `json:"showFooter"`
	ShowPreview bool `json:"showPreview"`
}

// HistoryConfig configures the transition log.
type HistoryConfig struct {
	Enabled bool `json:"enabled"`
	// DBPath overrides the database location; empty means the standard
	// per-user config dir.
	DBPath    string        `json:"dbPath,omitempty"`
	Retention time.Duration `json:"retention"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Workspaces: WorkspacesConfig{},
		Monitor: MonitorConfig{
			AgentName:         "claude",
			ClaudeDataDir:     "~/.claude",
			RecomputeInterval: 5 * time.Second,
			RescanInterval:    30 * time.Second,
			ExecutingWindow:   30 * time.Second,
			MinWaitingAge:     10 * time.Second,
			WaitingWindow:     5 * time.Minute,
			FinishedWindow:    30 * time.Minute,
		},
		UI: UIConfig{
			ShowFooter:  true,
			ShowPreview: true,
		},
		History: HistoryConfig{
			Enabled:   true,
			Retention: 30 * 24 * time.Hour,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	def := Default()
	if c.Monitor.RecomputeInterval < 0 {
		c.Monitor.RecomputeInterval = def.Monitor.RecomputeInterval
	}
	if c.Monitor.RescanInterval < 0 {
		c.Monitor.RescanInterval = def.Monitor.RescanInterval
	}
	if c.Monitor.ExecutingWindow < 0 {
		c.Monitor.ExecutingWindow = def.Monitor.ExecutingWindow
	}
	if c.Monitor.MinWaitingAge < 0 {
		c.Monitor.MinWaitingAge = def.Monitor.MinWaitingAge
	}
	if c.Monitor.WaitingWindow < 0 {
		c.Monitor.WaitingWindow = def.Monitor.WaitingWindow
	}
	if c.Monitor.FinishedWindow < 0 {
		c.Monitor.FinishedWindow = def.Monitor.FinishedWindow
	}
	if c.History.Retention <= 0 {
		c.History.Retention = def.History.Retention
	}
	return nil
}
