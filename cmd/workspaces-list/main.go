package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gofrs/flock"

	"github.com/starburst997/workspaces-list/internal/app"
	"github.com/starburst997/workspaces-list/internal/config"
	"github.com/starburst997/workspaces-list/internal/history"
	"github.com/starburst997/workspaces-list/internal/monitor"
	"github.com/starburst997/workspaces-list/internal/msg"
	"github.com/starburst997/workspaces-list/internal/state"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
	onceFlag     = flag.Bool("once", false, "print one status snapshot per workspace and exit")
	noHistory    = flag.Bool("no-history", false, "do not record status transitions this run")
	addPath      = flag.String("add", "", "add a workspace `path` to the config and exit")
	removePath   = flag.String("remove", "", "remove a workspace `path` from the config and exit")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("workspaces-list version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *debugFlag {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Config edits need no monitor.
	if *addPath != "" {
		runAdd(*addPath)
		return
	}
	if *removePath != "" {
		runRemove(*removePath)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	workspaces := cfg.AllWorkspaces()

	mcfg := monitor.Config{
		ClaudeDir:         config.ExpandPath(cfg.Monitor.ClaudeDataDir),
		AgentName:         cfg.Monitor.AgentName,
		RecomputeInterval: cfg.Monitor.RecomputeInterval,
		RescanInterval:    cfg.Monitor.RescanInterval,
		ExecutingWindow:   cfg.Monitor.ExecutingWindow,
		MinWaitingAge:     cfg.Monitor.MinWaitingAge,
		WaitingWindow:     cfg.Monitor.WaitingWindow,
		FinishedWindow:    cfg.Monitor.FinishedWindow,
	}

	// Transition history is best-effort: a broken store downgrades to an
	// in-memory-only run rather than refusing to start.
	var hist *history.Store
	if cfg.History.Enabled && !*noHistory && !*onceFlag {
		dbPath := config.ExpandPath(cfg.History.DBPath)
		if dbPath == "" {
			dbPath = history.DefaultPath()
		}
		hist, err = history.Open(dbPath)
		if err != nil {
			logger.Warn("transition history disabled", "error", err)
			hist = nil
		} else {
			defer hist.Close()
			if cfg.History.Retention > 0 {
				if err := hist.Prune(cfg.History.Retention); err != nil {
					logger.Warn("history prune failed", "error", err)
				}
			}
			mcfg.Recorder = hist
		}
	}

	mon := monitor.New(mcfg)
	keys := make([]string, len(workspaces))
	for i, ws := range workspaces {
		keys[i] = ws.Path
	}
	mon.SetWorkspaces(keys)
	if err := mon.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start monitor: %v\n", err)
		os.Exit(1)
	}
	defer mon.Stop()

	if *onceFlag {
		if err := runOnce(mon, workspaces); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	stateDir, err := state.DefaultDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to locate state dir: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create state dir: %v\n", err)
		os.Exit(1)
	}

	// One TUI per user. Two instances would fight over acknowledge state
	// and the focus-driven scan cadence.
	lock := flock.New(filepath.Join(stateDir, "app.lock"))
	locked, lockErr := lock.TryLock()
	if lockErr == nil && !locked {
		fmt.Fprintln(os.Stderr, "workspaces-list is already running")
		os.Exit(1)
	}
	if lockErr != nil {
		logger.Warn("instance lock unavailable", "error", lockErr)
	} else {
		defer lock.Unlock()
	}

	prefs, err := state.Open(stateDir)
	if err != nil {
		logger.Warn("state file unreadable, starting fresh", "error", err)
		prefs = state.New(stateDir)
	}

	model := app.New(cfg, *configPath, mon, hist, prefs, effectiveVersion(Version))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithReportFocus())

	// Forward monitor transitions into the program loop.
	token := mon.Subscribe(func(key string, info monitor.StatusInfo) {
		p.Send(msg.StatusChangedMsg{Workspace: key, Info: info})
	})
	defer mon.Unsubscribe(token)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

// runOnce prints one status line per workspace, for scripting.
func runOnce(mon *monitor.Monitor, workspaces []config.WorkspaceConfig) error {
	if len(workspaces) == 0 {
		return fmt.Errorf("no workspaces configured")
	}
	for _, ws := range workspaces {
		info, err := mon.GetStatus(ws.Path)
		if err != nil {
			fmt.Printf("%-18s %-24s %s\n", "error", ws.Name, ws.Path)
			continue
		}
		fmt.Printf("%-18s %-24s %s\n", info.Status, ws.Name, ws.Path)
	}
	return nil
}

// runAdd registers a workspace in the config file.
func runAdd(path string) {
	abs, err := filepath.Abs(config.ExpandPath(path))
	if err == nil {
		err = config.AddWorkspace(filepath.Base(abs), abs)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to add workspace: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added %s\n", abs)
}

// runRemove drops a workspace from the config file.
func runRemove(path string) {
	abs, err := filepath.Abs(config.ExpandPath(path))
	if err == nil {
		err = config.RemoveWorkspace(abs)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to remove workspace: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Removed %s\n", abs)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision != "" {
		ver := "devel+" + revision
		if len(ver) > 20 {
			ver = ver[:20]
		}
		if dirty {
			ver += "+dirty"
		}
		return ver
	}

	return "devel"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: workspaces-list [options]\n\n")
		fmt.Fprintf(os.Stderr, "A TUI that shows what the coding agent in each workspace is doing.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
