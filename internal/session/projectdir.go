package session

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ProjectDirName encodes an absolute workspace path into the agent's session
// directory name. The agent replaces every character outside [a-zA-Z0-9-]
// with a dash, so /Users/foo/my_project becomes -Users-foo-my-project.
func ProjectDirName(absPath string) string {
	var b strings.Builder
	b.Grow(len(absPath))
	for _, r := range absPath {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// LogDir returns the session-log directory for a workspace under the agent
// data dir (claudeDir is typically ~/.claude).
func LogDir(claudeDir, workspace string) string {
	return filepath.Join(claudeDir, "projects", ProjectDirName(workspace))
}

// ProjectsRoot returns the directory that holds all per-workspace log dirs.
func ProjectsRoot(claudeDir string) string {
	return filepath.Join(claudeDir, "projects")
}

// DefaultClaudeDir returns ~/.claude, or "" when the home directory cannot
// be resolved.
func DefaultClaudeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".claude")
}

// ListLogs returns the session log file names in dir, sorted. Subagent
// transcripts ("agent-" prefix) are not sessions and are excluded.
func ListLogs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".jsonl") || strings.HasPrefix(name, "agent-") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CwdMatches reports whether cwd equals workspace or lies underneath it.
func CwdMatches(cwd, workspace string) bool {
	if cwd == "" {
		return false
	}
	cwd = filepath.Clean(cwd)
	workspace = filepath.Clean(workspace)
	return cwd == workspace || strings.HasPrefix(cwd, workspace+string(filepath.Separator))
}
