package config

import (
	"os"
	"path/filepath"
	"sort"
)

// Discover scans root's immediate children for git checkouts and returns
// them as workspaces, sorted by name. A .git file (not just a dir) counts,
// so linked worktrees are picked up too.
func Discover(root string) []WorkspaceConfig {
	if root == "" {
		return nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var found []WorkspaceConfig
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(root, e.Name())
		if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
			continue
		}
		found = append(found, WorkspaceConfig{Name: e.Name(), Path: path})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found
}

// AllWorkspaces returns the configured list plus anything discovered under
// ScanRoot, deduplicated by path. Configured entries keep their position
// and names.
func (c *Config) AllWorkspaces() []WorkspaceConfig {
	seen := make(map[string]bool)
	var all []WorkspaceConfig
	for _, ws := range c.Workspaces.List {
		path := filepath.Clean(ws.Path)
		if seen[path] {
			continue
		}
		seen[path] = true
		name := ws.Name
		if name == "" {
			name = filepath.Base(path)
		}
		all = append(all, WorkspaceConfig{Name: name, Path: path})
	}
	for _, ws := range Discover(c.Workspaces.ScanRoot) {
		path := filepath.Clean(ws.Path)
		if seen[path] {
			continue
		}
		seen[path] = true
		all = append(all, WorkspaceConfig{Name: ws.Name, Path: path})
	}
	return all
}
