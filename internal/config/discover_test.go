package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscover(t *testing.T) {
	root := t.TempDir()

	// Two git checkouts, one linked worktree (.git file), one plain dir,
	// one loose file.
	mkRepo := func(name string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Join(root, name, ".git"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	mkRepo("zebra")
	mkRepo("apple")

	wt := filepath.Join(root, "worktree")
	if err := os.MkdirAll(wt, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wt, ".git"), []byte("gitdir: ../zebra/.git/worktrees/wt\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := os.MkdirAll(filepath.Join(root, "not-a-repo"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	got := Discover(root)
	wantNames := []string{"apple", "worktree", "zebra"}
	if len(got) != len(wantNames) {
		t.Fatalf("got %d workspaces, want %d: %+v", len(got), len(wantNames), got)
	}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, got[i].Name, name)
		}
		if got[i].Path != filepath.Join(root, name) {
			t.Errorf("position %d: got path %q, want %q", i, got[i].Path, filepath.Join(root, name))
		}
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	if got := Discover(""); got != nil {
		t.Errorf("empty root: got %+v, want nil", got)
	}
	if got := Discover("/nonexistent/scan/root"); got != nil {
		t.Errorf("missing root: got %+v, want nil", got)
	}
}

func TestAllWorkspaces(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"beta", "alpha"} {
		if err := os.MkdirAll(filepath.Join(root, name, ".git"), 0755); err != nil {
			t.Fatal(err)
		}
	}

	cfg := Default()
	cfg.Workspaces.ScanRoot = root
	cfg.Workspaces.List = []WorkspaceConfig{
		// Explicit entry shadows the discovered one for the same path.
		{Name: "custom-beta", Path: filepath.Join(root, "beta")},
		{Path: "/home/dev/manual"},
	}

	all := cfg.AllWorkspaces()
	wantNames := []string{"custom-beta", "manual", "alpha"}
	if len(all) != len(wantNames) {
		t.Fatalf("got %d workspaces, want %d: %+v", len(all), len(wantNames), all)
	}
	for i, name := range wantNames {
		if all[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, all[i].Name, name)
		}
	}
	if all[1].Path != "/home/dev/manual" {
		t.Errorf("unnamed entry path: got %q", all[1].Path)
	}
}

func TestAllWorkspaces_DeduplicatesList(t *testing.T) {
	cfg := Default()
	cfg.Workspaces.List = []WorkspaceConfig{
		{Name: "one", Path: "/home/dev/proj"},
		{Name: "two", Path: "/home/dev/proj/"},
	}
	all := cfg.AllWorkspaces()
	if len(all) != 1 {
		t.Fatalf("got %d workspaces, want 1: %+v", len(all), all)
	}
	if all[0].Name != "one" {
		t.Errorf("got %q, want first entry to win", all[0].Name)
	}
}
