// Package state persists user interface preferences between runs.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// State holds persistent user preferences.
type State struct {
	SortMode string `json:"sortMode"` // "name", "status", or "activity"

	// Last selected workspace path, restored at startup.
	SelectedWorkspace string `json:"selectedWorkspace,omitempty"`

	// Pane visibility toggles. Zero values match the defaults so a
	// missing state file reads back as "everything shown".
	PreviewHidden bool `json:"previewHidden,omitempty"`
	FooterHidden  bool `json:"footerHidden,omitempty"`

	// Workspace list pane width in columns (0 = default).
	ListWidth int `json:"listWidth,omitempty"`
}

// SortName orders the workspace list alphabetically.
const SortName = "name"

// SortStatus orders the list by how much attention each workspace needs.
const SortStatus = "status"

// SortActivity orders the list by most recent agent message.
const SortActivity = "activity"

// Store reads and writes a state file. All methods are safe for
// concurrent use.
type Store struct {
	mu      sync.RWMutex
	path    string
	current *State
}

// New returns a store backed by dir/state.json with default preferences.
// Nothing is read from disk.
func New(dir string) *Store {
	return &Store{
		path:    filepath.Join(dir, "state.json"),
		current: &State{SortMode: SortName},
	}
}

// Open loads state from dir/state.json. A missing file is not an error;
// the store starts with defaults.
func Open(dir string) (*Store, error) {
	s := New(dir)
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// DefaultDir returns the directory state is stored in.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "workspaces-list"), nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil // no state file yet, use defaults
	}
	if err != nil {
		return err
	}

	loaded := &State{SortMode: SortName}
	if err := json.Unmarshal(data, loaded); err != nil {
		return err
	}
	if loaded.SortMode == "" {
		loaded.SortMode = SortName
	}
	s.current = loaded
	return nil
}

// Save writes state to disk.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// SortMode returns the saved list ordering.
func (s *Store) SortMode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.SortMode
}

// SetSortMode saves the list ordering preference.
func (s *Store) SetSortMode(mode string) error {
	s.mu.Lock()
	s.current.SortMode = mode
	s.mu.Unlock()
	return s.Save()
}

// SelectedWorkspace returns the last selected workspace path.
// Returns "" if nothing was saved.
func (s *Store) SelectedWorkspace() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.SelectedWorkspace
}

// SetSelectedWorkspace saves the selected workspace path.
func (s *Store) SetSelectedWorkspace(path string) error {
	s.mu.Lock()
	s.current.SelectedWorkspace = path
	s.mu.Unlock()
	return s.Save()
}

// PreviewHidden reports whether the preview pane is hidden.
func (s *Store) PreviewHidden() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.PreviewHidden
}

// SetPreviewHidden saves the preview pane visibility.
func (s *Store) SetPreviewHidden(hidden bool) error {
	s.mu.Lock()
	s.current.PreviewHidden = hidden
	s.mu.Unlock()
	return s.Save()
}

// FooterHidden reports whether the footer is hidden.
func (s *Store) FooterHidden() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.FooterHidden
}

// SetFooterHidden saves the footer visibility.
func (s *Store) SetFooterHidden(hidden bool) error {
	s.mu.Lock()
	s.current.FooterHidden = hidden
	s.mu.Unlock()
	return s.Save()
}

// ListWidth returns the saved workspace list pane width.
// Returns 0 if no preference is saved (use default).
func (s *Store) ListWidth() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.ListWidth
}

// SetListWidth saves the workspace list pane width.
func (s *Store) SetListWidth(width int) error {
	s.mu.Lock()
	s.current.ListWidth = width
	s.mu.Unlock()
	return s.Save()
}
