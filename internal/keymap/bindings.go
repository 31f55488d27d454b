package keymap

// DefaultBindings returns the default key bindings.
func DefaultBindings() []Binding {
	return []Binding{
		// Workspace list
		{Key: "q", Command: "quit", Context: ContextList},
		{Key: "ctrl+c", Command: "quit", Context: ContextList},
		{Key: "j", Command: "cursor-down", Context: ContextList},
		{Key: "down", Command: "cursor-down", Context: ContextList},
		{Key: "k", Command: "cursor-up", Context: ContextList},
		{Key: "up", Command: "cursor-up", Context: ContextList},
		{Key: "g", Command: "cursor-top", Context: ContextList},
		{Key: "home", Command: "cursor-top", Context: ContextList},
		{Key: "G", Command: "cursor-bottom", Context: ContextList},
		{Key: "end", Command: "cursor-bottom", Context: ContextList},
		{Key: "enter", Command: "open", Context: ContextList},
		{Key: "tab", Command: "focus-preview", Context: ContextList},
		{Key: "a", Command: "acknowledge", Context: ContextList},
		{Key: "y", Command: "copy-path", Context: ContextList},
		{Key: "/", Command: "filter", Context: ContextList},
		{Key: "esc", Command: "clear-filter", Context: ContextList},
		{Key: "s", Command: "cycle-sort", Context: ContextList},
		{Key: "p", Command: "processes", Context: ContextList},
		{Key: "v", Command: "toggle-preview", Context: ContextList},
		{Key: "ctrl+h", Command: "toggle-footer", Context: ContextList},
		{Key: "r", Command: "reload", Context: ContextList},
		{Key: "?", Command: "help", Context: ContextList},

		// Filter input. Unbound keys fall through to the text field.
		{Key: "esc", Command: "cancel", Context: ContextFilter},
		{Key: "enter", Command: "confirm", Context: ContextFilter},
		{Key: "ctrl+c", Command: "quit", Context: ContextFilter},

		// Preview pane. Unbound keys fall through to the viewport.
		{Key: "tab", Command: "back", Context: ContextPreview},
		{Key: "esc", Command: "back", Context: ContextPreview},
		{Key: "q", Command: "quit", Context: ContextPreview},
		{Key: "ctrl+c", Command: "quit", Context: ContextPreview},

		// Help overlay
		{Key: "?", Command: "close", Context: ContextHelp},
		{Key: "esc", Command: "close", Context: ContextHelp},
		{Key: "q", Command: "close", Context: ContextHelp},

		// Processes overlay
		{Key: "p", Command: "close", Context: ContextProcesses},
		{Key: "esc", Command: "close", Context: ContextProcesses},
		{Key: "q", Command: "close", Context: ContextProcesses},
		{Key: "r", Command: "rescan", Context: ContextProcesses},
	}
}

// RegisterDefaults registers all default bindings with the registry.
func RegisterDefaults(r *Registry) {
	for _, b := range DefaultBindings() {
		r.RegisterBinding(b)
	}
}
