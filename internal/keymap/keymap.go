// Package keymap maps key presses to named commands, scoped by input
// context so the same key can act differently in the list, the filter
// input, or an overlay.
package keymap

// Input contexts. Exactly one is active at a time.
const (
	ContextList      = "workspace-list"
	ContextFilter    = "filter"
	ContextPreview   = "preview"
	ContextHelp      = "help"
	ContextProcesses = "processes"
)

// Binding associates a key with a command in one context.
type Binding struct {
	Key     string
	Command string
	Context string
}

// Registry resolves key presses to commands.
type Registry struct {
	bindings map[string]map[string]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{bindings: make(map[string]map[string]string)}
}

// NewDefault returns a registry preloaded with the default bindings.
func NewDefault() *Registry {
	r := New()
	RegisterDefaults(r)
	return r
}

// RegisterBinding adds a binding, replacing any existing binding for the
// same key in the same context.
func (r *Registry) RegisterBinding(b Binding) {
	if b.Key == "" || b.Command == "" || b.Context == "" {
		return
	}
	ctx, ok := r.bindings[b.Context]
	if !ok {
		ctx = make(map[string]string)
		r.bindings[b.Context] = ctx
	}
	ctx[b.Key] = b.Command
}

// Resolve returns the command bound to key in context. Keys have no
// fallback between contexts: an unbound key resolves to nothing even if
// another context binds it.
func (r *Registry) Resolve(context, key string) (string, bool) {
	ctx, ok := r.bindings[context]
	if !ok {
		return "", false
	}
	command, ok := ctx[key]
	return command, ok
}
