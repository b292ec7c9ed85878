package plugin

import (
	"fmt"
	"sync"

	"github.com/stepherg/blizzard-plugin-sdk/element"
	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

// loadState tracks one live registration inside the registry.
type loadState struct {
	reg *Registration
	gen uint64 // generation the outstanding handles were issued for
}

// Registry maps plugin identity to Plugin instance and owns load state.
// Registration of instances (Add) is separate from loading (Load) so a
// host can assemble its plugin set, then load with its own policy.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	plugins     map[string]Plugin
	order       []string // Add order, for deterministic iteration
	loaded      map[string]*loadState
	generations map[string]uint64
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:     make(map[string]Plugin),
		loaded:      make(map[string]*loadState),
		generations: make(map[string]uint64),
	}
}

// Add registers a plugin instance under its Meta name. Adding a second
// plugin with the same name is an error.
func (r *Registry) Add(p Plugin) error {
	if p == nil {
		return errors.WrapInvalid(
			fmt.Errorf("plugin is nil"),
			"Registry", "Add", "plugin validation")
	}

	name := p.Meta().Name
	if err := element.ValidateName(name); err != nil {
		return errors.Wrap(err, "Registry", "Add", "plugin name validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("plugin %q is already added", name),
			"Registry", "Add", "duplicate plugin check")
	}

	r.plugins[name] = p
	r.order = append(r.order, name)
	return nil
}

// Load invokes the plugin's Register entry point and, on success, records
// the registration and issues a borrowed handle for it. Loading an already
// loaded plugin fails with errors.ErrAlreadyRegistered; the existing
// registration is not disturbed.
func (r *Registry) Load(name string) (*Handle, error) {
	r.mu.Lock()
	p, exists := r.plugins[name]
	if !exists {
		r.mu.Unlock()
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrPluginNotFound, name),
			"Registry", "Load", "plugin lookup")
	}
	if _, already := r.loaded[name]; already {
		r.mu.Unlock()
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrAlreadyRegistered, name),
			"Registry", "Load", "load state check")
	}
	// Reserve the slot before releasing the lock so a concurrent Load of
	// the same plugin cannot invoke Register twice.
	r.loaded[name] = nil
	r.mu.Unlock()

	// Register runs outside the lock: it is plugin code and may take
	// arbitrarily long acquiring the resources its handlers need.
	reg, err := p.Register()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		delete(r.loaded, name)
		return nil, errors.Wrap(err, "Registry", "Load", fmt.Sprintf("plugin %q registration", name))
	}
	if reg == nil {
		delete(r.loaded, name)
		return nil, errors.WrapInvalid(
			fmt.Errorf("plugin %q returned a nil registration without an error", name),
			"Registry", "Load", "registration validation")
	}

	r.generations[name]++
	gen := r.generations[name]
	r.loaded[name] = &loadState{reg: reg, gen: gen}

	return &Handle{registry: r, plugin: name, gen: gen}, nil
}

// Unload drops a plugin's registration and revokes every handle issued
// for it. If the plugin implements Releaser, Release is called after the
// registration is dropped, so a later Load may register again.
func (r *Registry) Unload(name string) error {
	r.mu.Lock()
	state, exists := r.loaded[name]
	if !exists || state == nil {
		r.mu.Unlock()
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrNotRegistered, name),
			"Registry", "Unload", "load state check")
	}
	delete(r.loaded, name)
	p := r.plugins[name]
	r.mu.Unlock()

	if releaser, ok := p.(Releaser); ok {
		releaser.Release()
	}
	return nil
}

// Handle returns a borrowed handle for a currently loaded plugin.
func (r *Registry) Handle(name string) (*Handle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.loaded[name]
	if !exists || state == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrNotRegistered, name),
			"Registry", "Handle", "load state check")
	}
	return &Handle{registry: r, plugin: name, gen: state.gen}, nil
}

// Plugins returns all added plugin names in Add order.
func (r *Registry) Plugins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Loaded returns the names of currently loaded plugins in Add order.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, name := range r.order {
		if state, ok := r.loaded[name]; ok && state != nil {
			out = append(out, name)
		}
	}
	return out
}

// Lookup returns the plugin instance added under name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[name]
	return p, ok
}

// registration resolves a handle to its registration, enforcing that the
// handle's generation is still the live one.
func (r *Registry) registration(name string, gen uint64) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.loaded[name]
	if !exists || state == nil || state.gen != gen {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: plugin %q", errors.ErrHandleRevoked, name),
			"Registry", "registration", "handle generation check")
	}
	return state.reg, nil
}
