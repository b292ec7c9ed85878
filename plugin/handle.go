package plugin

import (
	"github.com/stepherg/blizzard-plugin-sdk/descriptor"
	"github.com/stepherg/blizzard-plugin-sdk/element"
)

// Handle is the host's borrowed reference to a plugin's registration.
// The plugin owns the registration; the handle stays valid only while the
// owning plugin remains loaded. After Unload every accessor returns
// errors.ErrHandleRevoked, so code that retains a handle past unload gets
// an error instead of a read through freed state.
type Handle struct {
	registry *Registry
	plugin   string
	gen      uint64
}

// PluginName returns the name of the plugin the handle refers to.
func (h *Handle) PluginName() string { return h.plugin }

// Registration resolves the handle to the live registration record.
func (h *Handle) Registration() (*Registration, error) {
	return h.registry.registration(h.plugin, h.gen)
}

// Table returns the registered element table.
func (h *Handle) Table() (*element.Table, error) {
	reg, err := h.Registration()
	if err != nil {
		return nil, err
	}
	return reg.Table(), nil
}

// Descriptor returns the registered descriptor.
func (h *Handle) Descriptor() (*descriptor.Descriptor, error) {
	reg, err := h.Registration()
	if err != nil {
		return nil, err
	}
	return reg.Descriptor(), nil
}

// Valid reports whether the handle still resolves.
func (h *Handle) Valid() bool {
	_, err := h.Registration()
	return err == nil
}
