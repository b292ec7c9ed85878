// Package pluginregistry provides plugin registration for the Blizzard SDK.
// It adds every built-in plugin to a registry so hosts get the standard set
// without naming each package themselves.
package pluginregistry

import (
	"errors"

	pkgerrors "github.com/stepherg/blizzard-plugin-sdk/errors"
	"github.com/stepherg/blizzard-plugin-sdk/plugin"
	"github.com/stepherg/blizzard-plugin-sdk/plugins/thermostat"
)

// Register adds all built-in Blizzard plugins to the provided registry:
//
//   - Thermostat (temperature measurement, setpoint control, calibration,
//     alert events)
//
// Domain-specific plugins ship in their own modules and register themselves
// the same way.
func Register(registry *plugin.Registry) error {
	// CRITICAL: Nil registry is a programming error (fatal), not invalid input
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"PluginRegistry", "Register", "registry validation")
	}

	if err := registry.Add(thermostat.New()); err != nil {
		return pkgerrors.WrapInvalid(err, "PluginRegistry", "Register", "thermostat plugin registration")
	}

	return nil
}
