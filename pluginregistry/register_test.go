package pluginregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepherg/blizzard-plugin-sdk/errors"
	"github.com/stepherg/blizzard-plugin-sdk/plugin"
)

func TestRegisterAddsBuiltins(t *testing.T) {
	registry := plugin.NewRegistry()
	require.NoError(t, Register(registry))

	assert.Contains(t, registry.Plugins(), "thermostat")

	// Built-ins must load cleanly.
	handle, err := registry.Load("thermostat")
	require.NoError(t, err)

	reg, err := handle.Registration()
	require.NoError(t, err)
	assert.Equal(t, 4, reg.ElementCount())
}

func TestRegisterNilRegistryIsFatal(t *testing.T) {
	err := Register(nil)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestRegisterTwiceReportsDuplicates(t *testing.T) {
	registry := plugin.NewRegistry()
	require.NoError(t, Register(registry))

	err := Register(registry)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
