package plugin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepherg/blizzard-plugin-sdk/descriptor"
	"github.com/stepherg/blizzard-plugin-sdk/element"
	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

func tGet(_ context.Context, _ string) (json.RawMessage, error) { return json.RawMessage(`21.5`), nil }
func tSet(_ context.Context, _ string, _ json.RawMessage) error { return nil }

func tempTable(t *testing.T) *element.Table {
	t.Helper()
	b := element.NewTableBuilder()
	require.NoError(t, b.Add("temp.value", element.KindReadOnlyProperty, element.Handlers{Get: tGet}))
	require.NoError(t, b.Add("temp.setpoint", element.KindReadWriteProperty,
		element.Handlers{Get: tGet, Set: tSet}))
	table, err := b.Build()
	require.NoError(t, err)
	return table
}

func tempDescriptor(t *testing.T) *descriptor.Descriptor {
	t.Helper()
	d, err := descriptor.New("thermostat", "1.0.0", "blizzard", []descriptor.ElementDecl{
		{Name: "temp.value", Kind: element.KindReadOnlyProperty, ValueType: "double"},
		{Name: "temp.setpoint", Kind: element.KindReadWriteProperty, ValueType: "double"},
	})
	require.NoError(t, err)
	return d
}

func TestNewRegistrationSuccess(t *testing.T) {
	table := tempTable(t)
	desc := tempDescriptor(t)

	reg, err := NewRegistration(table, desc)
	require.NoError(t, err)

	assert.NotEmpty(t, reg.ID())
	assert.Equal(t, 2, reg.ElementCount())
	assert.Same(t, table, reg.Table())
	assert.Same(t, desc, reg.Descriptor())

	// Enumeration order matches registration order.
	assert.Equal(t, []string{"temp.value", "temp.setpoint"}, reg.Table().Names())
}

func TestNewRegistrationNameSetsMatch(t *testing.T) {
	reg, err := NewRegistration(tempTable(t), tempDescriptor(t))
	require.NoError(t, err)

	tableNames := reg.Table().Names()
	declNames := make([]string, 0, len(reg.Descriptor().Elements))
	for _, decl := range reg.Descriptor().Elements {
		declNames = append(declNames, decl.Name)
	}
	assert.ElementsMatch(t, tableNames, declNames)
	assert.Equal(t, len(tableNames), len(declNames))
}

func TestNewRegistrationRejectsNilParts(t *testing.T) {
	_, err := NewRegistration(nil, tempDescriptor(t))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = NewRegistration(tempTable(t), nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestNewRegistrationRejectsEmptyTable(t *testing.T) {
	empty, err := element.NewTable()
	require.NoError(t, err)

	_, err = NewRegistration(empty, tempDescriptor(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEmptyTable)
}

func TestNewRegistrationRejectsDescriptorOmission(t *testing.T) {
	desc, err := descriptor.New("thermostat", "1.0.0", "blizzard", []descriptor.ElementDecl{
		{Name: "temp.setpoint", Kind: element.KindReadWriteProperty, ValueType: "double"},
	})
	require.NoError(t, err)

	_, err = NewRegistration(tempTable(t), desc)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDescriptorMismatch)
}

func TestNewRegistrationRejectsInvalidDescriptor(t *testing.T) {
	desc := &descriptor.Descriptor{
		Name:    "thermostat",
		Version: "not-semver",
		Elements: []descriptor.ElementDecl{
			{Name: "temp.value", Kind: element.KindReadOnlyProperty, ValueType: "double"},
			{Name: "temp.setpoint", Kind: element.KindReadWriteProperty, ValueType: "double"},
		},
	}

	_, err := NewRegistration(tempTable(t), desc)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegistrationIDsAreDistinct(t *testing.T) {
	first, err := NewRegistration(tempTable(t), tempDescriptor(t))
	require.NoError(t, err)

	second, err := NewRegistration(tempTable(t), tempDescriptor(t))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())
}
