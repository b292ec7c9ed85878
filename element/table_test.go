package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

func mustRecord(t *testing.T, name string, kind Kind, handlers Handlers) Record {
	t.Helper()
	rec, err := NewRecord(name, kind, handlers)
	require.NoError(t, err)
	return rec
}

func TestNewTablePreservesInsertionOrder(t *testing.T) {
	table, err := NewTable(
		mustRecord(t, "temp.value", KindReadOnlyProperty, Handlers{Get: stubGet}),
		mustRecord(t, "temp.setpoint", KindReadWriteProperty, Handlers{Get: stubGet, Set: stubSet}),
		mustRecord(t, "temp.calibrate", KindMethod, Handlers{Invoke: stubInvoke}),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"temp.value", "temp.setpoint", "temp.calibrate"}, table.Names())
}

func TestNewTableRejectsDuplicateName(t *testing.T) {
	_, err := NewTable(
		mustRecord(t, "temp.value", KindReadOnlyProperty, Handlers{Get: stubGet}),
		mustRecord(t, "temp.value", KindReadOnlyProperty, Handlers{Get: stubGet}),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateElement)
	assert.True(t, errors.IsInvalid(err))
}

func TestNewTableRejectsZeroValueRecord(t *testing.T) {
	_, err := NewTable(Record{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestTableLookup(t *testing.T) {
	table, err := NewTable(
		mustRecord(t, "temp.value", KindReadOnlyProperty, Handlers{Get: stubGet}),
		mustRecord(t, "temp.alert", KindEvent, Handlers{Subscribe: stubSubscribe}),
	)
	require.NoError(t, err)

	rec, ok := table.Lookup("temp.alert")
	require.True(t, ok)
	assert.Equal(t, KindEvent, rec.Kind())
	assert.NotNil(t, rec.Handlers().Subscribe)

	_, ok = table.Lookup("temp.unknown")
	assert.False(t, ok)
}

func TestTableRecordsReturnsCopy(t *testing.T) {
	table, err := NewTable(
		mustRecord(t, "a", KindReadOnlyProperty, Handlers{Get: stubGet}),
		mustRecord(t, "b", KindReadOnlyProperty, Handlers{Get: stubGet}),
	)
	require.NoError(t, err)

	records := table.Records()
	records[0] = Record{}

	// Mutating the returned slice must not touch the table.
	assert.Equal(t, []string{"a", "b"}, table.Names())
}

func TestEmptyTableIsConstructible(t *testing.T) {
	table, err := NewTable()
	require.NoError(t, err)
	assert.Zero(t, table.Len())
	assert.Empty(t, table.Names())
}

func TestTableBuilder(t *testing.T) {
	b := NewTableBuilder()

	require.NoError(t, b.Add("temp.value", KindReadOnlyProperty, Handlers{Get: stubGet}))
	require.NoError(t, b.Add("temp.setpoint", KindReadWriteProperty, Handlers{Get: stubGet, Set: stubSet}))

	err := b.Add("temp.value", KindReadOnlyProperty, Handlers{Get: stubGet})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateElement)

	table, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"temp.value", "temp.setpoint"}, table.Names())
}

func TestTableBuilderSingleUse(t *testing.T) {
	b := NewTableBuilder()
	require.NoError(t, b.Add("temp.value", KindReadOnlyProperty, Handlers{Get: stubGet}))

	_, err := b.Build()
	require.NoError(t, err)

	assert.Error(t, b.Add("temp.other", KindReadOnlyProperty, Handlers{Get: stubGet}))
	_, err = b.Build()
	assert.Error(t, err)
}

func TestTableBuilderReportsBadRecordAtAdd(t *testing.T) {
	b := NewTableBuilder()

	err := b.Add("temp.value", KindMethod, Handlers{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingHandler)
}
