package element

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

// Test handler stubs shared across the package tests.
func stubGet(_ context.Context, _ string) (json.RawMessage, error) { return json.RawMessage(`0`), nil }
func stubSet(_ context.Context, _ string, _ json.RawMessage) error { return nil }
func stubInvoke(_ context.Context, _ string, _ json.RawMessage) (json.RawMessage, error) {
	return nil, nil
}
func stubSubscribe(_ context.Context, _ string, _ bool) error { return nil }

func TestKindTokens(t *testing.T) {
	assert.Equal(t, "read-only", KindReadOnlyProperty.String())
	assert.Equal(t, "read-write", KindReadWriteProperty.String())
	assert.Equal(t, "method", KindMethod.String())
	assert.Equal(t, "event", KindEvent.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, KindReadOnlyProperty.Readable())
	assert.True(t, KindReadWriteProperty.Readable())
	assert.False(t, KindMethod.Readable())

	assert.True(t, KindReadWriteProperty.Writable())
	assert.False(t, KindReadOnlyProperty.Writable())

	assert.False(t, KindUnknown.Valid())
	assert.False(t, Kind(99).Valid())
}

func TestKindJSONRoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindReadOnlyProperty, KindReadWriteProperty, KindMethod, KindEvent} {
		data, err := json.Marshal(kind)
		require.NoError(t, err)

		var decoded Kind
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, kind, decoded)
	}
}

func TestKindJSONRejectsUnknown(t *testing.T) {
	_, err := json.Marshal(KindUnknown)
	assert.Error(t, err)

	var k Kind
	assert.Error(t, json.Unmarshal([]byte(`"telepathy"`), &k))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("method")
	require.NoError(t, err)
	assert.Equal(t, KindMethod, k)

	_, err = ParseKind("nope")
	assert.Error(t, err)
}

func TestNewRecordHandlerCompleteness(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		handlers Handlers
		wantErr  error
	}{
		{
			name:     "read-only with get",
			kind:     KindReadOnlyProperty,
			handlers: Handlers{Get: stubGet},
		},
		{
			name:     "read-only missing get",
			kind:     KindReadOnlyProperty,
			handlers: Handlers{},
			wantErr:  errors.ErrMissingHandler,
		},
		{
			name:     "read-only with stray set",
			kind:     KindReadOnlyProperty,
			handlers: Handlers{Get: stubGet, Set: stubSet},
			wantErr:  errors.ErrUnexpectedHandler,
		},
		{
			name:     "read-write with get and set",
			kind:     KindReadWriteProperty,
			handlers: Handlers{Get: stubGet, Set: stubSet},
		},
		{
			name:     "read-write missing set",
			kind:     KindReadWriteProperty,
			handlers: Handlers{Get: stubGet},
			wantErr:  errors.ErrMissingHandler,
		},
		{
			name:     "method with invoke",
			kind:     KindMethod,
			handlers: Handlers{Invoke: stubInvoke},
		},
		{
			name:     "method missing invoke",
			kind:     KindMethod,
			handlers: Handlers{},
			wantErr:  errors.ErrMissingHandler,
		},
		{
			name:     "event with subscribe",
			kind:     KindEvent,
			handlers: Handlers{Subscribe: stubSubscribe},
		},
		{
			name:     "event missing subscribe",
			kind:     KindEvent,
			handlers: Handlers{},
			wantErr:  errors.ErrMissingHandler,
		},
		{
			name:     "event with stray invoke",
			kind:     KindEvent,
			handlers: Handlers{Subscribe: stubSubscribe, Invoke: stubInvoke},
			wantErr:  errors.ErrUnexpectedHandler,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewRecord("Device.Test.Element", tt.kind, tt.handlers)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Device.Test.Element", rec.Name())
			assert.Equal(t, tt.kind, rec.Kind())
		})
	}
}

func TestNewRecordRejectsInvalidKind(t *testing.T) {
	_, err := NewRecord("Device.Test", KindUnknown, Handlers{Get: stubGet})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "temp", false},
		{"dotted path", "Device.Thermostat.Temperature", false},
		{"dash and underscore", "dev-1.sub_system.value", false},
		{"empty", "", true},
		{"leading dot", ".temp", true},
		{"trailing dot", "temp.", true},
		{"double dot", "temp..value", true},
		{"space", "temp value", true},
		{"control char", "temp\x00value", true},
		{"too long", strings.Repeat("a", MaxNameLength+1), true},
		{"segment too long", strings.Repeat("a", MaxSegmentLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
