package descriptor

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/stepherg/blizzard-plugin-sdk/element"
	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

var (
	schemaOnce  sync.Once
	schemaBytes []byte
	schemaErr   error
)

// Schema returns the JSON Schema for serialized descriptors. Remote
// introspection clients validate discovery payloads against this document.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
		// element.Kind marshals as its wire token, not as an integer.
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(element.KindUnknown) {
				return &jsonschema.Schema{
					Type: "string",
					Enum: []any{"read-only", "read-write", "method", "event"},
				}
			}
			return nil
		},
	}

	return reflector.Reflect(&Descriptor{})
}

// SchemaJSON returns the descriptor schema serialized as JSON.
// The schema is immutable, so it is generated once and cached.
func SchemaJSON() ([]byte, error) {
	schemaOnce.Do(func() {
		schemaBytes, schemaErr = json.MarshalIndent(Schema(), "", "  ")
		if schemaErr != nil {
			schemaErr = errors.WrapFatal(schemaErr, "Descriptor", "SchemaJSON", "schema serialization")
		}
	})
	return schemaBytes, schemaErr
}

// ValidateJSON validates a serialized descriptor document against the
// descriptor schema. Hosts run announce payloads through this before
// publishing them on the bus.
func ValidateJSON(data []byte) error {
	schemaDoc, err := SchemaJSON()
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaDoc),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return errors.WrapInvalid(err, "Descriptor", "ValidateJSON", "schema validation")
	}

	if !result.Valid() {
		var sb strings.Builder
		for i, desc := range result.Errors() {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(desc.String())
		}
		return errors.WrapInvalid(
			fmt.Errorf("descriptor document rejected by schema: %s", sb.String()),
			"Descriptor", "ValidateJSON", "schema validation")
	}

	return nil
}

// MarshalValidated serializes the descriptor and confirms the result
// passes schema validation, returning the serialized document.
func (d *Descriptor) MarshalValidated() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Descriptor", "MarshalValidated", "serialization")
	}
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	return data, nil
}
