package descriptor

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-cmp/cmp"

	"github.com/stepherg/blizzard-plugin-sdk/element"
	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

// ElementDecl declares one element for discovery: the same identifier that
// appears in the element table, its capability kind, and the value type
// remote clients should expect.
type ElementDecl struct {
	Name      string       `json:"name" validate:"required,max=256"`
	Kind      element.Kind `json:"kind" validate:"elementkind"`
	ValueType string       `json:"value_type" validate:"required,oneof=string int uint bool float double datetime bytes object none"`
}

// Descriptor is the structured, serializable self-description of a plugin.
// It is constructed alongside the element table in the plugin's
// registration call, owned by the plugin, and consumed by the host purely
// for discovery and serialization, never for dispatch.
type Descriptor struct {
	Name     string        `json:"name" validate:"required,max=128"`
	Version  string        `json:"version" validate:"required,semver"`
	Vendor   string        `json:"vendor,omitempty" validate:"max=128"`
	Elements []ElementDecl `json:"elements" validate:"dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// element.Kind is an int on the wire-token enum; the stock tags cannot
	// check it, so register a dedicated tag.
	_ = v.RegisterValidation("elementkind", func(fl validator.FieldLevel) bool {
		kind, ok := fl.Field().Interface().(element.Kind)
		return ok && kind.Valid()
	})

	return v
}

// New constructs a descriptor. Field constraints (identity present,
// version well-formed, declarations complete) are checked immediately;
// a descriptor that fails validation is never returned.
func New(name, version, vendor string, elements []ElementDecl) (*Descriptor, error) {
	d := &Descriptor{
		Name:     name,
		Version:  version,
		Vendor:   vendor,
		Elements: elements,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the descriptor's declarative constraints.
func (d *Descriptor) Validate() error {
	if err := validate.Struct(d); err != nil {
		return errors.WrapInvalid(err, "Descriptor", "Validate", "field validation")
	}

	seen := make(map[string]struct{}, len(d.Elements))
	for _, decl := range d.Elements {
		if _, dup := seen[decl.Name]; dup {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %q declared twice in descriptor",
					errors.ErrDuplicateElement, decl.Name),
				"Descriptor", "Validate", "duplicate declaration check")
		}
		seen[decl.Name] = struct{}{}
	}

	return nil
}

// declKey is the comparable projection of an element used by the
// consistency check: identity and kind, nothing else.
type declKey struct {
	Name string
	Kind string
}

// ConsistentWith verifies that the descriptor's declared element list is a
// perfect match - same cardinality, same names, same kinds - to the
// operational element table. This is the one place the declarative and
// operational structures are reconciled; any divergence is fatal to the
// registration. The returned error carries a diff of the two element sets.
func (d *Descriptor) ConsistentWith(table *element.Table) error {
	if table == nil {
		return errors.WrapInvalid(
			fmt.Errorf("element table is nil"),
			"Descriptor", "ConsistentWith", "table validation")
	}

	declared := make([]declKey, 0, len(d.Elements))
	for _, decl := range d.Elements {
		declared = append(declared, declKey{Name: decl.Name, Kind: decl.Kind.String()})
	}

	operational := make([]declKey, 0, table.Len())
	for _, rec := range table.Records() {
		operational = append(operational, declKey{Name: rec.Name(), Kind: rec.Kind().String()})
	}

	// Set semantics: ordering differences between the two lists are not a
	// mismatch, only membership and kind are.
	sortKeys(declared)
	sortKeys(operational)

	if diff := cmp.Diff(operational, declared); diff != "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w (-table +descriptor):\n%s", errors.ErrDescriptorMismatch, diff),
			"Descriptor", "ConsistentWith", "element set reconciliation")
	}

	return nil
}

func sortKeys(keys []declKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Kind < keys[j].Kind
	})
}
