package plugin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/stepherg/blizzard-plugin-sdk/descriptor"
	"github.com/stepherg/blizzard-plugin-sdk/element"
	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

// Registration is the aggregate record a plugin hands across the boundary:
// its element table, the table's count, and its descriptor. It is
// immutable after construction and safe for concurrent reads.
type Registration struct {
	id    string
	table *element.Table
	desc  *descriptor.Descriptor
}

// NewRegistration validates and assembles a registration record. It never
// returns a partially populated record: a missing table, a missing
// descriptor, an empty table, or a descriptor/table divergence all fail
// construction.
func NewRegistration(table *element.Table, desc *descriptor.Descriptor) (*Registration, error) {
	if table == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("element table is nil"),
			"Registration", "NewRegistration", "table validation")
	}
	if desc == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("descriptor is nil"),
			"Registration", "NewRegistration", "descriptor validation")
	}

	// Zero elements is rejected by contract. A plugin that registers
	// nothing addressable has nothing to offer the bus and almost
	// certainly built its table wrong.
	if table.Len() == 0 {
		return nil, errors.WrapInvalid(
			errors.ErrEmptyTable,
			"Registration", "NewRegistration", "table population check")
	}

	if err := desc.Validate(); err != nil {
		return nil, errors.Wrap(err, "Registration", "NewRegistration", "descriptor validation")
	}

	// The critical cross-structure invariant: declarative and operational
	// element sets must reconcile exactly.
	if err := desc.ConsistentWith(table); err != nil {
		return nil, errors.Wrap(err, "Registration", "NewRegistration", "descriptor/table consistency check")
	}

	return &Registration{
		id:    uuid.NewString(),
		table: table,
		desc:  desc,
	}, nil
}

// ID returns the unique identifier stamped on this registration.
// Each successful Register call yields a distinct ID, which lets hosts
// correlate announcements and logs across reloads of the same plugin.
func (r *Registration) ID() string { return r.id }

// Table returns the plugin's element table.
func (r *Registration) Table() *element.Table { return r.table }

// Descriptor returns the plugin's self-description.
func (r *Registration) Descriptor() *descriptor.Descriptor { return r.desc }

// ElementCount returns the number of elements in the table.
func (r *Registration) ElementCount() int { return r.table.Len() }
