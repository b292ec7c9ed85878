package element

import (
	"fmt"

	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

// Table is an ordered collection of element records. It is built once,
// inside the plugin's registration call, and never mutated afterwards;
// the host's dispatch threads may read it concurrently without locking.
//
// Enumeration order is insertion order. Remote clients listing a plugin's
// elements see exactly the sequence the plugin registered them in.
type Table struct {
	records []Record
	index   map[string]int // name -> position in records
}

// NewTable builds a table from the given records, rejecting duplicates.
// An empty record list yields an empty table; whether an empty table is an
// acceptable registration is decided one level up, by plugin.NewRegistration.
func NewTable(records ...Record) (*Table, error) {
	t := &Table{
		records: make([]Record, 0, len(records)),
		index:   make(map[string]int, len(records)),
	}

	for _, rec := range records {
		if err := t.append(rec); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func (t *Table) append(rec Record) error {
	if rec.name == "" {
		// Zero-value Record, constructed without NewRecord.
		return errors.WrapInvalid(
			fmt.Errorf("record has no name; construct records with NewRecord"),
			"Table", "append", "record validation")
	}
	if existing, ok := t.index[rec.name]; ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q already registered at position %d",
				errors.ErrDuplicateElement, rec.name, existing),
			"Table", "append", "duplicate name check")
	}

	t.index[rec.name] = len(t.records)
	t.records = append(t.records, rec)
	return nil
}

// Len returns the number of elements in the table.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns the element records in registration order.
// The returned slice is a copy; the table itself stays immutable.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Names returns the element names in registration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.records))
	for i, rec := range t.records {
		names[i] = rec.name
	}
	return names
}

// Lookup returns the record for the given element name.
func (t *Table) Lookup(name string) (Record, bool) {
	i, ok := t.index[name]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// TableBuilder assembles a table incrementally. Each Add validates the
// record immediately, so a duplicate name or handler mismatch surfaces at
// the offending call site rather than at Build.
type TableBuilder struct {
	table *Table
	built bool
}

// NewTableBuilder returns an empty builder.
func NewTableBuilder() *TableBuilder {
	return &TableBuilder{
		table: &Table{index: make(map[string]int)},
	}
}

// Add constructs and appends one element record.
func (b *TableBuilder) Add(name string, kind Kind, handlers Handlers) error {
	if b.built {
		return errors.WrapInvalid(
			fmt.Errorf("builder already produced a table"),
			"TableBuilder", "Add", "builder state check")
	}

	rec, err := NewRecord(name, kind, handlers)
	if err != nil {
		return errors.Wrap(err, "TableBuilder", "Add", "record construction")
	}

	return b.table.append(rec)
}

// Build finalizes and returns the table. The builder is single-use:
// further Add or Build calls fail.
func (b *TableBuilder) Build() (*Table, error) {
	if b.built {
		return nil, errors.WrapInvalid(
			fmt.Errorf("builder already produced a table"),
			"TableBuilder", "Build", "builder state check")
	}

	b.built = true
	return b.table, nil
}
