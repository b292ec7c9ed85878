package element

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stepherg/blizzard-plugin-sdk/errors"
)

// Kind identifies the capability an element exposes on the bus.
type Kind int

const (
	// KindUnknown is the zero value; never valid in a table.
	KindUnknown Kind = iota
	// KindReadOnlyProperty is a property remote clients may only read.
	KindReadOnlyProperty
	// KindReadWriteProperty is a property remote clients may read and write.
	KindReadWriteProperty
	// KindMethod is an invocable operation.
	KindMethod
	// KindEvent is a subscribable event source.
	KindEvent
)

// kindTokens maps kinds to their wire tokens, shared with the descriptor
// schema consumed by remote introspection clients.
var kindTokens = map[Kind]string{
	KindReadOnlyProperty:  "read-only",
	KindReadWriteProperty: "read-write",
	KindMethod:            "method",
	KindEvent:             "event",
}

// String returns the wire token for the kind
func (k Kind) String() string {
	if s, ok := kindTokens[k]; ok {
		return s
	}
	return "unknown"
}

// Valid reports whether k is one of the four capability kinds
func (k Kind) Valid() bool {
	_, ok := kindTokens[k]
	return ok
}

// Readable reports whether the kind services get operations
func (k Kind) Readable() bool {
	return k == KindReadOnlyProperty || k == KindReadWriteProperty
}

// Writable reports whether the kind services set operations
func (k Kind) Writable() bool {
	return k == KindReadWriteProperty
}

// MarshalJSON encodes the kind as its wire token.
func (k Kind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid element kind %d", int(k))
	}
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a wire token into a kind.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}
	parsed, err := ParseKind(token)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind converts a wire token back into a Kind.
func ParseKind(token string) (Kind, error) {
	for kind, t := range kindTokens {
		if t == token {
			return kind, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown element kind %q", token)
}

// GetHandler services read operations for a property element.
// The returned value is the marshaled property value.
type GetHandler func(ctx context.Context, name string) (json.RawMessage, error)

// SetHandler services write operations for a read-write property element.
type SetHandler func(ctx context.Context, name string, value json.RawMessage) error

// InvokeHandler services method invocations. Input and output parameters
// travel as marshaled documents; their shape is the element's business.
type InvokeHandler func(ctx context.Context, name string, params json.RawMessage) (json.RawMessage, error)

// SubscribeHandler services event subscription state changes. The host
// dispatcher calls it with active=true on the first remote subscriber and
// active=false when the last one goes away.
type SubscribeHandler func(ctx context.Context, name string, active bool) error

// Handlers bundles the native handler references for one element.
// Which fields must be set is determined by the element's Kind.
type Handlers struct {
	Get       GetHandler
	Set       SetHandler
	Invoke    InvokeHandler
	Subscribe SubscribeHandler
}

// Record is one addressable element: a name, a capability kind, and the
// handlers that service it. Records are immutable once constructed and
// remain valid for as long as the owning plugin stays loaded.
type Record struct {
	name     string
	kind     Kind
	handlers Handlers
}

// NewRecord constructs an element record, enforcing name validity and
// kind/handler completeness. A record that fails these checks never exists,
// so a Table can trust every record it is handed.
func NewRecord(name string, kind Kind, handlers Handlers) (Record, error) {
	if err := ValidateName(name); err != nil {
		return Record{}, errors.Wrap(err, "Element", "NewRecord", "name validation")
	}
	if !kind.Valid() {
		return Record{}, errors.WrapInvalid(
			fmt.Errorf("element %q: kind %d is not a capability kind", name, int(kind)),
			"Element", "NewRecord", "kind validation")
	}
	if err := validateHandlers(name, kind, handlers); err != nil {
		return Record{}, err
	}

	return Record{name: name, kind: kind, handlers: handlers}, nil
}

// Name returns the element's path-like identifier.
func (r Record) Name() string { return r.name }

// Kind returns the element's capability kind.
func (r Record) Kind() Kind { return r.kind }

// Handlers returns the handler references for the element.
func (r Record) Handlers() Handlers { return r.handlers }

// validateHandlers checks that exactly the handlers the kind requires are
// present. A handler the kind never dispatches to is rejected too: it is
// either a copy/paste mistake or a kind declared wrong, and both deserve a
// construction-time failure rather than a silently dead reference.
func validateHandlers(name string, kind Kind, h Handlers) error {
	type slot struct {
		label    string
		present  bool
		required bool
	}

	slots := []slot{
		{"get", h.Get != nil, kind.Readable()},
		{"set", h.Set != nil, kind.Writable()},
		{"invoke", h.Invoke != nil, kind == KindMethod},
		{"subscribe", h.Subscribe != nil, kind == KindEvent},
	}

	for _, s := range slots {
		if s.required && !s.present {
			return errors.WrapInvalid(
				fmt.Errorf("element %q (%s): %w: %s", name, kind, errors.ErrMissingHandler, s.label),
				"Element", "NewRecord", "handler completeness check")
		}
		if !s.required && s.present {
			return errors.WrapInvalid(
				fmt.Errorf("element %q (%s): %w: %s", name, kind, errors.ErrUnexpectedHandler, s.label),
				"Element", "NewRecord", "handler completeness check")
		}
	}

	return nil
}
