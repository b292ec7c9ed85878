// Package plugin defines the registration boundary between a Blizzard host
// process and its extension plugins.
//
// # Registration contract
//
// A plugin implements the Plugin interface. Register is the factory entry
// point: the host invokes it exactly once per load, with no arguments, and
// receives a Registration - the aggregate of the plugin's element table and
// its descriptor. The host never constructs either structure itself; it
// only reads what the plugin hands back.
//
// NewRegistration is the single gate every registration passes through. It
// refuses to produce a record unless:
//
//   - both table and descriptor are present (never one without the other)
//   - the table is non-empty (a plugin exposing nothing is a packaging
//     error, not a degenerate success)
//   - the descriptor's declared elements are a perfect match, by name and
//     kind, to the table
//
// A failed registration leaves nothing partially wired: the host gets an
// error, not a half-populated record.
//
// # Ownership
//
// The registration and everything it references are owned by the plugin
// for as long as the plugin stays loaded. The host borrows access through
// a Handle issued by the Registry; Unload revokes outstanding handles, so
// retaining one past unload is an error the type system surfaces instead
// of a dangling pointer.
//
// # Registry
//
// Registry maps plugin identity to Plugin instance and tracks load state.
// Load invokes Register exactly once per load; a second Load of an already
// loaded plugin fails with errors.ErrAlreadyRegistered without disturbing
// the first registration. Plugins holding state tied to a live
// registration can implement Releaser to be notified on Unload.
package plugin
