// Package element defines the operational half of the plugin registration
// contract: the addressable element records a plugin services at runtime.
//
// # Overview
//
// An element is one addressable capability on the bus - a readable or
// writable property, a method, or an event source - identified by a
// path-like name such as "Device.Thermostat.Temperature". Each Record pairs
// a name and capability Kind with the native handler references the host
// dispatcher will call for get/set/invoke/subscribe operations.
//
// Records are collected into a Table: an ordered, fixed collection owned by
// the plugin for the plugin's lifetime. Construction is the only mutation
// point. NewTable (and the incremental TableBuilder) enforce the two table
// invariants before a table exists at all:
//
//   - element names are unique within the table
//   - every record carries exactly the handlers its kind requires
//
// A Table is immutable after construction and therefore safe for concurrent
// reads by the host's dispatch threads without locking. Enumeration order
// always matches registration order, so remote clients listing elements see
// a deterministic sequence.
//
// The declarative mirror of a Table lives in the descriptor package; the
// plugin package reconciles the two when producing a Registration.
package element
