// Package host wires plugin registrations to the bus. It drives the load
// phase (invoking each plugin's registration entry point through the
// registry, exactly once per plugin), retains the borrowed handles, and
// publishes descriptor announcements so remote clients can discover what
// each plugin offers without invoking any handler.
//
// The element dispatch loop that turns bus requests into handler calls is
// a separate concern and lives outside this SDK; the host's obligation
// ends at handing the dispatcher an immutable table.
package host
