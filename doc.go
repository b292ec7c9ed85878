// Package blizzard is the root of the Blizzard plugin SDK, a framework for
// building and hosting data-model plugins that publish their capabilities
// over a NATS bus.
//
// A plugin describes the elements it provides (read-only properties,
// read-write properties, methods, and event sources), binds a handler set
// to each, and hands the whole table plus a serializable descriptor to the
// host in a single registration step. The host validates the registration,
// announces the descriptor for discovery, and retains a revocable handle to
// the plugin's element table.
//
// Packages:
//
//   - element: element records, kinds, handler sets, and ordered tables
//   - descriptor: serializable plugin metadata with schema validation
//   - plugin: the Plugin contract, registration records, and the registry
//   - host: plugin loading, discovery announcements, and inventory
//   - pluginregistry: registration of the built-in plugin set
//   - plugins/thermostat: the reference plugin
//   - natsclient: bus connection management with circuit breaker
//   - config, errors, health, metric: shared infrastructure
package blizzard
