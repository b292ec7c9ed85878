// Package descriptor defines the declarative half of the plugin
// registration contract: the serializable self-description a host and
// remote introspection clients use to discover what a plugin offers
// without invoking any handler.
//
// A Descriptor names the plugin (name, version, vendor) and carries an
// ordered list of element declarations mirroring the plugin's element
// table. The two structures are independently authored, so the package
// also provides the reconciliation point: ConsistentWith verifies that
// the declared element list is a perfect match - same cardinality, same
// names, same kinds - to the operational table. Any divergence is a fatal
// construction error; a silent mismatch would let introspecting clients
// see elements that do not exist operationally, or miss ones that do.
//
// Descriptors serialize to JSON. Schema produces the JSON Schema remote
// clients validate discovery payloads against, and ValidateJSON checks a
// serialized descriptor against that schema on the host side.
package descriptor
