package plugin

// Meta holds basic plugin identity, available before registration.
type Meta struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Vendor      string `json:"vendor,omitempty"`
	Description string `json:"description,omitempty"`
}

// Plugin is the capability interface every Blizzard extension implements.
// Register is the factory entry point: invoked by the host exactly once
// per load, it constructs the plugin's element table and descriptor and
// returns them as a single registration record, or fails without side
// effects visible to the host.
type Plugin interface {
	// Meta returns plugin identity without triggering registration.
	Meta() Meta

	// Register builds and returns the plugin's registration record.
	// Implementations may allocate and acquire resources their handlers
	// will need for the remainder of the process lifetime. They are
	// entitled to detect a second invocation while a prior registration
	// is still live and fail it with errors.ErrAlreadyRegistered.
	Register() (*Registration, error)
}

// Releaser is implemented by plugins that hold state tied to a live
// registration. The registry calls Release on Unload, after which a
// subsequent Load may invoke Register again.
type Releaser interface {
	Release()
}
