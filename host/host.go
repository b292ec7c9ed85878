package host

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stepherg/blizzard-plugin-sdk/config"
	"github.com/stepherg/blizzard-plugin-sdk/descriptor"
	"github.com/stepherg/blizzard-plugin-sdk/errors"
	"github.com/stepherg/blizzard-plugin-sdk/metric"
	"github.com/stepherg/blizzard-plugin-sdk/plugin"
)

// Publisher is the slice of the bus client the host needs. natsclient.Client
// satisfies it; tests substitute a capture fake.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Announcement is the discovery payload published for each loaded plugin.
type Announcement struct {
	Host           string                 `json:"host"`
	Plugin         string                 `json:"plugin"`
	RegistrationID string                 `json:"registration_id"`
	ElementCount   int                    `json:"element_count"`
	Descriptor     *descriptor.Descriptor `json:"descriptor"`
	AnnouncedAt    time.Time              `json:"announced_at"`
}

// PluginInfo is one entry in the host's inventory, served on the registry
// request subject.
type PluginInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Vendor         string `json:"vendor,omitempty"`
	RegistrationID string `json:"registration_id"`
	ElementCount   int    `json:"element_count"`
}

// Inventory is the reply payload for registry list requests.
type Inventory struct {
	Host    string       `json:"host"`
	Plugins []PluginInfo `json:"plugins"`
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics attaches registration metrics.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(h *Host) {
		if registry != nil {
			h.metrics = registry.CoreMetrics()
		}
	}
}

// WithLoadPolicy sets how LoadAll treats a failed plugin load
// (config.PolicyFailFast or config.PolicySkip).
func WithLoadPolicy(policy string) Option {
	return func(h *Host) { h.policy = policy }
}

// WithDiscoveryPrefix overrides the announce subject prefix.
func WithDiscoveryPrefix(prefix string) Option {
	return func(h *Host) { h.discoveryPrefix = prefix }
}

// Host drives plugin loading and discovery announcements for one process.
type Host struct {
	name            string
	registry        *plugin.Registry
	bus             Publisher
	discoveryPrefix string
	policy          string
	logger          *slog.Logger
	metrics         *metric.Metrics

	mu      sync.Mutex
	handles map[string]*plugin.Handle
}

// New creates a host over the given plugin registry and bus connection.
func New(name string, registry *plugin.Registry, bus Publisher, opts ...Option) (*Host, error) {
	if name == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("host name is empty"),
			"Host", "New", "name validation")
	}
	if registry == nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("plugin registry is nil"),
			"Host", "New", "registry validation")
	}
	if bus == nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("bus publisher is nil"),
			"Host", "New", "bus validation")
	}

	h := &Host{
		name:            name,
		registry:        registry,
		bus:             bus,
		discoveryPrefix: "blizzard.discovery",
		policy:          config.PolicyFailFast,
		logger:          slog.Default(),
		handles:         make(map[string]*plugin.Handle),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// LoadAll loads every plugin added to the registry, in Add order, and
// announces each successful registration on the bus. Failure handling
// follows the configured load policy: fail-fast aborts on the first bad
// plugin, skip logs it and continues.
func (h *Host) LoadAll(ctx context.Context) error {
	for _, name := range h.registry.Plugins() {
		if err := h.load(ctx, name); err != nil {
			if h.policy == config.PolicySkip {
				h.logger.Warn("Skipping plugin after failed registration",
					"plugin", name, "error", err)
				continue
			}
			return errors.Wrap(err, "Host", "LoadAll", fmt.Sprintf("plugin %q load", name))
		}
	}
	return nil
}

// load registers one plugin and announces it.
func (h *Host) load(ctx context.Context, name string) error {
	handle, err := h.registry.Load(name)
	if err != nil {
		h.recordFailure(err)
		return err
	}

	reg, err := handle.Registration()
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.handles[name] = handle
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.PluginsLoaded.Inc()
		h.metrics.ElementsRegistered.Add(float64(reg.ElementCount()))
	}

	h.logger.Info("Plugin registered",
		"plugin", name,
		"registration_id", reg.ID(),
		"elements", reg.ElementCount())

	return h.announce(ctx, name, handle)
}

// announce publishes the plugin's descriptor on the discovery subject.
// The serialized descriptor is validated against the descriptor schema
// before anything reaches the bus.
func (h *Host) announce(_ context.Context, name string, handle *plugin.Handle) error {
	start := time.Now()

	reg, err := handle.Registration()
	if err != nil {
		return err
	}

	// Schema-check the descriptor document itself before wrapping it.
	if _, err := reg.Descriptor().MarshalValidated(); err != nil {
		return errors.Wrap(err, "Host", "announce", "descriptor schema validation")
	}

	payload, err := json.Marshal(Announcement{
		Host:           h.name,
		Plugin:         name,
		RegistrationID: reg.ID(),
		ElementCount:   reg.ElementCount(),
		Descriptor:     reg.Descriptor(),
		AnnouncedAt:    time.Now().UTC(),
	})
	if err != nil {
		return errors.WrapInvalid(err, "Host", "announce", "payload serialization")
	}

	subject := h.discoveryPrefix + "." + name
	if err := h.bus.Publish(subject, payload); err != nil {
		return errors.Wrap(err, "Host", "announce", fmt.Sprintf("publish to %s", subject))
	}

	if h.metrics != nil {
		h.metrics.AnnouncesPublished.Inc()
		h.metrics.AnnounceLatency.Observe(time.Since(start).Seconds())
	}

	h.logger.Debug("Descriptor announced", "plugin", name, "subject", subject)
	return nil
}

// Unload drops a plugin's registration, revokes its handles, and publishes
// a removal notice so discovery clients stop seeing its elements.
func (h *Host) Unload(_ context.Context, name string) error {
	h.mu.Lock()
	handle, ok := h.handles[name]
	delete(h.handles, name)
	h.mu.Unlock()

	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrNotRegistered, name),
			"Host", "Unload", "handle lookup")
	}

	var elementCount int
	if reg, err := handle.Registration(); err == nil {
		elementCount = reg.ElementCount()
	}

	if err := h.registry.Unload(name); err != nil {
		return errors.Wrap(err, "Host", "Unload", fmt.Sprintf("plugin %q unload", name))
	}

	if h.metrics != nil {
		h.metrics.PluginsLoaded.Dec()
		h.metrics.ElementsRegistered.Sub(float64(elementCount))
	}

	payload, err := json.Marshal(map[string]string{
		"host":   h.name,
		"plugin": name,
		"event":  "unloaded",
	})
	if err == nil {
		if pubErr := h.bus.Publish(h.discoveryPrefix+"."+name, payload); pubErr != nil {
			h.logger.Warn("Failed to publish unload notice", "plugin", name, "error", pubErr)
		}
	}

	h.logger.Info("Plugin unloaded", "plugin", name)
	return nil
}

// Handle returns the live handle for a loaded plugin.
func (h *Host) Handle(name string) (*plugin.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	handle, ok := h.handles[name]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrNotRegistered, name),
			"Host", "Handle", "handle lookup")
	}
	return handle, nil
}

// Inventory returns the currently loaded plugins and their registration
// identities, in registry Add order.
func (h *Host) Inventory() Inventory {
	inv := Inventory{Host: h.name, Plugins: []PluginInfo{}}

	for _, name := range h.registry.Loaded() {
		handle, err := h.registry.Handle(name)
		if err != nil {
			continue
		}
		reg, err := handle.Registration()
		if err != nil {
			continue
		}

		desc := reg.Descriptor()
		inv.Plugins = append(inv.Plugins, PluginInfo{
			Name:           desc.Name,
			Version:        desc.Version,
			Vendor:         desc.Vendor,
			RegistrationID: reg.ID(),
			ElementCount:   reg.ElementCount(),
		})
	}

	return inv
}

// HandleListRequest serializes the inventory for a registry list request.
// Callers wire it to the bus request subject; any serialization failure
// degrades to an empty inventory rather than a dropped reply.
func (h *Host) HandleListRequest() []byte {
	data, err := json.Marshal(h.Inventory())
	if err != nil {
		h.logger.Error("Failed to serialize inventory", "error", err)
		data, _ = json.Marshal(Inventory{Host: h.name, Plugins: []PluginInfo{}})
	}
	return data
}

// recordFailure tags a registration failure with its reason label.
func (h *Host) recordFailure(err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.RegistrationFailures.WithLabelValues(failureReason(err)).Inc()
}

func failureReason(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrDuplicateElement):
		return "duplicate_element"
	case stderrors.Is(err, errors.ErrDescriptorMismatch):
		return "descriptor_mismatch"
	case stderrors.Is(err, errors.ErrEmptyTable):
		return "empty_table"
	case stderrors.Is(err, errors.ErrMissingHandler), stderrors.Is(err, errors.ErrUnexpectedHandler):
		return "handler_mismatch"
	case stderrors.Is(err, errors.ErrAlreadyRegistered):
		return "already_registered"
	case stderrors.Is(err, errors.ErrPluginNotFound):
		return "plugin_not_found"
	default:
		return "registration_error"
	}
}
