// Package health provides health status reporting for the plugin host with
// three-state statuses and hierarchical aggregation.
//
// The host exposes one aggregate status built from the bus connection and
// each loaded plugin. Aggregation rules: any unhealthy part makes the
// aggregate unhealthy; any degraded part (with none unhealthy) makes it
// degraded; otherwise the aggregate is healthy. Error text in status
// messages is sanitized so connection strings and credentials never leave
// the process through a health endpoint.
package health

import (
	"regexp"
	"strings"
	"time"
)

// Health state values.
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

// Pre-compiled regexes for error message sanitization
var (
	urlRegex        = regexp.MustCompile(`(?:https?|nats|wss?)://[^\s]+`)
	unixPathRegex   = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	ipAddrRegex     = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex       = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status is the health state of one part of the host, with optional
// sub-statuses for aggregates.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"` // "healthy", "degraded", "unhealthy"
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// NewHealthy creates a healthy status for a component.
func NewHealthy(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   true,
		Status:    StateHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDegraded creates a degraded status. The message is sanitized.
func NewDegraded(component, message string) Status {
	return Status{
		Component: component,
		Status:    StateDegraded,
		Message:   sanitizeMessage(message),
		Timestamp: time.Now(),
	}
}

// NewUnhealthy creates an unhealthy status. The message is sanitized.
func NewUnhealthy(component, message string) Status {
	return Status{
		Component: component,
		Status:    StateUnhealthy,
		Message:   sanitizeMessage(message),
		Timestamp: time.Now(),
	}
}

// IsHealthy returns true if the status is healthy.
func (s Status) IsHealthy() bool {
	return s.Status == StateHealthy
}

// IsDegraded returns true if the status is degraded.
func (s Status) IsDegraded() bool {
	return s.Status == StateDegraded
}

// IsUnhealthy returns true if the status is unhealthy.
func (s Status) IsUnhealthy() bool {
	return s.Status == StateUnhealthy
}

// Aggregate folds sub-statuses into one status for the named component.
// Any unhealthy sub-status dominates; otherwise any degraded one does.
func Aggregate(component string, subs ...Status) Status {
	agg := Status{
		Component:   component,
		Healthy:     true,
		Status:      StateHealthy,
		Timestamp:   time.Now(),
		SubStatuses: subs,
	}

	for _, sub := range subs {
		switch {
		case sub.IsUnhealthy():
			agg.Healthy = false
			agg.Status = StateUnhealthy
			agg.Message = sub.Component + ": " + sub.Message
			return agg
		case sub.IsDegraded() && agg.Status == StateHealthy:
			agg.Healthy = false
			agg.Status = StateDegraded
			agg.Message = sub.Component + ": " + sub.Message
		}
	}

	return agg
}

// sanitizeMessage strips connection strings, paths, addresses, and
// credential fragments out of a status message.
func sanitizeMessage(msg string) string {
	if msg == "" {
		return ""
	}

	sanitized := urlRegex.ReplaceAllString(msg, "[URL]")
	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	lower := strings.ToLower(sanitized)
	if strings.Contains(lower, "password") || strings.Contains(lower, "token") ||
		strings.Contains(lower, "key") || strings.Contains(lower, "secret") ||
		strings.Contains(lower, "credential") {
		sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
	}

	return sanitized
}
