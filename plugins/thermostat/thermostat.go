// Package thermostat provides the reference Blizzard plugin. It exposes a
// small temperature-control element set exercising all four capability
// kinds: a read-only measurement, a read-write setpoint, a calibration
// method, and an alert event source.
package thermostat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/stepherg/blizzard-plugin-sdk/descriptor"
	"github.com/stepherg/blizzard-plugin-sdk/element"
	"github.com/stepherg/blizzard-plugin-sdk/errors"
	"github.com/stepherg/blizzard-plugin-sdk/plugin"
)

// Element names exposed on the bus.
const (
	ElemValue     = "temp.value"
	ElemSetpoint  = "temp.setpoint"
	ElemCalibrate = "temp.calibrate"
	ElemAlert     = "temp.alert"
)

// Setpoint bounds in degrees Celsius.
const (
	MinSetpoint = 5.0
	MaxSetpoint = 35.0
)

// Thermostat is the reference plugin implementation.
type Thermostat struct {
	mu          sync.RWMutex
	value       float64 // last measured temperature
	setpoint    float64
	offset      float64 // calibration offset applied to readings
	alertActive bool    // a remote subscriber is listening for alerts

	regMu      sync.Mutex
	registered bool
}

// New creates a thermostat plugin with a room-temperature starting state.
func New() *Thermostat {
	return &Thermostat{
		value:    21.5,
		setpoint: 20.0,
	}
}

// Meta returns plugin identity.
func (p *Thermostat) Meta() plugin.Meta {
	return plugin.Meta{
		Name:        "thermostat",
		Version:     "1.2.0",
		Vendor:      "blizzard",
		Description: "Temperature measurement and setpoint control",
	}
}

// Register builds the element table and descriptor and returns them as one
// registration record. A second call while a prior registration is live
// fails; Release (called by the registry on unload) re-arms it.
func (p *Thermostat) Register() (*plugin.Registration, error) {
	p.regMu.Lock()
	defer p.regMu.Unlock()

	if p.registered {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: thermostat", errors.ErrAlreadyRegistered),
			"Thermostat", "Register", "re-invocation check")
	}

	b := element.NewTableBuilder()
	if err := b.Add(ElemValue, element.KindReadOnlyProperty, element.Handlers{
		Get: p.getValue,
	}); err != nil {
		return nil, err
	}
	if err := b.Add(ElemSetpoint, element.KindReadWriteProperty, element.Handlers{
		Get: p.getSetpoint,
		Set: p.setSetpoint,
	}); err != nil {
		return nil, err
	}
	if err := b.Add(ElemCalibrate, element.KindMethod, element.Handlers{
		Invoke: p.calibrate,
	}); err != nil {
		return nil, err
	}
	if err := b.Add(ElemAlert, element.KindEvent, element.Handlers{
		Subscribe: p.alertSubscription,
	}); err != nil {
		return nil, err
	}

	table, err := b.Build()
	if err != nil {
		return nil, err
	}

	meta := p.Meta()
	desc, err := descriptor.New(meta.Name, meta.Version, meta.Vendor, []descriptor.ElementDecl{
		{Name: ElemValue, Kind: element.KindReadOnlyProperty, ValueType: "double"},
		{Name: ElemSetpoint, Kind: element.KindReadWriteProperty, ValueType: "double"},
		{Name: ElemCalibrate, Kind: element.KindMethod, ValueType: "object"},
		{Name: ElemAlert, Kind: element.KindEvent, ValueType: "none"},
	})
	if err != nil {
		return nil, err
	}

	reg, err := plugin.NewRegistration(table, desc)
	if err != nil {
		return nil, err
	}

	p.registered = true
	return reg, nil
}

// Release re-arms registration after an unload.
func (p *Thermostat) Release() {
	p.regMu.Lock()
	defer p.regMu.Unlock()
	p.registered = false
}

// SetMeasurement updates the measured temperature. In a real deployment a
// sensor loop feeds this; tests and demos drive it directly.
func (p *Thermostat) SetMeasurement(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
}

// AlertActive reports whether a remote subscriber is listening for alerts.
func (p *Thermostat) AlertActive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.alertActive
}

func (p *Thermostat) getValue(_ context.Context, _ string) (json.RawMessage, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return json.Marshal(p.value + p.offset)
}

func (p *Thermostat) getSetpoint(_ context.Context, _ string) (json.RawMessage, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return json.Marshal(p.setpoint)
}

func (p *Thermostat) setSetpoint(_ context.Context, _ string, value json.RawMessage) error {
	var target float64
	if err := json.Unmarshal(value, &target); err != nil {
		return errors.WrapInvalid(err, "Thermostat", "setSetpoint", "value parse")
	}
	if target < MinSetpoint || target > MaxSetpoint {
		return errors.WrapInvalid(
			fmt.Errorf("setpoint %.1f outside range %.1f-%.1f", target, MinSetpoint, MaxSetpoint),
			"Thermostat", "setSetpoint", "range check")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.setpoint = target
	return nil
}

// calibrateParams is the input document for temp.calibrate.
type calibrateParams struct {
	Offset float64 `json:"offset"`
}

// calibrateResult is the output document for temp.calibrate.
type calibrateResult struct {
	Offset   float64 `json:"offset"`
	Adjusted float64 `json:"adjusted_value"`
}

func (p *Thermostat) calibrate(_ context.Context, _ string, params json.RawMessage) (json.RawMessage, error) {
	var in calibrateParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &in); err != nil {
			return nil, errors.WrapInvalid(err, "Thermostat", "calibrate", "params parse")
		}
	}

	p.mu.Lock()
	p.offset = in.Offset
	adjusted := p.value + p.offset
	p.mu.Unlock()

	return json.Marshal(calibrateResult{Offset: in.Offset, Adjusted: adjusted})
}

func (p *Thermostat) alertSubscription(_ context.Context, _ string, active bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alertActive = active
	return nil
}
