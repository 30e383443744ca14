// Package charge implements the closed-loop charging controller: energy
// accounting over current-sensor samples, proportional duty control toward a
// target power, battery capacity admission, and the session state machine
// with automatic completion at the target energy.
package charge

import "time"

// Electrical constants of the board. The ADCs reference 3.3 V, the battery
// sits behind a 2:1 divider, and the current sensor outputs 1.65 V at zero
// current with 185 mV per ampere.
const (
	ADCRefVoltage     = 3.3
	SupplyVoltage     = 3.3
	dividerRatio      = 2.0
	fullChargeVoltage = 4.2
	sensorZeroOffsetV = 1.65
	sensorVoltsPerAmp = 0.185
)

// Status is the explicit session state. Actuator duty is never used as a
// proxy for it: after auto-completion the duty is zero while the last
// session's figures are still readable.
type Status int

const (
	StatusIdle Status = iota
	StatusActive
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	default:
		return "unknown"
	}
}

// session holds all mutable state of the single charging session. It is only
// ever touched under the controller's lock, so Start, Stop, and the periodic
// tick each see and leave a consistent whole.
type session struct {
	status         Status
	id             string
	targetEnergyWh float64
	targetPowerW   float64
	dutyLevel      int
	acc            energyAccumulator
	deliveredWh    float64
	lastPowerW     float64
	startedAt      time.Time
	elapsedSeconds float64
}

// Snapshot is a consistent copy of the session taken under the lock, safe to
// hand to telemetry and status readers.
type Snapshot struct {
	SessionID      string
	Status         Status
	TargetEnergyWh float64
	TargetPowerW   float64
	DutyLevel      int
	PowerW         float64
	DeliveredWh    float64
	ElapsedSeconds float64
}

// StopResult reports what an explicit Stop found. After auto-completion the
// session is already idle, so AlreadyOff is set and the delivered figures are
// only available through Snapshot.
type StopResult struct {
	AlreadyOff      bool
	DeliveredWh     float64
	DurationSeconds float64
}
