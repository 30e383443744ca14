// Package hw defines the hardware adapters the charging controller drives:
// the current sensor and battery sensor ADCs, and the PWM actuator.
package hw

import "fmt"

const (
	// ADCMax is the full-scale value of the 12-bit ADCs.
	ADCMax = 4095

	// MaxDuty is the highest duty level the PWM actuator accepts.
	MaxDuty = 1023
)

// CurrentSensor reads the raw ADC value of the output current sensor.
type CurrentSensor interface {
	ReadCurrent() (int, error)
}

// BatterySensor reads the raw ADC value of the battery voltage divider.
type BatterySensor interface {
	ReadBattery() (int, error)
}

// Actuator sets the duty level driving the output.
type Actuator interface {
	SetDuty(level int) error
}

// Board bundles all the hardware a single charging output needs.
type Board interface {
	CurrentSensor
	BatterySensor
	Actuator
}

// validateDuty rejects duty levels outside the actuator's range.
func validateDuty(level int) error {
	if level < 0 || level > MaxDuty {
		return fmt.Errorf("duty level %d out of range [0, %d]", level, MaxDuty)
	}
	return nil
}
