package charge

import (
	"fmt"

	"github.com/solarbench/chargectl/hw"
)

// BatteryState is derived fresh from a single sensor read, never cached or
// smoothed over time.
type BatteryState struct {
	Voltage    float64
	CapacityWh float64
	Percentage float64
}

// BatteryMonitor converts raw battery ADC readings into voltage, remaining
// capacity, and a charge percentage. Stateless apart from the configured
// cell capacity.
type BatteryMonitor struct {
	CapacityAh float64
}

// FromRaw derives the battery state from one raw ADC reading.
func (m BatteryMonitor) FromRaw(raw int) BatteryState {
	voltage := float64(raw) / hw.ADCMax * ADCRefVoltage * dividerRatio
	percentage := voltage / fullChargeVoltage * 100
	percentage = max(0, min(100, percentage))
	return BatteryState{
		Voltage:    voltage,
		CapacityWh: m.CapacityAh * voltage,
		Percentage: percentage,
	}
}

// Read takes a fresh sensor reading and derives the battery state from it.
func (m BatteryMonitor) Read(sensor hw.BatterySensor) (BatteryState, error) {
	raw, err := sensor.ReadBattery()
	if err != nil {
		return BatteryState{}, fmt.Errorf("battery read: %w", err)
	}
	return m.FromRaw(raw), nil
}
