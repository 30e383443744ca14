package charge

import (
	"math"

	"github.com/solarbench/chargectl/hw"
)

// proportionalGain scales the relative power error into duty steps.
const proportionalGain = 50

// dutyStep computes the next duty level from the power tracking error.
// Pure proportional control with a hard clamp: no integral or derivative
// term, no anti-windup. It can oscillate under fast load changes, which
// matches the device behavior this controller reproduces.
func dutyStep(duty int, targetPowerW, measuredPowerW float64) int {
	adjustment := 0
	if targetPowerW != 0 {
		adjustment = int(math.Round((targetPowerW - measuredPowerW) / targetPowerW * proportionalGain))
	}
	return clampDuty(duty + adjustment)
}

// initialDuty seeds the actuator before the first feedback tick, assuming a
// nominal 3 W full-scale output.
func initialDuty(targetPowerW float64) int {
	return clampDuty(int(math.Round(targetPowerW / 3.0 * hw.MaxDuty)))
}

func clampDuty(duty int) int {
	return max(0, min(hw.MaxDuty, duty))
}
