package charge

import (
	"math"

	"github.com/solarbench/chargectl/hw"
)

// energyAccumulator maintains a running mean of every current-sensor sample
// taken since session start. The mean is over the whole session, not a
// sliding window: responsiveness degrades as the session lengthens, which is
// deliberate parity with the device this controller replaces. The incremental
// sum/count is numerically identical to recomputing the mean from the full
// sample history each tick.
type energyAccumulator struct {
	sampleSum   float64
	sampleCount int
}

func (a *energyAccumulator) reset() {
	a.sampleSum = 0
	a.sampleCount = 0
}

// observe folds one raw ADC sample into the running mean and converts it to
// an instantaneous power estimate and the total delivered energy.
//
// Delivered energy is the instantaneous power multiplied by the total elapsed
// session time, recomputed from scratch every tick. It is not a trapezoidal
// integral of power over tick deltas; it treats the current power estimate as
// the average power of the whole session so far.
func (a *energyAccumulator) observe(rawADC, duty int, elapsedSeconds float64) (powerW, deliveredWh float64) {
	a.sampleSum += float64(rawADC)
	a.sampleCount++
	meanADC := a.sampleSum / float64(a.sampleCount)

	sensorVoltage := meanADC * (ADCRefVoltage / hw.ADCMax)
	// Direction of current flow is discarded, only magnitude matters here.
	currentA := math.Abs(sensorVoltage-sensorZeroOffsetV) / sensorVoltsPerAmp
	scaledA := currentA * (float64(duty) / hw.MaxDuty)

	powerW = scaledA * SupplyVoltage
	deliveredWh = powerW * (elapsedSeconds / 3600.0)
	return powerW, deliveredWh
}
