package charge

import (
	"fmt"
	"math"
)

// Estimate is the projected duration to deliver an energy quantity at a
// fraction of full output power.
type Estimate struct {
	TotalSeconds float64
	Minutes      int
	Seconds      int
}

// EstimateDuration computes how long delivering energyWh at powerFraction of
// full output would take. Pure calculation, no session state involved.
//
// A non-positive power fraction is always rejected. Fractions above 1 are
// accepted by default; strictFraction enables the variant that rejects them.
func EstimateDuration(energyWh, powerFraction float64, strictFraction bool) (Estimate, error) {
	if powerFraction <= 0 {
		return Estimate{}, fmt.Errorf("%w: power fraction must be greater than zero", ErrInvalidParameter)
	}
	if strictFraction && powerFraction > 1 {
		return Estimate{}, fmt.Errorf("%w: power fraction must be between 0 and 1", ErrInvalidParameter)
	}

	totalSeconds := energyWh / powerFraction * 3600
	return Estimate{
		TotalSeconds: totalSeconds,
		Minutes:      int(totalSeconds / 60),
		Seconds:      int(math.Mod(totalSeconds, 60)),
	}, nil
}
