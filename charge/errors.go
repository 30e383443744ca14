package charge

import (
	"errors"
	"fmt"
)

// Rejection errors for Start and EstimateDuration. All are local and
// non-fatal: a rejected command leaves the session untouched.
var (
	ErrAlreadyActive    = errors.New("session already active")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// CapacityError rejects a Start whose target energy exceeds what the battery
// currently holds. It carries both figures so callers can report them.
type CapacityError struct {
	AvailableWh float64
	RequestedWh float64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient battery capacity: battery has %.2f Wh, requested %.2f Wh",
		e.AvailableWh, e.RequestedWh)
}
