package charge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/solarbench/chargectl/hw"
)

func TestDutyStep_IncreasesWhenBelowTarget(t *testing.T) {
	// Measured half the target: error 0.5, relative error 0.5, step +25
	next := dutyStep(500, 1.0, 0.5)
	assert.Equal(t, 525, next)
}

func TestDutyStep_DecreasesWhenAboveTarget(t *testing.T) {
	// Measured double the target: relative error -1.0, step -50
	next := dutyStep(500, 1.0, 2.0)
	assert.Equal(t, 450, next)
}

func TestDutyStep_HoldsAtTarget(t *testing.T) {
	next := dutyStep(500, 1.0, 1.0)
	assert.Equal(t, 500, next)
}

func TestDutyStep_ClampsAtUpperBound(t *testing.T) {
	next := dutyStep(1020, 1.0, 0.0)
	assert.Equal(t, hw.MaxDuty, next)
}

func TestDutyStep_ClampsAtZero(t *testing.T) {
	next := dutyStep(10, 1.0, 5.0)
	assert.Equal(t, 0, next)
}

func TestDutyStep_GuardsZeroTarget(t *testing.T) {
	// Division by the target is guarded: no adjustment at all
	next := dutyStep(500, 0, 2.0)
	assert.Equal(t, 500, next)
}

func TestInitialDuty(t *testing.T) {
	assert.Equal(t, 341, initialDuty(1.0), "a third of full scale")
	assert.Equal(t, hw.MaxDuty, initialDuty(3.0), "full scale")
	assert.Equal(t, hw.MaxDuty, initialDuty(50.0), "clamped above full scale")
	assert.Equal(t, 0, initialDuty(0))
}
