package hw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBoard_ReadCurrentStaysInRange(t *testing.T) {
	board := NewMockBoard()

	for i := 0; i < 100; i++ {
		raw, err := board.ReadCurrent()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, raw, 1800)
		assert.LessOrEqual(t, raw, 2200)
	}
}

func TestMockBoard_ReadBatteryStaysInRange(t *testing.T) {
	board := NewMockBoard()

	for i := 0; i < 100; i++ {
		raw, err := board.ReadBattery()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, raw, 3000)
		assert.LessOrEqual(t, raw, ADCMax)
	}
}

func TestMockBoard_RecordsDuty(t *testing.T) {
	board := NewMockBoard()

	require.NoError(t, board.SetDuty(341))
	assert.Equal(t, 341, board.Duty())

	require.NoError(t, board.SetDuty(0))
	assert.Equal(t, 0, board.Duty())
}

func TestMockBoard_RejectsOutOfRangeDuty(t *testing.T) {
	board := NewMockBoard()

	assert.Error(t, board.SetDuty(-1))
	assert.Error(t, board.SetDuty(MaxDuty+1))
	assert.Equal(t, 0, board.Duty(), "failed writes must not change the output")
}
