package hw

import (
	"math/rand"
	"sync"
)

// MockBoard simulates the charger hardware so the daemon can run without a
// device attached. The ADC readings follow the same ranges the bench mock
// produces: the current sensor idles near its zero offset and the battery
// divider reads in the upper part of its range.
type MockBoard struct {
	mu   sync.Mutex
	duty int
}

// NewMockBoard returns a mock board with the output off.
func NewMockBoard() *MockBoard {
	return &MockBoard{}
}

// ReadCurrent returns a raw ADC sample in [1800, 2200].
func (b *MockBoard) ReadCurrent() (int, error) {
	return 1800 + rand.Intn(401), nil
}

// ReadBattery returns a raw ADC sample in [3000, 4095].
func (b *MockBoard) ReadBattery() (int, error) {
	return 3000 + rand.Intn(1096), nil
}

// SetDuty records the duty level as the simulated PWM output.
func (b *MockBoard) SetDuty(level int) error {
	if err := validateDuty(level); err != nil {
		return err
	}
	b.mu.Lock()
	b.duty = level
	b.mu.Unlock()
	return nil
}

// Duty returns the last duty level applied.
func (b *MockBoard) Duty() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duty
}
