package charge

import (
	"fmt"
	"log"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/solarbench/chargectl/hw"
)

// Controller owns the single charging session. All session fields form one
// synchronization unit guarded by the lock: the periodic tick and the
// externally-triggered Start/Stop/Snapshot calls each take it for the whole
// operation, so no reader ever observes a torn mix of fields from two ticks
// or across a Start/Stop boundary.
type Controller struct {
	clock   clock.Clock
	board   hw.Board
	battery BatteryMonitor

	mu sync.Mutex
	s  session
}

// Config carries the controller's fixed parameters.
type Config struct {
	BatteryCapacityAh float64
	// Clock defaults to the wall clock; tests inject a mock.
	Clock clock.Clock
}

// NewController creates an idle controller driving the given board.
func NewController(board hw.Board, cfg Config) *Controller {
	c := &Controller{
		clock:   cfg.Clock,
		board:   board,
		battery: BatteryMonitor{CapacityAh: cfg.BatteryCapacityAh},
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	return c
}

// BatteryStatus reads the battery sensor and derives the instantaneous state.
func (c *Controller) BatteryStatus() (BatteryState, error) {
	return c.battery.Read(c.board)
}

// Start arms a charging session. It rejects if a session is already active,
// if either target is not a positive number, or if the battery does not
// currently hold the requested energy. A rejected Start changes no state.
func (c *Controller) Start(targetEnergyWh, targetPowerW float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.status == StatusActive {
		return ErrAlreadyActive
	}
	if !(targetEnergyWh > 0) || !(targetPowerW > 0) {
		return fmt.Errorf("%w: targets must be positive, got %v Wh and %v W",
			ErrInvalidParameter, targetEnergyWh, targetPowerW)
	}

	// Capacity admission against a fresh battery read.
	state, err := c.battery.Read(c.board)
	if err != nil {
		return err
	}
	if state.CapacityWh < targetEnergyWh {
		return &CapacityError{AvailableWh: state.CapacityWh, RequestedWh: targetEnergyWh}
	}

	c.s = session{
		status:         StatusActive,
		id:             uuid.NewString(),
		targetEnergyWh: targetEnergyWh,
		targetPowerW:   targetPowerW,
		dutyLevel:      initialDuty(targetPowerW),
		startedAt:      c.clock.Now(),
	}
	if err := c.board.SetDuty(c.s.dutyLevel); err != nil {
		// Session still starts; the next tick reapplies the duty.
		log.Printf("Start: actuator write failed: %v\n", err)
	}
	log.Printf("Session %s started: target %.4f Wh at %.2f W, initial duty %d\n",
		c.s.id, targetEnergyWh, targetPowerW, c.s.dutyLevel)
	return nil
}

// Stop ends the active session and reports what it delivered. Idempotent: on
// an idle controller it changes nothing and reports AlreadyOff, including
// right after auto-completion.
func (c *Controller) Stop() StopResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.status != StatusActive {
		return StopResult{AlreadyOff: true}
	}

	if err := c.board.SetDuty(0); err != nil {
		log.Printf("Stop: actuator write failed: %v\n", err)
	}
	result := StopResult{
		DeliveredWh:     c.s.deliveredWh,
		DurationSeconds: c.s.elapsedSeconds,
	}
	log.Printf("Session %s stopped: delivered %.4f Wh in %.2fs\n",
		c.s.id, result.DeliveredWh, result.DurationSeconds)
	c.s = session{status: StatusIdle}
	return result
}

// Tick runs one control cycle: sample the current sensor, update the energy
// estimate, adjust the duty toward the target power, and auto-complete once
// the target energy is reached. A no-op while idle. Returns a snapshot of
// the session as it was left.
//
// Auto-completion forces the duty to zero and flips the session idle without
// resetting the delivered figures, so a later explicit Stop reports
// AlreadyOff and the final values stay readable through Snapshot.
func (c *Controller) Tick() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.status != StatusActive {
		return c.snapshotLocked()
	}

	c.s.elapsedSeconds = c.clock.Now().Sub(c.s.startedAt).Seconds()

	raw, err := c.board.ReadCurrent()
	if err != nil {
		// Skip this tick's sample and hold the last duty.
		log.Printf("Tick: current read failed, holding duty %d: %v\n", c.s.dutyLevel, err)
		return c.snapshotLocked()
	}

	powerW, deliveredWh := c.s.acc.observe(raw, c.s.dutyLevel, c.s.elapsedSeconds)
	c.s.lastPowerW = powerW
	// Delivered energy never decreases while active, even when the power
	// estimate drops faster than elapsed time grows.
	if deliveredWh > c.s.deliveredWh {
		c.s.deliveredWh = deliveredWh
	}

	c.s.dutyLevel = dutyStep(c.s.dutyLevel, c.s.targetPowerW, powerW)
	if err := c.board.SetDuty(c.s.dutyLevel); err != nil {
		log.Printf("Tick: actuator write failed: %v\n", err)
	}

	if c.s.deliveredWh >= c.s.targetEnergyWh && c.s.dutyLevel != 0 {
		if err := c.board.SetDuty(0); err != nil {
			log.Printf("Tick: actuator write failed on completion: %v\n", err)
		}
		c.s.dutyLevel = 0
		c.s.status = StatusIdle
		log.Printf("Session %s: target %.4f Wh reached, output off after %.2fs\n",
			c.s.id, c.s.targetEnergyWh, c.s.elapsedSeconds)
	}

	return c.snapshotLocked()
}

// Snapshot returns a consistent copy of the session. After auto-completion
// it still carries the final delivered energy and duration until the next
// Start or explicit Stop.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:      c.s.id,
		Status:         c.s.status,
		TargetEnergyWh: c.s.targetEnergyWh,
		TargetPowerW:   c.s.targetPowerW,
		DutyLevel:      c.s.dutyLevel,
		PowerW:         c.s.lastPowerW,
		DeliveredWh:    c.s.deliveredWh,
		ElapsedSeconds: c.s.elapsedSeconds,
	}
}
