package bbcreco

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"
)

const (
	DefaultLockEvents = 100
	UnsetPhase        = -1
)

type CalibratorState int

const (
	Collecting CalibratorState = iota
	Locked
)

func (s CalibratorState) String() string {
	switch s {
	case Collecting:
		return "COLLECTING"
	case Locked:
		return "LOCKED"
	default:
		return "Unknown"
	}
}

// PhaseCalibrator learns, board by board, the sample at which real pulses
// peak. The sampling clocks run free with respect to the trigger so no time
// can be computed until every board phase is known. Peak positions of the
// charge channels are histogrammed until the threshold is reached, then each
// board phase is frozen to the histogram mode for the rest of the run.
type PhaseCalibrator struct {
	mu        sync.RWMutex
	state     CalibratorState
	threshold int
	recorded  int
	counts    [NumBoards][NumSamples]float64
	phases    [NumBoards]int
}

// NewPhaseCalibrator locks after lockEvents events worth of charge channels.
func NewPhaseCalibrator(lockEvents int) *PhaseCalibrator {
	if lockEvents <= 0 {
		lockEvents = DefaultLockEvents
	}
	c := &PhaseCalibrator{threshold: NumBoards * ChargeChPerBoard * lockEvents}
	c.Reset()
	return c
}

// Reset forgets everything learned. Only called at run boundaries.
func (c *PhaseCalibrator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Collecting
	c.recorded = 0
	c.counts = [NumBoards][NumSamples]float64{}
	for i := range c.phases {
		c.phases[i] = UnsetPhase
	}
}

// RecordSample adds one peak position for a board. It returns true only for
// the sample that completes the statistics and locks the calibrator.
// Samples received once locked, or out of range, are ignored.
func (c *PhaseCalibrator) RecordSample(board int, position int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Locked {
		return false
	}
	if !ValidBoard(board) || position < 0 || position >= NumSamples {
		return false
	}
	c.counts[board][position]++
	c.recorded++
	if c.recorded < c.threshold {
		return false
	}
	c.lock()
	return true
}

func (c *PhaseCalibrator) lock() {
	for board := range c.phases {
		// lowest position wins on ties
		mode := floats.MaxIdx(c.counts[board][:])
		count := c.counts[board][mode]
		if count == 0 {
			continue
		}
		c.phases[board] = mode
		if configuration.Verbosity > 0 {
			message := fmt.Sprintf("board %d phase %d (%d entries)", board, c.phases[board], int(count))
			logger.Info(message, "calibrator")
		}
	}
	c.state = Locked
}

func (c *PhaseCalibrator) IsLocked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == Locked
}

func (c *PhaseCalibrator) State() CalibratorState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Recorded is the number of peak positions collected so far.
func (c *PhaseCalibrator) Recorded() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recorded
}

func (c *PhaseCalibrator) Threshold() int {
	return c.threshold
}

// BoardPhase returns UnsetPhase until locked or for an unknown board.
func (c *PhaseCalibrator) BoardPhase(board int) int {
	if !ValidBoard(board) {
		return UnsetPhase
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phases[board]
}

func (c *PhaseCalibrator) Phases() [NumBoards]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phases
}
