package bbcreco

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	p := NewProcessor(newTestStore(t, 0), ProcessorOptions{LockEvents: 2, TimeResolution: DefaultTimeResolution})
	p.InitRun(1)
	return p
}

func simulatedVertex(t *testing.T, z float64) VertexResult {
	t.Helper()
	opts := DefaultSimulationOptions()
	opts.Z = z
	sim := NewEventSimulator(opts)
	p := newTestProcessor(t)

	var reco RecoEvent
	for i := 0; i < 3; i++ {
		raw := sim.Next()
		p.ProcessEventInto(&raw, &reco)
	}
	require.True(t, reco.Calibrated)
	require.True(t, reco.Vertex.Defined())
	return reco.Vertex
}

func TestProcessorWithholdsOutputUntilLocked(t *testing.T) {
	t.Parallel()

	sim := NewEventSimulator(DefaultSimulationOptions())
	p := newTestProcessor(t)

	raw := sim.Next()
	reco := p.ProcessEvent(&raw)
	assert.False(t, reco.Calibrated)
	assert.False(t, p.Calibrator().IsLocked())
	assert.False(t, reco.Vertex.Defined())
	for i := range reco.Arms {
		assert.Zero(t, reco.Arms[i].NHit)
		assert.True(t, math.IsNaN(reco.Arms[i].Time))
	}
	for pmt := 0; pmt < NumPmts; pmt++ {
		require.Equal(t, ResetTime, reco.Pmts.TimeQ[pmt])
		require.Equal(t, ResetTime, reco.Pmts.TimeT[pmt])
	}

	// the event completing the statistics is already calibrated
	raw = sim.Next()
	reco = p.ProcessEvent(&raw)
	assert.True(t, p.Calibrator().IsLocked())
	assert.True(t, reco.Calibrated)
	for board := 0; board < NumBoards; board++ {
		assert.Equal(t, DefaultSimulationOptions().PeakSample, p.Calibrator().BoardPhase(board))
	}
	assert.Equal(t, PmtsPerArm, reco.Arms[0].NHit)
	assert.Equal(t, PmtsPerArm, reco.Arms[1].NHit)
	assert.True(t, reco.Vertex.Defined())
}

func TestProcessorVertexFollowsSimulation(t *testing.T) {
	t.Parallel()

	center := simulatedVertex(t, 0)
	north := simulatedVertex(t, 20)
	south := simulatedVertex(t, -20)

	assert.InDelta(t, 0, center.Z, 2)
	assert.InDelta(t, 20, north.Z, 5)
	assert.InDelta(t, -20, south.Z, 5)
	assert.Greater(t, north.Z, center.Z)
	assert.Less(t, south.Z, center.Z)
}

func TestProcessorIsIdempotentOnceLocked(t *testing.T) {
	t.Parallel()

	sim := NewEventSimulator(DefaultSimulationOptions())
	p := newTestProcessor(t)
	for i := 0; i < 2; i++ {
		raw := sim.Next()
		p.ProcessEvent(&raw)
	}
	require.True(t, p.Calibrator().IsLocked())

	raw := sim.Next()
	first := p.ProcessEvent(&raw)
	second := p.ProcessEvent(&raw)
	if diff := cmp.Diff(first, second, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("reprocessing changed the event (-first +second):\n%s", diff)
	}
}

func TestProcessorEmptyEvent(t *testing.T) {
	t.Parallel()

	sim := NewEventSimulator(DefaultSimulationOptions())
	p := newTestProcessor(t)
	for i := 0; i < 2; i++ {
		raw := sim.Next()
		p.ProcessEvent(&raw)
	}

	empty := RawEvent{RunNumber: 1, EventID: 99}
	reco := p.ProcessEvent(&empty)
	assert.True(t, reco.Calibrated)
	assert.Zero(t, reco.Arms[0].NHit)
	assert.Zero(t, reco.Arms[1].NHit)
	assert.False(t, reco.Vertex.Defined())
	for pmt := 0; pmt < NumPmts; pmt++ {
		require.Equal(t, InvalidTime, reco.Pmts.TimeQ[pmt])
	}
}

func TestProcessorInitRunRelearnsPhases(t *testing.T) {
	t.Parallel()

	sim := NewEventSimulator(DefaultSimulationOptions())
	p := newTestProcessor(t)
	for i := 0; i < 2; i++ {
		raw := sim.Next()
		p.ProcessEvent(&raw)
	}
	require.True(t, p.Calibrator().IsLocked())

	p.InitRun(2)
	assert.Equal(t, uint32(2), p.RunNumber())
	assert.False(t, p.Calibrator().IsLocked())
	raw := sim.Next()
	assert.False(t, p.ProcessEvent(&raw).Calibrated)
}
