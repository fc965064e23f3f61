package bbcreco

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func armsWithTimes(t0, t1 float64) *[NumArms]ArmData {
	var arms [NumArms]ArmData
	arms[0] = ArmData{NHit: 10, Time: t0, Earliest: t0}
	arms[1] = ArmData{NHit: 12, Time: t1, Earliest: t1}
	return &arms
}

func TestReconstructVertex(t *testing.T) {
	t.Parallel()

	v := ReconstructVertex(armsWithTimes(1.0, 0.0), 0)
	assert.True(t, v.Defined())
	assert.InDelta(t, SpeedOfLight/2, v.Z, 1e-9)
	assert.InDelta(t, 0.5, v.TimeZero, 1e-12)

	v = ReconstructVertex(armsWithTimes(2.0, 2.0), -3.0)
	assert.InDelta(t, -3.0, v.Z, 1e-12)
	assert.InDelta(t, 2.0, v.TimeZero, 1e-12)
}

func TestReconstructVertexAntisymmetry(t *testing.T) {
	t.Parallel()

	for _, pair := range [][2]float64{{0.3, -0.1}, {5, 1}, {-4, 2.5}} {
		a := ReconstructVertex(armsWithTimes(pair[0], pair[1]), 0)
		b := ReconstructVertex(armsWithTimes(pair[1], pair[0]), 0)
		assert.InDelta(t, -a.Z, b.Z, 1e-9)
		assert.InDelta(t, a.TimeZero, b.TimeZero, 1e-12)
	}
}

func TestReconstructVertexUndefined(t *testing.T) {
	t.Parallel()

	arms := armsWithTimes(1, 2)
	arms[1].NHit = 0
	arms[1].Time = math.NaN()
	v := ReconstructVertex(arms, 0)
	assert.False(t, v.Defined())
	assert.True(t, math.IsNaN(v.Z))
	assert.True(t, math.IsNaN(v.TimeZero))

	arms = armsWithTimes(math.Inf(1), 2)
	assert.False(t, ReconstructVertex(arms, 0).Defined())
}

func TestZFromArmTimes(t *testing.T) {
	t.Parallel()

	assert.Zero(t, ZFromArmTimes(3, 3))
	assert.InDelta(t, 2*SpeedOfLight, ZFromArmTimes(4, 0), 1e-9)
}
