package bbcreco

// SpeedOfLight in cm/ns.
const SpeedOfLight = 29.9792458

// ZFromArmTimes is the vertex position before the geometric correction.
func ZFromArmTimes(t0 float64, t1 float64) float64 {
	return (t0 - t1) * SpeedOfLight / 2.0
}

// ReconstructVertex computes z and t0 when both arms have accepted hits,
// otherwise the result stays undefined.
func ReconstructVertex(arms *[NumArms]ArmData, geometricCorrection float64) VertexResult {
	if arms[0].NHit == 0 || arms[1].NHit == 0 {
		return UndefinedVertex()
	}
	t0, t1 := arms[0].Time, arms[1].Time
	result := VertexResult{
		Z:        ZFromArmTimes(t0, t1) + geometricCorrection,
		TimeZero: (t0 + t1) / 2.0,
	}
	if !result.Defined() {
		return UndefinedVertex()
	}
	return result
}
