package bbcreco

import "math"

// RawEvent is what the front end delivers for one trigger: a fixed length
// waveform per channel. Channels without data are nil and read as zeros.
type RawEvent struct {
	RunNumber uint32
	EventID   uint32
	Waveforms [NumChannels][]int16
}

// Waveform returns the samples of a channel, nil when out of range or missing.
func (e *RawEvent) Waveform(channel int) []int16 {
	if !ValidChannel(channel) {
		return nil
	}
	return e.Waveforms[channel]
}

func (e *RawEvent) SetWaveform(channel int, samples []int16) {
	if !ValidChannel(channel) {
		return
	}
	e.Waveforms[channel] = samples
}

// PmtData holds the per PMT results of one event. TimeQ comes from the
// charge channel crossing time and feeds the arms; TimeT is the timing
// channel estimate, kept as an independent output.
type PmtData struct {
	TimeQ  [NumPmts]float64
	TimeT  [NumPmts]float64
	Charge [NumPmts]float64
}

func (p *PmtData) Reset() {
	for i := 0; i < NumPmts; i++ {
		p.TimeQ[i] = ResetTime
		p.TimeT[i] = ResetTime
		p.Charge[i] = 0
	}
}

type ArmData struct {
	NHit     int
	Charge   float64
	Time     float64
	Earliest float64
	Times    []float64
}

func (a *ArmData) Reset() {
	a.NHit = 0
	a.Charge = 0
	a.Time = math.NaN()
	a.Earliest = math.NaN()
	a.Times = a.Times[:0]
}

const (
	ZVertexError  = 0.6
	TimeZeroError = 0.05
)

// VertexResult is NaN in both fields when the vertex is undefined.
type VertexResult struct {
	Z        float64
	TimeZero float64
}

func UndefinedVertex() VertexResult {
	return VertexResult{Z: math.NaN(), TimeZero: math.NaN()}
}

func (v VertexResult) Defined() bool {
	return isFinite(v.Z) && isFinite(v.TimeZero)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// RecoEvent is the outcome of processing one RawEvent.
type RecoEvent struct {
	RunNumber  uint32
	EventID    uint32
	Calibrated bool
	Amplitudes [NumChannels]float64
	Pmts       PmtData
	Arms       [NumArms]ArmData
	Vertex     VertexResult
}

func (r *RecoEvent) Reset(raw *RawEvent) {
	r.RunNumber = raw.RunNumber
	r.EventID = raw.EventID
	r.Calibrated = false
	for i := range r.Amplitudes {
		r.Amplitudes[i] = 0
	}
	r.Pmts.Reset()
	for i := range r.Arms {
		r.Arms[i].Reset()
	}
	r.Vertex = UndefinedVertex()
}
