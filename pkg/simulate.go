package bbcreco

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// SimulationOptions describes the synthetic events produced by EventSimulator.
type SimulationOptions struct {
	RunNumber  uint32
	Z          float64 // vertex position in cm
	TimeZero   float64 // collision time in ns
	Amplitude  float64 // mean charge channel amplitude in ADC counts
	PeakSample int     // sample of the charge channel maximum
	PulseWidth float64 // gaussian sigma of the pulse in samples
	Pedestal   float64
	Noise      float64 // pedestal noise sigma in ADC counts
	Jitter     float64 // per PMT time jitter in ns
	Seed       uint64
}

func DefaultSimulationOptions() SimulationOptions {
	return SimulationOptions{
		RunNumber:  1,
		Amplitude:  200,
		PeakSample: 12,
		PulseWidth: 1.2,
		Pedestal:   1500,
		Noise:      1,
		Jitter:     0.05,
		Seed:       1,
	}
}

// EventSimulator produces raw events with a pulse on every charge channel,
// delayed per arm according to the vertex, and a flat top on every timing
// channel starting two samples before the peak.
type EventSimulator struct {
	opts      SimulationOptions
	amplitude distuv.Normal
	noise     distuv.Normal
	jitter    distuv.Normal
	eventID   uint32
}

func NewEventSimulator(opts SimulationOptions) *EventSimulator {
	src := rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)
	return &EventSimulator{
		opts:      opts,
		amplitude: distuv.Normal{Mu: opts.Amplitude, Sigma: 0.1 * opts.Amplitude, Src: src},
		noise:     distuv.Normal{Mu: 0, Sigma: opts.Noise, Src: src},
		jitter:    distuv.Normal{Mu: 0, Sigma: opts.Jitter, Src: src},
	}
}

// ArmTime is the true hit time of an arm: arm 0 sees the particles z/c
// later than arm 1 for a vertex at z.
func (s *EventSimulator) ArmTime(arm int) float64 {
	dt := s.opts.Z / SpeedOfLight
	if arm == 1 {
		dt = -dt
	}
	return s.opts.TimeZero + dt
}

func (s *EventSimulator) Next() RawEvent {
	event := RawEvent{RunNumber: s.opts.RunNumber, EventID: s.eventID}
	s.eventID++

	for pmt := 0; pmt < NumPmts; pmt++ {
		t := s.ArmTime(ArmOf(pmt))
		if s.opts.Jitter > 0 {
			t += s.jitter.Rand()
		}
		center := float64(s.opts.PeakSample) + t/SampleToNs
		amplitude := s.amplitude.Rand()

		q := make([]int16, NumSamples)
		for i := range q {
			d := (float64(i) - center) / s.opts.PulseWidth
			q[i] = s.adc(amplitude * math.Exp(-0.5*d*d))
		}
		event.SetWaveform(ChannelOf(pmt, ChargeChannel), q)

		tdc := (tdcTimeOffset - t) / tdcTimeSlope
		tq := make([]int16, NumSamples)
		for i := range tq {
			if i >= s.opts.PeakSample-phaseSampleShift {
				tq[i] = s.adc(tdc)
			} else {
				tq[i] = s.adc(0)
			}
		}
		event.SetWaveform(ChannelOf(pmt, TimingChannel), tq)
	}
	return event
}

func (s *EventSimulator) adc(signal float64) int16 {
	v := s.opts.Pedestal + signal
	if s.opts.Noise > 0 {
		v += s.noise.Rand()
	}
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
}
