package bbcreco

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

const (
	// InvalidTime marks a channel without a usable hit. It lies far outside
	// every acceptance window so it never needs special casing downstream.
	InvalidTime = -9999.0

	// ResetTime is the per-event value of a PMT time before it is computed.
	ResetTime = 1e12

	PedestalFirstSample = 0
	PedestalLastSample  = 1

	// TdcFloor is the minimum raw value of a timing channel to be a hit.
	TdcFloor = 100.0

	splineStep = 0.01
)

// Waveform holds one channel's samples for the current event and extracts
// its features. The same value is reused event after event.
type Waveform struct {
	Channel  int
	x        [NumSamples]float64
	y        [NumSamples]float64
	pedestal float64

	spline    interp.NaturalCubic
	ampl      float64
	amplValid bool
}

func NewWaveform(channel int) *Waveform {
	w := &Waveform{Channel: channel}
	for i := range w.x {
		w.x[i] = float64(i)
	}
	return w
}

// SetSamples loads the raw ADC values of one event. Missing samples are
// taken as zero and the event pedestal is subtracted.
func (w *Waveform) SetSamples(adc []int16) {
	for i := range w.y {
		if i < len(adc) {
			w.y[i] = float64(adc[i])
		} else {
			w.y[i] = 0
		}
	}
	w.pedestal = floats.Sum(w.y[PedestalFirstSample:PedestalLastSample+1]) /
		float64(PedestalLastSample-PedestalFirstSample+1)
	floats.AddConst(-w.pedestal, w.y[:])
	w.amplValid = false

	if configuration.Verbosity > 3 {
		message := fmt.Sprintf("ch %d pedestal %.1f samples %v", w.Channel, w.pedestal, w.y)
		logger.Info(message, "waveform")
	}
}

func (w *Waveform) Pedestal() float64 {
	return w.pedestal
}

// Sample returns the pedestal subtracted value at sample i, zero when out of range.
func (w *Waveform) Sample(i int) float64 {
	if i < 0 || i >= NumSamples {
		return 0
	}
	return w.y[i]
}

// LocatePeak returns the sample and value of the maximum raw sample.
// The earliest sample wins on ties.
func (w *Waveform) LocatePeak() (int, float64) {
	imax := floats.MaxIdx(w.y[:])
	return imax, w.y[imax]
}

// InterpolatedAmplitude evaluates a natural cubic spline through the samples
// within one sample of the peak and returns its maximum.
func (w *Waveform) InterpolatedAmplitude() float64 {
	if w.amplValid {
		return w.ampl
	}
	imax, ymax := w.LocatePeak()
	w.ampl = ymax
	w.amplValid = true
	if ymax <= 0 {
		return w.ampl
	}

	if err := w.spline.Fit(w.x[:], w.y[:]); err != nil {
		logger.Error(fmt.Errorf("ch %d: spline fit: %w", w.Channel, err).Error())
		return w.ampl
	}

	lo := math.Max(float64(imax-1), 0)
	hi := math.Min(float64(imax+1), NumSamples-1)
	for x := lo; x <= hi; x += splineStep {
		if y := w.spline.Predict(x); y > w.ampl {
			w.ampl = y
		}
	}
	return w.ampl
}

// FractionalCrossingTime returns the sample position at which the rising edge
// crosses threshold times the interpolated amplitude, linearly interpolated
// between the two samples around the crossing. InvalidTime means no crossing.
func (w *Waveform) FractionalCrossingTime(threshold float64) float64 {
	ampl := w.InterpolatedAmplitude()
	if ampl <= 0 {
		return InvalidTime
	}
	level := threshold * ampl

	imax, _ := w.LocatePeak()
	for i := imax; i > 0; i-- {
		if w.y[i-1] < level && w.y[i] >= level {
			return w.x[i-1] + (level-w.y[i-1])/(w.y[i]-w.y[i-1])
		}
	}
	return InvalidTime
}

// MeanTimingValue averages a timing channel around the board phase sample.
// Below TdcFloor, or with no known phase, it returns InvalidTime.
func (w *Waveform) MeanTimingValue(boardPhase int) float64 {
	if boardPhase < 0 || boardPhase >= NumSamples {
		return InvalidTime
	}
	lo := max(boardPhase-1, 0)
	hi := min(boardPhase+1, NumSamples-1)
	tdc := floats.Sum(w.y[lo:hi+1]) / float64(hi-lo+1)
	if tdc < TdcFloor {
		return InvalidTime
	}
	return tdc
}
