package bbcreco

import (
	"fmt"
	"math"
)

const (
	// SampleToNs converts samples to ns, 1 sample = 1/56.299 MHz.
	SampleToNs = 17.7623

	CFDThreshold   = 0.5
	AmplitudeFloor = 24.0
	TimeWindow     = 25.0

	// Linear TDC to ns conversion of the timing channels. Placeholder until a
	// per channel lookup table calibration is available.
	tdcTimeOffset = 12.5
	tdcTimeSlope  = 0.00189

	// phaseSampleShift aligns the board phase with the crossing time.
	phaseSampleShift = 2
)

// ChargeChannelTime calibrates a charge channel crossing time. Hits below the
// amplitude floor, without crossing or outside the time window are InvalidTime.
func ChargeChannelTime(amplitude float64, rawTime float64, boardPhase int, timeOffset float64) float64 {
	if amplitude < AmplitudeFloor || rawTime == InvalidTime || boardPhase == UnsetPhase {
		return InvalidTime
	}
	t := (rawTime-float64(boardPhase-phaseSampleShift))*SampleToNs - timeOffset
	if math.Abs(t) > TimeWindow {
		return InvalidTime
	}
	return t
}

// TdcToTime converts the raw timing channel value to ns.
func TdcToTime(tdc float64) float64 {
	if tdc == InvalidTime {
		return InvalidTime
	}
	return tdcTimeOffset - tdc*tdcTimeSlope
}

// extractTimes fills the per PMT times and charges from the channel features.
// Each channel only depends on its own waveform and its board phase.
func extractTimes(waveforms []*Waveform, calibrator *PhaseCalibrator, store *CalibrationStore, reco *RecoEvent) {
	for ch, wf := range waveforms {
		board := BoardOf(ch)
		pmt := PmtOf(ch)
		phase := calibrator.BoardPhase(board)

		switch RoleOf(ch) {
		case ChargeChannel:
			ampl := wf.InterpolatedAmplitude()
			rawTime := wf.FractionalCrossingTime(CFDThreshold)
			reco.Amplitudes[ch] = ampl
			reco.Pmts.TimeQ[pmt] = ChargeChannelTime(ampl, rawTime, phase, store.TimeOffset(pmt))
			reco.Pmts.Charge[pmt] = ampl * store.Gain(pmt)

			if configuration.Verbosity > 2 {
				message := fmt.Sprintf("evt %d ch %d pmt %d ampl %.2f cfd %.3f t %.3f",
					reco.EventID, ch, pmt, ampl, rawTime, reco.Pmts.TimeQ[pmt])
				logger.Info(message, "times")
			}
		case TimingChannel:
			tdc := wf.MeanTimingValue(phase)
			_, reco.Amplitudes[ch] = wf.LocatePeak()
			reco.Pmts.TimeT[pmt] = TdcToTime(tdc)
		}
	}
}
