package bbcreco

import (
	"fmt"
)

type ProcessorOptions struct {
	LockEvents     int
	TimeResolution float64
	Metrics        *Metrics
}

// Processor runs the reconstruction chain on one event at a time. It owns
// the phase calibrator, so a Processor must not be shared between goroutines
// that feed events concurrently.
type Processor struct {
	store      *CalibrationStore
	calibrator *PhaseCalibrator
	arms       *ArmAggregator
	waveforms  []*Waveform
	metrics    *Metrics
	runNumber  uint32
	nEvents    int
}

func NewProcessor(store *CalibrationStore, opts ProcessorOptions) *Processor {
	p := &Processor{
		store:      store,
		calibrator: NewPhaseCalibrator(opts.LockEvents),
		arms:       NewArmAggregator(opts.TimeResolution),
		waveforms:  make([]*Waveform, NumChannels),
		metrics:    opts.Metrics,
	}
	for ch := range p.waveforms {
		p.waveforms[ch] = NewWaveform(ch)
	}
	return p
}

// InitRun starts a new run: the board phases have to be learned again.
func (p *Processor) InitRun(runNumber uint32) {
	p.runNumber = runNumber
	p.nEvents = 0
	p.calibrator.Reset()
	p.metrics.SetLocked(false)
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Starting run %d", runNumber), "processor")
	}
}

func (p *Processor) RunNumber() uint32 {
	return p.runNumber
}

func (p *Processor) Calibrator() *PhaseCalibrator {
	return p.calibrator
}

// ProcessEvent reconstructs one event. Until the board phases are locked the
// returned event is not calibrated and all its physics outputs are undefined.
func (p *Processor) ProcessEvent(raw *RawEvent) RecoEvent {
	var reco RecoEvent
	p.ProcessEventInto(raw, &reco)
	return reco
}

// ProcessEventInto is ProcessEvent reusing the storage of reco.
func (p *Processor) ProcessEventInto(raw *RawEvent, reco *RecoEvent) {
	p.nEvents++
	reco.Reset(raw)

	for ch, wf := range p.waveforms {
		wf.SetSamples(raw.Waveform(ch))
	}

	if !p.calibrator.IsLocked() {
		p.collectPhases()
	}
	if !p.calibrator.IsLocked() {
		p.metrics.ObserveEvent(reco)
		return
	}
	reco.Calibrated = true

	extractTimes(p.waveforms, p.calibrator, p.store, reco)
	p.arms.Aggregate(&reco.Pmts, &reco.Arms)
	reco.Vertex = ReconstructVertex(&reco.Arms, p.store.GeometricCorrection())

	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("evt %d nhit %d/%d t %.3f/%.3f z %.2f t0 %.3f", reco.EventID,
			reco.Arms[0].NHit, reco.Arms[1].NHit, reco.Arms[0].Time, reco.Arms[1].Time,
			reco.Vertex.Z, reco.Vertex.TimeZero)
		logger.Info(message, "processor")
	}
	p.metrics.ObserveEvent(reco)
}

func (p *Processor) collectPhases() {
	for ch, wf := range p.waveforms {
		if RoleOf(ch) != ChargeChannel {
			continue
		}
		position, _ := wf.LocatePeak()
		if p.calibrator.RecordSample(BoardOf(ch), position) {
			phases := p.calibrator.Phases()
			p.metrics.SetPhases(phases)
			p.metrics.SetLocked(true)
			if configuration.Verbosity > 0 {
				message := fmt.Sprintf("Run %d trigger phases locked after %d events: %v",
					p.runNumber, p.nEvents, phases)
				logger.Info(message, "processor")
			}
		}
	}
}
