package bbcreco

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the monitoring counters of the reconstruction. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	eventsProcessed prometheus.Counter
	eventsWithheld  prometheus.Counter
	vertices        prometheus.Counter
	locked          prometheus.Gauge
	boardPhase      *prometheus.GaugeVec
	armHits         *prometheus.HistogramVec
	vertexZ         prometheus.Histogram
	timeZero        prometheus.Histogram
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	auto := promauto.With(registry)
	const namespace, subsystem = "bbc", "reco"
	return &Metrics{
		eventsProcessed: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_processed_total",
			Help:      "Total number of events processed",
		}),
		eventsWithheld: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_uncalibrated_total",
			Help:      "Events without physics output because trigger phases were not locked",
		}),
		vertices: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "vertices_total",
			Help:      "Events with a reconstructed vertex",
		}),
		locked: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "phase_locked",
			Help:      "1 once the trigger phases of the current run are locked",
		}),
		boardPhase: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "board_phase",
			Help:      "Locked trigger phase sample per board",
		}, []string{"board"}),
		armHits: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "arm_hits",
			Help:      "Accepted hits per arm and event",
			Buckets:   prometheus.LinearBuckets(0, 8, 9),
		}, []string{"arm"}),
		vertexZ: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "vertex_z_cm",
			Help:      "Reconstructed vertex z",
			Buckets:   prometheus.LinearBuckets(-100, 10, 21),
		}),
		timeZero: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "time_zero_ns",
			Help:      "Reconstructed event time zero",
			Buckets:   prometheus.LinearBuckets(-10, 1, 21),
		}),
	}
}

func (m *Metrics) ObserveEvent(reco *RecoEvent) {
	if m == nil {
		return
	}
	m.eventsProcessed.Inc()
	if !reco.Calibrated {
		m.eventsWithheld.Inc()
		return
	}
	for i := range reco.Arms {
		m.armHits.WithLabelValues(strconv.Itoa(i)).Observe(float64(reco.Arms[i].NHit))
	}
	if reco.Vertex.Defined() {
		m.vertices.Inc()
		m.vertexZ.Observe(reco.Vertex.Z)
		m.timeZero.Observe(reco.Vertex.TimeZero)
	}
}

func (m *Metrics) SetLocked(locked bool) {
	if m == nil {
		return
	}
	if locked {
		m.locked.Set(1)
		return
	}
	m.locked.Set(0)
	m.boardPhase.Reset()
}

func (m *Metrics) SetPhases(phases [NumBoards]int) {
	if m == nil {
		return
	}
	for board, phase := range phases {
		m.boardPhase.WithLabelValues(strconv.Itoa(board)).Set(float64(phase))
	}
}
