package bbcreco

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultTimeResolution is the single hit time resolution in ns.
	DefaultTimeResolution = 0.05

	armHistBins = 2000
	armHistMin  = -50.0
	armHistMax  = 50.0

	fitHalfWindow = 5.0
	fitHeightSeed = 5.0
)

// timeHistogram is the per arm distribution of accepted hit times.
type timeHistogram struct {
	counts [armHistBins]float64
}

func (h *timeHistogram) reset() {
	h.counts = [armHistBins]float64{}
}

func (h *timeHistogram) binWidth() float64 {
	return (armHistMax - armHistMin) / armHistBins
}

// bin returns -1 for values out of range.
func (h *timeHistogram) bin(t float64) int {
	if t < armHistMin || t >= armHistMax {
		return -1
	}
	return min(int((t-armHistMin)/h.binWidth()), armHistBins-1)
}

func (h *timeHistogram) center(bin int) float64 {
	return armHistMin + (float64(bin)+0.5)*h.binWidth()
}

func (h *timeHistogram) fill(t float64) {
	if b := h.bin(t); b >= 0 {
		h.counts[b]++
	}
}

// GaussianFitter fits a Gaussian of fixed width to a time histogram by
// minimising the binned Poisson negative log likelihood.
type GaussianFitter struct {
	Sigma float64
}

// Fit returns the fitted mean over the bins whose centre lies within
// seedMean +- fitHalfWindow. On failure, including a window without entries
// or a mean that leaves the window, the seed is returned with the error.
func (f GaussianFitter) Fit(h *timeHistogram, seedMean float64) (float64, error) {
	lo := max(h.bin(seedMean-fitHalfWindow), 0)
	hi := h.bin(seedMean + fitHalfWindow)
	if hi < 0 {
		hi = armHistBins - 1
	}
	for lo < hi && h.center(lo) < seedMean-fitHalfWindow {
		lo++
	}
	for hi > lo && h.center(hi) > seedMean+fitHalfWindow {
		hi--
	}

	var entries float64
	for i := lo; i <= hi; i++ {
		entries += h.counts[i]
	}
	if entries == 0 {
		return seedMean, ErrEmptyFitRange
	}

	// p[0] is the log of the height so the height stays positive
	nll := func(p []float64) float64 {
		var sum float64
		for i := lo; i <= hi; i++ {
			z := (h.center(i) - p[1]) / f.Sigma
			logMu := p[0] - 0.5*z*z
			sum += math.Exp(logMu)
			if n := h.counts[i]; n > 0 {
				sum -= n * logMu
			}
		}
		return sum
	}

	problem := optimize.Problem{Func: nll}
	init := []float64{math.Log(fitHeightSeed), seedMean}
	result, err := optimize.Minimize(problem, init, nil, &optimize.NelderMead{})
	if err != nil {
		return seedMean, fmt.Errorf("minimisation failed: %w", err)
	}
	mean := result.X[1]
	if !isFinite(mean) || math.Abs(mean-seedMean) > fitHalfWindow {
		return seedMean, fmt.Errorf("fitted mean %v outside [%g, %g]", mean,
			seedMean-fitHalfWindow, seedMean+fitHalfWindow)
	}
	return mean, nil
}

// ArmAggregator splits the PMT hits into the two arms and fits an arm time.
type ArmAggregator struct {
	fitter GaussianFitter
	hists  [NumArms]timeHistogram
}

func NewArmAggregator(timeResolution float64) *ArmAggregator {
	if timeResolution <= 0 {
		timeResolution = DefaultTimeResolution
	}
	return &ArmAggregator{fitter: GaussianFitter{Sigma: timeResolution}}
}

// Accepted reports whether a PMT time enters the arm distribution.
func Accepted(t float64) bool {
	return math.Abs(t) < TimeWindow
}

// Aggregate fills arms from the PMT times and charges of one event.
// Arms without accepted hits keep an undefined time.
func (a *ArmAggregator) Aggregate(pmts *PmtData, arms *[NumArms]ArmData) {
	for i := range a.hists {
		a.hists[i].reset()
		arms[i].Reset()
	}

	for pmt := 0; pmt < NumPmts; pmt++ {
		t := pmts.TimeQ[pmt]
		if !Accepted(t) {
			continue
		}
		arm := ArmOf(pmt)
		arms[arm].Times = append(arms[arm].Times, t)
		arms[arm].NHit++
		arms[arm].Charge += pmts.Charge[pmt]
		a.hists[arm].fill(t)
	}

	for i := range arms {
		arm := &arms[i]
		if len(arm.Times) == 0 {
			continue
		}
		sort.Float64s(arm.Times)
		arm.Earliest = arm.Times[0]

		mean := stat.Mean(arm.Times, nil)
		fitted, err := a.fitter.Fit(&a.hists[i], mean)
		if err != nil {
			logger.Error(fmt.Errorf("arm %d time fit: %w", i, err).Error())
		}
		arm.Time = fitted
	}
}
