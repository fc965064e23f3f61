package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	bbcreco "github.com/next-exp/bbcreco_go/pkg"
)

func main() {
	defaults := bbcreco.DefaultSimulationOptions()
	fileOut := flag.String("o", "bbcsim.raw", "Output raw file")
	nEvents := flag.Int("n", 2000, "Number of events")
	run := flag.Uint("run", uint(defaults.RunNumber), "Run number")
	z := flag.Float64("z", 0, "Vertex z in cm")
	t0 := flag.Float64("t0", 0, "Collision time in ns")
	amplitude := flag.Float64("amplitude", defaults.Amplitude, "Mean pulse amplitude in ADC counts")
	peak := flag.Int("peak", defaults.PeakSample, "Sample of the pulse maximum")
	jitter := flag.Float64("jitter", defaults.Jitter, "Per PMT time jitter in ns")
	seed := flag.Uint64("seed", defaults.Seed, "Random seed")
	flag.Parse()

	logger := bbcreco.NewTextLogger(os.Stdout, os.Stderr)
	bbcreco.SetLogger(logger)

	opts := defaults
	opts.RunNumber = uint32(*run)
	opts.Z = *z
	opts.TimeZero = *t0
	opts.Amplitude = *amplitude
	opts.PeakSample = *peak
	opts.Jitter = *jitter
	opts.Seed = *seed

	if err := simulate(*fileOut, *nEvents, opts); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	message := fmt.Sprintf("Wrote %d events to %s (z %.2f cm, t0 %.3f ns)", *nEvents, *fileOut, opts.Z, opts.TimeZero)
	logger.Info(message, "bbcsim")
}

func simulate(filename string, nEvents int, opts bbcreco.SimulationOptions) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	simulator := bbcreco.NewEventSimulator(opts)
	for i := 0; i < nEvents; i++ {
		event := simulator.Next()
		if err := bbcreco.WriteEvent(w, &event); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("error writing %s: %w", filename, err)
	}
	return file.Close()
}
