package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	bbcreco "github.com/next-exp/bbcreco_go/pkg"
)

// sendEventsToProcessor feeds jobs until the input ends. A clean end of file
// returns nil; any other read error is returned once jobs is closed.
func sendEventsToProcessor(fileReader *FileReader, jobs chan<- bbcreco.RawEvent) error {
	defer close(jobs)
	for {
		event, err := fileReader.getNextEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("error reading event %d: %w", fileReader.EvtCount+1, err)
		}
		jobs <- event
	}
}

type RunSummary struct {
	Events     int
	Calibrated int
	Vertices   int
	Written    int
	Failed     int
	Elapsed    time.Duration
}

type eventLoop struct {
	processor     *bbcreco.Processor
	writer        *bbcreco.Writer
	started       bool
	phasesWritten bool
	summary       RunSummary
	writeErr      error
}

// run consumes events in arrival order. The phase calibrator is stateful so
// events are never processed in parallel.
func (l *eventLoop) run(jobs <-chan bbcreco.RawEvent) RunSummary {
	start := time.Now()
	var reco bbcreco.RecoEvent
	for raw := range jobs {
		l.processEvent(&raw, &reco)
	}
	l.summary.Elapsed = time.Since(start)
	return l.summary
}

// stopWriting keeps the first output error and processes the rest of the
// input without writing, so the run summary stays complete.
func (l *eventLoop) stopWriting(err error) {
	logger.Error(err.Error())
	logger.Error("output disabled for the rest of the run")
	l.writeErr = err
	l.writer = nil
}

func (l *eventLoop) processEvent(raw *bbcreco.RawEvent, reco *bbcreco.RecoEvent) {
	defer func() {
		if r := recover(); r != nil {
			l.summary.Failed++
			errMessage := fmt.Errorf("recovered from panic on event %d: %v", raw.EventID, r)
			logger.Error(errMessage.Error())
			logger.Error(fmt.Sprintf("discarding event %d", raw.EventID))
		}
	}()

	if !l.started || raw.RunNumber != l.processor.RunNumber() {
		l.processor.InitRun(raw.RunNumber)
		l.started = true
		l.phasesWritten = false
	}

	l.summary.Events++
	l.processor.ProcessEventInto(raw, reco)
	if reco.Calibrated {
		l.summary.Calibrated++
	}
	if reco.Vertex.Defined() {
		l.summary.Vertices++
	}

	if l.writer == nil {
		return
	}
	if reco.Calibrated && !l.phasesWritten {
		if err := l.writer.WritePhases(raw.RunNumber, l.processor.Calibrator().Phases()); err != nil {
			l.stopWriting(err)
			return
		}
		l.phasesWritten = true
	}
	if !reco.Calibrated && configuration.Discard {
		return
	}
	if err := l.writer.WriteEvent(reco); err != nil {
		l.stopWriting(err)
		return
	}
	l.summary.Written++
}
