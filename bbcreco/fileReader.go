package main

import (
	"bufio"
	"fmt"
	"io"

	bbcreco "github.com/next-exp/bbcreco_go/pkg"
)

type FileReader struct {
	Reader   *bufio.Reader
	EvtCount int
	skip     int
	max      int
}

func NewFileReader(r io.Reader, skip int, maxEvents int) *FileReader {
	return &FileReader{Reader: bufio.NewReader(r), EvtCount: -1, skip: skip, max: maxEvents}
}

// getNextEvent honours skip and max_events, counting skipped events
// against the maximum like the online readers do.
func (f *FileReader) getNextEvent() (bbcreco.RawEvent, error) {
	for {
		event, err := bbcreco.ReadEvent(f.Reader)
		if err != nil {
			return event, err
		}
		f.EvtCount++
		if f.EvtCount >= f.max {
			if VerbosityLevel > 0 {
				logger.Info("Max events reached", "fileReader")
			}
			return event, io.EOF
		}
		if f.EvtCount < f.skip {
			if VerbosityLevel > 1 {
				message := fmt.Sprintf("Skipping event %d with ID %d", f.EvtCount, event.EventID)
				logger.Info(message, "fileReader")
			}
			continue
		}
		if VerbosityLevel > 1 {
			message := fmt.Sprintf("Reading event %d with ID %d", f.EvtCount, event.EventID)
			logger.Info(message, "fileReader")
		}
		return event, nil
	}
}
