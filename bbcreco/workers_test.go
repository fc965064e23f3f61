package main

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	bbcreco "github.com/next-exp/bbcreco_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *bbcreco.CalibrationStore {
	t.Helper()
	gains := make([]bbcreco.GainRecord, bbcreco.NumPmts)
	offsets := make([]bbcreco.TimeOffsetRecord, bbcreco.NumPmts)
	for pmt := range gains {
		gains[pmt] = bbcreco.GainRecord{Pmt: pmt, Peak: 100}
		offsets[pmt] = bbcreco.TimeOffsetRecord{Pmt: pmt}
	}
	store, err := bbcreco.NewCalibrationStore(gains, offsets, 0)
	require.NoError(t, err)
	return store
}

func simulatedFile(t *testing.T, runs ...uint32) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	for _, run := range runs {
		opts := bbcreco.DefaultSimulationOptions()
		opts.RunNumber = run
		sim := bbcreco.NewEventSimulator(opts)
		for i := 0; i < 4; i++ {
			event := sim.Next()
			require.NoError(t, bbcreco.WriteEvent(&buf, &event))
		}
	}
	return &buf
}

func runLoop(t *testing.T, reader *FileReader) RunSummary {
	t.Helper()
	processor := bbcreco.NewProcessor(newTestStore(t), bbcreco.ProcessorOptions{LockEvents: 2})
	loop := &eventLoop{processor: processor}
	jobs := make(chan bbcreco.RawEvent, 10)
	go sendEventsToProcessor(reader, jobs)
	return loop.run(jobs)
}

func TestEventLoop(t *testing.T) {
	summary := runLoop(t, NewFileReader(simulatedFile(t, 1), 0, 1000))
	assert.Equal(t, 4, summary.Events)
	// the second event completes the phase statistics
	assert.Equal(t, 3, summary.Calibrated)
	assert.Equal(t, 3, summary.Vertices)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.Written)
}

func TestEventLoopRelearnsPhasesOnNewRun(t *testing.T) {
	summary := runLoop(t, NewFileReader(simulatedFile(t, 1, 2), 0, 1000))
	assert.Equal(t, 8, summary.Events)
	assert.Equal(t, 6, summary.Calibrated)
}

func TestFileReaderSkipAndMax(t *testing.T) {
	reader := NewFileReader(simulatedFile(t, 1), 1, 3)

	event, err := reader.getNextEvent()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), event.EventID)
	event, err = reader.getNextEvent()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), event.EventID)
	_, err = reader.getNextEvent()
	assert.Error(t, err)
}

func TestSendEventsToProcessor(t *testing.T) {
	t.Run("clean end of file", func(t *testing.T) {
		jobs := make(chan bbcreco.RawEvent, 10)
		err := sendEventsToProcessor(NewFileReader(simulatedFile(t, 1), 0, 1000), jobs)
		assert.NoError(t, err)
		assert.Len(t, jobs, 4)
	})

	t.Run("truncated file", func(t *testing.T) {
		buf := simulatedFile(t, 1)
		truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-10])
		jobs := make(chan bbcreco.RawEvent, 10)
		err := sendEventsToProcessor(NewFileReader(truncated, 0, 1000), jobs)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		assert.Len(t, jobs, 3)
	})
}

func TestEventLoopStopsWritingAfterFailure(t *testing.T) {
	writer, err := bbcreco.NewWriter(filepath.Join(t.TempDir(), "out.h5"))
	require.NoError(t, err)
	defer writer.Close()
	require.NoError(t, writer.ArmsTable.Close())

	processor := bbcreco.NewProcessor(newTestStore(t), bbcreco.ProcessorOptions{LockEvents: 2})
	loop := &eventLoop{processor: processor, writer: writer}
	jobs := make(chan bbcreco.RawEvent, 10)
	go sendEventsToProcessor(NewFileReader(simulatedFile(t, 1), 0, 1000), jobs)
	summary := loop.run(jobs)

	assert.Equal(t, 4, summary.Events)
	assert.Equal(t, 3, summary.Vertices)
	assert.Zero(t, summary.Written)
	assert.Error(t, loop.writeErr)
	assert.Nil(t, loop.writer)
}
