package bbcreco

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unsafe"
)

const (
	EventMagic uint32 = 0xBBC0DA7A

	// MaxSamples bounds the samples per channel accepted from a header.
	MaxSamples = 1024
)

type EventHeaderStruct struct {
	EventSize   uint32
	EventMagic  uint32
	RunNumber   uint32
	EventNumber uint32
	NChannels   uint16
	NSamples    uint16
}

var headerSize = int(unsafe.Sizeof(EventHeaderStruct{}))

// ReadEvent reads the next event. It returns io.EOF only at a clean end of
// stream and io.ErrUnexpectedEOF for a truncated event.
func ReadEvent(r io.Reader) (RawEvent, error) {
	var event RawEvent
	var header EventHeaderStruct

	headerBinary := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBinary); err != nil {
		return event, err
	}
	headerReader := bytes.NewReader(headerBinary)
	if err := binary.Read(headerReader, binary.LittleEndian, &header); err != nil {
		return event, fmt.Errorf("error decoding event header: %w", err)
	}
	if header.EventMagic != EventMagic {
		return event, fmt.Errorf("bad event magic 0x%08x", header.EventMagic)
	}
	if header.NChannels > NumChannels || header.NSamples > MaxSamples {
		return event, fmt.Errorf("event %d: %d channels x %d samples exceeds %d x %d",
			header.EventNumber, header.NChannels, header.NSamples, NumChannels, MaxSamples)
	}
	payloadSize := int(header.NChannels) * int(header.NSamples) * 2
	if int(header.EventSize) != headerSize+payloadSize {
		return event, fmt.Errorf("event %d: size %d does not match %d channels x %d samples",
			header.EventNumber, header.EventSize, header.NChannels, header.NSamples)
	}

	payload := make([]int16, int(header.NChannels)*int(header.NSamples))
	if err := binary.Read(r, binary.LittleEndian, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return event, fmt.Errorf("event %d payload: %w", header.EventNumber, err)
	}

	event.RunNumber = header.RunNumber
	event.EventID = header.EventNumber
	nSamples := int(header.NSamples)
	for ch := 0; ch < int(header.NChannels); ch++ {
		event.Waveforms[ch] = payload[ch*nSamples : (ch+1)*nSamples]
	}

	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Read event %d run %d: %d channels x %d samples",
			header.EventNumber, header.RunNumber, header.NChannels, header.NSamples)
		logger.Info(message, "reader")
	}
	return event, nil
}

// WriteEvent writes ev with NumSamples samples for every channel.
func WriteEvent(w io.Writer, ev *RawEvent) error {
	payload := make([]int16, NumChannels*NumSamples)
	for ch := 0; ch < NumChannels; ch++ {
		copy(payload[ch*NumSamples:(ch+1)*NumSamples], ev.Waveforms[ch])
	}
	header := EventHeaderStruct{
		EventSize:   uint32(headerSize + len(payload)*2),
		EventMagic:  EventMagic,
		RunNumber:   ev.RunNumber,
		EventNumber: ev.EventID,
		NChannels:   NumChannels,
		NSamples:    NumSamples,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("error writing event header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, payload); err != nil {
		return fmt.Errorf("error writing event %d: %w", ev.EventID, err)
	}
	return nil
}
