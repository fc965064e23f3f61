package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	bbcreco "github.com/next-exp/bbcreco_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateWritesReadableEvents(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "sim.raw")
	opts := bbcreco.DefaultSimulationOptions()
	opts.RunNumber = 42
	require.NoError(t, simulate(filename, 3, opts))

	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()

	for i := 0; i < 3; i++ {
		event, err := bbcreco.ReadEvent(file)
		require.NoError(t, err)
		assert.Equal(t, uint32(42), event.RunNumber)
		assert.Equal(t, uint32(i), event.EventID)
	}
	_, err = bbcreco.ReadEvent(file)
	assert.ErrorIs(t, err, io.EOF)
}
