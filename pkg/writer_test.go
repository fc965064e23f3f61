package bbcreco

import (
	"path/filepath"
	"testing"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datasetRows(t *testing.T, file *hdf5.File, name string) []uint {
	t.Helper()
	dset, err := file.OpenDataset(name)
	require.NoError(t, err, name)
	defer dset.Close()
	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	require.NoError(t, err)
	return dims
}

func TestWriterLayout(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "reco.h5")
	writer, err := NewWriter(filename)
	require.NoError(t, err)

	sim := NewEventSimulator(DefaultSimulationOptions())
	p := NewProcessor(newTestStore(t, 0), ProcessorOptions{LockEvents: 1})
	p.InitRun(1)
	for i := 0; i < 3; i++ {
		raw := sim.Next()
		reco := p.ProcessEvent(&raw)
		require.NoError(t, writer.WriteEvent(&reco))
	}
	require.NoError(t, writer.WritePhases(1, p.Calibrator().Phases()))
	assert.Equal(t, 3, writer.EvtCounter)
	require.NoError(t, writer.Close())

	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []uint{3}, datasetRows(t, file, "/Run/events"))
	assert.Equal(t, []uint{3 * NumArms}, datasetRows(t, file, "/Reco/arms"))
	assert.Equal(t, []uint{3}, datasetRows(t, file, "/Reco/vertex"))
	assert.Equal(t, []uint{NumBoards}, datasetRows(t, file, "/Calib/trigger_phase"))
	for _, name := range []string{"/PMT/time_q", "/PMT/time_t", "/PMT/charge"} {
		assert.Equal(t, []uint{3, NumPmts}, datasetRows(t, file, name))
	}
}

func TestWriterStopsAfterFailedWrite(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "broken.h5")
	writer, err := NewWriter(filename)
	require.NoError(t, err)

	sim := NewEventSimulator(DefaultSimulationOptions())
	p := NewProcessor(newTestStore(t, 0), ProcessorOptions{LockEvents: 1})
	p.InitRun(1)
	raw := sim.Next()
	reco := p.ProcessEvent(&raw)

	// the event row goes in, the arms table then fails
	require.NoError(t, writer.ArmsTable.Close())
	first := writer.WriteEvent(&reco)
	require.Error(t, first)

	raw = sim.Next()
	reco = p.ProcessEvent(&raw)
	err = writer.WriteEvent(&reco)
	require.ErrorIs(t, err, errInvalidDataspace)
	assert.ErrorContains(t, err, "not written")
	assert.Error(t, writer.WritePhases(1, p.Calibrator().Phases()))
	assert.Zero(t, writer.EvtCounter)
	require.NoError(t, writer.Close())

	file, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, []uint{1}, datasetRows(t, file, "/Run/events"))
	assert.Equal(t, []uint{0}, datasetRows(t, file, "/Reco/vertex"))
	assert.Equal(t, []uint{0}, datasetRows(t, file, "/Calib/trigger_phase"))
}
