package bbcreco

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type Writer struct {
	File        *hdf5.File
	Filename    string
	RunGroup    *hdf5.Group
	RecoGroup   *hdf5.Group
	PmtGroup    *hdf5.Group
	CalibGroup  *hdf5.Group
	EventTable  *hdf5.Dataset
	ArmsTable   *hdf5.Dataset
	VertexTable *hdf5.Dataset
	PhaseTable  *hdf5.Dataset
	TimeQ       *hdf5.Dataset
	TimeT       *hdf5.Dataset
	Charge      *hdf5.Dataset
	EvtCounter  int

	failed error
}

func NewWriter(filename string) (*Writer, error) {
	var err error
	writer := &Writer{Filename: filename}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating file %s", filename), "hdf5writer")
	}
	if writer.File, err = openFile(filename); err != nil {
		return nil, err
	}

	groups := []struct {
		dst  **hdf5.Group
		name string
	}{
		{&writer.RunGroup, "Run"},
		{&writer.RecoGroup, "Reco"},
		{&writer.PmtGroup, "PMT"},
		{&writer.CalibGroup, "Calib"},
	}
	for _, g := range groups {
		if *g.dst, err = createGroup(writer.File, g.name); err != nil {
			writer.Close()
			return nil, err
		}
	}

	if writer.EventTable, err = createTable(writer.RunGroup, "events", EventDataHDF5{}); err != nil {
		writer.Close()
		return nil, err
	}
	if writer.ArmsTable, err = createTable(writer.RecoGroup, "arms", ArmHDF5{}); err != nil {
		writer.Close()
		return nil, err
	}
	if writer.VertexTable, err = createTable(writer.RecoGroup, "vertex", VertexHDF5{}); err != nil {
		writer.Close()
		return nil, err
	}
	if writer.PhaseTable, err = createTable(writer.CalibGroup, "trigger_phase", PhaseHDF5{}); err != nil {
		writer.Close()
		return nil, err
	}

	arrays := []struct {
		dst  **hdf5.Dataset
		name string
	}{
		{&writer.TimeQ, "time_q"},
		{&writer.TimeT, "time_t"},
		{&writer.Charge, "charge"},
	}
	for _, a := range arrays {
		if *a.dst, err = create2dArray(writer.PmtGroup, a.name, NumPmts); err != nil {
			writer.Close()
			return nil, err
		}
	}
	return writer, nil
}

// WriteEvent appends one event to every table. After a failed write the
// tables may disagree on their row count, so the writer refuses any further
// event and keeps returning the first error.
func (w *Writer) WriteEvent(reco *RecoEvent) error {
	if w.failed != nil {
		return fmt.Errorf("event %d not written: %w", reco.EventID, w.failed)
	}
	if err := w.writeEvent(reco); err != nil {
		w.failed = err
		return err
	}
	w.EvtCounter++
	return nil
}

func (w *Writer) writeEvent(reco *RecoEvent) error {
	evtNumber := int32(reco.EventID)
	event := EventDataHDF5{
		evt_number: evtNumber,
		run_number: int32(reco.RunNumber),
	}
	arms := make([]ArmHDF5, NumArms)
	for i, arm := range reco.Arms {
		arms[i] = ArmHDF5{
			evt_number: evtNumber,
			arm:        int32(i),
			nhit:       int32(arm.NHit),
			charge:     float32(arm.Charge),
			time:       float32(arm.Time),
			earliest:   float32(arm.Earliest),
		}
	}
	var calibrated int32
	if reco.Calibrated {
		calibrated = 1
	}
	vertex := VertexHDF5{
		evt_number: evtNumber,
		calibrated: calibrated,
		z:          float32(reco.Vertex.Z),
		z_err:      ZVertexError,
		t0:         float32(reco.Vertex.TimeZero),
		t0_err:     TimeZeroError,
	}
	rows := []struct {
		dset   *hdf5.Dataset
		values *[NumPmts]float64
		data   []float32
	}{
		{dset: w.TimeQ, values: &reco.Pmts.TimeQ},
		{dset: w.TimeT, values: &reco.Pmts.TimeT},
		{dset: w.Charge, values: &reco.Pmts.Charge},
	}
	for i := range rows {
		rows[i].data = make([]float32, NumPmts)
		for pmt, v := range rows[i].values {
			rows[i].data[pmt] = float32(v)
		}
	}

	if err := writeEntryToTable(w.EventTable, event); err != nil {
		return fmt.Errorf("event %d: error writing event table: %w", reco.EventID, err)
	}
	if err := writeArrayToTable(w.ArmsTable, &arms); err != nil {
		return fmt.Errorf("event %d: error writing arms table: %w", reco.EventID, err)
	}
	if err := writeEntryToTable(w.VertexTable, vertex); err != nil {
		return fmt.Errorf("event %d: error writing vertex table: %w", reco.EventID, err)
	}
	for _, row := range rows {
		if err := write2dArray(row.dset, &row.data, w.EvtCounter); err != nil {
			return fmt.Errorf("event %d: error writing pmt data: %w", reco.EventID, err)
		}
	}
	return nil
}

// WritePhases stores the locked trigger phase of every board for a run.
func (w *Writer) WritePhases(runNumber uint32, phases [NumBoards]int) error {
	if w.failed != nil {
		return fmt.Errorf("run %d: trigger phases not written: %w", runNumber, w.failed)
	}
	entries := make([]PhaseHDF5, NumBoards)
	for board, phase := range phases {
		entries[board] = PhaseHDF5{
			run_number: int32(runNumber),
			board:      int32(board),
			phase:      int32(phase),
		}
	}
	if err := writeArrayToTable(w.PhaseTable, &entries); err != nil {
		w.failed = fmt.Errorf("run %d: error writing trigger phases: %w", runNumber, err)
		return w.failed
	}
	return nil
}

func (w *Writer) Close() error {
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Closing file %s after %d events", w.Filename, w.EvtCounter), "hdf5writer")
	}
	var errs []error

	datasets := []struct {
		dset *hdf5.Dataset
		name string
	}{
		{w.EventTable, "event table"},
		{w.ArmsTable, "arms table"},
		{w.VertexTable, "vertex table"},
		{w.PhaseTable, "trigger phase table"},
		{w.TimeQ, "charge channel times"},
		{w.TimeT, "timing channel times"},
		{w.Charge, "charges"},
	}
	for _, d := range datasets {
		if d.dset == nil {
			continue
		}
		if err := d.dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s: %w", d.name, err))
		}
	}

	groups := []struct {
		group *hdf5.Group
		name  string
	}{
		{w.RunGroup, "run"},
		{w.RecoGroup, "reco"},
		{w.PmtGroup, "PMT"},
		{w.CalibGroup, "calib"},
	}
	for _, g := range groups {
		if g.group == nil {
			continue
		}
		if err := g.group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s group: %w", g.name, err))
		}
	}

	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
