package bbcreco

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	GainFile       = "bbc_mip.calib"
	TimeOffsetFile = "bbc_tq_t0.calib"
	ZOffsetFile    = "BbcMonData.dat"
	CalibDirEnv    = "BBCCALIB"
)

// GainRecord is one line of the MIP peak fit used for the gain calibration.
type GainRecord struct {
	Pmt         int     `db:"Pmt"`
	Integral    float64 `db:"Integral"`
	Peak        float64 `db:"Peak"`
	Width       float64 `db:"Width"`
	IntegralErr float64 `db:"IntegralErr"`
	PeakErr     float64 `db:"PeakErr"`
	WidthErr    float64 `db:"WidthErr"`
	Chi2NDF     float64 `db:"Chi2NDF"`
}

// TimeOffsetRecord is one line of the charge channel time offset calibration.
type TimeOffsetRecord struct {
	Pmt      int     `db:"Pmt"`
	Mean     float64 `db:"Mean"`
	MeanErr  float64 `db:"MeanErr"`
	Sigma    float64 `db:"Sigma"`
	SigmaErr float64 `db:"SigmaErr"`
}

// CalibrationStore holds the per PMT gains and time offsets and the z offset.
// It is filled once at start up and only read afterwards.
type CalibrationStore struct {
	gains       [NumPmts]float64
	timeOffsets [NumPmts]float64
	zOffset     float64
}

// NewCalibrationStore validates the records, which must cover every PMT in order.
func NewCalibrationStore(gains []GainRecord, offsets []TimeOffsetRecord, zOffset float64) (*CalibrationStore, error) {
	if len(gains) != NumPmts {
		return nil, fmt.Errorf("%w: %d gain records, expected %d", ErrCalibrationMissing, len(gains), NumPmts)
	}
	if len(offsets) != NumPmts {
		return nil, fmt.Errorf("%w: %d time offset records, expected %d", ErrCalibrationMissing, len(offsets), NumPmts)
	}
	if !isFinite(zOffset) {
		return nil, fmt.Errorf("invalid z offset %v", zOffset)
	}

	store := &CalibrationStore{zOffset: zOffset}
	for i, rec := range gains {
		if rec.Pmt != i {
			return nil, &ErrCalibRecord{File: GainFile, Line: i + 1, Expected: i, Got: rec.Pmt}
		}
		if rec.Peak == 0 || !isFinite(rec.Peak) {
			return nil, &ErrCalibRecord{File: GainFile, Line: i + 1, Expected: i, Got: rec.Pmt,
				Err: fmt.Errorf("invalid peak %v", rec.Peak)}
		}
		store.gains[i] = 1.0 / rec.Peak
	}
	for i, rec := range offsets {
		if rec.Pmt != i {
			return nil, &ErrCalibRecord{File: TimeOffsetFile, Line: i + 1, Expected: i, Got: rec.Pmt}
		}
		store.timeOffsets[i] = rec.Mean
	}
	return store, nil
}

func (s *CalibrationStore) Gain(pmt int) float64 {
	if !ValidPmt(pmt) {
		return 0
	}
	return s.gains[pmt]
}

func (s *CalibrationStore) TimeOffset(pmt int) float64 {
	if !ValidPmt(pmt) {
		return 0
	}
	return s.timeOffsets[pmt]
}

func (s *CalibrationStore) GeometricCorrection() float64 {
	return s.zOffset
}

// LoadCalibrationFromDir reads the three calibration files from dir.
func LoadCalibrationFromDir(dir string) (*CalibrationStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrCalibrationMissing, CalibDirEnv)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &ErrOpenFile{Filename: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrCalibrationMissing, dir)
	}

	gainFile := filepath.Join(dir, GainFile)
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading gains from %s", gainFile), "calibration")
	}
	gains, err := readRecords(gainFile, 8, func(f []float64) GainRecord {
		return GainRecord{Pmt: int(f[0]), Integral: f[1], Peak: f[2], Width: f[3],
			IntegralErr: f[4], PeakErr: f[5], WidthErr: f[6], Chi2NDF: f[7]}
	})
	if err != nil {
		return nil, err
	}

	offsetFile := filepath.Join(dir, TimeOffsetFile)
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading tq_t0 offsets from %s", offsetFile), "calibration")
	}
	offsets, err := readRecords(offsetFile, 5, func(f []float64) TimeOffsetRecord {
		return TimeOffsetRecord{Pmt: int(f[0]), Mean: f[1], MeanErr: f[2], Sigma: f[3], SigmaErr: f[4]}
	})
	if err != nil {
		return nil, err
	}

	zOffset, err := readZOffset(filepath.Join(dir, ZOffsetFile))
	if err != nil {
		return nil, err
	}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("z offset %g", zOffset), "calibration")
	}
	return NewCalibrationStore(gains, offsets, zOffset)
}

func readRecords[T any](filename string, nFields int, build func([]float64) T) ([]T, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer file.Close()
	return parseRecords(file, filepath.Base(filename), nFields, build)
}

func parseRecords[T any](r io.Reader, name string, nFields int, build func([]float64) T) ([]T, error) {
	records := make([]T, 0, NumPmts)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if len(records) == NumPmts {
			break
		}
		fields := strings.Fields(text)
		if len(fields) < nFields {
			return nil, &ErrCalibRecord{File: name, Line: line, Expected: len(records),
				Err: fmt.Errorf("%d fields, expected %d", len(fields), nFields)}
		}
		values := make([]float64, nFields)
		for i := range values {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, &ErrCalibRecord{File: name, Line: line, Expected: len(records), Err: err}
			}
			values[i] = v
		}
		if values[0] != math.Trunc(values[0]) {
			return nil, &ErrCalibRecord{File: name, Line: line, Expected: len(records),
				Err: fmt.Errorf("pmt id %v is not an integer", values[0])}
		}
		records = append(records, build(values))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", name, err)
	}
	return records, nil
}

// readZOffset reads the "label value" pair of the monitor data file.
func readZOffset(filename string) (float64, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return 0, &ErrOpenFile{Filename: filename, Err: err}
	}
	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		return 0, &ErrCalibRecord{File: filepath.Base(filename), Line: 1, Expected: -1,
			Err: errors.New("expected a label and a value")}
	}
	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, &ErrCalibRecord{File: filepath.Base(filename), Line: 1, Expected: -1, Err: err}
	}
	return value, nil
}
