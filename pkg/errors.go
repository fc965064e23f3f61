package bbcreco

import (
	"errors"
	"fmt"
)

// ErrCalibrationMissing is returned when no calibration source is available.
var ErrCalibrationMissing = errors.New("calibration not available")

// ErrEmptyFitRange is returned by the arm time fit when no hit lies in the fit window.
var ErrEmptyFitRange = errors.New("no entries in fit range")

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrCalibRecord represents a malformed or out of sequence calibration record.
type ErrCalibRecord struct {
	File     string
	Line     int
	Expected int
	Got      int
	Err      error
}

func (e *ErrCalibRecord) Error() string {
	if e.Err != nil && e.Expected < 0 {
		return fmt.Sprintf("calibration %q line %d: %v", e.File, e.Line, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("calibration %q line %d (pmt %d): %v", e.File, e.Line, e.Expected, e.Err)
	}
	return fmt.Sprintf("calibration %q line %d: expected pmt %d, got %d", e.File, e.Line, e.Expected, e.Got)
}

func (e *ErrCalibRecord) Unwrap() error {
	return e.Err
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}
