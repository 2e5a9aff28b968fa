package types

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input file could not be parsed as a spreadsheet.
var ErrInvalidFormat = errors.New("invalid spreadsheet format")

// ErrWrite indicates an output directory or file could not be written.
var ErrWrite = errors.New("write failed")

// Stages reported by SheetError.
const (
	StageLoad   = "load"
	StageWrite  = "write"
	StageCharts = "charts"
)

// SheetError represents a failure while processing a single sheet.
type SheetError struct {
	Sheet string
	Stage string
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q (%s): %v", e.Sheet, e.Stage, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

// NewSheetError creates a new SheetError.
func NewSheetError(sheet, stage string, err error) *SheetError {
	return &SheetError{
		Sheet: sheet,
		Stage: stage,
		Err:   err,
	}
}
