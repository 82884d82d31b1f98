package export

import (
	"errors"
	"fmt"

	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
)

var (
	// ErrDecode: the source image could not be read.
	ErrDecode = errors.New("decode failed")
	// ErrRaster: no canvas could be allocated for the master or a cell.
	ErrRaster = errors.New("raster unavailable")
	// ErrEncode: a cell failed to encode. Only returned in strict mode.
	ErrEncode = errors.New("encode failed")
	// ErrArchive: the archive could not be built.
	ErrArchive = errors.New("archive failed")
	// ErrSave: the sink rejected the archive.
	ErrSave = errors.New("save failed")
	// ErrInvalidSettings aliases grid.ErrInvalidSettings.
	ErrInvalidSettings = grid.ErrInvalidSettings
)

// StageError records the pipeline stage a job failed in.
type StageError struct {
	Stage State
	// Index is the cell being processed, or -1.
	Index int
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("export %s (cell %d): %v: %v", e.Stage, e.Index, e.Kind, e.Err)
	}
	return fmt.Sprintf("export %s: %v: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func stageErr(stage State, index int, kind, err error) *StageError {
	return &StageError{Stage: stage, Index: index, Kind: kind, Err: err}
}
