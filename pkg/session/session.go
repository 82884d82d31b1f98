// Package session holds everything a UI shell tracks for one image: the
// decoded asset, grid settings, selected cells and export status.
//
// State is a plain value. Every transition is a function taking a State and
// returning the next one; nothing is shared or mutated in place.
package session

import (
	"errors"
	"fmt"

	"github.com/PhantomInTheWire/grid-slicer/pkg/export"
	"github.com/PhantomInTheWire/grid-slicer/pkg/geometry"
	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
	"github.com/PhantomInTheWire/grid-slicer/pkg/raster"
)

var (
	ErrNoImage = errors.New("no image loaded")
	ErrBusy    = errors.New("export already in progress")
)

// State is the session snapshot.
type State struct {
	Image     *raster.Asset
	Settings  grid.Settings
	Selection grid.Selection

	Processing bool
	Progress   int
	LastError  error
}

// New returns an empty session with default settings.
func New() State {
	return State{Settings: grid.DefaultSettings()}
}

// Viewport is the logical viewport of the loaded image.
func (s State) Viewport() (geometry.Size, bool) {
	if s.Image == nil {
		return geometry.Size{}, false
	}
	return geometry.Viewport(s.Image.Width, s.Image.Height, s.Settings.Crop), true
}

// LoadImage replaces the image. Zoom, pan and selection reset, and the grid
// is re-suggested from the image's aspect ratio.
func LoadImage(s State, a *raster.Asset) State {
	s.Image = a
	s.Selection = grid.Selection{}
	s.LastError = nil
	s.Settings.ScaleX, s.Settings.ScaleY = 1, 1
	s.Settings.OffsetX, s.Settings.OffsetY = 0, 0
	if a != nil {
		s.Settings.Rows, s.Settings.Cols = geometry.SuggestGrid(a.Width, a.Height)
	}
	return normalize(s)
}

// Patch carries the settings fields to change; nil fields are left alone.
type Patch struct {
	Rows       *int
	Cols       *int
	Crop       *geometry.CropMode
	SquareFit  *grid.SquareFit
	ScaleX     *float64
	ScaleY     *float64
	OffsetX    *float64
	OffsetY    *float64
	Padding    *geometry.Padding
	Format     *grid.Format
	FilePrefix *string
}

// ApplySettingsPatch merges p into the settings. Scales and padding are
// clamped to their allowed ranges. Grids below 1x1, non-finite numbers and
// unknown crop modes, fits or formats are rejected and leave s unchanged.
func ApplySettingsPatch(s State, p Patch) (State, error) {
	next := s.Settings
	if p.Rows != nil {
		next.Rows = *p.Rows
	}
	if p.Cols != nil {
		next.Cols = *p.Cols
	}
	if next.Rows < 1 || next.Cols < 1 {
		return s, fmt.Errorf("%w: grid %dx%d", grid.ErrInvalidSettings, next.Rows, next.Cols)
	}
	if p.Crop != nil {
		switch *p.Crop {
		case geometry.CropOriginal, geometry.CropSquare:
			next.Crop = *p.Crop
		default:
			return s, fmt.Errorf("%w: crop mode %q", grid.ErrInvalidSettings, *p.Crop)
		}
	}
	if p.SquareFit != nil {
		switch *p.SquareFit {
		case grid.FitCenter, grid.FitStretch:
			next.SquareFit = *p.SquareFit
		case "":
			next.SquareFit = grid.FitCenter
		default:
			return s, fmt.Errorf("%w: square fit %q", grid.ErrInvalidSettings, *p.SquareFit)
		}
	}
	if p.ScaleX != nil {
		next.ScaleX = clampScale(*p.ScaleX)
	}
	if p.ScaleY != nil {
		next.ScaleY = clampScale(*p.ScaleY)
	}
	if p.OffsetX != nil {
		next.OffsetX = *p.OffsetX
	}
	if p.OffsetY != nil {
		next.OffsetY = *p.OffsetY
	}
	if p.Padding != nil {
		next.Padding = *p.Padding
	}
	if p.Format != nil {
		f, err := grid.ParseFormat(string(*p.Format))
		if err != nil {
			return s, err
		}
		next.Format = f
	}
	if p.FilePrefix != nil {
		next.FilePrefix = *p.FilePrefix
	}
	out := s
	out.Settings = next
	out = normalize(out)
	if err := out.Settings.Validate(); err != nil {
		return s, err
	}
	return out, nil
}

// normalize prunes the selection to the grid and clamps padding to the
// viewport.
func normalize(s State) State {
	s.Selection = s.Selection.Prune(s.Settings.Cells())
	p := &s.Settings.Padding
	p.Top, p.Right, p.Bottom, p.Left = max(0, p.Top), max(0, p.Right), max(0, p.Bottom), max(0, p.Left)
	if vp, ok := s.Viewport(); ok {
		s.Settings = s.Settings.ClampPadding(vp)
	}
	return s
}

func clampScale(v float64) float64 {
	return min(grid.MaxScale, max(grid.MinScale, v))
}

// SetSelection replaces the selection, dropping indices outside the grid.
func SetSelection(s State, sel grid.Selection) State {
	s.Selection = sel.Prune(s.Settings.Cells())
	return s
}

// ToggleCell flips one cell in or out of the selection.
func ToggleCell(s State, index int) State {
	if index < 0 || index >= s.Settings.Cells() {
		return s
	}
	s.Selection = s.Selection.Toggle(index)
	return s
}

// SelectAll selects every cell explicitly.
func SelectAll(s State) State {
	all := make([]int, s.Settings.Cells())
	for i := range all {
		all[i] = i
	}
	s.Selection = grid.NewSelection(all...)
	return s
}

// ClearSelection empties the selection, which exports every cell.
func ClearSelection(s State) State {
	s.Selection = grid.Selection{}
	return s
}

// BeginExport marks the session busy. It fails if no image is loaded or an
// export is already running.
func BeginExport(s State) (State, error) {
	if s.Image == nil {
		return s, ErrNoImage
	}
	if s.Processing {
		return s, ErrBusy
	}
	s.Processing = true
	s.Progress = 0
	s.LastError = nil
	return s, nil
}

// ReportProgress records export progress; it never moves backwards.
func ReportProgress(s State, percent int) State {
	s.Progress = max(s.Progress, min(100, percent))
	return s
}

// FinishExport clears the busy flag and records the outcome.
func FinishExport(s State, err error) State {
	s.Processing = false
	s.Progress = 0
	s.LastError = err
	return s
}

// Request builds the export request for the current state.
func (s State) Request() export.Request {
	return export.Request{
		Asset:     s.Image,
		Settings:  s.Settings,
		Selection: s.Selection,
	}
}

// PatchFrom builds a patch that sets every field to the values in g.
func PatchFrom(g grid.Settings) Patch {
	return Patch{
		Rows:       &g.Rows,
		Cols:       &g.Cols,
		Crop:       &g.Crop,
		SquareFit:  &g.SquareFit,
		ScaleX:     &g.ScaleX,
		ScaleY:     &g.ScaleY,
		OffsetX:    &g.OffsetX,
		OffsetY:    &g.OffsetY,
		Padding:    &g.Padding,
		Format:     &g.Format,
		FilePrefix: &g.FilePrefix,
	}
}
