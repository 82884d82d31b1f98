// Package grid holds the user-facing grid settings and cell selection.
package grid

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PhantomInTheWire/grid-slicer/pkg/geometry"
)

// Format is the output encoding of exported tiles.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPG  Format = "jpg"
	FormatWEBP Format = "webp"
)

// SquareFit controls how the image fills a square viewport. Only the
// center-cover behaviour is implemented; FitStretch renders like FitCenter.
type SquareFit string

const (
	FitCenter  SquareFit = "center"
	FitStretch SquareFit = "stretch"
)

// Zoom limits enforced by the session when scales are changed interactively.
const (
	MinScale = 0.5
	MaxScale = 3.0
)

var ErrInvalidSettings = errors.New("invalid grid settings")

// ParseFormat accepts png, jpg, jpeg and webp in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "webp":
		return FormatWEBP, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", ErrInvalidSettings, s)
}

// Ext is the file extension used in tile names, without the dot.
func (f Format) Ext() string {
	if f == FormatJPG {
		return "jpg"
	}
	return string(f)
}

// HasAlpha reports whether the format keeps transparency.
func (f Format) HasAlpha() bool {
	return f == FormatPNG || f == FormatWEBP
}

// Settings is the complete grid and transform configuration for one image.
type Settings struct {
	Rows       int               `yaml:"rows" json:"rows"`
	Cols       int               `yaml:"cols" json:"cols"`
	Crop       geometry.CropMode `yaml:"crop" json:"crop"`
	SquareFit  SquareFit         `yaml:"square_fit" json:"squareFit"`
	ScaleX     float64           `yaml:"scale_x" json:"scaleX"`
	ScaleY     float64           `yaml:"scale_y" json:"scaleY"`
	OffsetX    float64           `yaml:"offset_x" json:"offsetX"`
	OffsetY    float64           `yaml:"offset_y" json:"offsetY"`
	Padding    geometry.Padding  `yaml:"padding" json:"padding"`
	Format     Format            `yaml:"format" json:"format"`
	FilePrefix string            `yaml:"file_prefix" json:"filePrefix"`
}

// DefaultSettings is a 3x3 grid over the original image, exported as PNG.
func DefaultSettings() Settings {
	return Settings{
		Rows:      3,
		Cols:      3,
		Crop:      geometry.CropOriginal,
		SquareFit: FitCenter,
		ScaleX:    1,
		ScaleY:    1,
		Format:    FormatPNG,
	}
}

// Transform extracts the zoom/pan part of the settings.
func (s Settings) Transform() geometry.Transform {
	return geometry.Transform{
		ScaleX:  s.ScaleX,
		ScaleY:  s.ScaleY,
		OffsetX: s.OffsetX,
		OffsetY: s.OffsetY,
	}
}

// Cells is the number of cells in the grid.
func (s Settings) Cells() int {
	return s.Rows * s.Cols
}

// Validate checks the invariants the geometry functions rely on.
func (s Settings) Validate() error {
	if s.Rows < 1 || s.Cols < 1 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidSettings, s.Rows, s.Cols)
	}
	if !positive(s.ScaleX) || !positive(s.ScaleY) {
		return fmt.Errorf("%w: scale %vx%v", ErrInvalidSettings, s.ScaleX, s.ScaleY)
	}
	if !finite(s.OffsetX) || !finite(s.OffsetY) {
		return fmt.Errorf("%w: offset %v,%v", ErrInvalidSettings, s.OffsetX, s.OffsetY)
	}
	switch s.Crop {
	case geometry.CropOriginal, geometry.CropSquare:
	default:
		return fmt.Errorf("%w: crop mode %q", ErrInvalidSettings, s.Crop)
	}
	switch s.SquareFit {
	case FitCenter, FitStretch, "":
	default:
		return fmt.Errorf("%w: square fit %q", ErrInvalidSettings, s.SquareFit)
	}
	if _, err := ParseFormat(string(s.Format)); err != nil {
		return err
	}
	p := s.Padding
	for _, v := range []float64{p.Top, p.Right, p.Bottom, p.Left} {
		if !finite(v) || v < 0 {
			return fmt.Errorf("%w: padding %+v", ErrInvalidSettings, p)
		}
	}
	if strings.ContainsAny(s.FilePrefix, `/\`) {
		return fmt.Errorf("%w: file prefix %q contains a path separator", ErrInvalidSettings, s.FilePrefix)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

// ClampPadding shrinks padding so every cell of the viewport keeps at
// least one logical pixel on each axis.
func (s Settings) ClampPadding(viewport geometry.Size) Settings {
	sliceWidth, sliceHeight := geometry.SliceSize(viewport, s.Cols, s.Rows)
	s.Padding.Left, s.Padding.Right = clampPair(s.Padding.Left, s.Padding.Right, sliceWidth-1)
	s.Padding.Top, s.Padding.Bottom = clampPair(s.Padding.Top, s.Padding.Bottom, sliceHeight-1)
	return s
}

func clampPair(a, b, limit float64) (float64, float64) {
	limit = max(0, limit)
	a = min(max(0, a), limit)
	b = min(max(0, b), limit-a)
	return a, b
}

// LoadSettings reads a YAML settings file. Fields missing from the file
// keep their DefaultSettings values.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading settings %s: %w", path, err)
	}
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if f, err := ParseFormat(string(s.Format)); err == nil {
		s.Format = f
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// SaveSettings writes s as YAML.
func SaveSettings(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
