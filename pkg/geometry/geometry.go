// Package geometry maps grid settings onto pixel rectangles.
//
// Everything here is a pure function of its inputs. The preview and the
// exporter both call TransformRect and CellRect, so a tile written to disk
// covers exactly the region the preview showed for that cell.
package geometry

import (
	"image"
	"math"
)

// CropMode selects how the logical viewport is derived from the image.
type CropMode string

const (
	CropOriginal CropMode = "original"
	CropSquare   CropMode = "square"
)

// Size is a width/height pair in logical pixels.
type Size struct {
	Width  int
	Height int
}

// Rect is a floating point rectangle in raster pixels.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Transform holds the zoom and pan applied to the image inside the viewport.
// Offsets are fractions of the viewport size.
type Transform struct {
	ScaleX  float64
	ScaleY  float64
	OffsetX float64
	OffsetY float64
}

// Padding is trimmed from each cell edge, in logical viewport pixels.
type Padding struct {
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
}

// Cell is the source rectangle of one grid cell inside the master raster
// and the size of the raster it is resampled into.
type Cell struct {
	Index     int
	Row       int
	Col       int
	SrcX      float64
	SrcY      float64
	SrcWidth  float64
	SrcHeight float64
	OutWidth  int
	OutHeight int
}

// Bounds rounds the source rectangle to whole raster pixels. Collapsed
// cells yield an empty rectangle.
func (c Cell) Bounds() image.Rectangle {
	x0, y0 := math.Round(c.SrcX), math.Round(c.SrcY)
	x1 := math.Round(c.SrcX + max(c.SrcWidth, 0))
	y1 := math.Round(c.SrcY + max(c.SrcHeight, 0))
	return image.Rect(int(x0), int(y0), int(x1), int(y1))
}

// Viewport returns the logical viewport for an image of the given natural size.
func Viewport(naturalWidth, naturalHeight int, mode CropMode) Size {
	if mode == CropSquare {
		m := min(naturalWidth, naturalHeight)
		return Size{Width: m, Height: m}
	}
	return Size{Width: naturalWidth, Height: naturalHeight}
}

// canvasEpsilon absorbs float error so 900 * (300/900) is 300, not 299.
const canvasEpsilon = 1e-6

// CanvasSize is the raster size for a viewport rendered at res.
// Fractional sizes are truncated; neither side goes below 1.
func CanvasSize(viewport Size, res float64) (int, int) {
	w := int(math.Floor(float64(viewport.Width)*res + canvasEpsilon))
	h := int(math.Floor(float64(viewport.Height)*res + canvasEpsilon))
	return max(1, w), max(1, h)
}

// TransformRect returns where the untransformed image is drawn inside a
// raster of viewport*res pixels: centered, scaled by t.Scale*, then shifted
// by t.Offset* fractions of the raster size.
func TransformRect(natural, viewport Size, t Transform, res float64) Rect {
	canvasWidth := float64(viewport.Width) * res
	canvasHeight := float64(viewport.Height) * res

	drawWidth := float64(natural.Width) * t.ScaleX * res
	drawHeight := float64(natural.Height) * t.ScaleY * res

	baseX := (canvasWidth - drawWidth) / 2
	baseY := (canvasHeight - drawHeight) / 2

	return Rect{
		X:      baseX + t.OffsetX*canvasWidth,
		Y:      baseY + t.OffsetY*canvasHeight,
		Width:  drawWidth,
		Height: drawHeight,
	}
}

// CellPosition splits a row-major cell index into row and column.
func CellPosition(index, cols int) (row, col int) {
	return index / cols, index % cols
}

// CellIndex is the inverse of CellPosition.
func CellIndex(row, col, cols int) int {
	return row*cols + col
}

// CellRect computes the padded source rectangle of cell index at res and
// the output raster size. Output sides are floored and never drop below 1,
// even when padding consumes the whole cell.
func CellRect(index, cols, rows int, viewport Size, pad Padding, res float64) Cell {
	row, col := CellPosition(index, cols)

	sliceWidth := float64(viewport.Width) / float64(cols)
	sliceHeight := float64(viewport.Height) / float64(rows)

	srcWidth := (sliceWidth - pad.Left - pad.Right) * res
	srcHeight := (sliceHeight - pad.Top - pad.Bottom) * res

	return Cell{
		Index:     index,
		Row:       row,
		Col:       col,
		SrcX:      (float64(col)*sliceWidth + pad.Left) * res,
		SrcY:      (float64(row)*sliceHeight + pad.Top) * res,
		SrcWidth:  srcWidth,
		SrcHeight: srcHeight,
		OutWidth:  max(1, int(math.Floor(srcWidth))),
		OutHeight: max(1, int(math.Floor(srcHeight))),
	}
}

// SliceSize is the logical size of one cell before padding.
func SliceSize(viewport Size, cols, rows int) (float64, float64) {
	return float64(viewport.Width) / float64(cols), float64(viewport.Height) / float64(rows)
}

// SuggestGrid picks a grid for an image from its aspect ratio: three rows
// for landscape images, three columns for portrait ones, with the other
// axis following the ratio.
func SuggestGrid(width, height int) (rows, cols int) {
	if width <= 0 || height <= 0 {
		return 3, 3
	}
	ratio := float64(width) / float64(height)
	if ratio >= 1 {
		return 3, clampGrid(int(math.Round(3 * ratio)))
	}
	return clampGrid(int(math.Round(3 / ratio))), 3
}

func clampGrid(n int) int {
	return min(10, max(1, n))
}

// CellAt maps a point on a raster of viewport*res pixels to the cell under
// it. ok is false outside the viewport.
func CellAt(x, y float64, viewport Size, cols, rows int, res float64) (index int, ok bool) {
	if res <= 0 || x < 0 || y < 0 {
		return 0, false
	}
	lx, ly := x/res, y/res
	if lx >= float64(viewport.Width) || ly >= float64(viewport.Height) {
		return 0, false
	}
	sliceWidth, sliceHeight := SliceSize(viewport, cols, rows)
	col := min(cols-1, int(lx/sliceWidth))
	row := min(rows-1, int(ly/sliceHeight))
	return CellIndex(row, col, cols), true
}
