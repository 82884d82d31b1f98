// Package preview renders what the grid overlay shows: the transformed
// image, cell boundaries, padding and selection. It uses the same master
// composition as the exporter, only at display scale.
package preview

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/PhantomInTheWire/grid-slicer/pkg/geometry"
	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
	"github.com/PhantomInTheWire/grid-slicer/pkg/raster"
)

var (
	lineColor     = color.NRGBA{R: 255, G: 255, B: 255, A: 200}
	paddingShade  = color.NRGBA{A: 110}
	unselectShade = color.NRGBA{A: 150}
)

// Scale returns the display scale fitting the viewport's longer side into
// maxSide pixels. Previews never upscale; maxSide <= 0 means natural size.
func Scale(viewport geometry.Size, maxSide int) float64 {
	longest := max(viewport.Width, viewport.Height)
	if maxSide <= 0 || longest <= maxSide {
		return 1
	}
	return float64(maxSide) / float64(longest)
}

// Render draws the preview of a at most maxSide pixels on its longer side.
func Render(a *raster.Asset, s grid.Settings, sel grid.Selection, maxSide int) (*image.NRGBA, float64, error) {
	viewport := geometry.Viewport(a.Width, a.Height, s.Crop)
	res := Scale(viewport, maxSide)
	img, err := raster.Master(a, s, res, 0)
	if err != nil {
		return nil, 0, err
	}

	for i := 0; i < s.Cells(); i++ {
		outer := outerRect(i, s, viewport, res)
		if !sel.Empty() && !sel.Contains(i) {
			shade(img, outer, unselectShade)
		}
		c := geometry.CellRect(i, s.Cols, s.Rows, viewport, s.Padding, res)
		shadeOutside(img, outer, c.Bounds(), paddingShade)
	}
	drawLines(img, s, viewport, res)
	return img, res, nil
}

func outerRect(index int, s grid.Settings, viewport geometry.Size, res float64) image.Rectangle {
	return geometry.CellRect(index, s.Cols, s.Rows, viewport, geometry.Padding{}, res).Bounds()
}

func shade(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

// shadeOutside shades the frame between outer and inner.
func shadeOutside(img draw.Image, outer, inner image.Rectangle, c color.Color) {
	inner = inner.Intersect(outer)
	if inner.Empty() {
		shade(img, outer, c)
		return
	}
	shade(img, image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), c)
	shade(img, image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), c)
	shade(img, image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y), c)
	shade(img, image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y), c)
}

func drawLines(img *image.NRGBA, s grid.Settings, viewport geometry.Size, res float64) {
	b := img.Bounds()
	sliceWidth, sliceHeight := geometry.SliceSize(viewport, s.Cols, s.Rows)
	src := image.NewUniform(lineColor)
	for col := 1; col < s.Cols; col++ {
		x := int(math.Round(float64(col) * sliceWidth * res))
		draw.Draw(img, image.Rect(x, b.Min.Y, x+1, b.Max.Y).Intersect(b), src, image.Point{}, draw.Over)
	}
	for row := 1; row < s.Rows; row++ {
		y := int(math.Round(float64(row) * sliceHeight * res))
		draw.Draw(img, image.Rect(b.Min.X, y, b.Max.X, y+1).Intersect(b), src, image.Point{}, draw.Over)
	}
}
