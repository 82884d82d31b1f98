// Package raster decodes source images, renders the transformed viewport
// onto an offscreen canvas and resamples cells out of it.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	// extra input formats
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/PhantomInTheWire/grid-slicer/pkg/geometry"
	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
)

var (
	ErrDecode             = errors.New("cannot decode image")
	ErrPixelLimitExceeded = errors.New("raster exceeds max pixels limit")
	ErrEmptyRaster        = errors.New("raster has no pixels")
)

// Asset is a decoded source image. It is not modified after Decode.
type Asset struct {
	Image    image.Image
	Width    int
	Height   int
	Filename string
}

// Natural returns the natural pixel size of the asset.
func (a *Asset) Natural() geometry.Size {
	return geometry.Size{Width: a.Width, Height: a.Height}
}

// Decode reads an image from r. EXIF orientation is applied so the natural
// size matches what a viewer displays.
func Decode(r io.Reader, filename string) (*Asset, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrDecode, filename, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w %q: empty bounds", ErrDecode, filename)
	}
	return &Asset{Image: img, Width: b.Dx(), Height: b.Dy(), Filename: filename}, nil
}

// Open decodes the image file at path.
func Open(path string) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrDecode, path, err)
	}
	defer f.Close()
	return Decode(f, filepath.Base(path))
}

// Canvas describes the offscreen raster the viewport is rendered to.
type Canvas struct {
	Width  int
	Height int
	// Opaque fills the canvas with black before drawing, for formats
	// without an alpha channel.
	Opaque bool
	// MaxPixels rejects canvases larger than this; zero disables the check.
	MaxPixels int
}

// NewCanvas allocates a cleared canvas.
func NewCanvas(c Canvas) (*image.NRGBA, error) {
	if c.Width <= 0 || c.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyRaster, c.Width, c.Height)
	}
	if c.MaxPixels > 0 && c.Width*c.Height > c.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrPixelLimitExceeded, c.Width, c.Height, c.MaxPixels)
	}
	bg := color.NRGBA{}
	if c.Opaque {
		bg = color.NRGBA{A: 0xff}
	}
	return imaging.New(c.Width, c.Height, bg), nil
}

// Compose draws src scaled into rect on dst, using a Catmull-Rom filter.
// rect may lie partly or fully outside dst; only the overlap is touched.
func Compose(dst draw.Image, src image.Image, rect geometry.Rect) {
	sb := src.Bounds()
	if sb.Empty() || rect.Width <= 0 || rect.Height <= 0 {
		return
	}
	sx := rect.Width / float64(sb.Dx())
	sy := rect.Height / float64(sb.Dy())
	s2d := f64.Aff3{
		sx, 0, rect.X - float64(sb.Min.X)*sx,
		0, sy, rect.Y - float64(sb.Min.Y)*sy,
	}
	draw.CatmullRom.Transform(dst, s2d, src, sb, draw.Over, nil)
}

// Resample fills dst with the region (x, y, w, h) of src, stretched to
// dst's bounds. Degenerate regions are sampled as one source pixel.
func Resample(dst draw.Image, src image.Image, x, y, w, h float64) {
	db := dst.Bounds()
	w = max(w, 1)
	h = max(h, 1)
	sx := float64(db.Dx()) / w
	sy := float64(db.Dy()) / h
	s2d := f64.Aff3{
		sx, 0, float64(db.Min.X) - x*sx,
		0, sy, float64(db.Min.Y) - y*sy,
	}
	draw.Draw(dst, db, image.Transparent, image.Point{}, draw.Src)
	draw.CatmullRom.Transform(dst, s2d, src, src.Bounds(), draw.Src, nil)
}

// CellBuffer hands out a reusable raster for successive cells. It
// reallocates only when the requested size changes.
type CellBuffer struct {
	img *image.NRGBA
}

// Get returns a w×h raster. The contents are overwritten by Resample.
func (b *CellBuffer) Get(w, h int) *image.NRGBA {
	if b.img == nil || b.img.Rect.Dx() != w || b.img.Rect.Dy() != h {
		b.img = image.NewNRGBA(image.Rect(0, 0, w, h))
	}
	return b.img
}

// Master renders the asset as the grid settings place it: a canvas of
// viewport*res pixels with the image drawn at geometry.TransformRect.
// Formats without alpha get an opaque canvas.
func Master(a *Asset, s grid.Settings, res float64, maxPixels int) (*image.NRGBA, error) {
	viewport := geometry.Viewport(a.Width, a.Height, s.Crop)
	w, h := geometry.CanvasSize(viewport, res)
	canvas, err := NewCanvas(Canvas{
		Width:     w,
		Height:    h,
		Opaque:    !s.Format.HasAlpha(),
		MaxPixels: maxPixels,
	})
	if err != nil {
		return nil, err
	}
	Compose(canvas, a.Image, geometry.TransformRect(a.Natural(), viewport, s.Transform(), res))
	return canvas, nil
}
