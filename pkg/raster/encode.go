package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
)

// Quality used for the lossy formats. PNG ignores it.
const Quality = 98

var ErrEncode = errors.New("cannot encode raster")

// Encoder turns a raster into file bytes for a format.
type Encoder interface {
	Encode(img image.Image, format grid.Format) ([]byte, error)
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(img image.Image, format grid.Format) ([]byte, error)

func (f EncoderFunc) Encode(img image.Image, format grid.Format) ([]byte, error) {
	return f(img, format)
}

// DefaultEncoder encodes png losslessly and jpg/webp at Quality.
var DefaultEncoder Encoder = EncoderFunc(Encode)

// Encode writes img in the given format.
func Encode(img image.Image, format grid.Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case grid.FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case grid.FormatJPG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(Quality))
	case grid.FormatWEBP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: Quality})
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrEncode, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w as %s: %v", ErrEncode, format, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w as %s: empty output", ErrEncode, format)
	}
	return buf.Bytes(), nil
}
