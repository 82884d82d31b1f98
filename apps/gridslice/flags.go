package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/PhantomInTheWire/grid-slicer/pkg/geometry"
	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
	"github.com/PhantomInTheWire/grid-slicer/pkg/raster"
	"github.com/PhantomInTheWire/grid-slicer/pkg/session"
)

// gridFlags are the settings shared by export and preview.
type gridFlags struct {
	settingsFile string
	rows, cols   int
	crop         string
	scaleX       float64
	scaleY       float64
	offsetX      float64
	offsetY      float64
	padding      []float64
	format       string
	prefix       string
	selection    string
}

func (g *gridFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.settingsFile, "settings", "", "YAML settings file")
	fs.IntVarP(&g.rows, "rows", "r", 0, "Grid rows (default: suggested from the aspect ratio)")
	fs.IntVarP(&g.cols, "cols", "c", 0, "Grid columns (default: suggested from the aspect ratio)")
	fs.StringVar(&g.crop, "crop", string(geometry.CropOriginal), "Crop mode: original or square")
	fs.Float64Var(&g.scaleX, "scale-x", 1, "Horizontal zoom (0.5-3.0)")
	fs.Float64Var(&g.scaleY, "scale-y", 1, "Vertical zoom (0.5-3.0)")
	fs.Float64Var(&g.offsetX, "offset-x", 0, "Horizontal pan as a fraction of the viewport width")
	fs.Float64Var(&g.offsetY, "offset-y", 0, "Vertical pan as a fraction of the viewport height")
	fs.Float64SliceVar(&g.padding, "padding", nil, "Cell padding: one value, or top,right,bottom,left")
	fs.StringVarP(&g.format, "format", "f", string(grid.FormatPNG), "Output format: png, jpg or webp")
	fs.StringVar(&g.prefix, "prefix", "", "File name prefix (default: image name)")
	fs.StringVarP(&g.selection, "select", "s", "", "Cells to export, e.g. 0,3 or 0-4 (default: all)")
}

// state loads the image into a session and applies the settings file
// followed by every flag the user set explicitly.
func (g *gridFlags) state(fs *pflag.FlagSet, a *raster.Asset) (session.State, error) {
	s := session.LoadImage(session.New(), a)

	if g.settingsFile != "" {
		file, err := grid.LoadSettings(g.settingsFile)
		if err != nil {
			return s, err
		}
		if s, err = session.ApplySettingsPatch(s, session.PatchFrom(file)); err != nil {
			return s, err
		}
	}

	p, err := g.patch(fs)
	if err != nil {
		return s, err
	}
	if s, err = session.ApplySettingsPatch(s, p); err != nil {
		return s, err
	}

	if g.selection != "" {
		sel, err := grid.ParseSelection(g.selection, s.Settings.Cells())
		if err != nil {
			return s, err
		}
		s = session.SetSelection(s, sel)
	}
	return s, nil
}

func (g *gridFlags) patch(fs *pflag.FlagSet) (session.Patch, error) {
	var p session.Patch
	if fs.Changed("rows") {
		p.Rows = &g.rows
	}
	if fs.Changed("cols") {
		p.Cols = &g.cols
	}
	if fs.Changed("crop") {
		crop := geometry.CropMode(g.crop)
		p.Crop = &crop
	}
	if fs.Changed("scale-x") {
		p.ScaleX = &g.scaleX
	}
	if fs.Changed("scale-y") {
		p.ScaleY = &g.scaleY
	}
	if fs.Changed("offset-x") {
		p.OffsetX = &g.offsetX
	}
	if fs.Changed("offset-y") {
		p.OffsetY = &g.offsetY
	}
	if fs.Changed("padding") {
		pad, err := parsePadding(g.padding)
		if err != nil {
			return p, err
		}
		p.Padding = &pad
	}
	if fs.Changed("format") {
		f := grid.Format(g.format)
		p.Format = &f
	}
	if fs.Changed("prefix") {
		p.FilePrefix = &g.prefix
	}
	return p, nil
}

// parsePadding follows the CSS shorthand for one, two or four values.
func parsePadding(v []float64) (geometry.Padding, error) {
	switch len(v) {
	case 1:
		return geometry.Padding{Top: v[0], Right: v[0], Bottom: v[0], Left: v[0]}, nil
	case 2:
		return geometry.Padding{Top: v[0], Right: v[1], Bottom: v[0], Left: v[1]}, nil
	case 4:
		return geometry.Padding{Top: v[0], Right: v[1], Bottom: v[2], Left: v[3]}, nil
	}
	return geometry.Padding{}, fmt.Errorf("%w: padding takes 1, 2 or 4 values, got %d", grid.ErrInvalidSettings, len(v))
}
