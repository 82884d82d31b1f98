package session

import (
	"errors"
	"image"
	"math"
	"slices"
	"testing"

	"github.com/PhantomInTheWire/grid-slicer/pkg/geometry"
	"github.com/PhantomInTheWire/grid-slicer/pkg/grid"
	"github.com/PhantomInTheWire/grid-slicer/pkg/raster"
)

func asset(w, h int) *raster.Asset {
	return &raster.Asset{
		Image:    image.NewNRGBA(image.Rect(0, 0, w, h)),
		Width:    w,
		Height:   h,
		Filename: "img.png",
	}
}

func ptr[T any](v T) *T { return &v }

func TestLoadImageResets(t *testing.T) {
	s := New()
	s.Settings.ScaleX, s.Settings.OffsetY = 2, 0.3
	s = SetSelection(s, grid.NewSelection(1, 2))

	s = LoadImage(s, asset(1200, 900))
	if s.Settings.ScaleX != 1 || s.Settings.OffsetY != 0 || !s.Selection.Empty() {
		t.Errorf("not reset: %+v sel=%v", s.Settings, s.Selection)
	}
	if s.Settings.Rows != 3 || s.Settings.Cols != 4 {
		t.Errorf("suggested grid = %dx%d", s.Settings.Rows, s.Settings.Cols)
	}
	vp, ok := s.Viewport()
	if !ok || vp != (geometry.Size{Width: 1200, Height: 900}) {
		t.Errorf("viewport = %v %v", vp, ok)
	}
}

func TestApplySettingsPatchIsPure(t *testing.T) {
	before := LoadImage(New(), asset(100, 100))
	after, err := ApplySettingsPatch(before, Patch{Rows: ptr(5), ScaleX: ptr(9.0), Format: ptr(grid.Format("JPEG"))})
	if err != nil {
		t.Fatal(err)
	}
	if before.Settings.Rows != 3 || before.Settings.Format != grid.FormatPNG {
		t.Errorf("input state mutated: %+v", before.Settings)
	}
	if after.Settings.Rows != 5 || after.Settings.ScaleX != grid.MaxScale || after.Settings.Format != grid.FormatJPG {
		t.Errorf("patched = %+v", after.Settings)
	}
}

func TestApplySettingsPatchRejectsUnknown(t *testing.T) {
	s := New()
	_, err := ApplySettingsPatch(s, Patch{Crop: ptr(geometry.CropMode("circle"))})
	if !errors.Is(err, grid.ErrInvalidSettings) {
		t.Errorf("crop err = %v", err)
	}
	got, err := ApplySettingsPatch(s, Patch{Format: ptr(grid.Format("gif")), Rows: ptr(7)})
	if err == nil || got.Settings.Rows != s.Settings.Rows {
		t.Errorf("bad format applied partially: rows=%d err=%v", got.Settings.Rows, err)
	}
}

func TestApplySettingsPatchRejectsInvalidNumbers(t *testing.T) {
	s := LoadImage(New(), asset(100, 100))
	for i, p := range []Patch{
		{Rows: ptr(0)},
		{Cols: ptr(-2)},
		{ScaleX: ptr(math.NaN())},
		{OffsetY: ptr(math.Inf(1))},
		{Padding: &geometry.Padding{Left: math.NaN()}},
		{FilePrefix: ptr("out/x")},
	} {
		got, err := ApplySettingsPatch(s, p)
		if !errors.Is(err, grid.ErrInvalidSettings) {
			t.Errorf("case %d: err = %v", i, err)
		}
		if got.Settings != s.Settings {
			t.Errorf("case %d: settings changed to %+v", i, got.Settings)
		}
	}
}

func TestShrinkingGridPrunesSelection(t *testing.T) {
	s := LoadImage(New(), asset(90, 90))
	s = SetSelection(s, grid.NewSelection(0, 4, 8))
	s, err := ApplySettingsPatch(s, Patch{Rows: ptr(2), Cols: ptr(2)})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(s.Selection.Indices(), []int{0}) {
		t.Errorf("selection = %v", s.Selection.Indices())
	}
}

func TestPaddingClampedToViewport(t *testing.T) {
	s := LoadImage(New(), asset(100, 100))
	s, err := ApplySettingsPatch(s, Patch{
		Rows:    ptr(2),
		Cols:    ptr(2),
		Padding: &geometry.Padding{Left: 80, Right: 10, Top: -5},
	})
	if err != nil {
		t.Fatal(err)
	}
	p := s.Settings.Padding
	if p.Left != 49 || p.Right != 0 || p.Top != 0 {
		t.Errorf("padding = %+v", p)
	}
}

func TestSelectionTransitions(t *testing.T) {
	s := LoadImage(New(), asset(60, 60)) // 3x3
	s = ToggleCell(s, 3)
	s = ToggleCell(s, 0)
	s = ToggleCell(s, 42)
	if !slices.Equal(s.Selection.Indices(), []int{0, 3}) {
		t.Errorf("selection = %v", s.Selection.Indices())
	}
	s = ToggleCell(s, 3)
	if !slices.Equal(s.Selection.Indices(), []int{0}) {
		t.Errorf("after untoggle = %v", s.Selection.Indices())
	}
	if s = SelectAll(s); s.Selection.Len() != 9 {
		t.Errorf("SelectAll len = %d", s.Selection.Len())
	}
	if s = ClearSelection(s); !s.Selection.Empty() {
		t.Error("ClearSelection left cells selected")
	}
}

func TestExportLifecycle(t *testing.T) {
	if _, err := BeginExport(New()); !errors.Is(err, ErrNoImage) {
		t.Errorf("no image err = %v", err)
	}
	s := LoadImage(New(), asset(10, 10))
	s, err := BeginExport(s)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := BeginExport(s); !errors.Is(err, ErrBusy) {
		t.Errorf("second export err = %v", err)
	}
	s = ReportProgress(s, 40)
	s = ReportProgress(s, 20)
	if s.Progress != 40 {
		t.Errorf("progress went backwards: %d", s.Progress)
	}
	boom := errors.New("boom")
	s = FinishExport(s, boom)
	if s.Processing || s.Progress != 0 || s.LastError != boom {
		t.Errorf("after finish: %+v", s)
	}
	req := s.Request()
	if req.Asset != s.Image || req.Settings != s.Settings {
		t.Error("request does not reflect state")
	}
}

func TestPanAndZoom(t *testing.T) {
	s := LoadImage(New(), asset(200, 100))
	s = Pan(s, 50, -25, 400, 200)
	if s.Settings.OffsetX != 0.125 || s.Settings.OffsetY != -0.125 {
		t.Errorf("offset = %v,%v", s.Settings.OffsetX, s.Settings.OffsetY)
	}
	if got := Pan(s, 10, 10, 0, 100); got.Settings != s.Settings {
		t.Error("pan with zero display size changed settings")
	}

	s = Zoom(s, -120)
	if s.Settings.ScaleX != 1.1 || s.Settings.ScaleY != 1.1 {
		t.Errorf("zoom in = %v,%v", s.Settings.ScaleX, s.Settings.ScaleY)
	}
	s = ZoomAxis(s, AxisX, 120)
	if s.Settings.ScaleX != 1 || s.Settings.ScaleY != 1.1 {
		t.Errorf("zoom x out = %v,%v", s.Settings.ScaleX, s.Settings.ScaleY)
	}
	for i := 0; i < 50; i++ {
		s = Zoom(s, 1)
	}
	if s.Settings.ScaleX != grid.MinScale || s.Settings.ScaleY != grid.MinScale {
		t.Errorf("zoom floor = %v,%v", s.Settings.ScaleX, s.Settings.ScaleY)
	}
	s = ResetTransform(s)
	if s.Settings.Transform() != (geometry.Transform{ScaleX: 1, ScaleY: 1}) {
		t.Errorf("reset = %+v", s.Settings.Transform())
	}
}

func TestPatchFromRestoresSettings(t *testing.T) {
	want := grid.DefaultSettings()
	want.Rows, want.Cols = 2, 5
	want.Crop = geometry.CropSquare
	want.ScaleX, want.OffsetX = 1.5, -0.2
	want.Format = grid.FormatWEBP
	want.FilePrefix = "banner"

	s := LoadImage(New(), asset(500, 500))
	s, err := ApplySettingsPatch(s, PatchFrom(want))
	if err != nil {
		t.Fatal(err)
	}
	if s.Settings != want {
		t.Errorf("settings = %+v, want %+v", s.Settings, want)
	}
}
