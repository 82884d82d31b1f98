package geometry

import (
	"image"
	"testing"
)

func TestViewport(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		mode CropMode
		want Size
	}{
		{"original landscape", 1200, 900, CropOriginal, Size{1200, 900}},
		{"original portrait", 640, 1280, CropOriginal, Size{640, 1280}},
		{"square landscape", 1200, 900, CropSquare, Size{900, 900}},
		{"square portrait", 640, 1280, CropSquare, Size{640, 640}},
		{"square already square", 1, 1, CropSquare, Size{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Viewport(tt.w, tt.h, tt.mode)
			if got != tt.want {
				t.Errorf("Viewport(%d, %d, %s) = %v, want %v", tt.w, tt.h, tt.mode, got, tt.want)
			}
		})
	}
}

func TestViewportSquareProperty(t *testing.T) {
	for w := 1; w < 60; w += 7 {
		for h := 1; h < 60; h += 5 {
			got := Viewport(w, h, CropSquare)
			if got.Width != got.Height || got.Width != min(w, h) {
				t.Fatalf("Viewport(%d, %d, square) = %v", w, h, got)
			}
			if orig := Viewport(w, h, CropOriginal); orig != (Size{w, h}) {
				t.Fatalf("Viewport(%d, %d, original) = %v", w, h, orig)
			}
		}
	}
}

func TestCellIndexRoundTrip(t *testing.T) {
	for rows := 1; rows <= 6; rows++ {
		for cols := 1; cols <= 6; cols++ {
			for i := 0; i < rows*cols; i++ {
				row, col := CellPosition(i, cols)
				if row >= rows || col >= cols {
					t.Fatalf("index %d on %dx%d out of grid: row=%d col=%d", i, rows, cols, row, col)
				}
				if got := CellIndex(row, col, cols); got != i {
					t.Fatalf("CellIndex(%d, %d, %d) = %d, want %d", row, col, cols, got, i)
				}
			}
		}
	}
}

func TestTransformRectIdentity(t *testing.T) {
	natural := Size{1200, 900}
	vp := Viewport(1200, 900, CropOriginal)
	got := TransformRect(natural, vp, Transform{ScaleX: 1, ScaleY: 1}, 2)
	want := Rect{X: 0, Y: 0, Width: 2400, Height: 1800}
	if got != want {
		t.Errorf("TransformRect = %+v, want %+v", got, want)
	}
}

func TestTransformRectSquareCover(t *testing.T) {
	natural := Size{1200, 900}
	vp := Viewport(1200, 900, CropSquare)
	got := TransformRect(natural, vp, Transform{ScaleX: 1, ScaleY: 1}, 1)
	// 1200 wide image centered in a 900 canvas overhangs 150 on each side.
	want := Rect{X: -150, Y: 0, Width: 1200, Height: 900}
	if got != want {
		t.Errorf("TransformRect = %+v, want %+v", got, want)
	}
}

func TestTransformRectScaleAndOffset(t *testing.T) {
	natural := Size{100, 50}
	vp := Size{100, 50}
	got := TransformRect(natural, vp, Transform{ScaleX: 2, ScaleY: 0.5, OffsetX: 0.25, OffsetY: -0.1}, 2)
	// canvas 200x100, draw 400x50, base (-100, 25), offset (+50, -10)
	want := Rect{X: -50, Y: 15, Width: 400, Height: 50}
	if got != want {
		t.Errorf("TransformRect = %+v, want %+v", got, want)
	}
}

func TestCellRectScenarioA(t *testing.T) {
	vp := Viewport(1200, 900, CropOriginal)
	for i := 0; i < 9; i++ {
		c := CellRect(i, 3, 3, vp, Padding{}, 2)
		if c.OutWidth != 800 || c.OutHeight != 600 {
			t.Fatalf("cell %d out = %dx%d, want 800x600", i, c.OutWidth, c.OutHeight)
		}
		wantX := float64(c.Col) * 800
		wantY := float64(c.Row) * 600
		if c.SrcX != wantX || c.SrcY != wantY {
			t.Fatalf("cell %d src origin = (%v, %v), want (%v, %v)", i, c.SrcX, c.SrcY, wantX, wantY)
		}
	}
}

func TestCellRectScenarioB(t *testing.T) {
	vp := Viewport(1200, 900, CropSquare)
	w, h := SliceSize(vp, 2, 2)
	if w != 450 || h != 450 {
		t.Fatalf("slice = %vx%v, want 450x450", w, h)
	}
	c := CellRect(3, 2, 2, vp, Padding{}, 1)
	if c.Row != 1 || c.Col != 1 || c.SrcX != 450 || c.SrcY != 450 || c.OutWidth != 450 || c.OutHeight != 450 {
		t.Errorf("cell 3 = %+v", c)
	}
}

func TestCellRectPadding(t *testing.T) {
	vp := Size{300, 300}
	pad := Padding{Top: 10, Right: 5, Bottom: 20, Left: 15}
	c := CellRect(4, 3, 3, vp, pad, 2)
	want := Cell{
		Index: 4, Row: 1, Col: 1,
		SrcX: (100 + 15) * 2, SrcY: (100 + 10) * 2,
		SrcWidth: 80 * 2, SrcHeight: 70 * 2,
		OutWidth: 160, OutHeight: 140,
	}
	if c != want {
		t.Errorf("CellRect = %+v, want %+v", c, want)
	}
}

func TestCellRectFractionalSlices(t *testing.T) {
	vp := Size{100, 100}
	c := CellRect(1, 3, 3, vp, Padding{}, 1)
	if c.OutWidth != 33 {
		t.Errorf("OutWidth = %d, want 33", c.OutWidth)
	}
	if c.SrcX <= 33.33 || c.SrcX >= 33.34 {
		t.Errorf("SrcX = %v, want ~33.333", c.SrcX)
	}
}

func TestCellRectPaddingClamp(t *testing.T) {
	vp := Size{100, 100}
	tests := []Padding{
		{Left: 50, Right: 50},
		{Left: 80, Right: 80, Top: 60, Bottom: 60},
		{Left: 49.5, Right: 50},
	}
	for _, pad := range tests {
		c := CellRect(0, 1, 1, vp, pad, 2)
		if c.OutWidth != 1 {
			t.Errorf("padding %+v: OutWidth = %d, want 1", pad, c.OutWidth)
		}
	}
	c := CellRect(0, 1, 1, vp, Padding{Top: 60, Bottom: 60}, 1)
	if c.OutHeight != 1 {
		t.Errorf("OutHeight = %d, want 1", c.OutHeight)
	}
}

func TestGeometryIdempotent(t *testing.T) {
	vp := Viewport(1024, 768, CropSquare)
	tr := Transform{ScaleX: 1.3, ScaleY: 0.7, OffsetX: 0.12, OffsetY: -0.3}
	if TransformRect(Size{1024, 768}, vp, tr, 2) != TransformRect(Size{1024, 768}, vp, tr, 2) {
		t.Error("TransformRect not stable across calls")
	}
	pad := Padding{Top: 3, Right: 4, Bottom: 5, Left: 6}
	if CellRect(5, 4, 3, vp, pad, 1.5) != CellRect(5, 4, 3, vp, pad, 1.5) {
		t.Error("CellRect not stable across calls")
	}
}

func TestCanvasSize(t *testing.T) {
	w, h := CanvasSize(Size{333, 201}, 1.5)
	if w != 499 || h != 301 {
		t.Errorf("CanvasSize = %dx%d, want 499x301", w, h)
	}
	w, h = CanvasSize(Size{1, 1}, 0.1)
	if w != 1 || h != 1 {
		t.Errorf("CanvasSize floor = %dx%d, want 1x1", w, h)
	}
}

func TestSuggestGrid(t *testing.T) {
	tests := []struct {
		w, h       int
		rows, cols int
	}{
		{1200, 900, 3, 4},
		{900, 900, 3, 3},
		{900, 1800, 6, 3},
		{10000, 100, 3, 10},
		{0, 0, 3, 3},
	}
	for _, tt := range tests {
		rows, cols := SuggestGrid(tt.w, tt.h)
		if rows != tt.rows || cols != tt.cols {
			t.Errorf("SuggestGrid(%d, %d) = %d,%d want %d,%d", tt.w, tt.h, rows, cols, tt.rows, tt.cols)
		}
	}
}

func TestCellAt(t *testing.T) {
	vp := Size{1200, 900}
	tests := []struct {
		x, y  float64
		res   float64
		index int
		ok    bool
	}{
		{10, 10, 1, 0, true},
		{1199, 899, 1, 8, true},
		{850, 310, 1, 5, true},
		{250, 100, 0.5, 1, true},
		{1200, 10, 1, 0, false},
		{-1, 10, 1, 0, false},
	}
	for _, tt := range tests {
		index, ok := CellAt(tt.x, tt.y, vp, 3, 3, tt.res)
		if index != tt.index || ok != tt.ok {
			t.Errorf("CellAt(%v, %v, res %v) = %d,%v want %d,%v", tt.x, tt.y, tt.res, index, ok, tt.index, tt.ok)
		}
	}
}

func TestCellBounds(t *testing.T) {
	c := CellRect(4, 3, 3, Size{300, 300}, Padding{Left: 10.4, Top: 0.6}, 1)
	if got := c.Bounds(); got != image.Rect(110, 101, 200, 200) {
		t.Errorf("Bounds = %v", got)
	}
	collapsed := CellRect(0, 1, 1, Size{10, 10}, Padding{Left: 8, Right: 8}, 1)
	if !collapsed.Bounds().Empty() {
		t.Errorf("collapsed Bounds = %v, want empty", collapsed.Bounds())
	}
}

func TestCanvasSizeFloatError(t *testing.T) {
	w, h := CanvasSize(Size{900, 900}, 300.0/900.0)
	if w != 300 || h != 300 {
		t.Errorf("CanvasSize = %dx%d, want 300x300", w, h)
	}
}
