package session

// ZoomStep is the scale change per wheel notch.
const ZoomStep = 0.1

// Axis selects which scale a zoom gesture changes.
type Axis int

const (
	AxisBoth Axis = iota
	AxisX
	AxisY
)

// Pan moves the image by a pointer drag of (dx, dy) display pixels over a
// preview drawn at displayWidth × displayHeight. Offsets are stored as
// fractions of the viewport, so the result does not depend on preview size.
func Pan(s State, dx, dy, displayWidth, displayHeight float64) State {
	if displayWidth <= 0 || displayHeight <= 0 {
		return s
	}
	s.Settings.OffsetX += dx / displayWidth
	s.Settings.OffsetY += dy / displayHeight
	return s
}

// Zoom applies a wheel gesture to both axes. Negative deltas (wheel up)
// zoom in.
func Zoom(s State, wheelDelta float64) State {
	return ZoomAxis(s, AxisBoth, wheelDelta)
}

// ZoomAxis applies a wheel gesture to one or both scales, one ZoomStep per
// gesture, clamped to [grid.MinScale, grid.MaxScale].
func ZoomAxis(s State, axis Axis, wheelDelta float64) State {
	var step float64
	switch {
	case wheelDelta < 0:
		step = ZoomStep
	case wheelDelta > 0:
		step = -ZoomStep
	default:
		return s
	}
	if axis != AxisY {
		s.Settings.ScaleX = clampScale(roundStep(s.Settings.ScaleX + step))
	}
	if axis != AxisX {
		s.Settings.ScaleY = clampScale(roundStep(s.Settings.ScaleY + step))
	}
	return s
}

// ResetTransform restores natural size and removes any pan.
func ResetTransform(s State) State {
	s.Settings.ScaleX, s.Settings.ScaleY = 1, 1
	s.Settings.OffsetX, s.Settings.OffsetY = 0, 0
	return s
}

// roundStep keeps repeated steps from drifting off the 0.1 grid.
func roundStep(v float64) float64 {
	const inv = 1 / ZoomStep
	return float64(int64(v*inv+0.5)) / inv
}
