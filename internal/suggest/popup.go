package suggest

import "github.com/ivlev/motionpath/internal/bezier"

// Rect is an axis-aligned rectangle in screen units.
type Rect struct {
	X, Y, Width, Height float64
}

// Size is the extent of a popup.
type Size struct {
	Width, Height float64
}

// PlacePopup returns the top-left corner for a popup of size shown next to
// anchor. It goes below and to the right of the anchor, flips to the other
// side of an axis that would overflow viewport, and is finally clamped
// inside viewport.
func PlacePopup(anchor bezier.Point, size Size, viewport Rect, gap float64) bezier.Point {
	right := viewport.X + viewport.Width
	bottom := viewport.Y + viewport.Height

	x := anchor.X + gap
	if x+size.Width > right {
		x = anchor.X - gap - size.Width
	}
	y := anchor.Y + gap
	if y+size.Height > bottom {
		y = anchor.Y - gap - size.Height
	}
	return bezier.Pt(
		clampStart(x, viewport.X, right-size.Width),
		clampStart(y, viewport.Y, bottom-size.Height),
	)
}

// clampStart clamps v to [lo, hi], preferring lo when the range is empty.
func clampStart(v, lo, hi float64) float64 {
	return max(min(v, hi), lo)
}
