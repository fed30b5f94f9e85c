// Package codec converts paths to and from the compact exchange form used
// by the suggestion service and by project files. Coordinates are
// normalised to the path's bounding box and handles are written as polar
// (angle in degrees, distance relative to the box diagonal), so the form is
// independent of the drawing's scale.
package codec

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/motionpath/internal/bezier"
)

// ErrMalformed is returned when serialized data violates the format.
var ErrMalformed = errors.New("codec: malformed path data")

// MinExtent is the smallest width or height of a bounding box.
const MinExtent = 1e-6

// BBox is an axis-aligned box used for normalisation.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BoundsOf returns the box enclosing points, with each dimension at least
// MinExtent.
func BoundsOf(points []bezier.Point) BBox {
	lo, hi := bezier.Bounds(points)
	return BBox{
		X:      lo.X,
		Y:      lo.Y,
		Width:  max(hi.X-lo.X, MinExtent),
		Height: max(hi.Y-lo.Y, MinExtent),
	}
}

// Diagonal returns the length of the box diagonal.
func (b BBox) Diagonal() float64 {
	return math.Hypot(b.Width, b.Height)
}

// Validate checks that the box is finite and has positive extent.
func (b BBox) Validate() error {
	for _, v := range []float64{b.X, b.Y, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bbox %+v", ErrMalformed, b)
		}
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: bbox %+v has non-positive extent", ErrMalformed, b)
	}
	return nil
}

// Polar is a handle written as an angle in degrees and a distance relative
// to the bounding box diagonal.
type Polar struct {
	Angle float64 `json:"angle"`
	Dist  float64 `json:"dist"`
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// EncodeAnchor normalises p to b, rounded to three decimals.
func EncodeAnchor(p bezier.Point, b BBox) bezier.Point {
	return bezier.Point{
		X: round3((p.X - b.X) / b.Width),
		Y: round3((p.Y - b.Y) / b.Height),
	}
}

// DecodeAnchor maps a normalised point back into b.
func DecodeAnchor(n bezier.Point, b BBox) bezier.Point {
	return bezier.Point{
		X: b.X + n.X*b.Width,
		Y: b.Y + n.Y*b.Height,
	}
}

// EncodeHandle converts a handle vector, relative to its anchor, to polar
// form. A zero vector encodes as distance 0.
func EncodeHandle(v bezier.Vec2, b BBox) Polar {
	if v.IsZero() {
		return Polar{}
	}
	return Polar{
		Angle: round3(v.Angle() * 180 / math.Pi),
		Dist:  round3(v.Hypot() / b.Diagonal()),
	}
}

// DecodeHandle converts a polar handle back to a vector relative to its
// anchor. A nil handle decodes to nil.
func DecodeHandle(h *Polar, b BBox) *bezier.Vec2 {
	if h == nil {
		return nil
	}
	rad := h.Angle * math.Pi / 180
	d := h.Dist * b.Diagonal()
	sin, cos := math.Sincos(rad)
	return &bezier.Vec2{X: cos * d, Y: sin * d}
}

func validPolar(h *Polar) bool {
	if h == nil {
		return true
	}
	return !math.IsNaN(h.Angle) && !math.IsInf(h.Angle, 0) &&
		!math.IsNaN(h.Dist) && !math.IsInf(h.Dist, 0) && h.Dist >= 0
}

func validNorm(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && !math.IsNaN(y) && !math.IsInf(y, 0)
}
