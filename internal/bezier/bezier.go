// Package bezier implements the stateless curve math used by the path
// editor: Bernstein weights, cubic evaluation and derivatives, Newton
// refinement of a curve parameter against a target point, de Casteljau
// splitting and a cheap length estimate.
package bezier

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned for calls that violate a documented
// precondition, such as splitting outside [0, 1].
var ErrInvalidArgument = errors.New("bezier: invalid argument")

// refineEpsilon is the smallest Newton denominator magnitude that is still
// considered well conditioned.
const refineEpsilon = 1e-6

// Cubic is a cubic Bézier segment. Elements 0 and 3 are the anchors, 1 and 2
// the interior control points.
type Cubic [4]Point

// Binomial returns the binomial coefficient C(n, k). It returns 0 when k is
// outside [0, n].
func Binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	res := 1
	for i := 1; i <= k; i++ {
		res = res * (n - k + i) / i
	}
	return res
}

// Bernstein returns the i-th Bernstein basis polynomial of degree n at t.
func Bernstein(i, n int, t float64) float64 {
	return float64(Binomial(n, i)) * math.Pow(t, float64(i)) * math.Pow(1-t, float64(n-i))
}

// Eval evaluates the curve at t.
func (c Cubic) Eval(t float64) Point {
	var x, y float64
	for i, p := range c {
		w := Bernstein(i, 3, t)
		x += w * p.X
		y += w * p.Y
	}
	return Point{X: x, Y: y}
}

// Deriv returns the first derivative Q'(t).
func (c Cubic) Deriv(t float64) Vec2 {
	mt := 1 - t
	d0 := c[1].Sub(c[0]).Mul(3 * mt * mt)
	d1 := c[2].Sub(c[1]).Mul(6 * mt * t)
	d2 := c[3].Sub(c[2]).Mul(3 * t * t)
	return d0.Add(d1).Add(d2)
}

// SecondDeriv returns the second derivative Q''(t).
func (c Cubic) SecondDeriv(t float64) Vec2 {
	a := Vec2(c[2]).Sub(Vec2(c[1]).Mul(2)).Add(Vec2(c[0]))
	b := Vec2(c[3]).Sub(Vec2(c[2]).Mul(2)).Add(Vec2(c[1]))
	return a.Mul(6 * (1 - t)).Add(b.Mul(6 * t))
}

// Translate returns the curve moved by v.
func (c Cubic) Translate(v Vec2) Cubic {
	for i := range c {
		c[i] = c[i].Translate(v)
	}
	return c
}

// Start returns the first anchor.
func (c Cubic) Start() Point { return c[0] }

// End returns the last anchor.
func (c Cubic) End() Point { return c[3] }

// Refine performs one Newton-Raphson step on |Q(u) − pt|², starting from u.
//
// The step is skipped, and u returned unchanged, when the denominator
// |Q'|² + (Q−pt)·Q'' is smaller than 1e-6 in magnitude or when the result
// would not be finite.
func Refine(c Cubic, pt Point, u float64) float64 {
	q := c.Eval(u)
	d1 := c.Deriv(u)
	d2 := c.SecondDeriv(u)
	diff := q.Sub(pt)

	num := diff.Dot(d1)
	den := d1.Hypot2() + diff.Dot(d2)
	if math.Abs(den) < refineEpsilon {
		return u
	}
	next := u - num/den
	if !isFinite(next) {
		return u
	}
	return next
}

// Nearest returns the parameter of the point on c closest to pt. It seeds
// Newton refinement with the best of a coarse uniform sampling and clamps
// the result to [0, 1].
func Nearest(c Cubic, pt Point, iterations int) float64 {
	const samples = 16
	best, bestDist := 0.0, math.Inf(1)
	for i := range samples + 1 {
		t := float64(i) / samples
		if d := c.Eval(t).Sub(pt).Hypot2(); d < bestDist {
			best, bestDist = t, d
		}
	}
	u := best
	for range iterations {
		u = min(max(Refine(c, pt, u), 0), 1)
	}
	return u
}

// SplitResult holds the two control polygons produced by Split, along with
// the point on the curve at the split parameter.
type SplitResult struct {
	Left  []Point
	Right []Point
	Point Point
}

// Split subdivides the Bézier curve with control polygon points at t using
// de Casteljau's algorithm. Any degree is accepted.
//
// Splitting at t = 0 yields a single-point left polygon, and at t = 1 a
// single-point right polygon.
func Split(points []Point, t float64) (SplitResult, error) {
	if len(points) < 2 {
		return SplitResult{}, fmt.Errorf("%w: need at least 2 control points, got %d", ErrInvalidArgument, len(points))
	}
	if !(t >= 0 && t <= 1) {
		return SplitResult{}, fmt.Errorf("%w: split parameter %v outside [0, 1]", ErrInvalidArgument, t)
	}

	n := len(points)
	last := points[n-1]
	switch t {
	case 0:
		return SplitResult{
			Left:  []Point{points[0]},
			Right: append([]Point(nil), points...),
			Point: points[0],
		}, nil
	case 1:
		return SplitResult{
			Left:  append([]Point(nil), points...),
			Right: []Point{last},
			Point: last,
		}, nil
	}

	work := append([]Point(nil), points...)
	left := make([]Point, n)
	right := make([]Point, n)
	left[0] = work[0]
	right[n-1] = work[n-1]
	for level := 1; level < n; level++ {
		for i := 0; i < n-level; i++ {
			work[i] = work[i].Lerp(work[i+1], t)
		}
		left[level] = work[0]
		right[n-1-level] = work[n-1-level]
	}
	return SplitResult{Left: left, Right: right, Point: work[0]}, nil
}

// SplitCubic splits a cubic segment at t.
func SplitCubic(points []Point, t float64) (Cubic, Cubic, error) {
	if len(points) != 4 {
		return Cubic{}, Cubic{}, fmt.Errorf("%w: cubic split needs exactly 4 points, got %d", ErrInvalidArgument, len(points))
	}
	if !(t > 0 && t < 1) {
		if !(t >= 0 && t <= 1) {
			return Cubic{}, Cubic{}, fmt.Errorf("%w: split parameter %v outside [0, 1]", ErrInvalidArgument, t)
		}
		// Degenerate split: one side collapses onto the anchor.
		p := points[0]
		if t == 1 {
			p = points[3]
		}
		whole := Cubic{points[0], points[1], points[2], points[3]}
		point := Cubic{p, p, p, p}
		if t == 0 {
			return point, whole, nil
		}
		return whole, point, nil
	}
	res, err := Split(points, t)
	if err != nil {
		return Cubic{}, Cubic{}, err
	}
	return toCubic(res.Left), toCubic(res.Right), nil
}

func toCubic(ps []Point) Cubic {
	return Cubic{ps[0], ps[1], ps[2], ps[3]}
}

// EstimateLength approximates the arc length as the mean of the chord length
// (a lower bound) and the control polygon length (an upper bound). It is
// meant for weighting, not for geometric precision.
func EstimateLength(c Cubic) float64 {
	chord := c[0].Distance(c[3])
	poly := c[0].Distance(c[1]) + c[1].Distance(c[2]) + c[2].Distance(c[3])
	return (chord + poly) / 2
}

// Bounds returns the bounding box of the control polygon as min and max
// corners.
func Bounds(points []Point) (Point, Point) {
	if len(points) == 0 {
		return Point{}, Point{}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo.X = min(lo.X, p.X)
		lo.Y = min(lo.Y, p.Y)
		hi.X = max(hi.X, p.X)
		hi.Y = max(hi.Y, p.Y)
	}
	return lo, hi
}

// Bounds returns the bounding box of the control points. The curve lies
// inside it.
func (c Cubic) Bounds() (Point, Point) {
	return Bounds(c[:])
}
