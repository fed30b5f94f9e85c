package codec

import (
	"fmt"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/path"
)

// Anchor is a deduplicated anchor of the sketch protocol.
type Anchor struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	In  *Polar  `json:"in,omitempty"`
	Out *Polar  `json:"out,omitempty"`
}

// SketchPath is the anchor/segment graph form of a spatial curve set.
// Each segment references its start and end anchor by index.
type SketchPath struct {
	ID       string   `json:"id,omitempty"`
	BBox     BBox     `json:"bbox"`
	Anchors  []Anchor `json:"anchors"`
	Segments [][2]int `json:"segments"`
}

// EncodeCurves serialises curves normalised to the box enclosing all of
// their control points.
func EncodeCurves(curves []bezier.Cubic) SketchPath {
	var pts []bezier.Point
	for _, c := range curves {
		pts = append(pts, c[:]...)
	}
	return EncodeCurvesIn(curves, BoundsOf(pts))
}

// EncodeCurvesIn serialises curves normalised to b. Anchors that round to
// the same normalised position are merged, so segments sharing a corner
// reference a single entry. A position revisited with different handles
// gets an entry of its own, so every segment keeps its handles.
func EncodeCurvesIn(curves []bezier.Cubic, b BBox) SketchPath {
	sp := SketchPath{BBox: b, Segments: make([][2]int, 0, len(curves))}
	index := make(map[bezier.Point][]int)
	anchor := func(p bezier.Point, in, out *Polar) int {
		n := EncodeAnchor(p, b)
		for _, i := range index[n] {
			a := &sp.Anchors[i]
			if !compatible(a.In, in) || !compatible(a.Out, out) {
				continue
			}
			if a.In == nil {
				a.In = in
			}
			if a.Out == nil {
				a.Out = out
			}
			return i
		}
		index[n] = append(index[n], len(sp.Anchors))
		sp.Anchors = append(sp.Anchors, Anchor{X: n.X, Y: n.Y, In: in, Out: out})
		return len(sp.Anchors) - 1
	}

	for _, c := range curves {
		out := EncodeHandle(c[1].Sub(c[0]), b)
		in := EncodeHandle(c[2].Sub(c[3]), b)
		a0 := anchor(c[0], nil, &out)
		a1 := anchor(c[3], &in, nil)
		sp.Segments = append(sp.Segments, [2]int{a0, a1})
	}
	return sp
}

// compatible reports whether an anchor slot holding have can also serve
// want.
func compatible(have, want *Polar) bool {
	return have == nil || want == nil || *have == *want
}

// SerializePaths encodes the base (unmodified) sketch curves of each path.
func SerializePaths(paths []*path.Path) []SketchPath {
	out := make([]SketchPath, 0, len(paths))
	for _, p := range paths {
		sp := EncodeCurves(path.SketchCurves(p.Keyframes))
		sp.ID = p.ID
		out = append(out, sp)
	}
	return out
}

// Validate checks the structural invariants of the sketch form.
func (sp SketchPath) Validate() error {
	if err := sp.BBox.Validate(); err != nil {
		return err
	}
	if len(sp.Anchors) < 2 {
		return fmt.Errorf("%w: %d anchors, need at least 2", ErrMalformed, len(sp.Anchors))
	}
	if len(sp.Segments) == 0 {
		return fmt.Errorf("%w: no segments", ErrMalformed)
	}
	for i, a := range sp.Anchors {
		if !validNorm(a.X, a.Y) || !validPolar(a.In) || !validPolar(a.Out) {
			return fmt.Errorf("%w: anchor %d is not finite", ErrMalformed, i)
		}
	}
	for i, s := range sp.Segments {
		for _, idx := range s {
			if idx < 0 || idx >= len(sp.Anchors) {
				return fmt.Errorf("%w: segment %d references anchor %d of %d", ErrMalformed, i, idx, len(sp.Anchors))
			}
		}
	}
	return nil
}

// DeserializeCurves rebuilds absolute curve points from the sketch form.
func DeserializeCurves(sp SketchPath) ([]bezier.Cubic, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	out := make([]bezier.Cubic, len(sp.Segments))
	for i, s := range sp.Segments {
		a, b := sp.Anchors[s[0]], sp.Anchors[s[1]]
		p0 := DecodeAnchor(bezier.Pt(a.X, a.Y), sp.BBox)
		p3 := DecodeAnchor(bezier.Pt(b.X, b.Y), sp.BBox)
		p1, p2 := p0, p3
		if h := DecodeHandle(a.Out, sp.BBox); h != nil {
			p1 = p0.Translate(*h)
		}
		if h := DecodeHandle(b.In, sp.BBox); h != nil {
			p2 = p3.Translate(*h)
		}
		out[i] = bezier.Cubic{p0, p1, p2, p3}
	}
	return out, nil
}
