package codec

import (
	"fmt"
	"math"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/path"
)

// Keyframe is the serialized form of a path keyframe.
type Keyframe struct {
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Time      *float64 `json:"time,omitempty"`
	SketchIn  *Polar   `json:"sketchIn,omitempty"`
	SketchOut *Polar   `json:"sketchOut,omitempty"`
	GraphIn   *Polar   `json:"graphIn,omitempty"`
	GraphOut  *Polar   `json:"graphOut,omitempty"`
}

// KeyframePath is the keyframe-array form used for whole-path and timing
// exchange and for project files.
type KeyframePath struct {
	ID        string     `json:"id,omitempty"`
	BBox      BBox       `json:"bbox"`
	Keyframes []Keyframe `json:"keyframes"`
}

// graphBox is the normalisation box of the timing curve: time spans [0, 1]
// and progress spans [0, total].
func graphBox(progress []float64) BBox {
	total := 0.0
	if len(progress) > 0 {
		total = progress[len(progress)-1]
	}
	return BBox{Width: 1, Height: max(total, MinExtent)}
}

var unitBox = BBox{Width: 1, Height: 1}

// Graph handles are scaled into the unit square before the polar
// conversion, so the time component keeps its resolution when progress
// spans hundreds of units.
func encodeGraphHandle(v *bezier.Vec2, gb BBox) *Polar {
	if v == nil {
		return &Polar{}
	}
	h := EncodeHandle(bezier.Vec(v.X/gb.Width, v.Y/gb.Height), unitBox)
	return &h
}

func decodeGraphHandle(h *Polar, gb BBox) *bezier.Vec2 {
	n := decodeOptional(h, unitBox)
	if n == nil {
		return nil
	}
	return &bezier.Vec2{X: n.X * gb.Width, Y: n.Y * gb.Height}
}

// EncodeKeyframes serialises kfs normalised to the box enclosing the
// spatial control points.
func EncodeKeyframes(kfs []path.Keyframe) KeyframePath {
	var pts []bezier.Point
	for _, c := range path.SketchCurves(kfs) {
		pts = append(pts, c[:]...)
	}
	if len(pts) == 0 {
		for _, kf := range kfs {
			pts = append(pts, kf.Pos)
		}
	}
	return EncodeKeyframesIn(kfs, BoundsOf(pts))
}

// EncodeKeyframesIn serialises kfs normalised to b.
func EncodeKeyframesIn(kfs []path.Keyframe, b BBox) KeyframePath {
	progress := path.ComputeKeyframeProgress(kfs, path.SketchCurves(kfs))
	gb := graphBox(progress)

	kp := KeyframePath{BBox: b, Keyframes: make([]Keyframe, len(kfs))}
	for i, kf := range kfs {
		n := EncodeAnchor(kf.Pos, b)
		t := round3(kf.Time)
		kp.Keyframes[i] = Keyframe{
			X:         n.X,
			Y:         n.Y,
			Time:      &t,
			SketchIn:  encodeOptional(kf.SketchIn, b),
			SketchOut: encodeOptional(kf.SketchOut, b),
			GraphIn:   encodeGraphHandle(kf.GraphIn, gb),
			GraphOut:  encodeGraphHandle(kf.GraphOut, gb),
		}
	}
	return kp
}

// encodeOptional writes an absent handle as distance 0, like the sketch
// protocol does.
func encodeOptional(v *bezier.Vec2, b BBox) *Polar {
	var h Polar
	if v != nil {
		h = EncodeHandle(*v, b)
	}
	return &h
}

// decodeOptional treats a handle that is missing or has distance 0 as
// absent: both leave the anchor in a straight line.
func decodeOptional(h *Polar, b BBox) *bezier.Vec2 {
	if h == nil || h.Dist == 0 {
		return nil
	}
	return DecodeHandle(h, b)
}

// Validate checks the structural invariants of the keyframe form.
func (kp KeyframePath) Validate() error {
	if err := kp.BBox.Validate(); err != nil {
		return err
	}
	if len(kp.Keyframes) < 2 {
		return fmt.Errorf("%w: %d keyframes, need at least 2", ErrMalformed, len(kp.Keyframes))
	}
	for i, kf := range kp.Keyframes {
		if !validNorm(kf.X, kf.Y) {
			return fmt.Errorf("%w: keyframe %d position is not finite", ErrMalformed, i)
		}
		if kf.Time != nil && (math.IsNaN(*kf.Time) || math.IsInf(*kf.Time, 0)) {
			return fmt.Errorf("%w: keyframe %d time is not finite", ErrMalformed, i)
		}
		for _, h := range []*Polar{kf.SketchIn, kf.SketchOut, kf.GraphIn, kf.GraphOut} {
			if !validPolar(h) {
				return fmt.Errorf("%w: keyframe %d has an invalid handle", ErrMalformed, i)
			}
		}
	}
	return nil
}

// DecodeKeyframes rebuilds keyframes in absolute coordinates. Keyframes
// without a time are spread evenly over [0, 1]; times are then clamped to a
// non-decreasing sequence.
func DecodeKeyframes(kp KeyframePath) ([]path.Keyframe, error) {
	if err := kp.Validate(); err != nil {
		return nil, err
	}
	n := len(kp.Keyframes)
	kfs := make([]path.Keyframe, n)
	for i, skf := range kp.Keyframes {
		t := float64(i) / float64(n-1)
		if skf.Time != nil {
			t = *skf.Time
		}
		kfs[i] = path.Keyframe{
			Time:      t,
			Pos:       DecodeAnchor(bezier.Pt(skf.X, skf.Y), kp.BBox),
			SketchIn:  decodeOptional(skf.SketchIn, kp.BBox),
			SketchOut: decodeOptional(skf.SketchOut, kp.BBox),
		}
	}
	path.ClampTimes(kfs)

	// Graph handles are relative to the timing box, which depends on the
	// decoded spatial curve.
	gb := graphBox(path.ComputeKeyframeProgress(kfs, path.SketchCurves(kfs)))
	for i, skf := range kp.Keyframes {
		kfs[i].GraphIn = decodeGraphHandle(skf.GraphIn, gb)
		kfs[i].GraphOut = decodeGraphHandle(skf.GraphOut, gb)
	}
	return kfs, nil
}

// EncodePath serialises the keyframes of p.
func EncodePath(p *path.Path) KeyframePath {
	kp := EncodeKeyframes(p.Keyframes)
	kp.ID = p.ID
	return kp
}
