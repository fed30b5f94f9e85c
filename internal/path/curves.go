package path

import (
	"math"

	"github.com/ivlev/motionpath/internal/bezier"
)

// SketchCurves builds the spatial segments between consecutive keyframes.
func SketchCurves(kfs []Keyframe) []bezier.Cubic {
	if len(kfs) < 2 {
		return nil
	}
	out := make([]bezier.Cubic, len(kfs)-1)
	for i := range out {
		a, b := kfs[i], kfs[i+1]
		out[i] = bezier.Cubic{
			a.Pos,
			a.Pos.Translate(handle(a.SketchOut)),
			b.Pos.Translate(handle(b.SketchIn)),
			b.Pos,
		}
	}
	return out
}

// GraphCurves builds the timing segments in (time, progress) space.
// progress must have one entry per keyframe.
func GraphCurves(kfs []Keyframe, progress []float64) []bezier.Cubic {
	if len(kfs) < 2 || len(progress) < len(kfs) {
		return nil
	}
	out := make([]bezier.Cubic, len(kfs)-1)
	for i := range out {
		a, b := kfs[i], kfs[i+1]
		p0 := bezier.Pt(a.Time, progress[i])
		p3 := bezier.Pt(b.Time, progress[i+1])
		out[i] = bezier.Cubic{
			p0,
			p0.Translate(handle(a.GraphOut)),
			p3.Translate(handle(b.GraphIn)),
			p3,
		}
	}
	return out
}

// ComputeKeyframeProgress assigns every keyframe the cumulative estimated
// length of the spatial curve up to it. The result starts at 0 and never
// decreases.
func ComputeKeyframeProgress(kfs []Keyframe, curves []bezier.Cubic) []float64 {
	progress := make([]float64, len(kfs))
	for i := 1; i < len(kfs); i++ {
		step := 0.0
		if i-1 < len(curves) {
			step = bezier.EstimateLength(curves[i-1])
		}
		if math.IsNaN(step) || math.IsInf(step, 0) || step < 0 {
			step = 0
		}
		progress[i] = progress[i-1] + step
	}
	return progress
}

func handle(h *bezier.Vec2) bezier.Vec2 {
	if h == nil {
		return bezier.Vec2{}
	}
	return *h
}
