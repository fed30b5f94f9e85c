// Package selection scopes partial-path operations to a span of curve
// segments.
package selection

import (
	"slices"

	"github.com/ivlev/motionpath/internal/path"
)

// Clamp limits rng to the curve indices of a path with keyframeCount
// keyframes. ok is false when the clamped range is empty.
func Clamp(rng path.SelectionRange, keyframeCount int) (path.SelectionRange, bool) {
	last := keyframeCount - 2
	if last < 0 {
		return rng, false
	}
	out := path.SelectionRange{
		Start: min(max(rng.Start, 0), last),
		End:   min(max(rng.End, 0), last),
	}
	return out, out.Start <= out.End
}

// Full returns the range covering every curve of p.
func Full(p *path.Path) path.SelectionRange {
	return path.SelectionRange{Start: 0, End: max(p.CurveCount()-1, 0)}
}

// SlicePath returns a copy of p holding keyframes[start .. end+1]. Modifier
// offsets are cut to the same curves. A range that clamps to nothing yields
// a copy of the whole path.
func SlicePath(p *path.Path, rng path.SelectionRange) *path.Path {
	c := p.Clone()
	rng, ok := Clamp(rng, len(p.Keyframes))
	if !ok {
		return c
	}
	c.Keyframes = slices.Clone(c.Keyframes[rng.Start : rng.End+2])
	c.SketchModifiers = sliceModifiers(c.SketchModifiers, rng)
	c.GraphModifiers = sliceModifiers(c.GraphModifiers, rng)
	c.Touch()
	return c
}

func sliceModifiers(mods []path.Modifier, rng path.SelectionRange) []path.Modifier {
	out := mods[:0]
	for _, m := range mods {
		if len(m.Offsets) <= rng.End {
			continue
		}
		m.Offsets = slices.Clone(m.Offsets[rng.Start : rng.End+1])
		out = append(out, m)
	}
	return out
}

// Ref is a sliced path together with the matching slice of its keyframe
// progress, so spatial and temporal indices stay aligned.
type Ref struct {
	Path     *path.Path
	Progress []float64
	Range    path.SelectionRange
}

// Reference slices p and progress to rng. progress must have one entry per
// keyframe of p; otherwise it is passed through unsliced.
func Reference(p *path.Path, progress []float64, rng path.SelectionRange) Ref {
	clamped, ok := Clamp(rng, len(p.Keyframes))
	if !ok {
		return Ref{Path: p.Clone(), Progress: slices.Clone(progress), Range: Full(p)}
	}
	ref := Ref{Path: SlicePath(p, clamped), Range: clamped}
	if len(progress) == len(p.Keyframes) {
		ref.Progress = slices.Clone(progress[clamped.Start : clamped.End+2])
	} else {
		ref.Progress = slices.Clone(progress)
	}
	return ref
}

// ExpandOffsets places offsets computed for the sub-range rng into a
// curve array of length total. Curves outside the range get nil slots.
//
// With blend set, the delta of the first suggested point is also added to
// the trailing control points of the curve before the range, and the delta
// of the last suggested point to the leading control points of the curve
// after it, so the edited span stays joined to its neighbours.
func ExpandOffsets(sub []path.CurveOffsets, rng path.SelectionRange, total int, blend bool) []path.CurveOffsets {
	out := make([]path.CurveOffsets, total)
	first, last := -1, -1
	for i, co := range sub {
		idx := rng.Start + i
		if idx < 0 || idx >= total {
			continue
		}
		out[idx] = co.Clone()
		if first < 0 {
			first = idx
		}
		last = idx
	}
	if !blend || first < 0 {
		return out
	}
	if d := out[first][0]; d != nil && first > 0 {
		addOffset(&out[first-1][2], *d)
		addOffset(&out[first-1][3], *d)
	}
	if d := out[last][3]; d != nil && last+1 < total {
		addOffset(&out[last+1][0], *d)
		addOffset(&out[last+1][1], *d)
	}
	return out
}

func addOffset(slot **path.Offset, d path.Offset) {
	if *slot == nil {
		*slot = &path.Offset{}
	}
	(*slot).DX += d.DX
	(*slot).DY += d.DY
}
