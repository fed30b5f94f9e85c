// Package easing provides named timing presets that shape the graph
// handles of a path.
package easing

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/path"
	"github.com/ivlev/motionpath/internal/renderer"
)

// ErrUnknownPreset is returned by Lookup for names without a preset.
var ErrUnknownPreset = errors.New("easing: unknown preset")

// Preset is a timing curve in the unit square, given by its two inner
// control points.
type Preset struct {
	Name   string
	P1, P2 bezier.Point
}

var presets = map[string]Preset{
	"linear":      {Name: "linear", P1: bezier.Pt(0, 0), P2: bezier.Pt(1, 1)},
	"ease-in":     {Name: "ease-in", P1: bezier.Pt(0.42, 0), P2: bezier.Pt(1, 1)},
	"ease-out":    {Name: "ease-out", P1: bezier.Pt(0, 0), P2: bezier.Pt(0.58, 1)},
	"ease-in-out": {Name: "ease-in-out", P1: bezier.Pt(0.42, 0), P2: bezier.Pt(0.58, 1)},
}

// Lookup returns the preset called name.
func Lookup(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownPreset, name, Names())
	}
	return p, nil
}

// Names lists the presets in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Curve returns the preset as a cubic from (0,0) to (1,1).
func (p Preset) Curve() bezier.Cubic {
	return bezier.Cubic{bezier.Pt(0, 0), p.P1, p.P2, bezier.Pt(1, 1)}
}

// Value evaluates the preset as a timing function at u in [0, 1].
func (p Preset) Value(u float64) float64 {
	return renderer.ProgressAt([]bezier.Cubic{p.Curve()}, u)
}

// Handles returns the graph handles a segment spanning dt seconds and dp
// progress needs to follow the preset. Zero handles are nil.
func (p Preset) Handles(dt, dp float64) (out, in *bezier.Vec2) {
	o := bezier.Vec(p.P1.X*dt, p.P1.Y*dp)
	i := bezier.Vec((p.P2.X-1)*dt, (p.P2.Y-1)*dp)
	if !o.IsZero() {
		out = &o
	}
	if !i.IsZero() {
		in = &i
	}
	return out, in
}

// Apply sets the graph handles of every keyframe of p so each segment
// follows the preset. Graph modifiers are kept.
func (p Preset) Apply(pth *path.Path) {
	kfs := slices.Clone(pth.Keyframes)
	progress := path.ComputeKeyframeProgress(kfs, path.SketchCurves(kfs))
	kfs[0].GraphIn = nil
	kfs[len(kfs)-1].GraphOut = nil
	for i := 0; i+1 < len(kfs); i++ {
		out, in := p.Handles(kfs[i+1].Time-kfs[i].Time, progress[i+1]-progress[i])
		kfs[i].GraphOut = out
		kfs[i+1].GraphIn = in
	}
	pth.SetKeyframes(kfs)
}
