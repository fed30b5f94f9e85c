// Package path holds the editor's data model: keyframe-based paths with
// their spatial ("sketch") and temporal ("graph") Bézier handles, the
// modifier layers stacked on top of them, and the builders deriving curve
// segments and keyframe progress from keyframes.
package path

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync/atomic"

	"github.com/jinzhu/copier"

	"github.com/ivlev/motionpath/internal/bezier"
)

// ErrInvalid is returned when a path or keyframe fails validation.
var ErrInvalid = errors.New("path: invalid")

// Keyframe is a timed anchor of a path. Handles are offsets relative to Pos
// (sketch) or to the keyframe's (time, progress) point (graph); a nil handle
// means the curve leaves the anchor in a straight line.
type Keyframe struct {
	Time      float64
	Pos       bezier.Point
	SketchIn  *bezier.Vec2
	SketchOut *bezier.Vec2
	GraphIn   *bezier.Vec2
	GraphOut  *bezier.Vec2
}

// Family selects one of the two curve sets of a path.
type Family int

const (
	Sketch Family = iota
	Graph
)

func (f Family) String() string {
	switch f {
	case Sketch:
		return "sketch"
	case Graph:
		return "graph"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// ParseFamily accepts "sketch" or "graph".
func ParseFamily(s string) (Family, error) {
	switch s {
	case "sketch", "":
		return Sketch, nil
	case "graph":
		return Graph, nil
	default:
		return 0, fmt.Errorf("unknown curve family %q", s)
	}
}

// Path is one animated stroke.
//
// Every mutating method assigns a fresh version token, returned by Version,
// so derived state (progress, effective curves) can be memoised per version.
// Tokens are unique across all paths in the process, so two Path values
// never share one even when they share an id. Code that writes fields
// directly must call Touch afterwards.
type Path struct {
	ID              string
	Keyframes       []Keyframe
	StartTime       float64
	Duration        float64
	SketchModifiers []Modifier
	GraphModifiers  []Modifier

	version uint64
}

// New builds a validated path. Keyframe times are clamped into a
// non-decreasing sequence.
func New(id string, keyframes []Keyframe, startTime, duration float64) (*Path, error) {
	p := &Path{
		ID:        id,
		Keyframes: slices.Clone(keyframes),
		StartTime: startTime,
		Duration:  duration,
		version:   nextVersion(),
	}
	ClampTimes(p.Keyframes)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the structural invariants of the path.
func (p *Path) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalid)
	}
	if len(p.Keyframes) < 2 {
		return fmt.Errorf("%w: path %s has %d keyframes, need at least 2", ErrInvalid, p.ID, len(p.Keyframes))
	}
	if !(p.Duration > 0) || math.IsInf(p.Duration, 0) {
		return fmt.Errorf("%w: path %s has duration %v", ErrInvalid, p.ID, p.Duration)
	}
	if !(p.StartTime >= 0) || math.IsInf(p.StartTime, 0) {
		return fmt.Errorf("%w: path %s has start time %v", ErrInvalid, p.ID, p.StartTime)
	}
	for i, kf := range p.Keyframes {
		if !kf.Pos.IsFinite() {
			return fmt.Errorf("%w: keyframe %d of path %s has position %v", ErrInvalid, i, p.ID, kf.Pos)
		}
		for _, h := range []*bezier.Vec2{kf.SketchIn, kf.SketchOut, kf.GraphIn, kf.GraphOut} {
			if h != nil && !h.IsFinite() {
				return fmt.Errorf("%w: keyframe %d of path %s has non-finite handle", ErrInvalid, i, p.ID)
			}
		}
		if i > 0 && kf.Time < p.Keyframes[i-1].Time {
			return fmt.Errorf("%w: keyframe %d of path %s goes back in time", ErrInvalid, i, p.ID)
		}
	}
	return nil
}

// ClampTimes forces keyframe times into [0, 1] and raises any value that is
// lower than its predecessor up to the predecessor.
func ClampTimes(kfs []Keyframe) {
	for i := range kfs {
		t := kfs[i].Time
		if math.IsNaN(t) {
			t = 0
		}
		t = min(max(t, 0), 1)
		if i > 0 && t < kfs[i-1].Time {
			t = kfs[i-1].Time
		}
		kfs[i].Time = t
	}
}

var versions atomic.Uint64

func nextVersion() uint64 {
	return versions.Add(1)
}

// Version returns the current version token.
func (p *Path) Version() uint64 {
	return p.version
}

// Touch marks the path as changed.
func (p *Path) Touch() {
	p.version = nextVersion()
}

// CurveCount returns the number of segments per curve family.
func (p *Path) CurveCount() int {
	return max(len(p.Keyframes)-1, 0)
}

// SetKeyframes replaces the keyframe list.
func (p *Path) SetKeyframes(kfs []Keyframe) {
	p.Keyframes = slices.Clone(kfs)
	ClampTimes(p.Keyframes)
	p.Touch()
}

// SetKeyframe replaces keyframe i.
func (p *Path) SetKeyframe(i int, kf Keyframe) error {
	if i < 0 || i >= len(p.Keyframes) {
		return fmt.Errorf("%w: keyframe index %d out of range", ErrInvalid, i)
	}
	p.Keyframes[i] = kf
	ClampTimes(p.Keyframes)
	p.Touch()
	return nil
}

// Modifiers returns the modifier list of family f.
func (p *Path) Modifiers(f Family) []Modifier {
	if f == Graph {
		return p.GraphModifiers
	}
	return p.SketchModifiers
}

func (p *Path) modifierList(f Family) *[]Modifier {
	if f == Graph {
		return &p.GraphModifiers
	}
	return &p.SketchModifiers
}

// AddModifier appends m to the modifier list of family f.
func (p *Path) AddModifier(f Family, m Modifier) {
	l := p.modifierList(f)
	*l = append(*l, m)
	p.Touch()
}

// SetModifierStrength sets the strength of modifier id, clamped to [0, 2].
// It reports whether the modifier exists.
func (p *Path) SetModifierStrength(f Family, id string, strength float64) bool {
	l := *p.modifierList(f)
	for i := range l {
		if l[i].ID == id {
			l[i].Strength = ClampStrength(strength)
			p.Touch()
			return true
		}
	}
	return false
}

// DeleteModifier splices modifier id out of the list of family f.
func (p *Path) DeleteModifier(f Family, id string) bool {
	l := p.modifierList(f)
	i := slices.IndexFunc(*l, func(m Modifier) bool { return m.ID == id })
	if i < 0 {
		return false
	}
	*l = slices.Delete(*l, i, i+1)
	p.Touch()
	return true
}

// Clone returns a deep copy with its own version token.
func (p *Path) Clone() *Path {
	var c Path
	if err := copier.CopyWithOption(&c, p, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds, which cannot happen for
		// a copy between identical types.
		panic(fmt.Sprintf("path: clone %s: %v", p.ID, err))
	}
	// copier copies arrays by value, which would share the offset
	// pointers.
	for i := range c.SketchModifiers {
		c.SketchModifiers[i] = p.SketchModifiers[i].Clone()
	}
	for i := range c.GraphModifiers {
		c.GraphModifiers[i] = p.GraphModifiers[i].Clone()
	}
	c.version = nextVersion()
	return &c
}

// Positions returns the keyframe anchor positions.
func (p *Path) Positions() []bezier.Point {
	out := make([]bezier.Point, len(p.Keyframes))
	for i, kf := range p.Keyframes {
		out[i] = kf.Pos
	}
	return out
}
