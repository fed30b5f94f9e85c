package modifier

import (
	"sync"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/path"
	"github.com/ivlev/motionpath/internal/selection"
)

// Curves is the derived geometry of a path.
type Curves struct {
	Sketch   []bezier.Cubic
	Graph    []bezier.Cubic
	Progress []float64
}

// Of returns the curves of family f.
func (c Curves) Of(f path.Family) []bezier.Cubic {
	if f == path.Graph {
		return c.Graph
	}
	return c.Sketch
}

// Total returns the progress reached at the last keyframe.
func (c Curves) Total() float64 {
	if len(c.Progress) == 0 {
		return 0
	}
	return c.Progress[len(c.Progress)-1]
}

// Base derives the unmodified curves of p.
func Base(p *path.Path) Curves {
	sketch := path.SketchCurves(p.Keyframes)
	progress := path.ComputeKeyframeProgress(p.Keyframes, sketch)
	return Curves{
		Sketch:   sketch,
		Graph:    path.GraphCurves(p.Keyframes, progress),
		Progress: progress,
	}
}

// Effective derives the curves of p with all modifiers applied. Progress is
// measured along the modified sketch curves, so sketch modifiers also shift
// the timing curve.
func Effective(p *path.Path) Curves {
	sketch := Apply(path.SketchCurves(p.Keyframes), p.SketchModifiers)
	progress := path.ComputeKeyframeProgress(p.Keyframes, sketch)
	graph := Apply(path.GraphCurves(p.Keyframes, progress), p.GraphModifiers)
	return Curves{Sketch: sketch, Graph: graph, Progress: progress}
}

// FamilyCurves builds the base curves of family f for kfs, using progress
// for the timing axis.
func FamilyCurves(f path.Family, kfs []path.Keyframe, progress []float64) []bezier.Cubic {
	if f == path.Graph {
		return path.GraphCurves(kfs, progress)
	}
	return path.SketchCurves(kfs)
}

// Cache memoises Effective per path id and version. Version tokens are
// unique across paths, so entries never leak between distinct Path values
// sharing an id. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	version uint64
	curves  Curves
}

// Get returns the effective curves of p, recomputing them only when p has
// changed since the last call. Callers must not modify the result.
func (c *Cache) Get(p *path.Path) Curves {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[p.ID]; ok && e.version == p.Version() {
		return e.curves
	}
	if c.entries == nil {
		c.entries = make(map[string]cacheEntry)
	}
	curves := Effective(p)
	c.entries[p.ID] = cacheEntry{version: p.Version(), curves: curves}
	return curves
}

// Forget drops the entry of path id.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Suggestion is a proposed replacement for the curves of one family over
// Range. Curves holds one cubic per curve of the range, in absolute
// coordinates of that family's space.
type Suggestion struct {
	Family path.Family
	Range  path.SelectionRange
	Curves []bezier.Cubic
}

// Offsets computes the full-length offsets of s against the base curves of
// p. Partial suggestions are blended into the neighbouring curves.
func (s Suggestion) Offsets(p *path.Path) []path.CurveOffsets {
	base := Base(p)
	ref := selection.Reference(p, base.Progress, s.Range)
	sub := FamilyCurves(s.Family, ref.Path.Keyframes, ref.Progress)
	full := ref.Range == selection.Full(p)
	return selection.ExpandOffsets(Diff(sub, s.Curves), ref.Range, p.CurveCount(), !full)
}

// FromSuggestion builds the modifier recorded when s is accepted.
func FromSuggestion(ids path.IDGenerator, p *path.Path, s Suggestion, instruction, title string) path.Modifier {
	return path.Modifier{
		ID:       ids.NewID(),
		Name:     modifierName(instruction, title),
		Strength: 1,
		Offsets:  s.Offsets(p),
	}
}

// Preview returns the effective curves of s.Family with s applied on top at
// strength. p is not modified.
func Preview(p *path.Path, s Suggestion, strength float64) []bezier.Cubic {
	tmp := path.Modifier{Strength: path.ClampStrength(strength), Offsets: s.Offsets(p)}
	return Apply(Effective(p).Of(s.Family), []path.Modifier{tmp})
}
