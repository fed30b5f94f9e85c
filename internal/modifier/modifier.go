// Package modifier layers named, strength-scaled point offsets on top of a
// path's base curves without touching the base data.
//
// The same engine serves both curve families; path.Family selects whether
// the spatial or the timing curves and modifier list are used.
package modifier

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/logx"
	"github.com/ivlev/motionpath/internal/path"
)

// ErrCurveCount is returned when a modifier's offsets do not cover the
// curves of the family it is added to.
var ErrCurveCount = errors.New("modifier: offsets do not match curve count")

// Apply returns base with every modifier applied in list order. Each
// non-nil offset slot moves its control point by strength times the
// offset; later modifiers see the output of earlier ones. base is not
// modified.
func Apply(base []bezier.Cubic, mods []path.Modifier) []bezier.Cubic {
	out := slices.Clone(base)
	for _, m := range mods {
		s := path.ClampStrength(m.Strength)
		if s == 0 {
			continue
		}
		for ci := range min(len(m.Offsets), len(out)) {
			for j, o := range m.Offsets[ci] {
				if o == nil || math.IsNaN(o.DX) || math.IsNaN(o.DY) {
					continue
				}
				out[ci][j].X += s * o.DX
				out[ci][j].Y += s * o.DY
			}
		}
	}
	return out
}

// Diff returns, per curve and control point, suggested minus base. Curves
// beyond the shorter of the two inputs are dropped.
func Diff(base, suggested []bezier.Cubic) []path.CurveOffsets {
	n := min(len(base), len(suggested))
	out := make([]path.CurveOffsets, n)
	for i := range n {
		for j := range 4 {
			d := suggested[i][j].Sub(base[i][j])
			out[i][j] = &path.Offset{DX: d.X, DY: d.Y}
		}
	}
	return out
}

// CreateFromResult synthesises a full-strength modifier from an accepted
// suggestion. The offsets array has one slot per base curve; curves the
// suggestion does not cover keep nil slots. The modifier is named after the
// instruction that produced it, or after title when no instruction was
// given.
func CreateFromResult(ids path.IDGenerator, base, suggested []bezier.Cubic, instruction, title string) path.Modifier {
	offsets := make([]path.CurveOffsets, len(base))
	copy(offsets, Diff(base, suggested))
	return path.Modifier{
		ID:       ids.NewID(),
		Name:     modifierName(instruction, title),
		Strength: 1,
		Offsets:  offsets,
	}
}

func modifierName(instruction, title string) string {
	if s := strings.TrimSpace(instruction); s != "" {
		return s
	}
	return strings.TrimSpace(title)
}

// Add appends m to the modifier list of family f on p. The strength is
// clamped to [0, 2].
func Add(p *path.Path, f path.Family, m path.Modifier) error {
	if len(m.Offsets) != p.CurveCount() {
		return fmt.Errorf("%w: modifier %s has %d curve slots, path %s has %d curves",
			ErrCurveCount, m.ID, len(m.Offsets), p.ID, p.CurveCount())
	}
	m.Strength = path.ClampStrength(m.Strength)
	p.AddModifier(f, m)
	logx.Logger().Debug("modifier added", "path", p.ID, "family", f, "modifier", m.ID, "name", m.Name)
	return nil
}

// SetStrength changes the strength of modifier id. It reports whether the
// modifier exists.
func SetStrength(p *path.Path, f path.Family, id string, strength float64) bool {
	return p.SetModifierStrength(f, id, strength)
}

// Remove takes modifier id off p in two steps: its strength is first set to
// 0, then it is spliced out of the list. flush, if not nil, runs between
// the two steps so a renderer can draw the zero-strength state.
func Remove(p *path.Path, f path.Family, id string, flush func(*path.Path)) bool {
	if !p.SetModifierStrength(f, id, 0) {
		return false
	}
	if flush != nil {
		flush(p)
	}
	p.DeleteModifier(f, id)
	logx.Logger().Debug("modifier removed", "path", p.ID, "family", f, "modifier", id)
	return true
}
