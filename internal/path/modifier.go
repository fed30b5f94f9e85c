package path

import "math"

// Offset is a control point delta.
type Offset struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// CurveOffsets holds the deltas of the four control points of one curve. A
// nil slot leaves the point untouched.
type CurveOffsets [4]*Offset

// Clone returns a copy that shares no offsets with co.
func (co CurveOffsets) Clone() CurveOffsets {
	var out CurveOffsets
	for j, o := range co {
		if o != nil {
			v := *o
			out[j] = &v
		}
	}
	return out
}

// Modifier is a named, removable diff layer stacked on a curve set.
type Modifier struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Strength float64        `json:"strength"`
	Offsets  []CurveOffsets `json:"offsets"`
}

// Clone returns a deep copy of m.
func (m Modifier) Clone() Modifier {
	if m.Offsets != nil {
		offsets := make([]CurveOffsets, len(m.Offsets))
		for i, co := range m.Offsets {
			offsets[i] = co.Clone()
		}
		m.Offsets = offsets
	}
	return m
}

// SelectionRange is an inclusive span of curve indices.
type SelectionRange struct {
	Start int `json:"startCurveIndex"`
	End   int `json:"endCurveIndex"`
}

const MaxStrength = 2

// ClampStrength clamps s to [0, MaxStrength]. NaN becomes 0.
func ClampStrength(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return min(max(s, 0), MaxStrength)
}
