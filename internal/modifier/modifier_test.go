package modifier

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/path"
)

func straight(t *testing.T, n int) *path.Path {
	t.Helper()
	kfs := make([]path.Keyframe, n)
	for i := range kfs {
		kfs[i] = path.Keyframe{Time: float64(i) / float64(n-1), Pos: bezier.Pt(float64(i)*10, 0)}
	}
	p, err := path.New("p", kfs, 0, 1)
	require.NoError(t, err)
	return p
}

func TestCreateFromResultScenario(t *testing.T) {
	base := []bezier.Cubic{{bezier.Pt(0, 0), bezier.Pt(10, 0), bezier.Pt(20, 0), bezier.Pt(30, 0)}}
	suggested := []bezier.Cubic{{bezier.Pt(0, 0), bezier.Pt(10, 5), bezier.Pt(20, 5), bezier.Pt(30, 0)}}

	m := CreateFromResult(&path.SequenceIDs{Prefix: "m"}, base, suggested, "make it wavy", "Wave")
	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, "make it wavy", m.Name)
	assert.Equal(t, 1.0, m.Strength)
	assert.Equal(t, []path.CurveOffsets{{
		{DX: 0, DY: 0}, {DX: 0, DY: 5}, {DX: 0, DY: 5}, {DX: 0, DY: 0},
	}}, m.Offsets)

	m.Strength = 0.5
	got := Apply(base, []path.Modifier{m})
	assert.Equal(t, []bezier.Cubic{{bezier.Pt(0, 0), bezier.Pt(10, 2.5), bezier.Pt(20, 2.5), bezier.Pt(30, 0)}}, got)
	// base untouched
	assert.Equal(t, bezier.Pt(10, 0), base[0][1])
}

func TestCreateFromResultTruncates(t *testing.T) {
	base := path.SketchCurves(straight(t, 4).Keyframes)
	suggested := base[:2]

	m := CreateFromResult(&path.SequenceIDs{}, base, suggested, "  ", "Title")
	assert.Equal(t, "Title", m.Name)
	require.Len(t, m.Offsets, 3)
	assert.NotNil(t, m.Offsets[1][2])
	assert.Equal(t, path.CurveOffsets{}, m.Offsets[2])
}

func randomModifier(r *rand.Rand, curves int, strength float64) path.Modifier {
	offsets := make([]path.CurveOffsets, curves)
	for i := range offsets {
		for j := range 4 {
			if r.Intn(3) == 0 {
				continue
			}
			offsets[i][j] = &path.Offset{DX: r.Float64()*20 - 10, DY: r.Float64()*20 - 10}
		}
	}
	return path.Modifier{ID: "r", Strength: strength, Offsets: offsets}
}

func randomCurves(r *rand.Rand, n int) []bezier.Cubic {
	out := make([]bezier.Cubic, n)
	for i := range out {
		for j := range 4 {
			out[i][j] = bezier.Pt(r.Float64()*100, r.Float64()*100)
		}
	}
	return out
}

func TestApplyStrengthZeroIsIdentity(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for range 50 {
		base := randomCurves(r, 5)
		got := Apply(base, []path.Modifier{randomModifier(r, 5, 0)})
		assert.Equal(t, base, got)
	}
}

func TestApplyStrengthOneIsExact(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for range 50 {
		base := randomCurves(r, 4)
		m := randomModifier(r, 4, 1)
		got := Apply(base, []path.Modifier{m})
		for i := range base {
			for j := range 4 {
				want := base[i][j]
				if o := m.Offsets[i][j]; o != nil {
					want = bezier.Pt(want.X+o.DX, want.Y+o.DY)
				}
				assert.Equal(t, want, got[i][j])
			}
		}
	}
}

func TestApplyIsCumulative(t *testing.T) {
	base := []bezier.Cubic{{}}
	up := path.Modifier{Strength: 1, Offsets: []path.CurveOffsets{{nil, {DY: 1}, nil, nil}}}
	right := path.Modifier{Strength: 2, Offsets: []path.CurveOffsets{{nil, {DX: 1}, nil, nil}}}
	got := Apply(base, []path.Modifier{up, right, up})
	assert.Equal(t, bezier.Pt(2, 2), got[0][1])
	assert.Equal(t, bezier.Point{}, got[0][0])
}

func TestAddChecksCurveCount(t *testing.T) {
	p := straight(t, 3)
	err := Add(p, path.Sketch, path.Modifier{ID: "m", Strength: 1, Offsets: make([]path.CurveOffsets, 1)})
	assert.ErrorIs(t, err, ErrCurveCount)

	require.NoError(t, Add(p, path.Graph, path.Modifier{ID: "m", Strength: 7, Offsets: make([]path.CurveOffsets, 2)}))
	assert.Equal(t, 2.0, p.GraphModifiers[0].Strength)
	assert.True(t, SetStrength(p, path.Graph, "m", 0.25))
	assert.Equal(t, 0.25, p.GraphModifiers[0].Strength)
}

func TestRemoveIsTwoPhase(t *testing.T) {
	p := straight(t, 3)
	offsets := make([]path.CurveOffsets, 2)
	offsets[0][1] = &path.Offset{DY: 4}
	require.NoError(t, Add(p, path.Sketch, path.Modifier{ID: "m", Strength: 1, Offsets: offsets}))
	base := Base(p)

	flushed := false
	ok := Remove(p, path.Sketch, "m", func(mid *path.Path) {
		flushed = true
		require.Len(t, mid.SketchModifiers, 1)
		assert.Equal(t, 0.0, mid.SketchModifiers[0].Strength)
		assert.Equal(t, base, Effective(mid))
	})
	assert.True(t, ok)
	assert.True(t, flushed)
	assert.Empty(t, p.SketchModifiers)
	assert.Equal(t, base, Effective(p))

	assert.False(t, Remove(p, path.Sketch, "m", nil))
}

func TestEffectiveRemeasuresProgress(t *testing.T) {
	p := straight(t, 3)
	base := Effective(p)
	assert.InDelta(t, 20, base.Total(), 1e-9)

	offsets := make([]path.CurveOffsets, 2)
	offsets[0][1] = &path.Offset{DY: 10}
	offsets[0][2] = &path.Offset{DY: 10}
	require.NoError(t, Add(p, path.Sketch, path.Modifier{ID: "bump", Strength: 1, Offsets: offsets}))

	eff := Effective(p)
	assert.Greater(t, eff.Total(), base.Total())
	// the timing curve ends at the new total
	last := eff.Graph[len(eff.Graph)-1]
	assert.Equal(t, eff.Total(), last[3].Y)
	assert.Equal(t, eff.Sketch, eff.Of(path.Sketch))
	assert.Equal(t, eff.Graph, eff.Of(path.Graph))
}

func TestCache(t *testing.T) {
	p := straight(t, 3)
	var c Cache
	first := c.Get(p)
	assert.Equal(t, Effective(p), first)

	kf := p.Keyframes[1]
	kf.Pos = bezier.Pt(10, 10)
	require.NoError(t, p.SetKeyframe(1, kf))
	second := c.Get(p)
	assert.NotEqual(t, first.Sketch, second.Sketch)
	assert.Equal(t, Effective(p), second)

	c.Forget(p.ID)
	assert.Equal(t, second, c.Get(p))
}

func TestCacheSeparatesPathsWithSameID(t *testing.T) {
	a, err := path.New("p", []path.Keyframe{
		{Time: 0, Pos: bezier.Pt(0, 0)},
		{Time: 1, Pos: bezier.Pt(10, 0)},
	}, 0, 1)
	require.NoError(t, err)
	b, err := path.New("p", []path.Keyframe{
		{Time: 0, Pos: bezier.Pt(0, 0)},
		{Time: 1, Pos: bezier.Pt(500, 500)},
	}, 0, 1)
	require.NoError(t, err)

	var c Cache
	assert.Equal(t, bezier.Pt(10, 0), c.Get(a).Sketch[0][3])
	assert.Equal(t, bezier.Pt(500, 500), c.Get(b).Sketch[0][3])

	// a modified copy must not see the entry of the original
	clone := a.Clone()
	clone.Keyframes[1].Pos = bezier.Pt(-7, 3)
	clone.Touch()
	assert.Equal(t, bezier.Pt(-7, 3), c.Get(clone).Sketch[0][3])
}

func TestPreviewBlendsPartialSuggestion(t *testing.T) {
	p := straight(t, 4)
	s := Suggestion{
		Family: path.Sketch,
		Range:  path.SelectionRange{Start: 1, End: 1},
		Curves: []bezier.Cubic{{bezier.Pt(10, 2), bezier.Pt(13, 2), bezier.Pt(17, 2), bezier.Pt(20, 2)}},
	}

	full := Preview(p, s, 1)
	require.Len(t, full, 3)
	assert.Equal(t, s.Curves[0], full[1])
	assert.Equal(t, full[0][3], full[1][0], "left edge must stay joined")
	assert.Equal(t, full[1][3], full[2][0], "right edge must stay joined")
	assert.Equal(t, bezier.Pt(0, 0), full[0][0])
	assert.Equal(t, bezier.Pt(30, 0), full[2][3])

	half := Preview(p, s, 0.5)
	assert.Equal(t, bezier.Pt(10, 1), half[0][3])
	assert.Equal(t, half[0][3], half[1][0])

	// previews never touch the path
	assert.Empty(t, p.SketchModifiers)
	assert.Equal(t, Base(p).Sketch, Preview(p, s, 0))
}

func TestFromSuggestionFullRange(t *testing.T) {
	p := straight(t, 3)
	base := Base(p)
	suggested := make([]bezier.Cubic, len(base.Graph))
	copy(suggested, base.Graph)
	suggested[0][1] = suggested[0][1].Translate(bezier.Vec(0.2, 0))

	s := Suggestion{Family: path.Graph, Range: path.SelectionRange{Start: 0, End: 1}, Curves: suggested}
	m := FromSuggestion(&path.SequenceIDs{Prefix: "g"}, p, s, "", "Ease in")
	assert.Equal(t, "g-1", m.ID)
	assert.Equal(t, "Ease in", m.Name)
	require.Len(t, m.Offsets, 2)
	assert.InDelta(t, 0.2, m.Offsets[0][1].DX, 1e-12)
	assert.Equal(t, &path.Offset{}, m.Offsets[1][0])

	require.NoError(t, Add(p, path.Graph, m))
	assert.Equal(t, suggested, Effective(p).Graph)
}
