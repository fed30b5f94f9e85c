package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/path"
)

func newPath(t *testing.T, n int) *path.Path {
	t.Helper()
	kfs := make([]path.Keyframe, n)
	for i := range kfs {
		kfs[i] = path.Keyframe{Time: float64(i) / float64(n-1), Pos: bezier.Pt(float64(i)*10, float64(i%2))}
	}
	p, err := path.New("p", kfs, 0, 1)
	require.NoError(t, err)
	return p
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   path.SelectionRange
		want path.SelectionRange
		ok   bool
	}{
		{"inside", path.SelectionRange{Start: 1, End: 2}, path.SelectionRange{Start: 1, End: 2}, true},
		{"negative start", path.SelectionRange{Start: -3, End: 1}, path.SelectionRange{Start: 0, End: 1}, true},
		{"end past last curve", path.SelectionRange{Start: 2, End: 40}, path.SelectionRange{Start: 2, End: 4}, true},
		{"reversed", path.SelectionRange{Start: 3, End: 1}, path.SelectionRange{Start: 3, End: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Clamp(tt.in, 6)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlicePath(t *testing.T) {
	p := newPath(t, 6)
	sub := SlicePath(p, path.SelectionRange{Start: 1, End: 3})
	require.Len(t, sub.Keyframes, 4)
	assert.Equal(t, p.Keyframes[1:5], sub.Keyframes)
	assert.Equal(t, 3, sub.CurveCount())
	assert.Len(t, p.Keyframes, 6, "source path must not change")
}

func TestSlicePathReversedReturnsCopy(t *testing.T) {
	p := newPath(t, 6)
	sub := SlicePath(p, path.SelectionRange{Start: 4, End: 2})
	assert.Equal(t, p.Keyframes, sub.Keyframes)
	sub.Keyframes[0].Pos = bezier.Pt(99, 99)
	assert.Equal(t, bezier.Pt(0, 0), p.Keyframes[0].Pos)
}

func TestSlicePathCutsModifiers(t *testing.T) {
	p := newPath(t, 4)
	offsets := make([]path.CurveOffsets, 3)
	offsets[2][1] = &path.Offset{DX: 1}
	p.AddModifier(path.Sketch, path.Modifier{ID: "m", Strength: 1, Offsets: offsets})

	sub := SlicePath(p, path.SelectionRange{Start: 1, End: 2})
	require.Len(t, sub.SketchModifiers, 1)
	got := sub.SketchModifiers[0].Offsets
	require.Len(t, got, 2)
	assert.Equal(t, &path.Offset{DX: 1}, got[1][1])
}

func TestReferenceAlignsProgress(t *testing.T) {
	p := newPath(t, 6)
	progress := []float64{0, 1, 2, 3, 4, 5}
	ref := Reference(p, progress, path.SelectionRange{Start: 2, End: 3})
	assert.Equal(t, []float64{2, 3, 4}, ref.Progress)
	assert.Len(t, ref.Path.Keyframes, len(ref.Progress))
	assert.Equal(t, path.SelectionRange{Start: 2, End: 3}, ref.Range)

	all := Reference(p, progress, path.SelectionRange{Start: 5, End: 0})
	assert.Equal(t, progress, all.Progress)
	assert.Equal(t, Full(p), all.Range)
}

func TestExpandOffsets(t *testing.T) {
	d0 := &path.Offset{DX: 1, DY: 2}
	d3 := &path.Offset{DX: -4, DY: 0}
	sub := []path.CurveOffsets{
		{d0, nil, nil, nil},
		{nil, nil, nil, d3},
	}

	plain := ExpandOffsets(sub, path.SelectionRange{Start: 1, End: 2}, 5, false)
	require.Len(t, plain, 5)
	assert.Equal(t, path.CurveOffsets{}, plain[0])
	assert.Equal(t, d0, plain[1][0])
	assert.Equal(t, d3, plain[2][3])
	assert.Equal(t, path.CurveOffsets{}, plain[3])

	blended := ExpandOffsets(sub, path.SelectionRange{Start: 1, End: 2}, 5, true)
	assert.Nil(t, blended[0][0])
	assert.Nil(t, blended[0][1])
	assert.Equal(t, d0, blended[0][2])
	assert.Equal(t, d0, blended[0][3])
	assert.Equal(t, d3, blended[3][0])
	assert.Equal(t, d3, blended[3][1])
	assert.Nil(t, blended[3][2])
	assert.Equal(t, path.CurveOffsets{}, blended[4])

	// offsets are copied, not shared
	blended[1][0].DX = 100
	assert.Equal(t, 1.0, d0.DX)
}

func TestExpandOffsetsAtEdges(t *testing.T) {
	sub := []path.CurveOffsets{{&path.Offset{DX: 1}, nil, nil, &path.Offset{DY: 1}}}
	out := ExpandOffsets(sub, path.SelectionRange{Start: 0, End: 0}, 1, true)
	require.Len(t, out, 1)
	assert.Equal(t, &path.Offset{DX: 1}, out[0][0])
	assert.Equal(t, &path.Offset{DY: 1}, out[0][3])
}
