package renderer

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/motionpath/internal/bezier"
	"github.com/ivlev/motionpath/internal/modifier"
	"github.com/ivlev/motionpath/internal/path"
	"github.com/ivlev/motionpath/internal/system"
)

func straight(t *testing.T) *path.Path {
	t.Helper()
	p, err := path.New("p", []path.Keyframe{
		{Time: 0, Pos: bezier.Pt(0, 0)},
		{Time: 0.5, Pos: bezier.Pt(50, 0)},
		{Time: 1, Pos: bezier.Pt(100, 0)},
	}, 1, 2)
	require.NoError(t, err)
	return p
}

func TestLocalTime(t *testing.T) {
	p := straight(t)
	tests := []struct {
		t    float64
		want float64
		ok   bool
	}{
		{0.5, 0, false},
		{1, 0, true},
		{2, 0.5, true},
		{3, 1, true},
		{3.5, 0, false},
	}
	for _, tt := range tests {
		got, ok := LocalTime(p, tt.t)
		assert.Equal(t, tt.ok, ok, "t=%v", tt.t)
		assert.InDelta(t, tt.want, got, 1e-12, "t=%v", tt.t)
	}
}

func TestSampleStraightPath(t *testing.T) {
	p := straight(t)
	curves := modifier.Effective(p)

	tests := []struct {
		t    float64
		want bezier.Point
	}{
		{1, bezier.Pt(0, 0)},
		{1.5, bezier.Pt(25, 0)},
		{2, bezier.Pt(50, 0)},
		{2.5, bezier.Pt(75, 0)},
		{3, bezier.Pt(100, 0)},
	}
	for _, tt := range tests {
		got, ok := Sample(curves, p, tt.t)
		require.True(t, ok)
		assert.InDelta(t, tt.want.X, got.X, 0.5, "t=%v", tt.t)
		assert.InDelta(t, tt.want.Y, got.Y, 1e-9, "t=%v", tt.t)
	}

	_, ok := Sample(curves, p, 0)
	assert.False(t, ok)
}

func TestProgressAtEasing(t *testing.T) {
	graph := []bezier.Cubic{{
		bezier.Pt(0, 0), bezier.Pt(0.4, 0), bezier.Pt(0.6, 10), bezier.Pt(1, 10),
	}}
	assert.InDelta(t, 5, ProgressAt(graph, 0.5), 1e-6)
	assert.Less(t, ProgressAt(graph, 0.25), 2.5)
	assert.Greater(t, ProgressAt(graph, 0.75), 7.5)
	assert.Equal(t, 0.0, ProgressAt(graph, -1))
	assert.Equal(t, 10.0, ProgressAt(graph, 2))
	assert.Equal(t, 0.0, ProgressAt(nil, 0.5))
}

func TestPointAtClampsProgress(t *testing.T) {
	sketch := []bezier.Cubic{{
		bezier.Pt(0, 0), bezier.Pt(0, 0), bezier.Pt(10, 0), bezier.Pt(10, 0),
	}}
	progress := []float64{0, 10}
	assert.Equal(t, bezier.Pt(0, 0), PointAt(sketch, progress, -5))
	assert.Equal(t, bezier.Pt(10, 0), PointAt(sketch, progress, 50))
	assert.Equal(t, bezier.Point{}, PointAt(nil, nil, 1))
}

func TestRasterize(t *testing.T) {
	p := straight(t)
	img := Rasterize([][]bezier.Cubic{modifier.Effective(p).Sketch}, RasterOptions{
		Width: 64, Height: 32, StrokeWidth: 4, Margin: 4,
	})
	defer system.PutAlpha(img)

	assert.Equal(t, uint8(255), img.AlphaAt(32, 15).A)
	assert.Equal(t, uint8(255), img.AlphaAt(32, 16).A)
	assert.Equal(t, uint8(0), img.AlphaAt(32, 2).A)
	assert.Equal(t, uint8(0), img.AlphaAt(1, 16).A)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Rect, decoded.Bounds())
}

func TestRasterizeEmpty(t *testing.T) {
	img := Rasterize(nil, RasterOptions{Width: 8, Height: 8, StrokeWidth: 1})
	defer system.PutAlpha(img)
	for _, a := range img.Pix {
		require.Zero(t, a)
	}
}
