package system

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskPoolReusesBounds(t *testing.T) {
	rect := image.Rect(0, 0, 16, 8)
	img := GetAlpha(rect)
	require.Equal(t, rect, img.Rect)
	assert.Len(t, img.Pix, 16*8)
	PutAlpha(img)

	other := GetAlpha(image.Rect(0, 0, 4, 4))
	assert.Equal(t, image.Rect(0, 0, 4, 4), other.Rect)
	PutAlpha(nil)
}

func TestStats(t *testing.T) {
	st, err := Stats()
	require.NoError(t, err)
	assert.Positive(t, st.Goroutines)
	assert.Contains(t, st.String(), "Goroutines:")
}
