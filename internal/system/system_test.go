package system

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanvasPoolPaintsReusedCanvases(t *testing.T) {
	p := NewCanvasPool()
	rect := image.Rect(0, 0, 5, 3)
	red := color.RGBA{R: 255, A: 255}

	img := p.Get(rect, color.White)
	require.Equal(t, rect, img.Rect)
	img.Set(2, 1, red)
	img.Set(4, 2, red)
	p.Put(img)

	again := p.Get(image.Rect(10, 10, 15, 13), color.Black)
	assert.Equal(t, image.Rect(10, 10, 15, 13), again.Rect)
	for y := again.Rect.Min.Y; y < again.Rect.Max.Y; y++ {
		for x := again.Rect.Min.X; x < again.Rect.Max.X; x++ {
			require.Equal(t, color.RGBA{A: 255}, again.RGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
	st := p.Stats()
	assert.Equal(t, int64(2), st.Allocated+st.Reused)

	other := p.Get(image.Rect(0, 0, 2, 2), red)
	assert.Equal(t, red, other.RGBAAt(1, 1))
	st = p.Stats()
	assert.Equal(t, int64(3), st.Allocated+st.Reused)

	// Unknown sizes are ignored.
	p.Put(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	p.Put(nil)
}

func TestCollectStats(t *testing.T) {
	st, err := CollectStats(context.Background())
	require.NoError(t, err)
	assert.Positive(t, st.Goroutines)
	assert.Positive(t, st.SystemTotal)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "3.0 MiB", FormatBytes(3*1024*1024))
}
