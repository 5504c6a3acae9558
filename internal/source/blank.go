package source

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// BlankSource has an unbounded number of solid pages. Page i is filled with
// the i-th color of a fixed palette, so every keyframe of a document without
// artwork still renders distinguishably.
type BlankSource struct {
	width, height int
}

var blankPalette = []color.RGBA{
	{0xf4, 0xf1, 0xde, 0xff},
	{0xe0, 0x7a, 0x5f, 0xff},
	{0x3d, 0x40, 0x5b, 0xff},
	{0x81, 0xb2, 0x9a, 0xff},
	{0xf2, 0xcc, 0x8f, 0xff},
	{0x6d, 0x59, 0x7a, 0xff},
}

func NewBlankSource(width, height int) *BlankSource {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &BlankSource{width: width, height: height}
}

// PageColor returns the fill of page index.
func PageColor(index int) color.RGBA {
	if index < 0 {
		index = -index
	}
	return blankPalette[index%len(blankPalette)]
}

// PageCount is unbounded; it reports the largest int.
func (s *BlankSource) PageCount() int { return int(^uint(0) >> 1) }

func (s *BlankSource) GetPageDimensions(index int) (float64, float64, error) {
	if index < 0 {
		return 0, 0, fmt.Errorf("page %d: %w", index, ErrPageOutOfRange)
	}
	return float64(s.width), float64(s.height), nil
}

// RenderPage ignores dpi; blank pages are always width x height pixels.
func (s *BlankSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index < 0 {
		return nil, fmt.Errorf("page %d: %w", index, ErrPageOutOfRange)
	}
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: PageColor(index)}, image.Point{}, draw.Src)
	return img, nil
}

func (s *BlankSource) Close() error { return nil }
