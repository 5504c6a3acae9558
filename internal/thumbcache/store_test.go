package thumbcache

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache", "thumbs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetReplace(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	id := uuid.New()

	require.NoError(t, s.Put(ctx, id, 12, sample(color.RGBA{R: 255, A: 255})))
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Frame)
	assert.Equal(t, image.Rect(0, 0, 8, 4), got.Image.Bounds())
	r, _, _, _ := got.Image.At(3, 2).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, s.Put(ctx, id, 30, sample(color.RGBA{B: 255, A: 255})))
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Frame)
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGetMissing(t *testing.T) {
	s := openTemp(t)
	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAndPrune(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	for i, id := range []uuid.UUID{a, b, c} {
		require.NoError(t, s.Put(ctx, id, i, sample(color.White)))
	}

	require.NoError(t, s.Delete(ctx, b))
	_, err := s.Get(ctx, b)
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := s.Prune(ctx, []uuid.UUID{a})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = s.Get(ctx, a)
	assert.NoError(t, err)
	_, err = s.Get(ctx, c)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "thumbs.db")
	id := uuid.New()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, id, 5, sample(color.Black)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Frame)
	assert.Equal(t, path, s.Path())
}

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	s, err := Open("")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, uuid.New(), 1, sample(color.White)))
	_, err = s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	n, err := s.Prune(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, s.Path())
	assert.NoError(t, s.Close())
}
