package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/storyboard/internal/config"
	"github.com/ivlev/storyboard/internal/storyboard"
	"github.com/ivlev/storyboard/internal/timeline"
	"github.com/ivlev/storyboard/internal/undo"
)

func newDocument(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Thumbnails.Width = 32
	cfg.Thumbnails.CachePath = filepath.Join(dir, "thumbs.db")
	cfg.Storyboard.Comments = []string{"Action"}
	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, Init(&cfg, path, "", 64, 36))
	return &cfg, path
}

func open(t *testing.T, cfg *config.Config, path string) *Project {
	t.Helper()
	p, err := Open(cfg, path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// buildTwoScenes leaves scenes [0,12) and [12,13) with keyframes at 0 and 12.
func buildTwoScenes(t *testing.T, p *Project) {
	t.Helper()
	_, err := p.Do(func(m *storyboard.Model) (undo.Command, error) { return m.InsertScene(0, false) })
	require.NoError(t, err)
	_, err = p.Do(func(m *storyboard.Model) (undo.Command, error) {
		cmd, _, err := m.SetSceneDurationFrames(0, 12)
		return cmd, err
	})
	require.NoError(t, err)
	_, err = p.Do(func(m *storyboard.Model) (undo.Command, error) { return m.InsertScene(0, true) })
	require.NoError(t, err)
}

func renderCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func starts(m *storyboard.Model) []int {
	var out []int
	for _, s := range m.Scenes() {
		out = append(out, s.FrameNumber())
	}
	return out
}

func TestInitRefusesExistingDocument(t *testing.T) {
	cfg, path := newDocument(t)
	assert.ErrorIs(t, Init(cfg, path, "", 64, 36), ErrExists)
}

func TestEditSaveReopen(t *testing.T) {
	cfg, path := newDocument(t)
	p := open(t, cfg, path)
	buildTwoScenes(t, p)

	_, err := p.EditTimeline("add key", func(img *timeline.Image) error {
		img.Layer(0).Channel().AddKeyframe(20)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, p.Dirty())
	require.NoError(t, p.Save(renderCtx(t)))
	assert.False(t, p.Dirty())
	require.NoError(t, p.Close())

	again := open(t, cfg, path)
	again.View(func(m *storyboard.Model, img *timeline.Image) {
		require.Equal(t, 2, m.Len())
		assert.Equal(t, []int{0, 12}, starts(m))
		n, err := m.TotalSceneDurationInFrames(1)
		require.NoError(t, err)
		assert.Equal(t, 9, n)
		assert.Equal(t, []int{0, 12, 20}, img.Layer(0).Channel().Times())
		assert.Equal(t, 1, m.CommentSchema().Len())
	})
}

func TestUndoRedoTimelineEdit(t *testing.T) {
	cfg, path := newDocument(t)
	p := open(t, cfg, path)
	buildTwoScenes(t, p)

	_, err := p.EditTimeline("add key", func(img *timeline.Image) error {
		img.Layer(0).Channel().AddKeyframe(20)
		return nil
	})
	require.NoError(t, err)

	text, ok := p.Undo()
	require.True(t, ok)
	assert.Equal(t, "add key", text)
	p.View(func(m *storyboard.Model, img *timeline.Image) {
		n, _ := m.TotalSceneDurationInFrames(1)
		assert.Equal(t, 1, n)
		assert.Equal(t, []int{0, 12}, img.Layer(0).Channel().Times())
	})

	_, ok = p.Redo()
	require.True(t, ok)
	p.View(func(m *storyboard.Model, img *timeline.Image) {
		n, _ := m.TotalSceneDurationInFrames(1)
		assert.Equal(t, 9, n)
	})

	_, ok = p.Redo()
	assert.False(t, ok)
}

func TestRenderThumbnailsUsesCache(t *testing.T) {
	cfg, path := newDocument(t)
	p := open(t, cfg, path)
	buildTwoScenes(t, p)

	n, err := p.RenderThumbnails(renderCtx(t), false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	p.View(func(m *storyboard.Model, _ *timeline.Image) {
		for i := 0; i < m.Len(); i++ {
			img, err := m.Thumbnail(i)
			require.NoError(t, err)
			require.NotNil(t, img)
			assert.Equal(t, 32, img.Bounds().Dx())
			assert.Equal(t, 18, img.Bounds().Dy())
		}
	})
	require.NoError(t, p.Save(renderCtx(t)))
	require.NoError(t, p.Close())

	again := open(t, cfg, path)
	n, err = again.RenderThumbnails(renderCtx(t), false)
	require.NoError(t, err)
	assert.Zero(t, n)
	again.View(func(m *storyboard.Model, _ *timeline.Image) {
		img, err := m.Thumbnail(1)
		require.NoError(t, err)
		assert.NotNil(t, img)
	})

	n, err = again.RenderThumbnails(renderCtx(t), true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPaintRerendersShownScenes(t *testing.T) {
	cfg, path := newDocument(t)
	p := open(t, cfg, path)
	buildTwoScenes(t, p)
	_, err := p.RenderThumbnails(renderCtx(t), false)
	require.NoError(t, err)

	var now, key int
	p.View(func(_ *storyboard.Model, img *timeline.Image) {
		now = img.CurrentTime()
		key, _ = img.Layer(0).Channel().ActiveKeyframeTime(now)
	})

	_, err = p.Paint(0, 7)
	require.NoError(t, err)
	p.View(func(_ *storyboard.Model, img *timeline.Image) {
		page, ok := img.Layer(0).Channel().Page(key)
		require.True(t, ok)
		assert.Equal(t, 7, page)
	})
	n, err := p.RenderThumbnails(renderCtx(t), false)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)

	_, err = p.Paint(5, 1)
	assert.ErrorIs(t, err, storyboard.ErrIndexOutOfRange)
}

func TestReloadSourceRendersEverything(t *testing.T) {
	cfg, path := newDocument(t)
	p := open(t, cfg, path)
	buildTwoScenes(t, p)
	_, err := p.RenderThumbnails(renderCtx(t), false)
	require.NoError(t, err)

	require.NoError(t, p.ReloadSource())
	n, err := p.RenderThumbnails(renderCtx(t), false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestExportThumbnails(t *testing.T) {
	cfg, path := newDocument(t)
	p := open(t, cfg, path)
	buildTwoScenes(t, p)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := p.ExportThumbnails(renderCtx(t), dir)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "001-scene_1.png"),
		filepath.Join(dir, "002-scene_2.png"),
	}, paths)
	for _, path := range paths {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestExportName(t *testing.T) {
	assert.Equal(t, "001-scene_1.png", exportName(0, "scene 1"))
	assert.Equal(t, "012-ab_c.png", exportName(11, " a/b c "))
	assert.Equal(t, "004.png", exportName(3, "***"))
}
