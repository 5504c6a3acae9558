package storyboard

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/storyboard/internal/animation"
	"github.com/ivlev/storyboard/internal/timeline"
)

type scheduled struct {
	frame  int
	direct bool
}

type recordingScheduler struct {
	scheduled []scheduled
	cancelled []int
	resets    int
}

func (r *recordingScheduler) ScheduleFrame(frame int, direct bool) {
	r.scheduled = append(r.scheduled, scheduled{frame, direct})
}

func (r *recordingScheduler) CancelFrame(frame int) { r.cancelled = append(r.cancelled, frame) }

func (r *recordingScheduler) CancelAll() { r.resets++ }

func newFixture(t *testing.T, opts ...Option) (*Model, *timeline.Image, *timeline.Layer) {
	t.Helper()
	img := timeline.NewImage(64, 36, 24)
	layer := img.AddLayer("layer 1", true)
	m := New(opts...)
	m.SetDocument(img)
	t.Cleanup(m.Close)
	return m, img, layer
}

func insert(t *testing.T, m *Model, at int, after bool) {
	t.Helper()
	_, err := m.InsertScene(at, after)
	require.NoError(t, err)
}

func resize(t *testing.T, m *Model, i, frames int) {
	t.Helper()
	_, got, err := m.SetSceneDurationFrames(i, frames)
	require.NoError(t, err)
	require.Equal(t, frames, got)
}

func frames(m *Model) []int {
	out := make([]int, 0, m.Len())
	for _, s := range m.Scenes() {
		out = append(out, s.FrameNumber())
	}
	return out
}

func duration(m *Model, i int) [2]int {
	s := m.Scenes()[i]
	return [2]int{s.DurationSecond, s.DurationFrame}
}

func requireContiguous(t *testing.T, m *Model) {
	t.Helper()
	scenes := m.Scenes()
	for i, s := range scenes {
		require.GreaterOrEqual(t, s.DurationFrame, 0)
		require.Less(t, s.DurationFrame, m.Framerate())
		require.Positive(t, s.TotalFrames(m.Framerate()), "scene %d", i)
		if i+1 < len(scenes) {
			require.Equal(t, s.FrameNumber()+s.TotalFrames(m.Framerate()), scenes[i+1].FrameNumber(),
				"scene %d does not end where scene %d starts", i, i+1)
		}
	}
}

func TestInsertSceneAddsKeyframes(t *testing.T) {
	sched := &recordingScheduler{}
	m, img, layer := newFixture(t, WithScheduler(sched))

	insert(t, m, 0, false)
	insert(t, m, 0, true)
	insert(t, m, 1, true)

	assert.Equal(t, []int{0, 1, 2}, frames(m))
	assert.Equal(t, []int{0, 1, 2}, layer.Channel().Times())
	assert.Equal(t, "scene 3", m.Scenes()[2].Name)
	assert.Equal(t, 2, img.CurrentTime())
	cur, ok := m.CurrentScene()
	require.True(t, ok)
	assert.Equal(t, 2, cur)
	assert.Contains(t, sched.scheduled, scheduled{2, true})

	// Inserting at the front pushes every keyframe one frame back.
	insert(t, m, 0, false)
	assert.Equal(t, []int{0, 1, 2, 3}, frames(m))
	assert.Equal(t, []int{0, 1, 2, 3}, layer.Channel().Times())
	assert.Equal(t, "scene 4", m.Scenes()[0].Name)
	requireContiguous(t, m)
}

func TestInsertSceneRejectsBadIndex(t *testing.T) {
	m, _, _ := newFixture(t)

	_, err := m.InsertScene(1, false)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	insert(t, m, 0, false)
	_, err = m.InsertScene(1, true)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = m.InsertScene(-1, false)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	insert(t, m, 1, false)
	assert.Equal(t, 2, m.Len())
}

func TestKeyframeEditsGrowScenes(t *testing.T) {
	sched := &recordingScheduler{}
	m, _, layer := newFixture(t, WithScheduler(sched))
	insert(t, m, 0, false)
	require.Equal(t, [2]int{0, 1}, duration(m, 0))

	layer.Channel().AddKeyframe(5)
	assert.Equal(t, [2]int{0, 6}, duration(m, 0))

	layer.Channel().MoveKeyframe(5, 25)
	n, err := m.TotalSceneDurationInFrames(0)
	require.NoError(t, err)
	assert.Equal(t, 26, n)
	assert.Equal(t, [2]int{1, 2}, duration(m, 0))

	insert(t, m, 0, true)
	assert.Equal(t, []int{0, 26}, frames(m))
	assert.Equal(t, []int{0, 25, 26}, layer.Channel().Times())
	assert.Contains(t, sched.scheduled, scheduled{26, true})
	requireContiguous(t, m)
}

func twoScenes(t *testing.T, m *Model) {
	t.Helper()
	insert(t, m, 0, false)
	resize(t, m, 0, 26)
	insert(t, m, 0, true)
	require.Equal(t, []int{0, 26}, frames(m))
}

func TestRemoveSceneShiftsLaterKeyframes(t *testing.T) {
	m, img, layer := newFixture(t)
	second := img.AddLayer("layer 2", true)
	twoScenes(t, m)

	layer.Channel().AddKeyframe(10)
	layer.Channel().AddKeyframe(30)
	second.Channel().AddKeyframe(12)
	second.Channel().AddKeyframe(28)
	require.Equal(t, []int{0, 10, 26, 30}, layer.Channel().Times())
	require.Equal(t, [2]int{0, 5}, duration(m, 1))

	img.SwitchTime(26)
	cmd, err := m.RemoveScene(0)
	require.NoError(t, err)
	require.NotNil(t, cmd)

	assert.Equal(t, []int{0}, frames(m))
	assert.Equal(t, []int{0, 4}, layer.Channel().Times())
	assert.Equal(t, []int{2}, second.Channel().Times())
	assert.Equal(t, 26, img.CurrentTime())

	cmd.Undo()
	assert.Equal(t, []int{0, 26}, frames(m))
	assert.Equal(t, []int{0, 10, 26, 30}, layer.Channel().Times())
	assert.Equal(t, []int{12, 28}, second.Channel().Times())

	cmd.Redo()
	assert.Equal(t, []int{0}, frames(m))
	assert.Equal(t, []int{0, 4}, layer.Channel().Times())
	requireContiguous(t, m)
}

func TestRemoveSceneFollowsCurrentTime(t *testing.T) {
	m, img, _ := newFixture(t)
	twoScenes(t, m)

	require.Equal(t, 26, img.CurrentTime())
	_, err := m.RemoveScene(1)
	require.NoError(t, err)
	assert.Equal(t, 0, img.CurrentTime())
	cur, ok := m.CurrentScene()
	require.True(t, ok)
	assert.Equal(t, 0, cur)
}

func TestDurationNeverTruncatesKeyframes(t *testing.T) {
	m, img, layer := newFixture(t)
	second := img.AddLayer("layer 2", true)
	twoScenes(t, m)
	layer.Channel().AddKeyframe(12)
	second.Channel().AddKeyframe(20)

	cmd, got, err := m.SetSceneDurationFrames(0, 5)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, 21, got)
	assert.Equal(t, [2]int{0, 21}, duration(m, 0))
	assert.Equal(t, []int{0, 21}, frames(m))
	assert.Equal(t, []int{0, 12, 21}, layer.Channel().Times())

	// Asking for less than the clamp again changes nothing.
	cmd, got, err = m.SetSceneDurationFrames(0, 3)
	require.NoError(t, err)
	assert.Nil(t, cmd)
	assert.Equal(t, 21, got)

	cmd, got, err = m.SetSceneDuration(0, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 48, got)
	assert.Equal(t, [2]int{2, 0}, duration(m, 0))
	assert.Equal(t, []int{0, 12, 48}, layer.Channel().Times())

	cmd.Undo()
	assert.Equal(t, []int{0, 21}, frames(m))
	assert.Equal(t, []int{0, 12, 21}, layer.Channel().Times())
	requireContiguous(t, m)
}

func TestFramerateChangeKeepsSpans(t *testing.T) {
	m, img, _ := newFixture(t)
	twoScenes(t, m)
	resize(t, m, 1, 5)
	require.Equal(t, [2]int{1, 2}, duration(m, 0))

	img.SetFramerate(25)
	assert.Equal(t, 25, m.Framerate())
	assert.Equal(t, [2]int{1, 1}, duration(m, 0))
	assert.Equal(t, [2]int{0, 5}, duration(m, 1))
	assert.Equal(t, []int{0, 26}, frames(m))

	img.SetFramerate(12)
	assert.Equal(t, [2]int{2, 2}, duration(m, 0))

	img.SetFramerate(24)
	assert.Equal(t, [2]int{1, 2}, duration(m, 0))
	assert.Equal(t, [2]int{0, 5}, duration(m, 1))
	requireContiguous(t, m)
}

func TestSetFieldValidation(t *testing.T) {
	m, _, layer := newFixture(t)
	twoScenes(t, m)

	_, err := m.SetField(0, DurationSecond, -1)
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = m.SetField(0, ItemName, 42)
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = m.SetField(1, FrameNumber, 3)
	assert.ErrorIs(t, err, ErrInvalidValue)
	_, err = m.SetField(0, Comments, "text")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = m.SetField(2, ItemName, "x")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	cmd, err := m.SetField(1, ItemName, "opening")
	require.NoError(t, err)
	v, err := m.Data(1, ItemName)
	require.NoError(t, err)
	assert.Equal(t, "opening", v)
	cmd.Undo()
	v, _ = m.Data(1, ItemName)
	assert.Equal(t, "scene 2", v)

	_, err = m.SetField(1, DurationFrame, 30)
	require.NoError(t, err)
	assert.Equal(t, [2]int{1, 6}, duration(m, 1))

	_, err = m.SetField(0, FrameNumber, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 36}, frames(m))
	assert.Equal(t, []int{10, 36}, layer.Channel().Times())
}

func TestKeyframeBeforeFirstScenePrependsScene(t *testing.T) {
	m, _, layer := newFixture(t)
	insert(t, m, 0, false)
	_, err := m.SetField(0, FrameNumber, 10)
	require.NoError(t, err)

	layer.Channel().AddKeyframe(4)
	require.Equal(t, 2, m.Len())
	assert.Equal(t, []int{4, 10}, frames(m))
	assert.Equal(t, [2]int{0, 6}, duration(m, 0))

	_, err = m.SetField(0, FrameNumber, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 8}, frames(m))

	// Moving the storyboard over an earlier keyframe is refused.
	layer.Channel().RemoveKeyframe(2)
	m.SetLocked(true)
	layer.Channel().AddKeyframe(1)
	m.SetLocked(false)
	_, err = m.SetField(0, FrameNumber, 0)
	assert.ErrorIs(t, err, ErrInvalidValue)
	requireContiguous(t, m)
}

func TestKeyframeOnEmptyStoryboardCreatesScene(t *testing.T) {
	m, _, layer := newFixture(t)

	layer.Channel().AddKeyframe(7)
	require.Equal(t, 1, m.Len())
	assert.Equal(t, []int{7}, frames(m))
	assert.Equal(t, [2]int{0, 1}, duration(m, 0))
}

func TestLockedModelRejectsEdits(t *testing.T) {
	m, _, layer := newFixture(t)
	insert(t, m, 0, false)
	m.SetLocked(true)

	_, err := m.InsertScene(0, true)
	assert.True(t, errors.Is(err, ErrLocked))
	_, err = m.RemoveScene(0)
	assert.ErrorIs(t, err, ErrLocked)
	_, _, err = m.SetSceneDurationFrames(0, 10)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = m.MoveScenes(0, 1, 1)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = m.SetField(0, ItemName, "x")
	assert.ErrorIs(t, err, ErrLocked)

	// Keyframe hooks leave a locked storyboard alone.
	layer.Channel().AddKeyframe(40)
	assert.Equal(t, [2]int{0, 1}, duration(m, 0))
	assert.Equal(t, 1, m.Len())
}

func TestFreezeLeavesKeyframesAlone(t *testing.T) {
	m, _, layer := newFixture(t)
	twoScenes(t, m)
	m.SetFreezeKeyframePositions(true)

	insert(t, m, 0, false)
	assert.Equal(t, []int{0, 1, 27}, frames(m))
	assert.Equal(t, []int{0, 26}, layer.Channel().Times())

	_, err := m.RemoveScene(1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 26}, layer.Channel().Times())

	resize(t, m, 0, 3)
	assert.Equal(t, []int{0, 3}, frames(m))
	assert.Equal(t, []int{0, 26}, layer.Channel().Times())

	layer.Channel().AddKeyframe(90)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, [2]int{0, 1}, duration(m, 1))
}

func TestLookups(t *testing.T) {
	m, _, _ := newFixture(t)
	twoScenes(t, m)
	resize(t, m, 1, 4)
	insert(t, m, 1, true)
	require.Equal(t, []int{0, 26, 30}, frames(m))

	i, ok := m.IndexFromFrame(26)
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = m.IndexFromFrame(27)
	assert.False(t, ok)

	i, ok = m.LastSceneStartingAtOrBefore(29)
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	i, ok = m.LastSceneStartingAtOrBefore(100)
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = m.SceneContaining(31)
	assert.False(t, ok)

	assert.Equal(t, []int{0, 1}, m.AffectedScenes(animation.FromTimeToTime(20, 26)))
	assert.Equal(t, []int{1, 2}, m.AffectedScenes(animation.InfiniteFrom(29)))
	assert.Empty(t, m.AffectedScenes(animation.FromTimeToTime(31, 40)))

	sec, err := m.TotalSceneDurationInSeconds(1)
	require.NoError(t, err)
	assert.InDelta(t, 4.0/24.0, sec, 1e-9)
}

func TestSelectSceneSwitchesTime(t *testing.T) {
	var events []ModelEvent
	m, img, _ := newFixture(t)
	twoScenes(t, m)
	cancel := m.Subscribe(func(ev ModelEvent) { events = append(events, ev) })
	defer cancel()

	require.NoError(t, m.SelectScene(0))
	assert.Equal(t, 0, img.CurrentTime())
	require.NotEmpty(t, events)
	assert.Equal(t, ModelEvent{Kind: CurrentSceneChanged, Index: 0}, events[len(events)-1])

	img.SwitchTime(40)
	_, ok := m.CurrentScene()
	assert.False(t, ok)
	assert.ErrorIs(t, m.SelectScene(5), ErrIndexOutOfRange)
}

func TestFrameCompletedStoresThumbnail(t *testing.T) {
	m, _, _ := newFixture(t)
	twoScenes(t, m)

	m.FrameCompleted(26, testPixmap())
	img, err := m.Thumbnail(1)
	require.NoError(t, err)
	assert.NotNil(t, img)

	m.FrameCompleted(13, testPixmap())
	img, err = m.Thumbnail(0)
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestUpdateThumbnailsSchedulesActiveSpan(t *testing.T) {
	sched := &recordingScheduler{}
	m, img, layer := newFixture(t, WithScheduler(sched))
	twoScenes(t, m)
	insert(t, m, 1, true)
	require.Equal(t, []int{0, 26, 27}, frames(m))
	layer.Channel().RemoveKeyframe(27)

	img.SwitchTime(26)
	sched.scheduled = nil
	m.UpdateThumbnails()
	assert.Equal(t, []scheduled{{26, true}, {27, false}}, sched.scheduled)
}

func TestSetDocumentResetsScheduler(t *testing.T) {
	sched := &recordingScheduler{}
	m, _, _ := newFixture(t, WithScheduler(sched))
	twoScenes(t, m)
	before := sched.resets

	other := timeline.NewImage(64, 36, 12)
	m.SetDocument(other)
	assert.Equal(t, before+1, sched.resets)
	assert.Equal(t, 12, m.Framerate())
	assert.Equal(t, [2]int{2, 2}, duration(m, 0))

	m.SetDocument(nil)
	_, err := m.InsertScene(0, false)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 27}, frames(m))
}

func TestRandomEditsKeepScenesContiguous(t *testing.T) {
	m, img, layer := newFixture(t)
	second := img.AddLayer("layer 2", true)
	rng := rand.New(rand.NewSource(7))

	for step := 0; step < 300; step++ {
		n := m.Len()
		switch op := rng.Intn(6); {
		case op == 0 || n == 0:
			at := 0
			if n > 0 {
				at = rng.Intn(n)
			}
			_, err := m.InsertScene(at, n > 0 && rng.Intn(2) == 0)
			require.NoError(t, err)
		case op == 1 && n > 1:
			_, err := m.RemoveScene(rng.Intn(n))
			require.NoError(t, err)
		case op == 2:
			_, _, err := m.SetSceneDurationFrames(rng.Intn(n), rng.Intn(60))
			require.NoError(t, err)
		case op == 3:
			from := rng.Intn(n)
			count := 1 + rng.Intn(n-from)
			_, err := m.MoveScenes(from, count, rng.Intn(n+1))
			require.NoError(t, err)
		case op == 4:
			s := m.Scenes()[rng.Intn(n)]
			total := s.TotalFrames(m.Framerate())
			ch := layer.Channel()
			if rng.Intn(2) == 0 {
				ch = second.Channel()
			}
			ch.AddKeyframe(s.FrameNumber() + rng.Intn(total))
		default:
			img.SetFramerate(12 + rng.Intn(20))
		}
		requireContiguous(t, m)
	}
}

func TestResetRaisesEmptyScenes(t *testing.T) {
	m, _, _ := newFixture(t)
	a, b := NewScene(0), NewScene(0)
	a.Name, b.Name = "A", "B"
	b.DurationFrame = 5

	m.Reset([]*Scene{a, b})
	assert.Equal(t, []int{0, 1}, frames(m))
	assert.Equal(t, [2]int{0, 1}, duration(m, 0))
	assert.Equal(t, [2]int{0, 5}, duration(m, 1))
	requireContiguous(t, m)

	i, ok := m.IndexFromFrame(0)
	require.True(t, ok)
	assert.Equal(t, 0, i)
	i, ok = m.IndexFromFrame(1)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	m.FrameCompleted(1, testPixmap())
	got, err := m.Thumbnail(1)
	require.NoError(t, err)
	assert.NotNil(t, got)
	got, err = m.Thumbnail(0)
	require.NoError(t, err)
	assert.Nil(t, got)
}
