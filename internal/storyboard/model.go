package storyboard

import (
	"fmt"
	"image"
	"sort"

	"go.uber.org/zap"

	"github.com/ivlev/storyboard/internal/animation"
)

// DefaultFramerate is used while no document is attached.
const DefaultFramerate = 24

// DefaultScenePrefix names new scenes "scene 1", "scene 2" and so on.
const DefaultScenePrefix = "scene "

// ThumbnailScheduler receives frames whose thumbnails went stale. Direct
// frames were edited themselves; the others merely moved or were affected by
// an edit elsewhere in their scene.
type ThumbnailScheduler interface {
	ScheduleFrame(frame int, direct bool)
	CancelFrame(frame int)
	CancelAll()
}

// Model is the ordered scene list. It keeps scene frame numbers contiguous,
// keeps durations consistent with the frame rate and mirrors scene edits onto
// the keyframes of the attached animation document.
//
// A Model is not safe for concurrent use; it lives on the edit goroutine.
type Model struct {
	scenes   []*Scene
	comments *CommentSchema

	doc        animation.Document
	unsubDoc   func()
	unsubNotes func()

	scheduler ThumbnailScheduler
	logger    *zap.Logger

	fps        int
	locked     bool
	freeze     bool
	suppress   int
	lastScene  int
	namePrefix string
	current    int

	listeners  map[int]func(ModelEvent)
	nextListen int
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithScheduler sets the thumbnail scheduler notified of stale frames.
func WithScheduler(s ThumbnailScheduler) Option {
	return func(m *Model) { m.scheduler = s }
}

// WithScenePrefix sets the prefix of generated scene names.
func WithScenePrefix(prefix string) Option {
	return func(m *Model) { m.namePrefix = prefix }
}

// WithCommentSchema attaches a shared comment schema.
func WithCommentSchema(schema *CommentSchema) Option {
	return func(m *Model) { m.comments = schema }
}

// New creates an empty model.
func New(opts ...Option) *Model {
	m := &Model{
		logger:     zap.NewNop(),
		fps:        DefaultFramerate,
		namePrefix: DefaultScenePrefix,
		current:    -1,
		listeners:  make(map[int]func(ModelEvent)),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.comments == nil {
		m.comments = NewCommentSchema()
	}
	m.unsubNotes = m.comments.Subscribe(m.handleCommentEvent)
	return m
}

// Close detaches the model from its document and comment schema.
func (m *Model) Close() {
	m.SetDocument(nil)
	if m.unsubNotes != nil {
		m.unsubNotes()
		m.unsubNotes = nil
	}
}

// SetDocument attaches the animation document the model synchronizes with.
// Passing nil detaches it; keyframe operations then become no-ops. Every
// pending thumbnail of the previous document is dropped and every scene of
// the new one is scheduled.
func (m *Model) SetDocument(doc animation.Document) {
	if m.unsubDoc != nil {
		m.unsubDoc()
		m.unsubDoc = nil
	}
	if m.scheduler != nil {
		m.scheduler.CancelAll()
	}
	m.doc = doc
	if doc == nil {
		return
	}
	if fps := doc.Framerate(); fps > 0 && fps != m.fps {
		m.recomputeDurations(m.fps, fps)
	}
	m.unsubDoc = doc.Subscribe(m.handleDocumentEvent)
	for _, s := range m.scenes {
		m.schedule(s.FrameNumber(), true)
	}
	m.currentTimeChanged(doc.CurrentTime())
}

// Document returns the attached document, nil if none.
func (m *Model) Document() animation.Document { return m.doc }

// SetScheduler replaces the thumbnail scheduler.
func (m *Model) SetScheduler(s ThumbnailScheduler) { m.scheduler = s }

// CommentSchema returns the shared comment schema.
func (m *Model) CommentSchema() *CommentSchema { return m.comments }

// Framerate returns the frame rate durations are expressed in.
func (m *Model) Framerate() int { return m.fps }

// SetLocked blocks or allows edits.
func (m *Model) SetLocked(locked bool) { m.locked = locked }

func (m *Model) IsLocked() bool { return m.locked }

// SetFreezeKeyframePositions decouples scene edits from the keyframes: with
// freezing on, only the scene bookkeeping changes.
func (m *Model) SetFreezeKeyframePositions(freeze bool) { m.freeze = freeze }

func (m *Model) FreezeKeyframePositions() bool { return m.freeze }

// Len returns the number of scenes.
func (m *Model) Len() int { return len(m.scenes) }

// Scene returns the scene at i.
func (m *Model) Scene(i int) (*Scene, error) {
	if err := m.checkScene(i); err != nil {
		return nil, err
	}
	return m.scenes[i], nil
}

// Scenes returns the scene list. The slice is a copy; the scenes are shared.
func (m *Model) Scenes() []*Scene {
	return append([]*Scene(nil), m.scenes...)
}

// Reset replaces the scene list, conforming comment boxes to the schema and
// frame numbers to the contiguity invariant starting at the first scene.
// Scenes shorter than one frame are raised to one frame.
func (m *Model) Reset(scenes []*Scene) {
	if m.scheduler != nil {
		m.scheduler.CancelAll()
	}
	m.scenes = append([]*Scene(nil), scenes...)
	for i, s := range m.scenes {
		s.conformComments(m.comments.Len())
		switch total := s.TotalFrames(m.fps); {
		case total < 1:
			m.logger.Debug("empty scene raised to one frame", zap.Int("scene", i))
			s.SetTotalFrames(1, m.fps)
		case s.DurationFrame >= m.fps:
			s.SetTotalFrames(total, m.fps)
		}
	}
	m.recomputeFrameNumbers(1)
	m.lastScene = len(m.scenes)
	m.current = -1
	if m.doc != nil {
		m.currentTimeChanged(m.doc.CurrentTime())
		for _, s := range m.scenes {
			m.schedule(s.FrameNumber(), true)
		}
	}
	m.emit(ModelEvent{Kind: LayoutChanged, Index: -1})
}

// Data returns the value of a field of scene i.
func (m *Model) Data(i, field int) (any, error) {
	if err := m.checkField(i, field); err != nil {
		return nil, err
	}
	v, _ := m.scenes[i].Value(field)
	return v, nil
}

// Thumbnail returns the rendered thumbnail of scene i, nil if none yet.
func (m *Model) Thumbnail(i int) (image.Image, error) {
	if err := m.checkScene(i); err != nil {
		return nil, err
	}
	return m.scenes[i].Thumbnail.Pixmap, nil
}

// CommentScroll returns the scroll offset of a comment box.
func (m *Model) CommentScroll(i, comment int) (int, error) {
	if err := m.checkField(i, Comments+comment); err != nil {
		return 0, err
	}
	return m.scenes[i].Comments[comment].ScrollValue, nil
}

// SetCommentScroll stores the scroll offset of a comment box.
func (m *Model) SetCommentScroll(i, comment, value int) error {
	if m.locked {
		return ErrLocked
	}
	if err := m.checkField(i, Comments+comment); err != nil {
		return err
	}
	m.scenes[i].Comments[comment].ScrollValue = value
	m.emit(ModelEvent{Kind: DataChanged, Index: i, Field: Comments + comment})
	return nil
}

// SetThumbnail stores a rendered thumbnail into scene i.
func (m *Model) SetThumbnail(i int, img image.Image) error {
	if err := m.checkScene(i); err != nil {
		return err
	}
	m.scenes[i].Thumbnail.Pixmap = img
	m.emit(ModelEvent{Kind: ThumbnailChanged, Index: i, Field: FrameNumber})
	return nil
}

// TotalSceneDurationInFrames returns DurationSecond*fps + DurationFrame.
func (m *Model) TotalSceneDurationInFrames(i int) (int, error) {
	if err := m.checkScene(i); err != nil {
		return 0, err
	}
	return m.totalFrames(i), nil
}

// TotalSceneDurationInSeconds returns the scene length in seconds.
func (m *Model) TotalSceneDurationInSeconds(i int) (float64, error) {
	frames, err := m.TotalSceneDurationInFrames(i)
	if err != nil {
		return 0, err
	}
	return float64(frames) / float64(m.fps), nil
}

// IndexFromFrame returns the scene starting exactly at frame.
func (m *Model) IndexFromFrame(frame int) (int, bool) {
	i := sort.Search(len(m.scenes), func(i int) bool {
		return m.scenes[i].FrameNumber() >= frame
	})
	if i < len(m.scenes) && m.scenes[i].FrameNumber() == frame {
		return i, true
	}
	return -1, false
}

// LastSceneStartingAtOrBefore returns the closest scene starting at or before
// frame.
func (m *Model) LastSceneStartingAtOrBefore(frame int) (int, bool) {
	i := sort.Search(len(m.scenes), func(i int) bool {
		return m.scenes[i].FrameNumber() > frame
	})
	if i == 0 {
		return -1, false
	}
	return i - 1, true
}

// SceneContaining returns the scene whose range holds frame.
func (m *Model) SceneContaining(frame int) (int, bool) {
	i, ok := m.LastSceneStartingAtOrBefore(frame)
	if !ok || frame >= m.sceneEnd(i) {
		return -1, false
	}
	return i, true
}

// AffectedScenes returns every scene whose frame range intersects span.
func (m *Model) AffectedScenes(span animation.TimeSpan) []int {
	var out []int
	for i := range m.scenes {
		if m.sceneSpan(i).Intersects(span) {
			out = append(out, i)
		}
	}
	return out
}

// SceneSpan returns the inclusive frame range of scene i.
func (m *Model) SceneSpan(i int) (animation.TimeSpan, error) {
	if err := m.checkScene(i); err != nil {
		return animation.TimeSpan{}, err
	}
	return m.sceneSpan(i), nil
}

// SelectScene makes scene i current by switching the document time to its
// first frame.
func (m *Model) SelectScene(i int) error {
	if err := m.checkScene(i); err != nil {
		return err
	}
	if m.doc == nil {
		m.setCurrent(i)
		return nil
	}
	m.doc.SwitchTime(m.scenes[i].FrameNumber())
	return nil
}

// CurrentScene returns the scene holding the document's current time.
func (m *Model) CurrentScene() (int, bool) {
	return m.current, m.current >= 0
}

func (m *Model) sceneSpan(i int) animation.TimeSpan {
	start := m.scenes[i].FrameNumber()
	return animation.FromTimeToTime(start, start+m.totalFrames(i)-1)
}

func (m *Model) totalFrames(i int) int { return m.scenes[i].TotalFrames(m.fps) }

func (m *Model) sceneEnd(i int) int { return m.scenes[i].FrameNumber() + m.totalFrames(i) }

// storyboardEnd is the frame right after the last scene.
func (m *Model) storyboardEnd() int {
	if len(m.scenes) == 0 {
		return 0
	}
	return m.sceneEnd(len(m.scenes) - 1)
}

// recomputeFrameNumbers rewrites the frame number of every scene from index
// from onward as the end of its predecessor. Moved frames are rescheduled.
func (m *Model) recomputeFrameNumbers(from int) {
	if from < 1 {
		from = 1
	}
	for i := from; i < len(m.scenes); i++ {
		want := m.sceneEnd(i - 1)
		old := m.scenes[i].FrameNumber()
		if old == want {
			continue
		}
		m.scenes[i].Thumbnail.Frame = want
		m.reschedule(old, want)
	}
}

func (m *Model) checkScene(i int) error {
	if i < 0 || i >= len(m.scenes) {
		return fmt.Errorf("scene %d of %d: %w", i, len(m.scenes), ErrIndexOutOfRange)
	}
	return nil
}

func (m *Model) checkField(i, field int) error {
	if err := m.checkScene(i); err != nil {
		return err
	}
	if field < 0 || field >= m.scenes[i].FieldCount() {
		return fmt.Errorf("field %d of scene %d: %w", field, i, ErrIndexOutOfRange)
	}
	return nil
}

func (m *Model) nextSceneName() string {
	m.lastScene++
	return fmt.Sprintf("%s%d", m.namePrefix, m.lastScene)
}

func (m *Model) schedule(frame int, direct bool) {
	if m.scheduler == nil || m.doc == nil {
		return
	}
	m.scheduler.ScheduleFrame(frame, direct)
}

func (m *Model) reschedule(oldFrame, newFrame int) {
	if m.scheduler == nil || m.doc == nil {
		return
	}
	m.scheduler.CancelFrame(oldFrame)
	m.scheduler.ScheduleFrame(newFrame, false)
}

func (m *Model) setCurrent(i int) {
	if m.current == i {
		return
	}
	m.current = i
	m.emit(ModelEvent{Kind: CurrentSceneChanged, Index: i})
}
