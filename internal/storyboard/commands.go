package storyboard

import (
	"reflect"

	"github.com/ivlev/storyboard/internal/animation"
	"github.com/ivlev/storyboard/internal/undo"
)

type keyframe struct {
	time int
	data any
}

type channelState struct {
	channel animation.Channel
	keys    []keyframe
}

// keyframeState is the content of every layer channel of the document.
type keyframeState []channelState

type sceneState struct {
	scene *Scene
	value Scene
}

// sceneListState is the ordered scene list with the field values each scene
// had at capture time. Thumbnails are not part of it.
type sceneListState []sceneState

// modelState is everything an edit may touch.
type modelState struct {
	keys   keyframeState
	scenes sceneListState
	time   int
	hasDoc bool
}

func (m *Model) captureKeyframes() keyframeState {
	if m.doc == nil {
		return nil
	}
	var state keyframeState
	for _, layer := range m.doc.Layers() {
		ch := layer.KeyframeChannel()
		if ch == nil {
			continue
		}
		cs := channelState{channel: ch}
		for _, t := range ch.Times() {
			data, _ := ch.KeyframeData(t)
			cs.keys = append(cs.keys, keyframe{time: t, data: data})
		}
		state = append(state, cs)
	}
	return state
}

func (m *Model) captureScenes() sceneListState {
	state := make(sceneListState, 0, len(m.scenes))
	for _, s := range m.scenes {
		v := *s
		v.Comments = append([]CommentBox(nil), s.Comments...)
		v.Thumbnail.Pixmap = nil
		state = append(state, sceneState{scene: s, value: v})
	}
	return state
}

func (m *Model) capture() modelState {
	st := modelState{keys: m.captureKeyframes(), scenes: m.captureScenes()}
	if m.doc != nil {
		st.hasDoc = true
		st.time = m.doc.CurrentTime()
	}
	return st
}

// restoreKeyframes puts every channel back to state without triggering the
// keyframe hooks. The scenes showing a restored keyframe are rescheduled.
func (m *Model) restoreKeyframes(state keyframeState) {
	type touched struct {
		channel animation.Channel
		time    int
	}
	var changed []touched

	m.suppress++
	for _, cs := range state {
		want := make(map[int]any, len(cs.keys))
		for _, k := range cs.keys {
			want[k.time] = k.data
		}
		for _, t := range cs.channel.Times() {
			if _, ok := want[t]; !ok {
				cs.channel.RemoveKeyframe(t)
				changed = append(changed, touched{cs.channel, t})
			}
		}
		for _, k := range cs.keys {
			if cur, ok := cs.channel.KeyframeData(k.time); ok && reflect.DeepEqual(cur, k.data) {
				continue
			}
			cs.channel.RestoreKeyframe(k.time, k.data)
			changed = append(changed, touched{cs.channel, k.time})
		}
	}
	m.suppress--

	for _, c := range changed {
		m.scheduleKeyframe(c.channel, c.time)
	}
}

func (m *Model) restoreScenes(state sceneListState) {
	scenes := make([]*Scene, 0, len(state))
	for _, st := range state {
		pixmap := st.scene.Thumbnail.Pixmap
		*st.scene = st.value
		st.scene.Comments = append([]CommentBox(nil), st.value.Comments...)
		st.scene.Thumbnail.Pixmap = pixmap
		st.scene.conformComments(m.comments.Len())
		scenes = append(scenes, st.scene)
	}
	m.scenes = scenes
	m.emit(ModelEvent{Kind: LayoutChanged, Index: -1})
	for _, s := range m.scenes {
		m.schedule(s.FrameNumber(), false)
	}
	if m.doc != nil {
		m.currentTimeChanged(m.doc.CurrentTime())
	}
}

func (a keyframeState) equal(b keyframeState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].channel != b[i].channel || len(a[i].keys) != len(b[i].keys) {
			return false
		}
		for j := range a[i].keys {
			ka, kb := a[i].keys[j], b[i].keys[j]
			if ka.time != kb.time || !reflect.DeepEqual(ka.data, kb.data) {
				return false
			}
		}
	}
	return true
}

func (a sceneListState) equal(b sceneListState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].scene != b[i].scene || !reflect.DeepEqual(a[i].value, b[i].value) {
			return false
		}
	}
	return true
}

// stateCommand swaps between two captured states of one aspect of the model.
type stateCommand struct {
	name   string
	before func()
	after  func()
}

func (c *stateCommand) Redo()        { c.after() }
func (c *stateCommand) Undo()        { c.before() }
func (c *stateCommand) Text() string { return c.name }

// diff composes the commands that turn before into after. Aspects that did
// not change are left out; nil means the edit had no effect.
func (m *Model) diff(name string, before, after modelState) undo.Command {
	macro := undo.NewMacro(name)
	if !before.keys.equal(after.keys) {
		macro.Add(&stateCommand{
			name:   name + ": keyframes",
			before: func() { m.restoreKeyframes(before.keys) },
			after:  func() { m.restoreKeyframes(after.keys) },
		})
	}
	if !before.scenes.equal(after.scenes) {
		macro.Add(&stateCommand{
			name:   name + ": scenes",
			before: func() { m.restoreScenes(before.scenes) },
			after:  func() { m.restoreScenes(after.scenes) },
		})
	}
	if before.hasDoc && after.hasDoc && before.time != after.time {
		macro.Add(&stateCommand{
			name:   name + ": time",
			before: func() { m.switchTime(before.time) },
			after:  func() { m.switchTime(after.time) },
		})
	}
	if len(macro.Children) == 0 {
		return nil
	}
	return macro
}

func (m *Model) switchTime(t int) {
	if m.doc != nil {
		m.doc.SwitchTime(t)
	}
}

// Transaction runs fn and returns the applied edit as one command, nil if fn
// changed nothing. Keyframe edits made through the document inside fn are
// captured together with the scene changes their hooks cause. If fn fails
// the model and the document are rolled back. Transactions run while the
// model is locked too; the storyboard then only follows keyframe edits with
// thumbnail updates.
func (m *Model) Transaction(name string, fn func() error) (undo.Command, error) {
	return m.transaction(name, fn)
}

func (m *Model) transaction(name string, fn func() error) (undo.Command, error) {
	before := m.capture()
	if err := fn(); err != nil {
		m.restoreKeyframes(before.keys)
		m.restoreScenes(before.scenes)
		if before.hasDoc {
			m.switchTime(before.time)
		}
		return nil, err
	}
	return m.diff(name, before, m.capture()), nil
}
