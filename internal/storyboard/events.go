package storyboard

// ModelEventKind enumerates model notifications.
type ModelEventKind int

const (
	SceneInserted ModelEventKind = iota
	SceneRemoved
	ScenesMoved
	DataChanged
	ThumbnailChanged
	CurrentSceneChanged
	LayoutChanged
)

func (k ModelEventKind) String() string {
	switch k {
	case SceneInserted:
		return "scene_inserted"
	case SceneRemoved:
		return "scene_removed"
	case ScenesMoved:
		return "scenes_moved"
	case DataChanged:
		return "data_changed"
	case ThumbnailChanged:
		return "thumbnail_changed"
	case CurrentSceneChanged:
		return "current_scene_changed"
	case LayoutChanged:
		return "layout_changed"
	default:
		return "unknown"
	}
}

// ModelEvent describes a change of the scene list. Index is the scene the
// event refers to; Count and To are only set for moves. Index is -1 for a
// CurrentSceneChanged event that leaves no scene selected.
type ModelEvent struct {
	Kind  ModelEventKind
	Index int
	Count int
	To    int
	Field int
}

// Subscribe registers fn for model events. The returned func removes it.
func (m *Model) Subscribe(fn func(ModelEvent)) (cancel func()) {
	id := m.nextListen
	m.nextListen++
	m.listeners[id] = fn
	return func() { delete(m.listeners, id) }
}

func (m *Model) emit(ev ModelEvent) {
	for id := 0; id < m.nextListen; id++ {
		if fn, ok := m.listeners[id]; ok {
			fn(ev)
		}
	}
}

// handleCommentEvent keeps every scene's comment boxes in step with the shared
// schema. It applies while the model is locked too: the schema is not scene
// data, and a locked scene with a stale box count would break Data lookups.
func (m *Model) handleCommentEvent(ev CommentEvent) {
	switch ev.Kind {
	case CommentsInserted:
		for _, s := range m.scenes {
			s.insertComments(ev.Index, ev.Count)
		}
	case CommentsRemoved:
		for _, s := range m.scenes {
			s.removeComments(ev.Index, ev.Count)
		}
	case CommentsMoved:
		for _, s := range m.scenes {
			s.moveComments(ev.Index, ev.Count, ev.To)
		}
	default:
		return
	}
	m.emit(ModelEvent{Kind: LayoutChanged, Index: -1})
}
