package animation

// EventKind enumerates document notifications.
type EventKind int

const (
	KeyframeAdded EventKind = iota
	KeyframeRemoved
	KeyframeMoved
	FramerateChanged
	TimeChanged
	ImageUpdated
)

func (k EventKind) String() string {
	switch k {
	case KeyframeAdded:
		return "keyframe_added"
	case KeyframeRemoved:
		return "keyframe_removed"
	case KeyframeMoved:
		return "keyframe_moved"
	case FramerateChanged:
		return "framerate_changed"
	case TimeChanged:
		return "time_changed"
	case ImageUpdated:
		return "image_updated"
	default:
		return "unknown"
	}
}

// Event describes a change in the animation document.
//
// Time is the keyframe time for added/removed, the destination for moved and
// the new time for TimeChanged. From is only set for KeyframeMoved. Framerate
// carries the new and OldFramerate the previous rate for FramerateChanged.
type Event struct {
	Kind         EventKind
	Channel      Channel
	Time         int
	From         int
	Framerate    int
	OldFramerate int
}
