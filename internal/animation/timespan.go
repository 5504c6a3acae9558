package animation

import "fmt"

// TimeSpan is an inclusive frame range. An infinite span covers every frame
// at or after Start and ignores End.
type TimeSpan struct {
	Start    int
	End      int
	Infinite bool
}

// FromTimeToTime returns the inclusive span [start, end].
func FromTimeToTime(start, end int) TimeSpan {
	return TimeSpan{Start: start, End: end}
}

// InfiniteFrom returns the span of every frame at or after start.
func InfiniteFrom(start int) TimeSpan {
	return TimeSpan{Start: start, Infinite: true}
}

// IsEmpty reports whether a finite span contains no frames.
func (s TimeSpan) IsEmpty() bool {
	return !s.Infinite && s.End < s.Start
}

// Contains reports whether time lies inside the span.
func (s TimeSpan) Contains(time int) bool {
	if time < s.Start {
		return false
	}
	return s.Infinite || time <= s.End
}

// Intersects reports whether the two spans share at least one frame.
func (s TimeSpan) Intersects(other TimeSpan) bool {
	if s.IsEmpty() || other.IsEmpty() {
		return false
	}
	if !s.Infinite && other.Start > s.End {
		return false
	}
	if !other.Infinite && s.Start > other.End {
		return false
	}
	return true
}

// Shifted returns the span translated by offset frames.
func (s TimeSpan) Shifted(offset int) TimeSpan {
	s.Start += offset
	if !s.Infinite {
		s.End += offset
	}
	return s
}

func (s TimeSpan) String() string {
	if s.Infinite {
		return fmt.Sprintf("[%d, inf)", s.Start)
	}
	return fmt.Sprintf("[%d, %d]", s.Start, s.End)
}
