package animation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeSpanContains(t *testing.T) {
	span := FromTimeToTime(5, 9)
	assert.False(t, span.Contains(4))
	assert.True(t, span.Contains(5))
	assert.True(t, span.Contains(9))
	assert.False(t, span.Contains(10))

	inf := InfiniteFrom(3)
	assert.False(t, inf.Contains(2))
	assert.True(t, inf.Contains(3))
	assert.True(t, inf.Contains(1<<30))
}

func TestTimeSpanIntersects(t *testing.T) {
	cases := []struct {
		name string
		a, b TimeSpan
		want bool
	}{
		{"overlap", FromTimeToTime(0, 5), FromTimeToTime(5, 8), true},
		{"disjoint", FromTimeToTime(0, 4), FromTimeToTime(5, 8), false},
		{"infinite after", FromTimeToTime(0, 4), InfiniteFrom(5), false},
		{"infinite covers", FromTimeToTime(10, 12), InfiniteFrom(5), true},
		{"both infinite", InfiniteFrom(100), InfiniteFrom(5), true},
		{"empty", FromTimeToTime(3, 2), FromTimeToTime(0, 10), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Intersects(tc.b))
			assert.Equal(t, tc.want, tc.b.Intersects(tc.a))
		})
	}
}

func TestTimeSpanShifted(t *testing.T) {
	assert.Equal(t, FromTimeToTime(7, 11), FromTimeToTime(5, 9).Shifted(2))
	assert.Equal(t, InfiniteFrom(1), InfiniteFrom(4).Shifted(-3))
	assert.Equal(t, "[1, inf)", InfiniteFrom(1).String())
}
