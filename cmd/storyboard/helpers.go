package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ivlev/storyboard/internal/storyboard"
	"github.com/ivlev/storyboard/internal/undo"
)

func parseInt(value, what string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, value)
	}
	return n, nil
}

func parseInts(values []string, what ...string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		name := "value"
		if i < len(what) {
			name = what[i]
		}
		n, err := parseInt(v, name)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// formatDuration renders a scene duration as seconds and frames, e.g. "2s 06f".
func formatDuration(s *storyboard.Scene) string {
	return fmt.Sprintf("%ds %02df", s.DurationSecond, s.DurationFrame)
}

func describe(cmd undo.Command) string {
	if cmd == nil {
		return "nothing changed"
	}
	return cmd.Text()
}
