package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/storyboard/internal/engine"
	"github.com/ivlev/storyboard/internal/storyboard"
	"github.com/ivlev/storyboard/internal/timeline"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var showKeys bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the scene list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd.Context(), false, func(p *engine.Project) error {
				p.View(func(m *storyboard.Model, img *timeline.Image) {
					printf(cmd, "%s\n", summary(p.Path(), m, img))
					printf(cmd, "%s\n", sceneTable(m))
					if showKeys {
						printf(cmd, "%s\n", keyTable(img))
					}
				})
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showKeys, "keys", false, "Also list keyframes per layer")
	return cmd
}

func summary(path string, m *storyboard.Model, img *timeline.Image) string {
	total := 0
	for i := 0; i < m.Len(); i++ {
		n, _ := m.TotalSceneDurationInFrames(i)
		total += n
	}
	flags := []string{}
	if m.IsLocked() {
		flags = append(flags, "locked")
	}
	if m.FreezeKeyframePositions() {
		flags = append(flags, "frozen keyframes")
	}
	line := fmt.Sprintf("[*] %s | %d FPS | %d scenes | %d frames | time %d",
		path, m.Framerate(), m.Len(), total, img.CurrentTime())
	if len(flags) > 0 {
		line += " | " + strings.Join(flags, ", ")
	}
	return line
}

func sceneTable(m *storyboard.Model) string {
	schema := m.CommentSchema()
	headers := []string{"#", "Name", "Frame", "Duration", "Frames", "Thumb"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft}
	var visible []int
	for i, c := range schema.List() {
		if c.Visible {
			visible = append(visible, i)
			headers = append(headers, c.Name)
			aligns = append(aligns, alignLeft)
		}
	}

	current, _ := m.CurrentScene()
	rows := make([][]string, 0, m.Len())
	for i, s := range m.Scenes() {
		index := strconv.Itoa(i)
		if i == current {
			index = ">" + index
		}
		thumb := "-"
		if s.Thumbnail.Pixmap != nil {
			b := s.Thumbnail.Pixmap.Bounds()
			thumb = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
		}
		frames, _ := m.TotalSceneDurationInFrames(i)
		row := []string{index, s.Name, strconv.Itoa(s.FrameNumber()), formatDuration(s), strconv.Itoa(frames), thumb}
		for _, c := range visible {
			row = append(row, s.Comments[c].Content)
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}

func keyTable(img *timeline.Image) string {
	headers := []string{"#", "Layer", "Animated", "Keyframes"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}
	rows := make([][]string, 0, img.LayerCount())
	for i := 0; i < img.LayerCount(); i++ {
		layer := img.Layer(i)
		keys := make([]string, 0)
		for _, t := range layer.Channel().Times() {
			page, _ := layer.Channel().Page(t)
			keys = append(keys, fmt.Sprintf("%d:p%d", t, page))
		}
		name := layer.Name()
		if i == img.ActiveLayerIndex() {
			name += " *"
		}
		rows = append(rows, []string{strconv.Itoa(i), name, strconv.FormatBool(layer.IsAnimated()), strings.Join(keys, " ")})
	}
	return renderTable(headers, rows, aligns)
}
