package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/storyboard/internal/engine"
	"github.com/ivlev/storyboard/internal/storyboard"
	"github.com/ivlev/storyboard/internal/undo"
)

func newSceneCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Edit scenes",
	}
	cmd.AddCommand(newSceneAddCommand(ctx))
	cmd.AddCommand(newSceneRemoveCommand(ctx))
	cmd.AddCommand(newSceneDurationCommand(ctx))
	cmd.AddCommand(newSceneMoveCommand(ctx))
	cmd.AddCommand(newSceneRenameCommand(ctx))
	cmd.AddCommand(newSceneCommentCommand(ctx))
	cmd.AddCommand(newSceneSelectCommand(ctx))
	return cmd
}

// editScene runs one model edit on the document and saves it.
func editScene(cmd *cobra.Command, ctx *commandContext, edit func(m *storyboard.Model) (undo.Command, error)) error {
	return ctx.withProject(cmd.Context(), true, func(p *engine.Project) error {
		done, err := p.Do(edit)
		if err != nil {
			return err
		}
		printf(cmd, "[*] %s\n", describe(done))
		return nil
	})
}

func newSceneAddCommand(ctx *commandContext) *cobra.Command {
	var (
		at     int
		before bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Insert a one-frame scene",
		Long:  "Insert a one-frame scene after scene --at (default: the last scene), or before it with --before.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editScene(cmd, ctx, func(m *storyboard.Model) (undo.Command, error) {
				pos := at
				if pos < 0 {
					pos = m.Len() - 1
				}
				if m.Len() == 0 {
					return m.InsertScene(0, false)
				}
				return m.InsertScene(pos, !before)
			})
		},
	}
	cmd.Flags().IntVar(&at, "at", -1, "Reference scene index")
	cmd.Flags().BoolVar(&before, "before", false, "Insert before the reference scene")
	return cmd
}

func newSceneRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index>",
		Aliases: []string{"remove"},
		Short:   "Remove a scene and the keyframes inside it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseInt(args[0], "scene index")
			if err != nil {
				return err
			}
			return editScene(cmd, ctx, func(m *storyboard.Model) (undo.Command, error) {
				return m.RemoveScene(i)
			})
		},
	}
}

func newSceneDurationCommand(ctx *commandContext) *cobra.Command {
	var seconds int
	cmd := &cobra.Command{
		Use:   "duration <index> <frames>",
		Short: "Set a scene duration",
		Long:  "Set a scene duration to --seconds plus <frames>. The duration never drops below the last keyframe inside the scene.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args, "scene index", "frames")
			if err != nil {
				return err
			}
			return ctx.withProject(cmd.Context(), true, func(p *engine.Project) error {
				var got, fps int
				done, err := p.Do(func(m *storyboard.Model) (undo.Command, error) {
					fps = m.Framerate()
					c, effective, err := m.SetSceneDuration(n[0], seconds, n[1])
					got = effective
					return c, err
				})
				if err != nil {
					return err
				}
				if want := seconds*fps + n[1]; got != want {
					printf(cmd, "[!] Duration raised to %d frames to keep its keyframes\n", got)
				}
				printf(cmd, "[*] %s\n", describe(done))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&seconds, "seconds", 0, "Whole seconds added to the frame count")
	return cmd
}

func newSceneMoveCommand(ctx *commandContext) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move scenes together with their keyframes",
		Long:  "Move --count scenes starting at <from> so that they land before the scene currently at <to>. Use the scene count as <to> to move to the end.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args, "source index", "destination index")
			if err != nil {
				return err
			}
			return editScene(cmd, ctx, func(m *storyboard.Model) (undo.Command, error) {
				return m.MoveScenes(n[0], count, n[1])
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "Number of scenes to move")
	return cmd
}

func newSceneRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <index> <name>",
		Short: "Rename a scene",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseInt(args[0], "scene index")
			if err != nil {
				return err
			}
			name := strings.Join(args[1:], " ")
			return editScene(cmd, ctx, func(m *storyboard.Model) (undo.Command, error) {
				return m.SetField(i, storyboard.ItemName, name)
			})
		},
	}
}

func newSceneCommentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <index> <comment> <text>",
		Short: "Set the text of a scene comment",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args[:2], "scene index", "comment index")
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")
			return editScene(cmd, ctx, func(m *storyboard.Model) (undo.Command, error) {
				return m.SetField(n[0], storyboard.Comments+n[1], text)
			})
		},
	}
}

func newSceneSelectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "select <index>",
		Short: "Move the current time to the first frame of a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseInt(args[0], "scene index")
			if err != nil {
				return err
			}
			return editScene(cmd, ctx, func(m *storyboard.Model) (undo.Command, error) {
				return m.Transaction("select scene", func() error { return m.SelectScene(i) })
			})
		},
	}
}
