package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/storyboard/internal/engine"
	"github.com/ivlev/storyboard/internal/storyboard"
	"github.com/ivlev/storyboard/internal/timeline"
)

func newKeyCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Edit keyframes; the storyboard follows",
	}
	cmd.AddCommand(newKeyAddCommand(ctx))
	cmd.AddCommand(newKeyRemoveCommand(ctx))
	cmd.AddCommand(newKeyMoveCommand(ctx))
	cmd.AddCommand(newKeyPaintCommand(ctx))
	return cmd
}

func layerOf(img *timeline.Image, index int) (*timeline.Layer, error) {
	layer := img.Layer(index)
	if layer == nil {
		return nil, fmt.Errorf("layer %d: %w", index, storyboard.ErrIndexOutOfRange)
	}
	return layer, nil
}

// editTimeline runs fn on one layer as a single document edit and saves.
func editTimeline(cmd *cobra.Command, ctx *commandContext, name string, layer int, fn func(ch *timeline.Channel) error) error {
	return ctx.withProject(cmd.Context(), true, func(p *engine.Project) error {
		done, err := p.EditTimeline(name, func(img *timeline.Image) error {
			l, err := layerOf(img, layer)
			if err != nil {
				return err
			}
			return fn(l.Channel())
		})
		if err != nil {
			return err
		}
		printf(cmd, "[*] %s\n", describe(done))
		return nil
	})
}

func newKeyAddCommand(ctx *commandContext) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "add <layer> <frame>",
		Short: "Add a keyframe",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args, "layer", "frame")
			if err != nil {
				return err
			}
			return editTimeline(cmd, ctx, "add keyframe", n[0], func(ch *timeline.Channel) error {
				if ch.KeyframeAt(n[1]) {
					return fmt.Errorf("layer %d already has a keyframe at %d", n[0], n[1])
				}
				if page >= 0 {
					ch.AddKeyframeWithPage(n[1], page)
				} else {
					ch.AddKeyframe(n[1])
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", -1, "Artwork page (default: a new page)")
	return cmd
}

func newKeyRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <layer> <frame>",
		Aliases: []string{"remove"},
		Short:   "Remove a keyframe",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args, "layer", "frame")
			if err != nil {
				return err
			}
			return editTimeline(cmd, ctx, "remove keyframe", n[0], func(ch *timeline.Channel) error {
				if !ch.KeyframeAt(n[1]) {
					return fmt.Errorf("layer %d has no keyframe at %d", n[0], n[1])
				}
				ch.RemoveKeyframe(n[1])
				return nil
			})
		},
	}
}

func newKeyMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <layer> <from> <to>",
		Short: "Move a keyframe to another frame",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args, "layer", "source frame", "destination frame")
			if err != nil {
				return err
			}
			return editTimeline(cmd, ctx, "move keyframe", n[0], func(ch *timeline.Channel) error {
				if !ch.KeyframeAt(n[1]) {
					return fmt.Errorf("layer %d has no keyframe at %d", n[0], n[1])
				}
				if n[2] < 0 {
					return fmt.Errorf("invalid destination frame %d", n[2])
				}
				ch.MoveKeyframe(n[1], n[2])
				return nil
			})
		},
	}
}

func newKeyPaintCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "paint <layer> <page>",
		Short: "Replace the artwork shown by a layer at the current time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseInts(args, "layer", "page")
			if err != nil {
				return err
			}
			return ctx.withProject(cmd.Context(), true, func(p *engine.Project) error {
				done, err := p.Paint(n[0], n[1])
				if err != nil {
					return err
				}
				printf(cmd, "[*] %s\n", describe(done))
				return nil
			})
		},
	}
}
