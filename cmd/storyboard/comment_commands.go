package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/storyboard/internal/engine"
	"github.com/ivlev/storyboard/internal/storyboard"
	"github.com/ivlev/storyboard/internal/undo"
)

func newCommentCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Edit the comment columns shared by every scene",
	}
	cmd.AddCommand(newCommentAddCommand(ctx))
	cmd.AddCommand(newCommentIndexCommand(ctx, "rm", "Remove a comment column", func(s *storyboard.CommentSchema, i int) error {
		return s.Remove(i)
	}))
	cmd.AddCommand(newCommentIndexCommand(ctx, "hide", "Hide a comment column", func(s *storyboard.CommentSchema, i int) error {
		return s.SetVisible(i, false)
	}))
	cmd.AddCommand(newCommentIndexCommand(ctx, "show", "Show a hidden comment column", func(s *storyboard.CommentSchema, i int) error {
		return s.SetVisible(i, true)
	}))
	return cmd
}

func editSchema(cmd *cobra.Command, ctx *commandContext, fn func(s *storyboard.CommentSchema) error) error {
	return ctx.withProject(cmd.Context(), true, func(p *engine.Project) error {
		_, err := p.Do(func(m *storyboard.Model) (undo.Command, error) {
			return nil, fn(m.CommentSchema())
		})
		if err != nil {
			return err
		}
		printf(cmd, "[*] comments updated\n")
		return nil
	})
}

func newCommentAddCommand(ctx *commandContext) *cobra.Command {
	var at int
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a comment column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return editSchema(cmd, ctx, func(s *storyboard.CommentSchema) error {
				pos := at
				if pos < 0 {
					pos = s.Len()
				}
				return s.Insert(pos, name)
			})
		},
	}
	cmd.Flags().IntVar(&at, "at", -1, "Column position (default: last)")
	return cmd
}

func newCommentIndexCommand(ctx *commandContext, use, short string, fn func(*storyboard.CommentSchema, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <index>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseInt(args[0], "comment index")
			if err != nil {
				return err
			}
			return editSchema(cmd, ctx, func(s *storyboard.CommentSchema) error {
				return fn(s, i)
			})
		},
	}
}
