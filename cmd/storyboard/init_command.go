package main

import (
	"github.com/spf13/cobra"

	"github.com/ivlev/storyboard/internal/engine"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var (
		sourcePath string
		width      int
		height     int
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty storyboard document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := ctx.documentPath()
			if err := engine.Init(cfg, path, sourcePath, width, height); err != nil {
				return err
			}
			printf(cmd, "[*] Created %s (%dx%d @ %d FPS)\n", path, width, height, cfg.Animation.FPS)
			return nil
		},
	}
	cmd.Flags().StringVar(&sourcePath, "source", "", "Artwork PDF or image folder (empty draws flat colors)")
	cmd.Flags().IntVar(&width, "width", 1280, "Canvas width")
	cmd.Flags().IntVar(&height, "height", 720, "Canvas height")
	return cmd
}
