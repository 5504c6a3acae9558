package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/storyboard/internal/engine"
	"github.com/ivlev/storyboard/internal/storyboard"
	"github.com/ivlev/storyboard/internal/system"
	"github.com/ivlev/storyboard/internal/timeline"
)

func newFPSCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fps <rate>",
		Short: "Change the frame rate; scene spans keep their frame counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fps, err := parseInt(args[0], "frame rate")
			if err != nil {
				return err
			}
			if fps <= 0 {
				return fmt.Errorf("frame rate must be positive, got %d", fps)
			}
			return ctx.withProject(cmd.Context(), true, func(p *engine.Project) error {
				p.View(func(_ *storyboard.Model, img *timeline.Image) {
					img.SetFramerate(fps)
				})
				printf(cmd, "[*] Frame rate set to %d\n", fps)
				return nil
			})
		},
	}
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		force bool
		stats bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render stale scene thumbnails into the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd.Context(), false, func(p *engine.Project) error {
				start := time.Now()
				n, err := p.RenderThumbnails(cmd.Context(), force)
				if err != nil {
					return err
				}
				printf(cmd, "[*] Rendered %d thumbnails in %s\n", n, time.Since(start).Round(time.Millisecond))
				if stats {
					printStats(cmd)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Render every scene, ignoring cached thumbnails")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print process resource usage")
	return cmd
}

func printStats(cmd *cobra.Command) {
	st, err := system.CollectStats(cmd.Context())
	if err != nil {
		printf(cmd, "[!] Stats unavailable: %v\n", err)
		return
	}
	printf(cmd, "[*] RSS %s | CPU %.1f%% | threads %d | goroutines %d | heap %s | system memory %.1f%% of %s\n",
		system.FormatBytes(st.RSS), st.CPUPercent, st.Threads, st.Goroutines,
		system.FormatBytes(st.HeapAlloc), st.SystemUsedPct, system.FormatBytes(st.SystemTotal))
	printf(cmd, "[*] Canvases allocated %d | reused %d\n", st.Canvases.Allocated, st.Canvases.Reused)
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write every scene thumbnail as a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(cmd.Context(), false, func(p *engine.Project) error {
				paths, err := p.ExportThumbnails(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for _, path := range paths {
					printf(cmd, "[>] %s\n", path)
				}
				printf(cmd, "[*] Exported %d thumbnails to %s\n", len(paths), args[0])
				return nil
			})
		},
	}
}
