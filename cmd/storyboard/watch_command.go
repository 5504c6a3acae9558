package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ivlev/storyboard/internal/engine"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep thumbnails fresh while the document or its artwork changes",
		Long:  "Render stale thumbnails whenever the document is idle. Changes to the document file reload it; changes to the artwork re-render every scene. Stop with Ctrl-C.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log()
			docPath, err := filepath.Abs(ctx.documentPath())
			if err != nil {
				return err
			}

			p, err := engine.Open(cfg, docPath, logger)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()
			p.StartBackground()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			if err := watcher.Add(filepath.Dir(docPath)); err != nil {
				return err
			}
			srcPath := p.SourcePath()
			if srcPath != "" {
				dir := srcPath
				if info, err := os.Stat(srcPath); err == nil && !info.IsDir() {
					dir = filepath.Dir(srcPath)
				}
				if err := watcher.Add(dir); err != nil {
					return err
				}
			}
			printf(cmd, "[*] Watching %s\n", docPath)

			for {
				select {
				case <-runCtx.Done():
					printf(cmd, "[*] Stopped\n")
					return nil

				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
						continue
					}
					name := filepath.Clean(ev.Name)
					switch {
					case name == docPath:
						next, err := engine.Open(cfg, docPath, logger)
						if err != nil {
							printf(cmd, "[!] Reload failed: %v\n", err)
							continue
						}
						_ = p.Close()
						p = next
						p.StartBackground()
						printf(cmd, "[>] Reloaded %s\n", filepath.Base(docPath))

					case srcPath != "" && (name == srcPath || strings.HasPrefix(name, srcPath+string(filepath.Separator))):
						if err := p.ReloadSource(); err != nil {
							printf(cmd, "[!] Artwork reload failed: %v\n", err)
							continue
						}
						n, err := p.RenderThumbnails(runCtx, false)
						if err != nil {
							printf(cmd, "[!] Render failed: %v\n", err)
							continue
						}
						printf(cmd, "[>] Artwork changed: %s, %d thumbnails rendered\n", filepath.Base(name), n)
					}

				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Warn("watch error", zap.Error(err))
				}
			}
		},
	}
}
