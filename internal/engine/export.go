package engine

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type exportJob struct {
	index int
	name  string
	img   image.Image
}

// ExportThumbnails renders the missing thumbnails and writes one PNG per
// scene into dir, named after the scene position and name. Files are written
// in parallel; the paths are returned in scene order.
func (p *Project) ExportThumbnails(ctx context.Context, dir string) ([]string, error) {
	if _, err := p.RenderThumbnails(ctx, false); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	p.mu.Lock()
	scenes := p.model.Scenes()
	jobs := make([]exportJob, 0, len(scenes))
	for i, s := range scenes {
		jobs = append(jobs, exportJob{index: i, name: s.Name, img: s.Thumbnail.Pixmap})
	}
	p.mu.Unlock()

	paths := make([]string, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.Thumbnails.ExportWorkers, 1))
	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if job.img == nil {
				p.logger.Warn("scene has no thumbnail", zap.Int("index", job.index), zap.String("name", job.name))
				return nil
			}
			path := filepath.Join(dir, exportName(job.index, job.name))
			if err := writePNG(path, job.img); err != nil {
				return err
			}
			paths[job.index] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := paths[:0]
	for _, path := range paths {
		if path != "" {
			out = append(out, path)
		}
	}
	return out, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// exportName builds a file name such as "003-scene_4.png".
func exportName(index int, name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '.':
			return '_'
		default:
			return -1
		}
	}, strings.TrimSpace(name))
	if clean == "" {
		return fmt.Sprintf("%03d.png", index+1)
	}
	return fmt.Sprintf("%03d-%s.png", index+1, clean)
}
