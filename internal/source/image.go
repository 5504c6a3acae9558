package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

type imagePage struct {
	path   string
	width  int
	height int
}

// ImageSource serves a folder of jpg/png files sorted by name, or a single
// file, one page per image. Headers are read when the source opens.
type ImageSource struct {
	pages []imagePage
}

func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	paths := []string{path}
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		paths = paths[:0]
		for _, entry := range entries {
			if entry.IsDir() || !isImage(entry.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(path, entry.Name()))
		}
		slices.Sort(paths)
	}

	s := &ImageSource{pages: make([]imagePage, 0, len(paths))}
	for _, p := range paths {
		cfg, err := decodeConfig(p)
		if err != nil {
			return nil, err
		}
		s.pages = append(s.pages, imagePage{path: p, width: cfg.Width, height: cfg.Height})
	}
	return s, nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func decodeConfig(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Config{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

func (s *ImageSource) PageCount() int { return len(s.pages) }

func (s *ImageSource) GetPageDimensions(index int) (float64, float64, error) {
	if err := s.checkPage(index); err != nil {
		return 0, 0, err
	}
	p := s.pages[index]
	return float64(p.width), float64(p.height), nil
}

// RenderPage decodes the image as is; dpi does not apply to raster files.
func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	if err := s.checkPage(index); err != nil {
		return nil, err
	}
	path := s.pages[index].path
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func (s *ImageSource) Close() error { return nil }

func (s *ImageSource) checkPage(index int) error {
	if index < 0 || index >= len(s.pages) {
		return fmt.Errorf("page %d of %d: %w", index, len(s.pages), ErrPageOutOfRange)
	}
	return nil
}
