// Package source provides the artwork behind raster keyframes. A keyframe's
// content is a page index into a Source.
package source

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// ErrPageOutOfRange is returned for a page index outside the source.
var ErrPageOutOfRange = errors.New("source: page out of range")

type Source interface {
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks a source by path: a PDF file, an image file or a folder of
// images. An empty path gives a blank source of pages sized width x height.
func Open(path string, width, height int) (Source, error) {
	if path == "" {
		return NewBlankSource(width, height), nil
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

type FitzPDFSource struct {
	mu   sync.Mutex
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.NumPage()
}

func (f *FitzPDFSource) GetPageDimensions(index int) (float64, float64, error) {
	if err := f.checkPage(index); err != nil {
		return 0, 0, err
	}
	f.mu.Lock()
	rect, err := f.doc.Bound(index)
	f.mu.Unlock()
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

// RenderPage rasterizes a page on its own document handle, so renders of
// different pages can run concurrently.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if err := f.checkPage(index); err != nil {
		return nil, err
	}
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Close()
}

func (f *FitzPDFSource) checkPage(index int) error {
	if n := f.PageCount(); index < 0 || index >= n {
		return fmt.Errorf("page %d of %d: %w", index, n, ErrPageOutOfRange)
	}
	return nil
}
