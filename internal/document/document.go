// Package document reads and writes storyboard projects as YAML.
//
// A document holds the animation (layers and keyframes), the comment columns
// and the scene list. Build turns it into live objects and Capture does the
// reverse.
package document

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/storyboard/internal/storyboard"
	"github.com/ivlev/storyboard/internal/timeline"
)

// Version is written into every saved document.
const Version = "1.0"

// ErrInvalid is returned for documents that cannot be built.
var ErrInvalid = errors.New("invalid document")

// File is the on-disk form of a project.
type File struct {
	Version     string    `yaml:"version"`
	Width       int       `yaml:"width"`
	Height      int       `yaml:"height"`
	FPS         int       `yaml:"fps"`
	CurrentTime int       `yaml:"current_time"`
	ActiveLayer int       `yaml:"active_layer"`
	Locked      bool      `yaml:"locked,omitempty"`
	Freeze      bool      `yaml:"freeze_keyframe_positions,omitempty"`
	Source      string    `yaml:"source,omitempty"`
	Comments    []Comment `yaml:"comments"`
	Scenes      []Scene   `yaml:"scenes"`
	Layers      []Layer   `yaml:"layers"`
}

// Comment is a comment column.
type Comment struct {
	Name    string `yaml:"name"`
	Visible bool   `yaml:"visible"`
}

// Scene is one storyboard panel.
type Scene struct {
	ID              string       `yaml:"id,omitempty"`
	Frame           int          `yaml:"frame"`
	Name            string       `yaml:"name"`
	DurationSeconds int          `yaml:"duration_seconds"`
	DurationFrames  int          `yaml:"duration_frames"`
	Comments        []CommentBox `yaml:"comments,omitempty"`
}

// CommentBox is the text of one comment column in a scene.
type CommentBox struct {
	Content string `yaml:"content"`
	Scroll  int    `yaml:"scroll,omitempty"`
}

// Layer is an animation layer with its keyframes.
type Layer struct {
	Name      string     `yaml:"name"`
	Animated  bool       `yaml:"animated"`
	Keyframes []Keyframe `yaml:"keyframes,omitempty"`
}

// Keyframe places an artwork page at a frame.
type Keyframe struct {
	Time int `yaml:"time"`
	Page int `yaml:"page"`
}

// Project is a built document.
type Project struct {
	Image  *timeline.Image
	Schema *storyboard.CommentSchema
	Scenes []*storyboard.Scene
	Locked bool
	Freeze bool
	Source string
}

// New returns an empty document with one animated layer.
func New(width, height, fps int) *File {
	if fps <= 0 {
		fps = timeline.DefaultFramerate
	}
	return &File{
		Version: Version,
		Width:   width,
		Height:  height,
		FPS:     fps,
		Layers:  []Layer{{Name: "layer 1", Animated: true}},
	}
}

// Write saves f to path.
func Write(f *File, path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	return nil
}

// Read loads a document from path.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}
	return &f, nil
}

// Build creates the animation image, the comment schema and the scenes of f.
// Scenes without an ID, or repeating one, get a fresh ID.
func Build(f *File) (*Project, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: empty", ErrInvalid)
	}
	if f.Width < 0 || f.Height < 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalid, f.Width, f.Height)
	}
	img := timeline.NewImage(f.Width, f.Height, f.FPS)
	fps := img.Framerate()

	for _, l := range f.Layers {
		layer := img.AddLayer(l.Name, l.Animated)
		for _, k := range l.Keyframes {
			if k.Time < 0 {
				return nil, fmt.Errorf("%w: layer %q keyframe at %d", ErrInvalid, l.Name, k.Time)
			}
			layer.Channel().AddKeyframeWithPage(k.Time, k.Page)
		}
		layer.SetAnimated(l.Animated)
	}
	if len(f.Layers) > 0 {
		img.SetActiveLayer(f.ActiveLayer)
	}
	img.SwitchTime(f.CurrentTime)

	names := make([]string, len(f.Comments))
	for i, c := range f.Comments {
		names[i] = c.Name
	}
	schema := storyboard.NewCommentSchema(names...)
	for i, c := range f.Comments {
		if !c.Visible {
			_ = schema.SetVisible(i, false)
		}
	}

	seen := make(map[uuid.UUID]bool, len(f.Scenes))
	scenes := make([]*storyboard.Scene, 0, len(f.Scenes))
	for i, s := range f.Scenes {
		if s.DurationSeconds < 0 || s.DurationFrames < 0 {
			return nil, fmt.Errorf("%w: scene %d has a negative duration", ErrInvalid, i)
		}
		scene := storyboard.NewScene(len(f.Comments))
		if s.ID != "" {
			id, err := uuid.Parse(s.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: scene %d id %q: %v", ErrInvalid, i, s.ID, err)
			}
			if !seen[id] {
				scene.ID = id
			}
		}
		seen[scene.ID] = true
		scene.Name = s.Name
		scene.Thumbnail.Frame = s.Frame
		scene.SetTotalFrames(s.DurationSeconds*fps+s.DurationFrames, fps)
		for j := range scene.Comments {
			if j < len(s.Comments) {
				scene.Comments[j] = storyboard.CommentBox{Content: s.Comments[j].Content, ScrollValue: s.Comments[j].Scroll}
			}
		}
		scenes = append(scenes, scene)
	}

	return &Project{
		Image:  img,
		Schema: schema,
		Scenes: scenes,
		Locked: f.Locked,
		Freeze: f.Freeze,
		Source: f.Source,
	}, nil
}

// Capture converts the live image and model back into a document.
func Capture(img *timeline.Image, m *storyboard.Model, source string) *File {
	bounds := img.Bounds()
	f := &File{
		Version:     Version,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		FPS:         img.Framerate(),
		CurrentTime: img.CurrentTime(),
		ActiveLayer: img.ActiveLayerIndex(),
		Locked:      m.IsLocked(),
		Freeze:      m.FreezeKeyframePositions(),
		Source:      source,
	}
	if f.ActiveLayer < 0 {
		f.ActiveLayer = 0
	}

	for _, c := range m.CommentSchema().List() {
		f.Comments = append(f.Comments, Comment{Name: c.Name, Visible: c.Visible})
	}

	for i := 0; i < img.LayerCount(); i++ {
		layer := img.Layer(i)
		out := Layer{Name: layer.Name(), Animated: layer.IsAnimated()}
		for _, t := range layer.Channel().Times() {
			page, ok := layer.Channel().Page(t)
			if !ok {
				continue
			}
			out.Keyframes = append(out.Keyframes, Keyframe{Time: t, Page: page})
		}
		f.Layers = append(f.Layers, out)
	}

	for _, s := range m.Scenes() {
		out := Scene{
			ID:              s.ID.String(),
			Frame:           s.FrameNumber(),
			Name:            s.Name,
			DurationSeconds: s.DurationSecond,
			DurationFrames:  s.DurationFrame,
		}
		for _, box := range s.Comments {
			out.Comments = append(out.Comments, CommentBox{Content: box.Content, Scroll: box.ScrollValue})
		}
		f.Scenes = append(f.Scenes, out)
	}
	return f
}

// Model creates a storyboard model bound to the project's image, holding its
// scenes and settings. Frame numbers are made contiguous from the first
// scene.
func (p *Project) Model(opts ...storyboard.Option) *storyboard.Model {
	opts = append([]storyboard.Option{storyboard.WithCommentSchema(p.Schema)}, opts...)
	m := storyboard.New(opts...)
	m.SetDocument(p.Image)
	m.Reset(p.Scenes)
	m.SetLocked(p.Locked)
	m.SetFreezeKeyframePositions(p.Freeze)
	return m
}
