package annotation

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-billy/v6"
	"gopkg.in/yaml.v3"

	"github.com/lewtec/enquadra/internal/domain"
	"github.com/lewtec/enquadra/internal/editor"
	"github.com/lewtec/enquadra/internal/geometry"
	"github.com/lewtec/enquadra/internal/interaction"
	"github.com/lewtec/enquadra/internal/viewport"
)

type Config struct {
	Meta struct {
		Description string `yaml:"description"`
	} `yaml:"meta"`
	Labels []domain.Label `yaml:"labels"`
	Editor EditorConfig   `yaml:"editor"`
}

// EditorConfig tunes the interaction engine. Pointers tell "absent" apart
// from an explicit zero so defaults only fill what was left out.
type EditorConfig struct {
	MinBoxSize      *float64 `yaml:"min_box_size"`
	HandleSize      *float64 `yaml:"handle_size"`
	BorderTolerance *float64 `yaml:"border_tolerance"`
	ZoomStep        *float64 `yaml:"zoom_step"`
	MinZoom         *float64 `yaml:"min_zoom"`
	MaxZoom         *float64 `yaml:"max_zoom"`
	NudgeStep       *float64 `yaml:"nudge_step"`
	NudgeStepLarge  *float64 `yaml:"nudge_step_large"`
	ScrollStep      *float64 `yaml:"scroll_step"`
	HistoryLimit    int      `yaml:"history_limit"`
	CoalesceHistory *bool    `yaml:"coalesce_history"`
}

func setDefault[T any](field **T, value T) {
	if *field == nil {
		*field = &value
	}
}

func (c *EditorConfig) applyDefaults() {
	setDefault(&c.MinBoxSize, geometry.DefaultMinBoxSize)
	setDefault(&c.HandleSize, geometry.DefaultHandleSize)
	setDefault(&c.BorderTolerance, geometry.DefaultBorderTolerance)
	setDefault(&c.ZoomStep, viewport.DefaultStep)
	setDefault(&c.MinZoom, viewport.DefaultMinZoom)
	setDefault(&c.MaxZoom, viewport.DefaultMaxZoom)
	setDefault(&c.NudgeStep, 1.0)
	setDefault(&c.NudgeStepLarge, 10.0)
	setDefault(&c.ScrollStep, 40.0)
	setDefault(&c.CoalesceHistory, true)
}

func (c *EditorConfig) validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"min_box_size", *c.MinBoxSize},
		{"handle_size", *c.HandleSize},
		{"border_tolerance", *c.BorderTolerance},
		{"zoom_step", *c.ZoomStep},
		{"min_zoom", *c.MinZoom},
		{"nudge_step", *c.NudgeStep},
		{"nudge_step_large", *c.NudgeStepLarge},
		{"scroll_step", *c.ScrollStep},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("editor.%s must be positive, got %v", p.name, p.value)
		}
	}
	if *c.MinZoom >= *c.MaxZoom {
		return fmt.Errorf("editor.min_zoom (%v) must be lower than editor.max_zoom (%v)", *c.MinZoom, *c.MaxZoom)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("editor.history_limit must not be negative, got %d", c.HistoryLimit)
	}
	return nil
}

// Options converts the config into editor options
func (c *Config) Options() editor.Options {
	e := c.Editor
	ia := interaction.DefaultOptions()
	ia.MinBoxSize = *e.MinBoxSize
	ia.HandleSize = *e.HandleSize
	ia.BorderTolerance = *e.BorderTolerance
	ia.ScrollStep = *e.ScrollStep
	ia.CoalesceHistory = *e.CoalesceHistory
	return editor.Options{
		Interaction:  ia,
		Limits:       viewport.Limits{MinZoom: *e.MinZoom, MaxZoom: *e.MaxZoom, Step: *e.ZoomStep},
		HistoryLimit: e.HistoryLimit,
		Nudge:        *e.NudgeStep,
		NudgeLarge:   *e.NudgeStepLarge,
	}
}

// Label returns the palette entry with that name
func (c *Config) Label(name string) (domain.Label, bool) {
	for _, l := range c.Labels {
		if l.Name == name {
			return l, true
		}
	}
	return domain.Label{}, false
}

// ParseConfig reads a config document, fills defaults and validates it
func ParseConfig(r io.Reader) (*Config, error) {
	var ret Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ret); err != nil && err != io.EOF {
		return nil, fmt.Errorf("while parsing config: %w", err)
	}
	seen := map[string]bool{}
	for i, l := range ret.Labels {
		if strings.TrimSpace(l.Name) == "" {
			return nil, fmt.Errorf("label %d has an empty name", i)
		}
		if seen[l.Name] {
			return nil, fmt.Errorf("label %s is declared more than once", l.Name)
		}
		seen[l.Name] = true
	}
	ret.Editor.applyDefaults()
	if err := ret.Editor.validate(); err != nil {
		return nil, err
	}
	return &ret, nil
}

// LoadConfigFS loads a config file from fs
func LoadConfigFS(fs billy.Filesystem, filename string) (*Config, error) {
	f, err := fs.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("while opening config '%s': %w", filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("while reading config '%s': %w", filename, err)
	}
	return ParseConfig(bytes.NewReader(data))
}

func LoadConfig(filename string) (*Config, error) {
	fs, name, err := HostFile(filename)
	if err != nil {
		return nil, err
	}
	return LoadConfigFS(fs, name)
}

// SampleConfig is written by the init command
const SampleConfig = `meta:
  description: |
    Draw a box around every vehicle. Use **car** for passenger cars and
    **truck** for anything bigger.
labels:
  - name: car
    color: "#EF4444"
  - name: truck
    color: "#3B82F6"
editor:
  min_box_size: 5
  handle_size: 8
  border_tolerance: 5
  zoom_step: 0.05
  min_zoom: 0.1
  max_zoom: 5
  nudge_step: 1
  nudge_step_large: 10
  scroll_step: 40
  history_limit: 0
  coalesce_history: true
`
