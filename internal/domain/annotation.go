package domain

import (
	"context"
	"fmt"
	"image/color"
	"time"
)

// TitlePosition places the label badge relative to its box
type TitlePosition int

const (
	TitleTopLeft TitlePosition = iota
	TitleTopRight
	TitleTopCenter
	TitleLeft
	TitleRight
	TitleBottomLeft
	TitleBottomRight
	TitleBottomCenter
	TitleHide
)

var titlePositionNames = [...]string{
	TitleTopLeft:      "Top Left",
	TitleTopRight:     "Top Right",
	TitleTopCenter:    "Top Center",
	TitleLeft:         "Left",
	TitleRight:        "Right",
	TitleBottomLeft:   "Bottom Left",
	TitleBottomRight:  "Bottom Right",
	TitleBottomCenter: "Bottom Center",
	TitleHide:         "Hide",
}

func (p TitlePosition) String() string {
	if p < 0 || int(p) >= len(titlePositionNames) {
		return fmt.Sprintf("TitlePosition(%d)", int(p))
	}
	return titlePositionNames[p]
}

// ParseTitlePosition accepts the display names used in configs and exports
func ParseTitlePosition(s string) (TitlePosition, error) {
	if s == "" {
		return TitleTopLeft, nil
	}
	for i, name := range titlePositionNames {
		if name == s {
			return TitlePosition(i), nil
		}
	}
	return TitleTopLeft, fmt.Errorf("unknown title position %q", s)
}

func (p TitlePosition) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *TitlePosition) UnmarshalText(text []byte) error {
	v, err := ParseTitlePosition(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Annotation is one bounding box over an image, in image pixels
type Annotation struct {
	// ID is assigned once the annotation has been persisted
	ID string `yaml:"id,omitempty" json:"id,omitempty"`
	// LocalID is assigned by the editor when the box is created
	LocalID string `yaml:"local_id,omitempty" json:"localId,omitempty"`

	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`

	LabelName     string        `yaml:"label,omitempty" json:"labelName,omitempty"`
	Visible       bool          `yaml:"visible" json:"visible"`
	Locked        bool          `yaml:"locked" json:"locked"`
	TitlePosition TitlePosition `yaml:"title_position" json:"titlePosition"`
}

// Matches reports whether key refers to this annotation by either identity
func (a Annotation) Matches(key string) bool {
	if key == "" {
		return false
	}
	return a.LocalID == key || a.ID == key
}

// Key is the identity used for selection
func (a Annotation) Key() string {
	if a.LocalID != "" {
		return a.LocalID
	}
	return a.ID
}

// Normalized flips negative extents so Width and Height are never negative
func (a Annotation) Normalized() Annotation {
	if a.Width < 0 {
		a.X += a.Width
		a.Width = -a.Width
	}
	if a.Height < 0 {
		a.Y += a.Height
		a.Height = -a.Height
	}
	return a
}

var (
	ColorSelected  = color.RGBA{R: 0xff, A: 0xff}
	ColorUnlabeled = color.RGBA{R: 0xff, G: 0xa5, A: 0xff}
	ColorLabeled   = color.RGBA{G: 0xff, A: 0xff}
	ColorPreview   = color.RGBA{B: 0xff, A: 0xff}
)

// Color is derived from selection and label state, never stored
func (a Annotation) Color(selected bool) color.RGBA {
	switch {
	case selected:
		return ColorSelected
	case a.LabelName == "":
		return ColorUnlabeled
	default:
		return ColorLabeled
	}
}

// Hex formats a colour the way overlays expect it
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Patch is a partial update; nil fields are left untouched
type Patch struct {
	X, Y, Width, Height *float64
	LabelName           *string
	Visible             *bool
	Locked              *bool
	TitlePosition       *TitlePosition
}

func Ptr[T any](v T) *T {
	return &v
}

// MoveTo builds a patch that only changes the position
func MoveTo(x, y float64) Patch {
	return Patch{X: &x, Y: &y}
}

// Reshape builds a patch that changes the whole rectangle
func Reshape(x, y, w, h float64) Patch {
	return Patch{X: &x, Y: &y, Width: &w, Height: &h}
}

// OnlyFlagsDiffer reports whether a and b differ in nothing but Visible and
// Locked.
func OnlyFlagsDiffer(a, b Annotation) bool {
	a.Visible, a.Locked = b.Visible, b.Locked
	return a == b
}

// Apply merges the patch into a and normalizes the result
func (p Patch) Apply(a Annotation) Annotation {
	if p.X != nil {
		a.X = *p.X
	}
	if p.Y != nil {
		a.Y = *p.Y
	}
	if p.Width != nil {
		a.Width = *p.Width
	}
	if p.Height != nil {
		a.Height = *p.Height
	}
	if p.LabelName != nil {
		a.LabelName = *p.LabelName
	}
	if p.Visible != nil {
		a.Visible = *p.Visible
	}
	if p.Locked != nil {
		a.Locked = *p.Locked
	}
	if p.TitlePosition != nil {
		a.TitlePosition = *p.TitlePosition
	}
	return a.Normalized()
}

// Snapshot is one history entry: every annotation plus the selection
type Snapshot struct {
	Annotations []Annotation
	SelectedID  string
}

// Clone returns a copy that shares no memory with s
func (s Snapshot) Clone() Snapshot {
	anns := make([]Annotation, len(s.Annotations))
	copy(anns, s.Annotations)
	return Snapshot{Annotations: anns, SelectedID: s.SelectedID}
}

// Equal compares two snapshots field by field
func (s Snapshot) Equal(o Snapshot) bool {
	if s.SelectedID != o.SelectedID || len(s.Annotations) != len(o.Annotations) {
		return false
	}
	for i := range s.Annotations {
		if s.Annotations[i] != o.Annotations[i] {
			return false
		}
	}
	return true
}

// Label is one entry of the palette offered to the annotator
type Label struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// StoredAnnotation is an annotation as persisted for an image
type StoredAnnotation struct {
	Annotation
	ImageSHA256 string
	Position    int
	UpdatedAt   time.Time
}

// AnnotationStats provides statistics about annotations
type AnnotationStats struct {
	AnnotatedImages  int64
	TotalAnnotations int64
	TotalLabels      int64
}

// AnnotationRepository defines the interface for annotation storage operations
type AnnotationRepository interface {
	// ReplaceForImage stores anns as the full annotation set of an image,
	// assigning IDs to records that do not have one yet
	ReplaceForImage(ctx context.Context, imageSHA256 string, anns []Annotation) ([]Annotation, error)

	// GetForImage retrieves all annotations for a specific image in drawing order
	GetForImage(ctx context.Context, imageSHA256 string) ([]*StoredAnnotation, error)

	// Get retrieves one annotation by ID
	Get(ctx context.Context, id string) (*StoredAnnotation, error)

	// GetByLabel retrieves annotations carrying a label across all images
	GetByLabel(ctx context.Context, labelName string) ([]*StoredAnnotation, error)

	// CountByLabel returns how many annotations use each label
	CountByLabel(ctx context.Context) (map[string]int64, error)

	// Delete removes an annotation by ID
	Delete(ctx context.Context, id string) error

	// DeleteForImage removes all annotations for an image
	DeleteForImage(ctx context.Context, imageSHA256 string) error

	// GetStats returns overall annotation statistics
	GetStats(ctx context.Context) (*AnnotationStats, error)
}
