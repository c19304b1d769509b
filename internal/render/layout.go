// Package render turns editor state into pixels or positioned overlay
// elements. Both presenters share one layout pass so hit areas and drawn
// shapes always agree.
package render

import (
	"fmt"
	"image"
	"image/color"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/lewtec/enquadra/internal/domain"
	"github.com/lewtec/enquadra/internal/geometry"
	"github.com/lewtec/enquadra/internal/viewport"
)

const (
	HandleDiameter = 14
	StrokeWidth    = 2
	fillAlpha      = 0x33
)

// Frame is everything a presenter needs to paint one frame
type Frame struct {
	Annotations []domain.Annotation
	SelectedID  string
	Preview     *domain.Annotation

	View        viewport.Viewport
	Image       image.Image
	ImageWidth  float64
	ImageHeight float64

	Measure geometry.TextMeasurer
}

type Kind string

const (
	KindBox     Kind = "box"
	KindTitle   Kind = "title"
	KindHandle  Kind = "handle"
	KindPreview Kind = "preview"
)

// Element is one positioned shape in screen pixels
type Element struct {
	Kind   Kind    `json:"kind"`
	ID     string  `json:"id,omitempty"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Stroke string  `json:"stroke,omitempty"`
	Fill   string  `json:"fill,omitempty"`
	Dashed bool    `json:"dashed,omitempty"`
	Text   string  `json:"text,omitempty"`

	color color.RGBA
}

func cssFill(c color.RGBA) string {
	return fmt.Sprintf("rgba(%d, %d, %d, 0.2)", c.R, c.G, c.B)
}

func screenRect(f Frame, r rect.Rect) (left, top, width, height float64) {
	ll := f.View.ImageToScreen(vec.Vec2{X: r.LLx, Y: r.LLy})
	ur := f.View.ImageToScreen(vec.Vec2{X: r.URx, Y: r.URy})
	return ll.X, ll.Y, ur.X - ll.X, ur.Y - ll.Y
}

func boxElement(f Frame, kind Kind, a domain.Annotation, c color.RGBA) Element {
	l, t, w, h := screenRect(f, geometry.Bounds(a))
	return Element{
		Kind: kind, ID: a.Key(),
		Left: l, Top: t, Width: w, Height: h,
		Stroke: domain.Hex(c), Fill: cssFill(c),
		Dashed: a.Locked,
		color:  c,
	}
}

// Layout lists the elements of f in paint order: every visible annotation
// with its title, the handles of the selection and finally the box being
// drawn.
func Layout(f Frame) []Element {
	measure := f.Measure
	if measure == nil {
		measure = geometry.MeasureBasic
	}
	var out []Element
	var selected *domain.Annotation
	for i, a := range f.Annotations {
		if !a.Visible {
			continue
		}
		isSel := a.Matches(f.SelectedID)
		c := a.Color(isSel)
		out = append(out, boxElement(f, KindBox, a, c))
		if r, ok := geometry.TitleRect(a, f.ImageWidth, f.ImageHeight, measure); ok {
			l, t, w, h := screenRect(f, r)
			out = append(out, Element{
				Kind: KindTitle, ID: a.Key(),
				Left: l, Top: t, Width: w, Height: h,
				Stroke: domain.Hex(c), Text: a.LabelName,
				color: c,
			})
		}
		if isSel && !a.Locked {
			selected = &f.Annotations[i]
		}
	}
	if selected != nil {
		for _, h := range geometry.Handles {
			p := f.View.ImageToScreen(geometry.HandlePoint(*selected, h))
			out = append(out, Element{
				Kind: KindHandle, ID: h.String(),
				Left: p.X - HandleDiameter/2, Top: p.Y - HandleDiameter/2,
				Width: HandleDiameter, Height: HandleDiameter,
				Stroke: domain.Hex(domain.ColorSelected), Fill: "#ffffff",
				color: domain.ColorSelected,
			})
		}
	}
	if f.Preview != nil {
		out = append(out, boxElement(f, KindPreview, *f.Preview, domain.ColorPreview))
	}
	return out
}

// Presenter paints a frame
type Presenter interface {
	Present(f Frame) error
}
