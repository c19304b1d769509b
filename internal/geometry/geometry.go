// Package geometry holds the pure hit-testing and shape arithmetic used by the
// editor. All coordinates are image pixels with y growing downwards; a
// rect.Rect uses LL for the minimum corner and UR for the maximum one.
package geometry

import (
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/lewtec/enquadra/internal/domain"
)

const (
	DefaultBorderTolerance = 5
	DefaultHandleSize      = 8
	DefaultMinBoxSize      = 5

	// title badge metrics
	TitlePadding = 10
	TitleHeight  = 20
)

// TextMeasurer returns the rendered width of a label in pixels
type TextMeasurer func(text string) float64

// MeasureBasic measures with the same face the raster renderer draws with.
func MeasureBasic(text string) float64 {
	w := font.MeasureString(basicfont.Face7x13, text)
	return float64(w) / 64
}

// Bounds returns the rectangle covered by a
func Bounds(a domain.Annotation) rect.Rect {
	a = a.Normalized()
	return rect.Rect{LLx: a.X, LLy: a.Y, URx: a.X + a.Width, URy: a.Y + a.Height}
}

func inside(r rect.Rect, p vec.Vec2) bool {
	return p.X >= r.LLx && p.X <= r.URx && p.Y >= r.LLy && p.Y <= r.URy
}

// Contains reports whether p lies inside a visible annotation, edges included.
func Contains(a domain.Annotation, p vec.Vec2) bool {
	if !a.Visible {
		return false
	}
	return inside(Bounds(a), p)
}

// OnBorder reports whether p lies within tol of any edge of a visible annotation.
func OnBorder(a domain.Annotation, p vec.Vec2, tol float64) bool {
	if !a.Visible {
		return false
	}
	r := Bounds(a)
	withinY := p.Y >= r.LLy && p.Y <= r.URy
	withinX := p.X >= r.LLx && p.X <= r.URx
	return (math.Abs(p.X-r.LLx) <= tol && withinY) ||
		(math.Abs(p.X-r.URx) <= tol && withinY) ||
		(math.Abs(p.Y-r.LLy) <= tol && withinX) ||
		(math.Abs(p.Y-r.URy) <= tol && withinX)
}

// TitleRect returns where the label badge of a is drawn, clamped to a canvas of
// the given size. ok is false when the annotation shows no title.
func TitleRect(a domain.Annotation, canvasW, canvasH float64, measure TextMeasurer) (r rect.Rect, ok bool) {
	if a.TitlePosition == domain.TitleHide || isBlank(a.LabelName) {
		return rect.Rect{}, false
	}
	if measure == nil {
		measure = MeasureBasic
	}
	a = a.Normalized()
	tw := measure(a.LabelName) + TitlePadding
	th := float64(TitleHeight)

	x, y := a.X, a.Y-th
	switch a.TitlePosition {
	case domain.TitleTopRight:
		x = a.X + a.Width - tw
	case domain.TitleTopCenter:
		x = a.X + a.Width/2 - tw/2
	case domain.TitleLeft:
		x, y = a.X-tw, a.Y+a.Height/2-th/2
	case domain.TitleRight:
		x, y = a.X+a.Width, a.Y+a.Height/2-th/2
	case domain.TitleBottomLeft:
		y = a.Y + a.Height
	case domain.TitleBottomRight:
		x, y = a.X+a.Width-tw, a.Y+a.Height
	case domain.TitleBottomCenter:
		x, y = a.X+a.Width/2-tw/2, a.Y+a.Height
	}
	x = math.Max(0, math.Min(canvasW-tw, x))
	y = math.Max(0, math.Min(canvasH-th, y))
	return rect.Rect{LLx: x, LLy: y, URx: x + tw, URy: y + th}, true
}

// OnTitle reports whether p lies on the label badge of a visible annotation.
func OnTitle(a domain.Annotation, p vec.Vec2, canvasW, canvasH float64, measure TextMeasurer) bool {
	if !a.Visible {
		return false
	}
	r, ok := TitleRect(a, canvasW, canvasH, measure)
	return ok && inside(r, p)
}

func isBlank(s string) bool {
	for _, c := range s {
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
	}
	return true
}

// Normalize turns an anchor and a signed extent into a rectangle with
// non-negative width and height.
func Normalize(x, y, w, h float64) (float64, float64, float64, float64) {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	return x, y, w, h
}

// ClampPoint restricts p to [0,w] x [0,h]
func ClampPoint(p vec.Vec2, w, h float64) vec.Vec2 {
	return vec.Vec2{X: clamp(p.X, 0, w), Y: clamp(p.Y, 0, h)}
}

// ClampInto translates a so it lies inside a w x h canvas, keeping its size.
func ClampInto(a domain.Annotation, w, h float64) (x, y float64) {
	a = a.Normalized()
	return clamp(a.X, 0, math.Max(0, w-a.Width)), clamp(a.Y, 0, math.Max(0, h-a.Height))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
