package geometry

import (
	"seehuhn.de/go/geom/vec"

	"github.com/lewtec/enquadra/internal/domain"
)

// Cursor names a pointer style using CSS cursor keywords
type Cursor string

const (
	CursorDefault    Cursor = "default"
	CursorCrosshair  Cursor = "crosshair"
	CursorPointer    Cursor = "pointer"
	CursorMove       Cursor = "move"
	CursorNotAllowed Cursor = "not-allowed"
	CursorResizeNWSE Cursor = "nwse-resize"
	CursorResizeNESW Cursor = "nesw-resize"
	CursorResizeNS   Cursor = "ns-resize"
	CursorResizeEW   Cursor = "ew-resize"
	CursorGrab       Cursor = "grab"
	CursorGrabbing   Cursor = "grabbing"
)

// HitOptions carries the tolerances and canvas size used by hover queries.
type HitOptions struct {
	BorderTolerance float64
	HandleSize      float64
	CanvasWidth     float64
	CanvasHeight    float64
	Measure         TextMeasurer
}

// CursorAt resolves the hover cursor for p with the select tool active. The
// selected annotation is checked first, then the others from the topmost
// (last drawn) down.
func CursorAt(p vec.Vec2, anns []domain.Annotation, selectedID string, opt HitOptions) Cursor {
	for _, a := range anns {
		if !a.Visible || !a.Matches(selectedID) {
			continue
		}
		if a.Locked {
			if Contains(a, p) {
				return CursorNotAllowed
			}
			break
		}
		if h := HandleAt(a, p, opt.HandleSize); h != HandleNone {
			return h.Cursor()
		}
		if Contains(a, p) {
			return CursorMove
		}
		break
	}
	if TopmostAt(p, anns, selectedID, opt) >= 0 {
		return CursorPointer
	}
	return CursorCrosshair
}

// TopmostAt returns the index of the topmost visible annotation hit by p on
// its border, its title or its body, skipping skipID. It returns -1 on a miss.
func TopmostAt(p vec.Vec2, anns []domain.Annotation, skipID string, opt HitOptions) int {
	for i := len(anns) - 1; i >= 0; i-- {
		a := anns[i]
		if !a.Visible || a.Matches(skipID) {
			continue
		}
		if OnBorder(a, p, opt.BorderTolerance) ||
			OnTitle(a, p, opt.CanvasWidth, opt.CanvasHeight, opt.Measure) ||
			Contains(a, p) {
			return i
		}
	}
	return -1
}
