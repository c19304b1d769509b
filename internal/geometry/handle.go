package geometry

import (
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/lewtec/enquadra/internal/domain"
)

// Handle identifies one of the eight resize grips of a box
type Handle int

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
)

// Handles lists every grip in drawing order.
var Handles = []Handle{
	HandleTopLeft, HandleTop, HandleTopRight, HandleRight,
	HandleBottomRight, HandleBottom, HandleBottomLeft, HandleLeft,
}

// corners win over edge midpoints when the box is small enough for both to overlap
var handleHitOrder = []Handle{
	HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight,
	HandleTop, HandleBottom, HandleLeft, HandleRight,
}

func (h Handle) String() string {
	switch h {
	case HandleTopLeft:
		return "top-left"
	case HandleTop:
		return "top"
	case HandleTopRight:
		return "top-right"
	case HandleRight:
		return "right"
	case HandleBottomRight:
		return "bottom-right"
	case HandleBottom:
		return "bottom"
	case HandleBottomLeft:
		return "bottom-left"
	case HandleLeft:
		return "left"
	}
	return "none"
}

func (h Handle) movesLeft() bool {
	return h == HandleTopLeft || h == HandleLeft || h == HandleBottomLeft
}

func (h Handle) movesRight() bool {
	return h == HandleTopRight || h == HandleRight || h == HandleBottomRight
}

func (h Handle) movesTop() bool {
	return h == HandleTopLeft || h == HandleTop || h == HandleTopRight
}

func (h Handle) movesBottom() bool {
	return h == HandleBottomLeft || h == HandleBottom || h == HandleBottomRight
}

// Cursor is the pointer style shown while hovering or dragging h.
func (h Handle) Cursor() Cursor {
	switch h {
	case HandleTopLeft, HandleBottomRight:
		return CursorResizeNWSE
	case HandleTopRight, HandleBottomLeft:
		return CursorResizeNESW
	case HandleTop, HandleBottom:
		return CursorResizeNS
	case HandleLeft, HandleRight:
		return CursorResizeEW
	}
	return CursorDefault
}

// HandlePoint is the centre of grip h on a
func HandlePoint(a domain.Annotation, h Handle) vec.Vec2 {
	r := Bounds(a)
	midX, midY := (r.LLx+r.URx)/2, (r.LLy+r.URy)/2
	switch h {
	case HandleTopLeft:
		return vec.Vec2{X: r.LLx, Y: r.LLy}
	case HandleTop:
		return vec.Vec2{X: midX, Y: r.LLy}
	case HandleTopRight:
		return vec.Vec2{X: r.URx, Y: r.LLy}
	case HandleRight:
		return vec.Vec2{X: r.URx, Y: midY}
	case HandleBottomRight:
		return vec.Vec2{X: r.URx, Y: r.URy}
	case HandleBottom:
		return vec.Vec2{X: midX, Y: r.URy}
	case HandleBottomLeft:
		return vec.Vec2{X: r.LLx, Y: r.URy}
	case HandleLeft:
		return vec.Vec2{X: r.LLx, Y: midY}
	}
	return vec.Vec2{X: midX, Y: midY}
}

// HandleAt returns the grip of a under p, using a square tolerance of size
// pixels around each grip centre.
func HandleAt(a domain.Annotation, p vec.Vec2, size float64) Handle {
	if !a.Visible {
		return HandleNone
	}
	for _, h := range handleHitOrder {
		c := HandlePoint(a, h)
		if math.Abs(p.X-c.X) <= size && math.Abs(p.Y-c.Y) <= size {
			return h
		}
	}
	return HandleNone
}

// Resize moves the edges controlled by h towards p. The opposite edges stay
// put, moving edges are clamped to the canvas and no side gets shorter than
// minSize.
func Resize(a domain.Annotation, h Handle, p vec.Vec2, minSize, canvasW, canvasH float64) domain.Annotation {
	r := Bounds(a)
	left, top, right, bottom := r.LLx, r.LLy, r.URx, r.URy
	if h.movesLeft() {
		left = math.Min(math.Max(p.X, 0), right-minSize)
	}
	if h.movesRight() {
		right = math.Max(math.Min(p.X, canvasW), left+minSize)
	}
	if h.movesTop() {
		top = math.Min(math.Max(p.Y, 0), bottom-minSize)
	}
	if h.movesBottom() {
		bottom = math.Max(math.Min(p.Y, canvasH), top+minSize)
	}
	a.X, a.Y = left, top
	a.Width, a.Height = right-left, bottom-top
	return a
}
