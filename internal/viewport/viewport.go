// Package viewport maps between screen pixels and image pixels.
//
// A screen point s corresponds to the image point (s - pan) / zoom. Zoom steps
// are additive so the keyboard, the wheel and toolbar buttons all move through
// the same sequence of levels.
package viewport

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

const (
	DefaultMinZoom = 0.1
	DefaultMaxZoom = 5.0
	DefaultStep    = 0.05
)

// Limits bound the zoom level and size each zoom step
type Limits struct {
	MinZoom float64
	MaxZoom float64
	Step    float64
}

func DefaultLimits() Limits {
	return Limits{MinZoom: DefaultMinZoom, MaxZoom: DefaultMaxZoom, Step: DefaultStep}
}

type Viewport struct {
	limits Limits
	zoom   float64
	pan    vec.Vec2
}

func New(limits Limits) *Viewport {
	if limits.MinZoom <= 0 {
		limits.MinZoom = DefaultMinZoom
	}
	if limits.MaxZoom < limits.MinZoom {
		limits.MaxZoom = DefaultMaxZoom
	}
	if limits.Step <= 0 {
		limits.Step = DefaultStep
	}
	return &Viewport{limits: limits, zoom: 1}
}

func (v *Viewport) Zoom() float64 { return v.zoom }

func (v *Viewport) Pan() vec.Vec2 { return v.pan }

func (v *Viewport) Limits() Limits { return v.limits }

// SetZoom clamps level into the allowed range
func (v *Viewport) SetZoom(level float64) {
	level = math.Round(level*1e9) / 1e9
	v.zoom = math.Max(v.limits.MinZoom, math.Min(v.limits.MaxZoom, level))
}

func (v *Viewport) ZoomIn() { v.SetZoom(v.zoom + v.limits.Step) }

func (v *Viewport) ZoomOut() { v.SetZoom(v.zoom - v.limits.Step) }

// Reset returns to zoom 1 without any pan
func (v *Viewport) Reset() {
	v.zoom = 1
	v.pan = vec.Vec2{}
}

// PanBy shifts the view by a screen-space delta. Pan is unbounded.
func (v *Viewport) PanBy(delta vec.Vec2) {
	v.pan = v.pan.Add(delta)
}

// SetPan places the view at an absolute offset
func (v *Viewport) SetPan(p vec.Vec2) {
	v.pan = p
}

// Matrix maps image coordinates to screen coordinates
func (v *Viewport) Matrix() matrix.Matrix {
	return matrix.Scale(v.zoom, v.zoom).Mul(matrix.Translate(v.pan.X, v.pan.Y))
}

// Inverse maps screen coordinates to image coordinates
func (v *Viewport) Inverse() matrix.Matrix {
	return matrix.Translate(-v.pan.X, -v.pan.Y).Mul(matrix.Scale(1/v.zoom, 1/v.zoom))
}

func (v *Viewport) ImageToScreen(p vec.Vec2) vec.Vec2 {
	return apply(v.Matrix(), p)
}

// ScreenToImage converts without clamping; drags use it so motion stays smooth
// past the image edge.
func (v *Viewport) ScreenToImage(p vec.Vec2) vec.Vec2 {
	return apply(v.Inverse(), p)
}

// ScreenToImageClamped converts and then restricts the point to a w x h image
func (v *Viewport) ScreenToImageClamped(p vec.Vec2, w, h float64) vec.Vec2 {
	q := v.ScreenToImage(p)
	q.X = math.Max(0, math.Min(w, q.X))
	q.Y = math.Max(0, math.Min(h, q.Y))
	return q
}

// ScreenLength converts a screen distance, such as a hit tolerance, into
// image pixels at the current zoom.
func (v *Viewport) ScreenLength(d float64) float64 {
	return d / v.zoom
}

// apply uses the row-vector convention of matrix.Matrix: [x y 1] * M.
func apply(m matrix.Matrix, p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}
