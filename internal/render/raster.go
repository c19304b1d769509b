package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"seehuhn.de/go/geom/vec"
)

var (
	backgroundColor = color.RGBA{0x20, 0x20, 0x20, 0xff}
	titleBackground = color.NRGBA{0, 0, 0, 0xb3}
	dashOn, dashOff = 5, 3
)

// Raster paints frames into an RGBA canvas of a fixed size.
type Raster struct {
	dst *image.RGBA
}

func NewRaster(width, height int) *Raster {
	return &Raster{dst: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Image returns the canvas painted by the last Present call
func (r *Raster) Image() *image.RGBA { return r.dst }

func (r *Raster) Present(f Frame) error {
	dst := r.dst
	draw.Draw(dst, dst.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)

	if f.Image != nil {
		tl := f.View.ImageToScreen(vec.Vec2{})
		br := f.View.ImageToScreen(vec.Vec2{X: f.ImageWidth, Y: f.ImageHeight})
		target := image.Rect(round(tl.X), round(tl.Y), round(br.X), round(br.Y))
		xdraw.ApproxBiLinear.Scale(dst, target, f.Image, f.Image.Bounds(), draw.Over, nil)
	}

	for _, e := range Layout(f) {
		switch e.Kind {
		case KindBox, KindPreview:
			rr := elementRect(e)
			fill := color.NRGBA{e.color.R, e.color.G, e.color.B, fillAlpha}
			draw.Draw(dst, rr, &image.Uniform{fill}, image.Point{}, draw.Over)
			if e.Dashed {
				strokeDashed(dst, rr, e.color)
			} else {
				strokeRect(dst, rr, e.color)
			}
		case KindTitle:
			rr := elementRect(e)
			draw.Draw(dst, rr, &image.Uniform{titleBackground}, image.Point{}, draw.Over)
			d := &font.Drawer{
				Dst:  dst,
				Src:  image.White,
				Face: basicfont.Face7x13,
				Dot:  fixed.P(rr.Min.X+5, rr.Min.Y+(rr.Dy()+basicfont.Face7x13.Ascent)/2),
			}
			d.DrawString(e.Text)
		case KindHandle:
			cx := round(e.Left + e.Width/2)
			cy := round(e.Top + e.Height/2)
			radius := int(e.Width / 2)
			fillDisc(dst, cx, cy, radius, color.White)
			ring(dst, cx, cy, radius, e.color, StrokeWidth)
		}
	}
	return nil
}

func round(v float64) int {
	return int(math.Round(v))
}

func elementRect(e Element) image.Rectangle {
	return image.Rect(round(e.Left), round(e.Top), round(e.Left+e.Width), round(e.Top+e.Height))
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	u := &image.Uniform{c}
	w := StrokeWidth
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

// strokeDashed draws the outline of r as 5 pixel dashes with 3 pixel gaps
func strokeDashed(dst *image.RGBA, r image.Rectangle, c color.Color) {
	u := &image.Uniform{c}
	w := StrokeWidth
	period := dashOn + dashOff
	for x := r.Min.X; x < r.Max.X; x += period {
		end := min(x+dashOn, r.Max.X)
		draw.Draw(dst, image.Rect(x, r.Min.Y, end, r.Min.Y+w), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(x, r.Max.Y-w, end, r.Max.Y), u, image.Point{}, draw.Src)
	}
	for y := r.Min.Y; y < r.Max.Y; y += period {
		end := min(y+dashOn, r.Max.Y)
		draw.Draw(dst, image.Rect(r.Min.X, y, r.Min.X+w, end), u, image.Point{}, draw.Src)
		draw.Draw(dst, image.Rect(r.Max.X-w, y, r.Max.X, end), u, image.Point{}, draw.Src)
	}
}

func fillDisc(dst *image.RGBA, cx, cy, radius int, c color.Color) {
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			if p := image.Pt(cx+dx, cy+dy); p.In(dst.Bounds()) {
				dst.Set(p.X, p.Y, c)
			}
		}
	}
}

// ring draws a circle outline thick pixels wide ending at radius
func ring(dst *image.RGBA, cx, cy, radius int, c color.Color, thick int) {
	outer := radius * radius
	inner := (radius - thick) * (radius - thick)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d := dx*dx + dy*dy
			if d > outer || d <= inner {
				continue
			}
			if p := image.Pt(cx+dx, cy+dy); p.In(dst.Bounds()) {
				dst.Set(p.X, p.Y, c)
			}
		}
	}
}
