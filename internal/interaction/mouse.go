package interaction

import (
	"golang.org/x/mobile/event/mouse"
	"seehuhn.de/go/geom/vec"
)

// HandleMouse feeds a platform mouse event into the state machine. Wheel
// buttons scroll by ScrollStep per notch; only the primary button starts
// gestures.
func (c *Controller) HandleMouse(e mouse.Event) {
	p := vec.Vec2{X: float64(e.X), Y: float64(e.Y)}

	if e.Button.IsWheel() {
		if e.Direction == mouse.DirRelease {
			return
		}
		step := c.opts.ScrollStep
		var d vec.Vec2
		switch e.Button {
		case mouse.ButtonWheelUp:
			d.Y = -step
		case mouse.ButtonWheelDown:
			d.Y = step
		case mouse.ButtonWheelLeft:
			d.X = -step
		case mouse.ButtonWheelRight:
			d.X = step
		}
		c.Wheel(d, e.Modifiers)
		return
	}

	switch e.Direction {
	case mouse.DirPress:
		if e.Button == mouse.ButtonLeft {
			c.PointerDown(p, e.Modifiers)
		}
	case mouse.DirRelease:
		if e.Button == mouse.ButtonLeft {
			c.PointerUp(p, e.Modifiers)
		}
	case mouse.DirNone:
		c.PointerMove(p, e.Modifiers)
	}
}
