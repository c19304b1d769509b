// Package interaction turns pointer, wheel and tool events into annotation
// edits. It is the only writer of the viewport and drives the collection
// through gestures: drawing a new box, dragging or resizing the selection and
// panning the view.
package interaction

import (
	"seehuhn.de/go/geom/vec"

	"golang.org/x/mobile/event/key"

	"github.com/lewtec/enquadra/internal/collection"
	"github.com/lewtec/enquadra/internal/domain"
	"github.com/lewtec/enquadra/internal/geometry"
	"github.com/lewtec/enquadra/internal/viewport"
)

type Tool int

const (
	ToolSelect Tool = iota
	ToolPan
)

func (t Tool) String() string {
	if t == ToolPan {
		return "pan"
	}
	return "select"
}

type State int

const (
	StateIdle State = iota
	StateDrawing
	StateDragging
	StateResizing
	StatePanning
)

func (s State) String() string {
	switch s {
	case StateDrawing:
		return "drawing"
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	case StatePanning:
		return "panning"
	}
	return "idle"
}

// Options tune hit testing and gesture behaviour. HandleSize and
// BorderTolerance are screen pixels and shrink in image space as zoom grows.
type Options struct {
	MinBoxSize      float64
	HandleSize      float64
	BorderTolerance float64
	// ScrollStep is the pan distance of one wheel notch
	ScrollStep float64
	// CoalesceHistory records a whole drag or resize as one history entry
	// instead of one entry per pointer move.
	CoalesceHistory bool
	Measure         geometry.TextMeasurer
}

func DefaultOptions() Options {
	return Options{
		MinBoxSize:      geometry.DefaultMinBoxSize,
		HandleSize:      geometry.DefaultHandleSize,
		BorderTolerance: geometry.DefaultBorderTolerance,
		ScrollStep:      40,
		CoalesceHistory: true,
		Measure:         geometry.MeasureBasic,
	}
}

// Controller is the gesture state machine. Like the collection it belongs to
// a single event loop.
type Controller struct {
	coll *collection.Collection
	view *viewport.Viewport
	opts Options

	tool  Tool
	state State

	activeLabel   string
	titlePosition domain.TitlePosition

	// drawing
	anchor, current vec.Vec2
	// dragging and resizing
	target     string
	grabOffset vec.Vec2
	handle     geometry.Handle
	start      domain.Annotation
	tx         *collection.Tx
	// panning
	lastScreen vec.Vec2
	panStart   vec.Vec2

	onChange func()
}

func New(coll *collection.Collection, view *viewport.Viewport, opts Options) *Controller {
	if opts.Measure == nil {
		opts.Measure = geometry.MeasureBasic
	}
	return &Controller{coll: coll, view: view, opts: opts}
}

// OnChange registers a callback for view-only changes (pan, zoom, preview)
// that the collection does not report.
func (c *Controller) OnChange(fn func()) {
	c.onChange = fn
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *Controller) Tool() Tool { return c.tool }

func (c *Controller) State() State { return c.state }

func (c *Controller) Viewport() *viewport.Viewport { return c.view }

func (c *Controller) Collection() *collection.Collection { return c.coll }

// SetActiveLabel chooses the label given to newly drawn boxes
func (c *Controller) SetActiveLabel(name string) { c.activeLabel = name }

func (c *Controller) ActiveLabel() string { return c.activeLabel }

// SetTitlePosition chooses where newly drawn boxes show their label
func (c *Controller) SetTitlePosition(p domain.TitlePosition) { c.titlePosition = p }

// SetTool switches tools. A gesture in progress is cancelled.
func (c *Controller) SetTool(t Tool) {
	if t == c.tool {
		return
	}
	c.Cancel()
	c.tool = t
	c.changed()
}

func (c *Controller) imageSize() (float64, float64, bool) {
	return c.coll.Bounds()
}

func (c *Controller) hitOptions() geometry.HitOptions {
	w, h, _ := c.imageSize()
	return geometry.HitOptions{
		BorderTolerance: c.view.ScreenLength(c.opts.BorderTolerance),
		HandleSize:      c.view.ScreenLength(c.opts.HandleSize),
		CanvasWidth:     w,
		CanvasHeight:    h,
		Measure:         c.opts.Measure,
	}
}

// PointerDown starts a gesture at screen point p.
func (c *Controller) PointerDown(p vec.Vec2, mods key.Modifiers) {
	if c.state != StateIdle {
		c.finish()
	}
	if c.tool == ToolPan {
		c.state = StatePanning
		c.lastScreen = p
		c.panStart = c.view.Pan()
		c.changed()
		return
	}
	w, h, ok := c.imageSize()
	if !ok {
		return
	}
	ip := c.view.ScreenToImage(p)
	opt := c.hitOptions()

	if sel, ok := c.coll.Selected(); ok && sel.Visible {
		if !sel.Locked {
			if hd := geometry.HandleAt(sel, ip, opt.HandleSize); hd != geometry.HandleNone {
				c.beginEdit(sel, StateResizing)
				c.handle = hd
				return
			}
		}
		if geometry.Contains(sel, ip) {
			if !sel.Locked {
				c.beginEdit(sel, StateDragging)
				c.grabOffset = ip.Sub(vec.Vec2{X: sel.X, Y: sel.Y})
			}
			return
		}
	}

	anns := c.coll.Annotations()
	if i := geometry.TopmostAt(ip, anns, c.coll.SelectedID(), opt); i >= 0 {
		c.coll.Select(anns[i].Key())
		return
	}

	c.coll.Select("")
	c.state = StateDrawing
	c.anchor = geometry.ClampPoint(ip, w, h)
	c.current = c.anchor
	c.changed()
}

func (c *Controller) beginEdit(a domain.Annotation, s State) {
	c.state = s
	c.target = a.Key()
	c.start = a
	if c.opts.CoalesceHistory {
		c.tx = c.coll.Begin()
	}
}

func (c *Controller) update(p domain.Patch) {
	if c.tx != nil {
		c.tx.Update(c.target, p)
		return
	}
	c.coll.Update(c.target, p)
}

// PointerMove advances the active gesture.
func (c *Controller) PointerMove(p vec.Vec2, mods key.Modifiers) {
	switch c.state {
	case StatePanning:
		c.view.PanBy(p.Sub(c.lastScreen))
		c.lastScreen = p
		c.changed()
	case StateDrawing:
		w, h, _ := c.imageSize()
		c.current = c.view.ScreenToImageClamped(p, w, h)
		c.changed()
	case StateDragging:
		ip := c.view.ScreenToImage(p)
		pos := ip.Sub(c.grabOffset)
		c.update(domain.MoveTo(pos.X, pos.Y))
	case StateResizing:
		cur, ok := c.coll.Get(c.target)
		if !ok {
			c.Cancel()
			return
		}
		w, h, _ := c.imageSize()
		next := geometry.Resize(cur, c.handle, c.view.ScreenToImage(p), c.opts.MinBoxSize, w, h)
		c.update(domain.Reshape(next.X, next.Y, next.Width, next.Height))
	}
}

// PointerUp completes the active gesture.
func (c *Controller) PointerUp(p vec.Vec2, mods key.Modifiers) {
	if c.state == StateIdle {
		return
	}
	c.PointerMove(p, mods)
	c.finish()
}

// PointerLeave completes the active gesture as if the pointer was released
// where it was last seen.
func (c *Controller) PointerLeave() {
	if c.state == StateIdle {
		return
	}
	c.finish()
}

func (c *Controller) finish() {
	switch c.state {
	case StateDrawing:
		x, y, w, h := geometry.Normalize(c.anchor.X, c.anchor.Y, c.current.X-c.anchor.X, c.current.Y-c.anchor.Y)
		if w >= c.opts.MinBoxSize && h >= c.opts.MinBoxSize {
			c.coll.Create(domain.Annotation{
				X: x, Y: y, Width: w, Height: h,
				LabelName:     c.activeLabel,
				TitlePosition: c.titlePosition,
			})
		}
	case StateDragging:
		if cur, ok := c.coll.Get(c.target); ok {
			w, h, _ := c.imageSize()
			x, y := geometry.ClampInto(cur, w, h)
			c.update(domain.MoveTo(x, y))
		}
		if c.tx != nil {
			c.tx.Commit()
		}
	case StateResizing:
		if c.tx != nil {
			c.tx.Commit()
		}
	}
	c.reset()
	c.changed()
}

// Cancel abandons the active gesture: a pending box is discarded, a dragged
// or resized annotation gets its starting geometry back and a pan returns to
// where it began.
func (c *Controller) Cancel() {
	switch c.state {
	case StateIdle:
		return
	case StateDragging, StateResizing:
		if c.tx != nil {
			c.tx.Rollback()
		} else if cur, ok := c.coll.Get(c.target); ok && cur != c.start {
			c.coll.Update(c.target, domain.Reshape(c.start.X, c.start.Y, c.start.Width, c.start.Height))
		}
	case StatePanning:
		c.view.SetPan(c.panStart)
	}
	c.reset()
	c.changed()
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.target = ""
	c.handle = geometry.HandleNone
	c.tx = nil
}

// Preview returns the box being drawn, normalized, while in the drawing state
func (c *Controller) Preview() (domain.Annotation, bool) {
	if c.state != StateDrawing {
		return domain.Annotation{}, false
	}
	x, y, w, h := geometry.Normalize(c.anchor.X, c.anchor.Y, c.current.X-c.anchor.X, c.current.Y-c.anchor.Y)
	return domain.Annotation{X: x, Y: y, Width: w, Height: h, Visible: true, LabelName: c.activeLabel}, true
}

// Wheel zooms when Control or Meta is held and scrolls the view otherwise.
// A positive delta.Y means the wheel turned towards the user.
func (c *Controller) Wheel(delta vec.Vec2, mods key.Modifiers) {
	if mods&(key.ModControl|key.ModMeta) != 0 {
		switch {
		case delta.Y < 0:
			c.view.ZoomIn()
		case delta.Y > 0:
			c.view.ZoomOut()
		default:
			return
		}
	} else {
		c.view.PanBy(vec.Vec2{X: -delta.X, Y: -delta.Y})
	}
	c.changed()
}

func (c *Controller) ZoomIn() {
	c.view.ZoomIn()
	c.changed()
}

func (c *Controller) ZoomOut() {
	c.view.ZoomOut()
	c.changed()
}

// ResetView returns to zoom 1 with no pan
func (c *Controller) ResetView() {
	c.view.Reset()
	c.changed()
}

func (c *Controller) Undo() bool {
	c.Cancel()
	return c.coll.Undo()
}

func (c *Controller) Redo() bool {
	c.Cancel()
	return c.coll.Redo()
}

func (c *Controller) CanUndo() bool { return c.coll.CanUndo() }

func (c *Controller) CanRedo() bool { return c.coll.CanRedo() }

// DeleteSelected cancels any gesture and removes the selection unless locked.
func (c *Controller) DeleteSelected() bool {
	c.Cancel()
	id := c.coll.SelectedID()
	if id == "" {
		return false
	}
	return c.coll.Delete(id)
}

// Nudge moves the selection by amount image pixels. It is ignored while a
// gesture is in progress.
func (c *Controller) Nudge(dir collection.Direction, amount float64) bool {
	if c.state != StateIdle {
		return false
	}
	return c.coll.MoveSelected(dir, amount)
}

// Cursor returns the pointer style for screen point p.
func (c *Controller) Cursor(p vec.Vec2) geometry.Cursor {
	switch c.state {
	case StatePanning:
		return geometry.CursorGrabbing
	case StateDragging:
		return geometry.CursorMove
	case StateResizing:
		return c.handle.Cursor()
	case StateDrawing:
		return geometry.CursorCrosshair
	}
	if c.tool == ToolPan {
		return geometry.CursorGrab
	}
	if _, _, ok := c.imageSize(); !ok {
		return geometry.CursorDefault
	}
	return geometry.CursorAt(c.view.ScreenToImage(p), c.coll.Annotations(), c.coll.SelectedID(), c.hitOptions())
}
