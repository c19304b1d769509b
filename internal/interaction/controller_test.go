package interaction

import (
	"testing"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"seehuhn.de/go/geom/vec"

	"github.com/lewtec/enquadra/internal/collection"
	"github.com/lewtec/enquadra/internal/domain"
	"github.com/lewtec/enquadra/internal/geometry"
	"github.com/lewtec/enquadra/internal/viewport"
)

func fixedMeasure(s string) float64 {
	return float64(len(s)) * 7
}

// newTestController returns a controller over a 640x480 image
func newTestController(t *testing.T, mutate ...func(*Options)) (*Controller, *collection.Collection) {
	t.Helper()
	coll := collection.New()
	coll.SetBounds(640, 480)
	opts := DefaultOptions()
	opts.Measure = fixedMeasure
	for _, m := range mutate {
		m(&opts)
	}
	return New(coll, viewport.New(viewport.DefaultLimits()), opts), coll
}

func pt(x, y float64) vec.Vec2 {
	return vec.Vec2{X: x, Y: y}
}

func gesture(c *Controller, points ...vec.Vec2) {
	c.PointerDown(points[0], 0)
	for _, p := range points[1:] {
		c.PointerMove(p, 0)
	}
	c.PointerUp(points[len(points)-1], 0)
}

func mustGet(t *testing.T, coll *collection.Collection, id string) domain.Annotation {
	t.Helper()
	a, ok := coll.Get(id)
	if !ok {
		t.Fatalf("annotation %q not found", id)
	}
	return a
}

func TestController_Drawing(t *testing.T) {
	t.Run("an inverted drag creates a normalized selected box", func(t *testing.T) {
		c, coll := newTestController(t)
		gesture(c, pt(10, 10), pt(5, 5))

		anns := coll.Annotations()
		if len(anns) != 1 {
			t.Fatalf("len = %d, want 1", len(anns))
		}
		a := anns[0]
		if a.X != 5 || a.Y != 5 || a.Width != 5 || a.Height != 5 {
			t.Errorf("got %+v, want 5,5,5,5", a)
		}
		if coll.SelectedID() != a.LocalID {
			t.Errorf("SelectedID = %q, want %q", coll.SelectedID(), a.LocalID)
		}
		if c.State() != StateIdle {
			t.Errorf("State = %v, want idle", c.State())
		}
	})

	t.Run("boxes smaller than the minimum are discarded", func(t *testing.T) {
		c, coll := newTestController(t)
		gesture(c, pt(10, 10), pt(14, 40))
		if len(coll.Annotations()) != 0 {
			t.Errorf("len = %d, want 0", len(coll.Annotations()))
		}
		if coll.CanUndo() {
			t.Error("a discarded box should not be recorded")
		}
	})

	t.Run("points are clamped to the image", func(t *testing.T) {
		c, coll := newTestController(t)
		gesture(c, pt(600, 400), pt(900, 900))
		a := coll.Annotations()[0]
		if a.X+a.Width != 640 || a.Y+a.Height != 480 {
			t.Errorf("box extends to (%v,%v), want (640,480)", a.X+a.Width, a.Y+a.Height)
		}
	})

	t.Run("new boxes take the active label", func(t *testing.T) {
		c, coll := newTestController(t)
		c.SetActiveLabel("car")
		c.SetTitlePosition(domain.TitleBottomRight)
		gesture(c, pt(10, 10), pt(50, 50))
		a := coll.Annotations()[0]
		if a.LabelName != "car" || a.TitlePosition != domain.TitleBottomRight {
			t.Errorf("label, title = %q, %v", a.LabelName, a.TitlePosition)
		}
	})

	t.Run("preview follows the pointer while drawing", func(t *testing.T) {
		c, _ := newTestController(t)
		c.PointerDown(pt(50, 50), 0)
		c.PointerMove(pt(20, 30), 0)
		p, ok := c.Preview()
		if !ok {
			t.Fatal("expected a preview")
		}
		if p.X != 20 || p.Y != 30 || p.Width != 30 || p.Height != 20 {
			t.Errorf("preview = %+v", p)
		}
	})

	t.Run("nothing happens before the image is loaded", func(t *testing.T) {
		coll := collection.New()
		c := New(coll, viewport.New(viewport.DefaultLimits()), DefaultOptions())
		gesture(c, pt(10, 10), pt(100, 100))
		if len(coll.Annotations()) != 0 {
			t.Error("no box should be drawn without an image")
		}
		if got := c.Cursor(pt(10, 10)); got != geometry.CursorDefault {
			t.Errorf("Cursor = %v, want default", got)
		}
	})

	t.Run("pointer leave finishes the box", func(t *testing.T) {
		c, coll := newTestController(t)
		c.PointerDown(pt(10, 10), 0)
		c.PointerMove(pt(60, 60), 0)
		c.PointerLeave()
		if len(coll.Annotations()) != 1 {
			t.Errorf("len = %d, want 1", len(coll.Annotations()))
		}
		if c.State() != StateIdle {
			t.Errorf("State = %v, want idle", c.State())
		}
	})

	t.Run("drawing on empty space clears the selection", func(t *testing.T) {
		c, coll := newTestController(t)
		coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		c.PointerDown(pt(400, 400), 0)
		if coll.SelectedID() != "" {
			t.Errorf("SelectedID = %q, want empty", coll.SelectedID())
		}
		if c.State() != StateDrawing {
			t.Errorf("State = %v, want drawing", c.State())
		}
	})
}

func TestController_Dragging(t *testing.T) {
	t.Run("dragging the selection moves it with one history entry", func(t *testing.T) {
		c, coll := newTestController(t)
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		before := coll.HistoryLen()

		gesture(c, pt(120, 120), pt(125, 125), pt(128, 135), pt(130, 140))

		got := mustGet(t, coll, a.LocalID)
		if got.X != 110 || got.Y != 120 {
			t.Errorf("position = (%v,%v), want (110,120)", got.X, got.Y)
		}
		if coll.HistoryLen() != before+1 {
			t.Errorf("HistoryLen = %d, want %d", coll.HistoryLen(), before+1)
		}
		coll.Undo()
		got = mustGet(t, coll, a.LocalID)
		if got.X != 100 || got.Y != 100 {
			t.Errorf("position after undo = (%v,%v), want (100,100)", got.X, got.Y)
		}
	})

	t.Run("the drop position is clamped to the image", func(t *testing.T) {
		c, coll := newTestController(t)
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})

		c.PointerDown(pt(120, 120), 0)
		c.PointerMove(pt(10, 10), 0)
		if got := mustGet(t, coll, a.LocalID); got.X != -10 {
			t.Errorf("X while dragging = %v, want -10", got.X)
		}
		c.PointerUp(pt(10, 10), 0)
		got := mustGet(t, coll, a.LocalID)
		if got.X != 0 || got.Y != 0 {
			t.Errorf("position = (%v,%v), want (0,0)", got.X, got.Y)
		}
	})

	t.Run("per-move history records every step", func(t *testing.T) {
		c, coll := newTestController(t, func(o *Options) { o.CoalesceHistory = false })
		coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		before := coll.HistoryLen()

		gesture(c, pt(120, 120), pt(121, 120), pt(122, 120), pt(123, 120))

		if coll.HistoryLen() != before+3 {
			t.Errorf("HistoryLen = %d, want %d", coll.HistoryLen(), before+3)
		}
	})

	t.Run("locked annotations do not move and do not start a box", func(t *testing.T) {
		c, coll := newTestController(t)
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		coll.Update(a.LocalID, domain.Patch{Locked: domain.Ptr(true)})

		gesture(c, pt(120, 120), pt(200, 200))

		got := mustGet(t, coll, a.LocalID)
		if got.X != 100 || got.Y != 100 {
			t.Errorf("locked annotation moved to (%v,%v)", got.X, got.Y)
		}
		if len(coll.Annotations()) != 1 {
			t.Errorf("len = %d, want 1", len(coll.Annotations()))
		}
		if coll.SelectedID() != a.LocalID {
			t.Error("selection should stay on the locked annotation")
		}
	})
}

func TestController_Resizing(t *testing.T) {
	t.Run("dragging a corner keeps the opposite corner", func(t *testing.T) {
		c, coll := newTestController(t)
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})

		c.PointerDown(pt(150, 150), 0)
		if c.State() != StateResizing {
			t.Fatalf("State = %v, want resizing", c.State())
		}
		if got := c.Cursor(pt(150, 150)); got != geometry.CursorResizeNWSE {
			t.Errorf("Cursor = %v, want %v", got, geometry.CursorResizeNWSE)
		}
		c.PointerMove(pt(200, 220), 0)
		c.PointerUp(pt(200, 220), 0)

		got := mustGet(t, coll, a.LocalID)
		if got.X != 100 || got.Y != 100 || got.Width != 100 || got.Height != 120 {
			t.Errorf("got %+v, want 100,100,100,120", got)
		}
	})

	t.Run("resizing past the opposite edge stops at the minimum size", func(t *testing.T) {
		c, coll := newTestController(t)
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})

		gesture(c, pt(100, 125), pt(300, 125))

		got := mustGet(t, coll, a.LocalID)
		if got.X != 145 || got.Width != 5 {
			t.Errorf("X, Width = %v, %v, want 145, 5", got.X, got.Width)
		}
	})

	t.Run("a target deleted mid-resize ends the gesture", func(t *testing.T) {
		c, coll := newTestController(t)
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		before := coll.HistoryLen()

		c.PointerDown(pt(150, 150), 0)
		c.PointerMove(pt(200, 220), 0)
		coll.Delete(a.LocalID)
		c.PointerMove(pt(250, 250), 0)

		if c.State() != StateIdle {
			t.Errorf("State = %v, want idle", c.State())
		}
		if coll.HistoryLen() != before+2 {
			t.Fatalf("HistoryLen = %d, want %d (resize then delete)", coll.HistoryLen(), before+2)
		}
		coll.Undo()
		got := mustGet(t, coll, a.LocalID)
		if got.Width != 100 || got.Height != 120 {
			t.Errorf("after undoing the delete got %+v, want the resized box", got)
		}
		coll.Undo()
		if got := mustGet(t, coll, a.LocalID); got.Width != 50 {
			t.Errorf("after undoing the resize Width = %v, want 50", got.Width)
		}

		c.PointerDown(pt(400, 400), 0)
		c.PointerUp(pt(400, 400), 0)
		if coll.HistoryLen() != before+2 || !coll.CanRedo() {
			t.Errorf("a later gesture recorded a stale transaction: len %d", coll.HistoryLen())
		}
	})

	t.Run("handles shrink in image space when zoomed in", func(t *testing.T) {
		c, coll := newTestController(t)
		coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		c.Viewport().SetZoom(4)

		// 6 image pixels from the corner is 24 screen pixels, outside the handle
		c.PointerDown(pt(424, 424), 0)
		if c.State() != StateDragging {
			t.Errorf("State = %v, want dragging", c.State())
		}
	})
}

func TestController_Selection(t *testing.T) {
	t.Run("clicking another annotation selects it without dragging", func(t *testing.T) {
		c, coll := newTestController(t)
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		coll.Create(domain.Annotation{X: 300, Y: 300, Width: 50, Height: 50})

		c.PointerDown(pt(120, 120), 0)
		if coll.SelectedID() != a.LocalID {
			t.Errorf("SelectedID = %q, want %q", coll.SelectedID(), a.LocalID)
		}
		c.PointerMove(pt(200, 200), 0)
		c.PointerUp(pt(200, 200), 0)
		if got := mustGet(t, coll, a.LocalID); got.X != 100 {
			t.Errorf("X = %v, want 100", got.X)
		}
	})

	t.Run("the topmost annotation wins", func(t *testing.T) {
		c, coll := newTestController(t)
		bottom := coll.Create(domain.Annotation{X: 0, Y: 0, Width: 200, Height: 200})
		top := coll.Create(domain.Annotation{X: 50, Y: 50, Width: 100, Height: 100})
		coll.Select("")

		c.PointerDown(pt(100, 100), 0)
		if coll.SelectedID() != top.LocalID {
			t.Errorf("SelectedID = %q, want top %q (bottom is %q)", coll.SelectedID(), top.LocalID, bottom.LocalID)
		}
	})

	t.Run("hidden annotations are not hit", func(t *testing.T) {
		c, coll := newTestController(t)
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		coll.Update(a.LocalID, domain.Patch{Visible: domain.Ptr(false)})
		coll.Select("")

		c.PointerDown(pt(120, 120), 0)
		if c.State() != StateDrawing {
			t.Errorf("State = %v, want drawing", c.State())
		}
	})
}

func TestController_Cancel(t *testing.T) {
	t.Run("switching tools mid-drag restores the annotation", func(t *testing.T) {
		c, coll := newTestController(t)
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		before := coll.HistoryLen()

		c.PointerDown(pt(120, 120), 0)
		c.PointerMove(pt(200, 200), 0)
		c.SetTool(ToolPan)

		got := mustGet(t, coll, a.LocalID)
		if got.X != 100 || got.Y != 100 {
			t.Errorf("position = (%v,%v), want (100,100)", got.X, got.Y)
		}
		if c.State() != StateIdle || c.Tool() != ToolPan {
			t.Errorf("State, Tool = %v, %v", c.State(), c.Tool())
		}
		if coll.HistoryLen() != before {
			t.Errorf("HistoryLen = %d, want %d", coll.HistoryLen(), before)
		}
	})

	t.Run("switching tools mid-draw discards the box", func(t *testing.T) {
		c, coll := newTestController(t)
		c.PointerDown(pt(300, 300), 0)
		c.PointerMove(pt(400, 400), 0)
		c.SetTool(ToolPan)
		c.PointerUp(pt(400, 400), 0)

		if len(coll.Annotations()) != 0 {
			t.Errorf("len = %d, want 0", len(coll.Annotations()))
		}
		if _, ok := c.Preview(); ok {
			t.Error("preview should be gone")
		}
	})

	t.Run("per-move resize is restored on cancel", func(t *testing.T) {
		c, coll := newTestController(t, func(o *Options) { o.CoalesceHistory = false })
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})

		c.PointerDown(pt(150, 150), 0)
		c.PointerMove(pt(250, 250), 0)
		c.Cancel()

		got := mustGet(t, coll, a.LocalID)
		if got.Width != 50 || got.Height != 50 {
			t.Errorf("size = %vx%v, want 50x50", got.Width, got.Height)
		}
	})

	t.Run("undo during a drag cancels it first", func(t *testing.T) {
		c, coll := newTestController(t)
		coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})

		c.PointerDown(pt(120, 120), 0)
		c.PointerMove(pt(200, 200), 0)
		if !c.Undo() {
			t.Fatal("Undo returned false")
		}
		if len(coll.Annotations()) != 0 {
			t.Errorf("len = %d, want 0", len(coll.Annotations()))
		}
		if c.State() != StateIdle {
			t.Errorf("State = %v, want idle", c.State())
		}
	})
}

func TestController_Panning(t *testing.T) {
	t.Run("the pan tool moves the view", func(t *testing.T) {
		c, coll := newTestController(t)
		c.SetTool(ToolPan)
		if got := c.Cursor(pt(0, 0)); got != geometry.CursorGrab {
			t.Errorf("Cursor = %v, want grab", got)
		}

		c.PointerDown(pt(100, 100), 0)
		if got := c.Cursor(pt(0, 0)); got != geometry.CursorGrabbing {
			t.Errorf("Cursor = %v, want grabbing", got)
		}
		c.PointerMove(pt(110, 105), 0)
		c.PointerMove(pt(130, 90), 0)
		c.PointerUp(pt(130, 90), 0)

		if got := c.Viewport().Pan(); got != pt(30, -10) {
			t.Errorf("Pan = %v, want (30,-10)", got)
		}
		if len(coll.Annotations()) != 0 {
			t.Error("panning should not draw")
		}
	})

	t.Run("cancelling a pan restores the view", func(t *testing.T) {
		c, _ := newTestController(t)
		c.SetTool(ToolPan)
		c.PointerDown(pt(100, 100), 0)
		c.PointerMove(pt(150, 150), 0)
		c.SetTool(ToolSelect)
		if got := c.Viewport().Pan(); got != pt(0, 0) {
			t.Errorf("Pan = %v, want origin", got)
		}
	})

	t.Run("hit tests follow the view transform", func(t *testing.T) {
		c, coll := newTestController(t)
		c.Viewport().SetZoom(2)
		c.Viewport().PanBy(pt(10, 10))

		gesture(c, pt(10, 10), pt(110, 110))
		a := coll.Annotations()[0]
		if a.X != 0 || a.Y != 0 || a.Width != 50 || a.Height != 50 {
			t.Errorf("got %+v, want 0,0,50,50", a)
		}
	})
}

func TestController_Wheel(t *testing.T) {
	t.Run("control wheel zooms", func(t *testing.T) {
		c, _ := newTestController(t)
		c.Wheel(pt(0, -1), key.ModControl)
		if got := c.Viewport().Zoom(); got != 1.05 {
			t.Errorf("Zoom = %v, want 1.05", got)
		}
		c.Wheel(pt(0, 1), key.ModMeta)
		c.Wheel(pt(0, 1), key.ModMeta)
		if got := c.Viewport().Zoom(); got != 0.95 {
			t.Errorf("Zoom = %v, want 0.95", got)
		}
	})

	t.Run("plain wheel scrolls", func(t *testing.T) {
		c, _ := newTestController(t)
		c.Wheel(pt(0, 40), 0)
		if got := c.Viewport().Pan(); got != pt(0, -40) {
			t.Errorf("Pan = %v, want (0,-40)", got)
		}
		if got := c.Viewport().Zoom(); got != 1 {
			t.Errorf("Zoom = %v, want 1", got)
		}
	})
}

func TestController_Commands(t *testing.T) {
	t.Run("delete removes the selection", func(t *testing.T) {
		c, coll := newTestController(t)
		coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		if !c.DeleteSelected() {
			t.Fatal("DeleteSelected returned false")
		}
		if len(coll.Annotations()) != 0 {
			t.Errorf("len = %d, want 0", len(coll.Annotations()))
		}
		if c.DeleteSelected() {
			t.Error("nothing is selected anymore")
		}
	})

	t.Run("nudges are ignored during a gesture", func(t *testing.T) {
		c, coll := newTestController(t)
		a := coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		c.PointerDown(pt(120, 120), 0)
		if c.Nudge(collection.Right, 1) {
			t.Error("Nudge should be ignored while dragging")
		}
		c.PointerUp(pt(120, 120), 0)
		if !c.Nudge(collection.Right, 10) {
			t.Fatal("Nudge returned false")
		}
		if got := mustGet(t, coll, a.LocalID); got.X != 110 {
			t.Errorf("X = %v, want 110", got.X)
		}
	})

	t.Run("hover cursor uses the selection", func(t *testing.T) {
		c, coll := newTestController(t)
		coll.Create(domain.Annotation{X: 100, Y: 100, Width: 50, Height: 50})
		if got := c.Cursor(pt(125, 125)); got != geometry.CursorMove {
			t.Errorf("Cursor = %v, want move", got)
		}
		if got := c.Cursor(pt(500, 400)); got != geometry.CursorCrosshair {
			t.Errorf("Cursor = %v, want crosshair", got)
		}
	})
}

func TestController_HandleMouse(t *testing.T) {
	c, coll := newTestController(t)
	c.HandleMouse(mouse.Event{X: 10, Y: 10, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	c.HandleMouse(mouse.Event{X: 40, Y: 40, Direction: mouse.DirNone})
	c.HandleMouse(mouse.Event{X: 60, Y: 60, Button: mouse.ButtonLeft, Direction: mouse.DirRelease})

	anns := coll.Annotations()
	if len(anns) != 1 {
		t.Fatalf("len = %d, want 1", len(anns))
	}
	if anns[0].Width != 50 || anns[0].Height != 50 {
		t.Errorf("size = %vx%v, want 50x50", anns[0].Width, anns[0].Height)
	}

	c.HandleMouse(mouse.Event{Button: mouse.ButtonWheelUp, Direction: mouse.DirStep, Modifiers: key.ModControl})
	if got := c.Viewport().Zoom(); got != 1.05 {
		t.Errorf("Zoom = %v, want 1.05", got)
	}
	c.HandleMouse(mouse.Event{Button: mouse.ButtonWheelDown, Direction: mouse.DirStep})
	if got := c.Viewport().Pan(); got != pt(0, -40) {
		t.Errorf("Pan = %v, want (0,-40)", got)
	}
}
