// Package editor assembles the annotation engine for one image: the
// collection and its history, the viewport, the gesture controller, the
// keyboard layer and a render scheduler feeding the registered presenters.
package editor

import (
	"image"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"seehuhn.de/go/geom/vec"

	"github.com/lewtec/enquadra/internal/collection"
	"github.com/lewtec/enquadra/internal/domain"
	"github.com/lewtec/enquadra/internal/geometry"
	"github.com/lewtec/enquadra/internal/interaction"
	"github.com/lewtec/enquadra/internal/keyboard"
	"github.com/lewtec/enquadra/internal/render"
	"github.com/lewtec/enquadra/internal/viewport"
)

type Options struct {
	Interaction  interaction.Options
	Limits       viewport.Limits
	HistoryLimit int
	Nudge        float64
	NudgeLarge   float64
	// Focus reports whether a text input owns the keyboard
	Focus       func() bool
	IDGenerator func() string
}

func DefaultOptions() Options {
	return Options{
		Interaction: interaction.DefaultOptions(),
		Limits:      viewport.DefaultLimits(),
		Nudge:       1,
		NudgeLarge:  10,
	}
}

type Editor struct {
	coll  *collection.Collection
	view  *viewport.Viewport
	ctrl  *interaction.Controller
	keys  *keyboard.Layer
	sched *render.Scheduler
	opts  Options

	image    image.Image
	width    float64
	height   float64
	imageErr error
}

func New(opts Options, presenters ...render.Presenter) *Editor {
	collOpts := []collection.Option{collection.WithHistoryLimit(opts.HistoryLimit)}
	if opts.IDGenerator != nil {
		collOpts = append(collOpts, collection.WithIDGenerator(opts.IDGenerator))
	}
	e := &Editor{
		coll: collection.New(collOpts...),
		view: viewport.New(opts.Limits),
		opts: opts,
	}
	e.ctrl = interaction.New(e.coll, e.view, opts.Interaction)
	keyOpts := []keyboard.Option{}
	if opts.Nudge > 0 && opts.NudgeLarge > 0 {
		keyOpts = append(keyOpts, keyboard.WithNudge(opts.Nudge, opts.NudgeLarge))
	}
	if opts.Focus != nil {
		keyOpts = append(keyOpts, keyboard.WithFocus(opts.Focus))
	}
	e.keys = keyboard.New(e.ctrl, keyOpts...)
	e.sched = render.NewScheduler(e.Frame, presenters...)

	e.coll.Subscribe(func(domain.Snapshot) { e.sched.Invalidate() })
	e.ctrl.OnChange(e.sched.Invalidate)
	return e
}

// SetImage installs a freshly loaded bitmap. Annotations are kept, the view
// is reset and any previous load error is cleared.
func (e *Editor) SetImage(img image.Image) {
	b := img.Bounds()
	e.ctrl.Cancel()
	e.image = img
	e.width, e.height = float64(b.Dx()), float64(b.Dy())
	e.imageErr = nil
	e.coll.SetBounds(e.width, e.height)
	e.view.Reset()
	e.sched.Invalidate()
}

// ImageFailed records a load error. Editing stays disabled until SetImage.
func (e *Editor) ImageFailed(err error) {
	e.imageErr = err
	e.sched.Invalidate()
}

func (e *Editor) ImageError() error { return e.imageErr }

func (e *Editor) ImageReady() bool { return e.image != nil }

// ImageSize is zero until an image is set
func (e *Editor) ImageSize() (width, height float64) { return e.width, e.height }

// Load replaces the annotations with stored records and restarts history
func (e *Editor) Load(records []domain.Annotation) {
	e.ctrl.Cancel()
	e.coll.Load(records)
}

// Records returns the annotations to persist, in drawing order
func (e *Editor) Records() []domain.Annotation {
	return e.coll.Annotations()
}

// MarkSubmitted stores the ids handed out by persistence, keyed by LocalID
func (e *Editor) MarkSubmitted(ids map[string]string) {
	e.coll.AssignIDs(ids)
}

func (e *Editor) HandleMouse(ev mouse.Event) { e.ctrl.HandleMouse(ev) }

func (e *Editor) HandleKey(ev key.Event) keyboard.Result { return e.keys.HandleKey(ev) }

func (e *Editor) PointerLeave() { e.ctrl.PointerLeave() }

func (e *Editor) Cursor(p vec.Vec2) geometry.Cursor { return e.ctrl.Cursor(p) }

func (e *Editor) Snapshot() domain.Snapshot { return e.coll.Snapshot() }

func (e *Editor) Subscribe(fn func(domain.Snapshot)) func() { return e.coll.Subscribe(fn) }

func (e *Editor) CanUndo() bool { return e.ctrl.CanUndo() }

func (e *Editor) CanRedo() bool { return e.ctrl.CanRedo() }

func (e *Editor) Undo() bool { return e.ctrl.Undo() }

func (e *Editor) Redo() bool { return e.ctrl.Redo() }

func (e *Editor) SetActiveLabel(name string) { e.ctrl.SetActiveLabel(name) }

func (e *Editor) SetTool(t interaction.Tool) { e.ctrl.SetTool(t) }

// Update applies a patch from a side panel (label, visibility, lock)
func (e *Editor) Update(id string, p domain.Patch) bool { return e.coll.Update(id, p) }

func (e *Editor) Select(id string) { e.coll.Select(id) }

func (e *Editor) Collection() *collection.Collection { return e.coll }

func (e *Editor) Controller() *interaction.Controller { return e.ctrl }

func (e *Editor) Viewport() *viewport.Viewport { return e.view }

func (e *Editor) Keyboard() *keyboard.Layer { return e.keys }

// AddPresenter attaches another render target
func (e *Editor) AddPresenter(p render.Presenter) { e.sched.Add(p) }

// Frame captures the current state for presenters
func (e *Editor) Frame() render.Frame {
	f := render.Frame{
		Annotations: e.coll.Annotations(),
		SelectedID:  e.coll.SelectedID(),
		View:        *e.view,
		Image:       e.image,
		ImageWidth:  e.width,
		ImageHeight: e.height,
		Measure:     e.opts.Interaction.Measure,
	}
	if p, ok := e.ctrl.Preview(); ok {
		f.Preview = &p
	}
	return f
}

// Render paints one frame if anything changed since the last call
func (e *Editor) Render() (bool, error) {
	return e.sched.Tick()
}
