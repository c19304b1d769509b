// Package keyboard maps key events onto editor commands.
package keyboard

import (
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/lewtec/enquadra/internal/collection"
	"github.com/lewtec/enquadra/internal/interaction"
)

// Target is the set of commands shortcuts can trigger; *interaction.Controller
// implements it.
type Target interface {
	Tool() interaction.Tool
	SetTool(interaction.Tool)
	ZoomIn()
	ZoomOut()
	ResetView()
	Undo() bool
	Redo() bool
	Nudge(dir collection.Direction, amount float64) bool
	DeleteSelected() bool
}

var _ Target = (*interaction.Controller)(nil)

// Result tells the host whether a key was consumed and whether its default
// action (scrolling the page on space, for instance) must be suppressed.
type Result struct {
	Handled        bool
	PreventDefault bool
}

var (
	consumed    = Result{Handled: true, PreventDefault: true}
	handledOnly = Result{Handled: true}
)

// Layer holds the shortcut state: whether space is held for temporary
// panning and which tool to return to when it is released.
type Layer struct {
	target     Target
	focused    func() bool
	nudge      float64
	nudgeLarge float64

	spaceHeld bool
	prevTool  interaction.Tool
}

type Option func(*Layer)

// WithFocus reports whether a text input currently owns the keyboard
func WithFocus(fn func() bool) Option {
	return func(l *Layer) { l.focused = fn }
}

// WithNudge sets the arrow key step and the step used with Shift
func WithNudge(step, large float64) Option {
	return func(l *Layer) { l.nudge, l.nudgeLarge = step, large }
}

func New(target Target, opts ...Option) *Layer {
	l := &Layer{target: target, nudge: 1, nudgeLarge: 10}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Layer) inputFocused() bool {
	return l.focused != nil && l.focused()
}

// SpaceHeld reports whether temporary panning is active
func (l *Layer) SpaceHeld() bool { return l.spaceHeld }

// HandleKey dispatches a platform key event. Repeats count as presses.
func (l *Layer) HandleKey(e key.Event) Result {
	if e.Direction == key.DirRelease {
		return l.KeyUp(e)
	}
	return l.KeyDown(e)
}

func isSpace(e key.Event) bool {
	return e.Code == key.CodeSpacebar || e.Rune == ' '
}

func (l *Layer) KeyDown(e key.Event) Result {
	if isSpace(e) {
		if l.inputFocused() {
			return Result{PreventDefault: true}
		}
		if !l.spaceHeld {
			l.spaceHeld = true
			l.prevTool = l.target.Tool()
			l.target.SetTool(interaction.ToolPan)
		}
		return consumed
	}
	if l.inputFocused() {
		return Result{}
	}

	r := unicode.ToLower(e.Rune)
	shift := e.Modifiers&key.ModShift != 0

	if e.Modifiers&(key.ModControl|key.ModMeta) != 0 {
		switch {
		case r == 'z' || e.Code == key.CodeZ:
			if shift {
				l.target.Redo()
			} else {
				l.target.Undo()
			}
			return consumed
		case r == 'y' || e.Code == key.CodeY:
			l.target.Redo()
			return consumed
		}
		return Result{}
	}

	switch {
	case r == 's' || e.Code == key.CodeS:
		l.target.SetTool(interaction.ToolSelect)
		return handledOnly
	case r == 'p' || e.Code == key.CodeP:
		l.target.SetTool(interaction.ToolPan)
		return handledOnly
	case r == '+' || r == '=' || e.Code == key.CodeEqualSign || e.Code == key.CodeKeypadPlusSign:
		l.target.ZoomIn()
		return consumed
	case r == '-' || e.Code == key.CodeHyphenMinus || e.Code == key.CodeKeypadHyphenMinus:
		l.target.ZoomOut()
		return consumed
	case r == '0' || e.Code == key.Code0 || e.Code == key.CodeKeypad0:
		l.target.ResetView()
		return consumed
	case e.Code == key.CodeDeleteForward:
		l.target.DeleteSelected()
		return handledOnly
	}

	step := l.nudge
	if shift {
		step = l.nudgeLarge
	}
	switch e.Code {
	case key.CodeUpArrow:
		l.target.Nudge(collection.Up, step)
	case key.CodeDownArrow:
		l.target.Nudge(collection.Down, step)
	case key.CodeLeftArrow:
		l.target.Nudge(collection.Left, step)
	case key.CodeRightArrow:
		l.target.Nudge(collection.Right, step)
	default:
		return Result{}
	}
	return consumed
}

// KeyUp ends temporary panning when space is released.
func (l *Layer) KeyUp(e key.Event) Result {
	if !isSpace(e) {
		return Result{}
	}
	if l.spaceHeld {
		l.spaceHeld = false
		l.target.SetTool(l.prevTool)
	}
	return consumed
}
