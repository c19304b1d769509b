package annotation

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"gopkg.in/yaml.v3"

	"github.com/lewtec/enquadra/internal/domain"
	"github.com/lewtec/enquadra/internal/editor"
	"github.com/lewtec/enquadra/internal/interaction"
)

// Script is a recorded editing session: an image and the input events
// applied to it, in screen pixels.
type Script struct {
	Image  string        `yaml:"image"`
	Label  string        `yaml:"label"`
	Events []ScriptEvent `yaml:"events"`
}

// ScriptEvent sets exactly one of its fields
type ScriptEvent struct {
	Down   []float64    `yaml:"down,omitempty"`
	Move   []float64    `yaml:"move,omitempty"`
	Up     []float64    `yaml:"up,omitempty"`
	Drag   *ScriptDrag  `yaml:"drag,omitempty"`
	Wheel  *ScriptWheel `yaml:"wheel,omitempty"`
	Key    string       `yaml:"key,omitempty"`
	KeyUp  string       `yaml:"key_up,omitempty"`
	Label  *string      `yaml:"label,omitempty"`
	Tool   string       `yaml:"tool,omitempty"`
	Select *string      `yaml:"select,omitempty"`
	Leave  bool         `yaml:"leave,omitempty"`
	Update *ScriptPatch `yaml:"update,omitempty"`
}

type ScriptDrag struct {
	From []float64 `yaml:"from"`
	To   []float64 `yaml:"to"`
}

// ScriptWheel turns the wheel by whole notches at a point
type ScriptWheel struct {
	At    []float64 `yaml:"at"`
	DX    int       `yaml:"dx"`
	DY    int       `yaml:"dy"`
	Ctrl  bool      `yaml:"ctrl"`
	Shift bool      `yaml:"shift"`
}

type ScriptPatch struct {
	ID            string                `yaml:"id"`
	Label         *string               `yaml:"label"`
	Visible       *bool                 `yaml:"visible"`
	Locked        *bool                 `yaml:"locked"`
	TitlePosition *domain.TitlePosition `yaml:"title_position"`
}

func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("while parsing script: %w", err)
	}
	return &s, nil
}

// ReplaySummary describes the editor after a replay
type ReplaySummary struct {
	Events       int
	Frames       int
	Annotations  int
	Selected     string
	HistoryLen   int
	HistoryIndex int
	CanUndo      bool
	CanRedo      bool
}

func (s ReplaySummary) String() string {
	return fmt.Sprintf("events: %d, frames: %d, annotations: %d, selected: %q, history: %d/%d, undo: %v, redo: %v",
		s.Events, s.Frames, s.Annotations, s.Selected, s.HistoryIndex+1, s.HistoryLen, s.CanUndo, s.CanRedo)
}

func point(p []float64) (float32, float32, error) {
	if len(p) != 2 {
		return 0, 0, fmt.Errorf("expected a point [x, y], got %v", p)
	}
	return float32(p[0]), float32(p[1]), nil
}

var namedKeys = map[string]key.Code{
	"space":     key.CodeSpacebar,
	"delete":    key.CodeDeleteForward,
	"up":        key.CodeUpArrow,
	"down":      key.CodeDownArrow,
	"left":      key.CodeLeftArrow,
	"right":     key.CodeRightArrow,
	"plus":      key.CodeEqualSign,
	"minus":     key.CodeHyphenMinus,
	"0":         key.Code0,
	"escape":    key.CodeEscape,
	"backspace": key.CodeDeleteBackspace,
}

// ParseKey reads shortcuts written like "ctrl+shift+z", "space" or "+"
func ParseKey(s string) (key.Event, error) {
	var e key.Event
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	name := parts[len(parts)-1]
	mods := parts[:len(parts)-1]
	if name == "" && len(parts) >= 2 {
		// "+" itself or "ctrl++"
		name = "+"
		mods = parts[:len(parts)-2]
	}
	for _, m := range mods {
		switch m {
		case "ctrl", "control":
			e.Modifiers |= key.ModControl
		case "cmd", "meta":
			e.Modifiers |= key.ModMeta
		case "shift":
			e.Modifiers |= key.ModShift
		case "alt":
			e.Modifiers |= key.ModAlt
		default:
			return e, fmt.Errorf("unknown modifier %q in %q", m, s)
		}
	}
	switch {
	case name == "+":
		e.Rune, e.Code = '+', key.CodeEqualSign
	case name == "-":
		e.Rune, e.Code = '-', key.CodeHyphenMinus
	case namedKeys[name] != 0:
		e.Code = namedKeys[name]
		if name == "space" {
			e.Rune = ' '
		}
		if name == "0" {
			e.Rune = '0'
		}
	case len(name) == 1 && name[0] >= 'a' && name[0] <= 'z':
		e.Rune = rune(name[0])
		e.Code = key.CodeA + key.Code(name[0]-'a')
	default:
		return e, fmt.Errorf("unknown key %q", s)
	}
	return e, nil
}

func parseTool(s string) (interaction.Tool, error) {
	switch s {
	case "select":
		return interaction.ToolSelect, nil
	case "pan":
		return interaction.ToolPan, nil
	}
	return interaction.ToolSelect, fmt.Errorf("unknown tool %q", s)
}

// Replay feeds the script events into ed, ticking the renderer after each
// one the way a host event loop would.
func Replay(ed *editor.Editor, s *Script) (ReplaySummary, error) {
	var summary ReplaySummary
	if s.Label != "" {
		ed.SetActiveLabel(s.Label)
	}
	tick := func() error {
		painted, err := ed.Render()
		if painted {
			summary.Frames++
		}
		return err
	}
	if err := tick(); err != nil {
		return summary, err
	}
	for i, ev := range s.Events {
		if err := applyEvent(ed, ev); err != nil {
			return summary, fmt.Errorf("while replaying event %d: %w", i+1, err)
		}
		summary.Events++
		if err := tick(); err != nil {
			return summary, fmt.Errorf("while rendering after event %d: %w", i+1, err)
		}
	}
	coll := ed.Collection()
	summary.Annotations = len(coll.Annotations())
	summary.Selected = coll.SelectedID()
	summary.HistoryLen = coll.HistoryLen()
	summary.HistoryIndex = coll.HistoryIndex()
	summary.CanUndo = ed.CanUndo()
	summary.CanRedo = ed.CanRedo()
	return summary, nil
}

func pointerEvent(p []float64, btn mouse.Button, dir mouse.Direction) (mouse.Event, error) {
	x, y, err := point(p)
	return mouse.Event{X: x, Y: y, Button: btn, Direction: dir}, err
}

func applyEvent(ed *editor.Editor, ev ScriptEvent) error {
	switch {
	case ev.Down != nil:
		e, err := pointerEvent(ev.Down, mouse.ButtonLeft, mouse.DirPress)
		if err != nil {
			return err
		}
		ed.HandleMouse(e)
	case ev.Move != nil:
		e, err := pointerEvent(ev.Move, mouse.ButtonNone, mouse.DirNone)
		if err != nil {
			return err
		}
		ed.HandleMouse(e)
	case ev.Up != nil:
		e, err := pointerEvent(ev.Up, mouse.ButtonLeft, mouse.DirRelease)
		if err != nil {
			return err
		}
		ed.HandleMouse(e)
	case ev.Drag != nil:
		from, err := pointerEvent(ev.Drag.From, mouse.ButtonLeft, mouse.DirPress)
		if err != nil {
			return err
		}
		to, err := pointerEvent(ev.Drag.To, mouse.ButtonNone, mouse.DirNone)
		if err != nil {
			return err
		}
		ed.HandleMouse(from)
		ed.HandleMouse(to)
		to.Button, to.Direction = mouse.ButtonLeft, mouse.DirRelease
		ed.HandleMouse(to)
	case ev.Wheel != nil:
		return applyWheel(ed, ev.Wheel)
	case ev.Key != "":
		e, err := ParseKey(ev.Key)
		if err != nil {
			return err
		}
		e.Direction = key.DirPress
		ed.HandleKey(e)
	case ev.KeyUp != "":
		e, err := ParseKey(ev.KeyUp)
		if err != nil {
			return err
		}
		e.Direction = key.DirRelease
		ed.HandleKey(e)
	case ev.Label != nil:
		ed.SetActiveLabel(*ev.Label)
	case ev.Tool != "":
		t, err := parseTool(ev.Tool)
		if err != nil {
			return err
		}
		ed.SetTool(t)
	case ev.Select != nil:
		ed.Select(*ev.Select)
	case ev.Leave:
		ed.PointerLeave()
	case ev.Update != nil:
		u := ev.Update
		ed.Update(u.ID, domain.Patch{
			LabelName:     u.Label,
			Visible:       u.Visible,
			Locked:        u.Locked,
			TitlePosition: u.TitlePosition,
		})
	default:
		return fmt.Errorf("empty event")
	}
	return nil
}

func applyWheel(ed *editor.Editor, w *ScriptWheel) error {
	var x, y float32
	if w.At != nil {
		var err error
		if x, y, err = point(w.At); err != nil {
			return err
		}
	}
	var mods key.Modifiers
	if w.Ctrl {
		mods |= key.ModControl
	}
	if w.Shift {
		mods |= key.ModShift
	}
	notch := func(n int, neg, pos mouse.Button) {
		btn := pos
		if n < 0 {
			btn, n = neg, -n
		}
		for i := 0; i < n; i++ {
			ed.HandleMouse(mouse.Event{X: x, Y: y, Button: btn, Direction: mouse.DirStep, Modifiers: mods})
		}
	}
	notch(w.DY, mouse.ButtonWheelUp, mouse.ButtonWheelDown)
	notch(w.DX, mouse.ButtonWheelLeft, mouse.ButtonWheelRight)
	return nil
}
