// Package collection owns the annotations of the image being edited together
// with the selection, and records every meaningful change in a history log.
package collection

import (
	"github.com/google/uuid"

	"github.com/lewtec/enquadra/internal/domain"
	"github.com/lewtec/enquadra/internal/history"
)

// Direction is a nudge direction for MoveSelected
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

type observer struct {
	id int
	fn func(domain.Snapshot)
}

// Collection is the single source of truth for annotation state. It is not
// safe for concurrent use; callers drive it from one event loop.
type Collection struct {
	annotations []domain.Annotation
	selectedID  string

	log *history.Log
	tx  *Tx

	width, height float64
	hasBounds     bool

	newID     func() string
	observers []observer
	nextObs   int
}

type Option func(*Collection)

// WithHistoryLimit caps the number of retained history snapshots
func WithHistoryLimit(n int) Option {
	return func(c *Collection) {
		c.log = history.New(domain.Snapshot{}, n)
	}
}

// WithIDGenerator replaces the uuid based LocalID generator
func WithIDGenerator(fn func() string) Option {
	return func(c *Collection) {
		c.newID = fn
	}
}

func New(opts ...Option) *Collection {
	c := &Collection{
		log:   history.New(domain.Snapshot{}, 0),
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBounds records the image size used to clamp nudges
func (c *Collection) SetBounds(width, height float64) {
	c.width, c.height = width, height
	c.hasBounds = true
}

// Bounds returns the image size, ok is false until SetBounds was called
func (c *Collection) Bounds() (width, height float64, ok bool) {
	return c.width, c.height, c.hasBounds
}

// Subscribe registers fn to be called after every state change. The returned
// func removes the subscription.
func (c *Collection) Subscribe(fn func(domain.Snapshot)) func() {
	id := c.nextObs
	c.nextObs++
	c.observers = append(c.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

func (c *Collection) notify() {
	if len(c.observers) == 0 {
		return
	}
	s := c.Snapshot()
	for _, o := range c.observers {
		o.fn(s)
	}
}

// Snapshot returns a deep copy of the current state
func (c *Collection) Snapshot() domain.Snapshot {
	return domain.Snapshot{Annotations: c.annotations, SelectedID: c.selectedID}.Clone()
}

// Annotations returns a copy of the annotations in drawing order
func (c *Collection) Annotations() []domain.Annotation {
	return c.Snapshot().Annotations
}

func (c *Collection) SelectedID() string { return c.selectedID }

func (c *Collection) indexOf(id string) int {
	for i, a := range c.annotations {
		if a.Matches(id) {
			return i
		}
	}
	return -1
}

// Get looks an annotation up by ID or LocalID
func (c *Collection) Get(id string) (domain.Annotation, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return domain.Annotation{}, false
	}
	return c.annotations[i], true
}

// Selected returns the selected annotation, if any
func (c *Collection) Selected() (domain.Annotation, bool) {
	return c.Get(c.selectedID)
}

func (c *Collection) commit() {
	c.log.Commit(c.Snapshot())
}

func (c *Collection) restore(s domain.Snapshot) {
	c.annotations = s.Annotations
	c.selectedID = s.SelectedID
}

// releaseLabel clears name from every annotation except the one at keep
func (c *Collection) releaseLabel(name string, keep int) {
	if name == "" {
		return
	}
	for i := range c.annotations {
		if i != keep && c.annotations[i].LabelName == name {
			c.annotations[i].LabelName = ""
		}
	}
}

// Create adds a new visible, unlocked annotation, selects it and commits.
// A label already used by another annotation is taken away from it.
func (c *Collection) Create(a domain.Annotation) domain.Annotation {
	a = a.Normalized()
	a.LocalID = c.newID()
	a.Visible = true
	a.Locked = false

	c.commitOpen()
	c.annotations = append(c.annotations, a)
	c.releaseLabel(a.LabelName, len(c.annotations)-1)
	c.selectedID = a.LocalID
	c.commit()
	c.notify()
	return a
}

// apply merges p into the annotation id without committing. recorded is
// false when only Visible or Locked actually changed.
func (c *Collection) apply(id string, p domain.Patch) (ok, recorded bool) {
	i := c.indexOf(id)
	if i < 0 {
		return false, false
	}
	cur := c.annotations[i]
	next := p.Apply(cur)
	if next == cur {
		return false, false
	}
	flags := domain.OnlyFlagsDiffer(cur, next)
	if cur.Locked && !flags {
		return false, false
	}
	c.annotations[i] = next
	if next.LabelName != cur.LabelName {
		c.releaseLabel(next.LabelName, i)
	}
	return true, !flags
}

// Update merges p into the annotation id. Locked annotations only accept
// Visible and Locked changes, and those changes alone are not recorded in
// history.
func (c *Collection) Update(id string, p domain.Patch) bool {
	c.commitOpen()
	ok, recorded := c.apply(id, p)
	if !ok {
		return false
	}
	if recorded {
		c.commit()
	}
	c.notify()
	return true
}

// Delete removes an unlocked annotation and drops the selection if it pointed at it.
func (c *Collection) Delete(id string) bool {
	i := c.indexOf(id)
	if i < 0 || c.annotations[i].Locked {
		return false
	}
	c.commitOpen()
	if c.annotations[i].Matches(c.selectedID) {
		c.selectedID = ""
	}
	c.annotations = append(c.annotations[:i:i], c.annotations[i+1:]...)
	c.commit()
	c.notify()
	return true
}

// Select changes the selection without touching history. An empty id clears
// it; unknown ids are ignored.
func (c *Collection) Select(id string) {
	if id != "" {
		i := c.indexOf(id)
		if i < 0 {
			return
		}
		id = c.annotations[i].Key()
	}
	if id == c.selectedID {
		return
	}
	c.selectedID = id
	c.notify()
}

// MoveSelected nudges the selected annotation, keeping it inside the image.
func (c *Collection) MoveSelected(dir Direction, amount float64) bool {
	a, ok := c.Selected()
	if !ok || a.Locked || !c.hasBounds {
		return false
	}
	x, y := a.X, a.Y
	switch dir {
	case Up:
		y = max(0, y-amount)
	case Down:
		y = max(0, min(c.height-a.Height, y+amount))
	case Left:
		x = max(0, x-amount)
	case Right:
		x = max(0, min(c.width-a.Width, x+amount))
	}
	return c.Update(c.selectedID, domain.MoveTo(x, y))
}

// Undo restores the previous snapshot. An open transaction is rolled back first.
func (c *Collection) Undo() bool {
	c.rollbackOpen()
	s, ok := c.log.Undo()
	if !ok {
		return false
	}
	c.restore(s)
	c.notify()
	return true
}

func (c *Collection) Redo() bool {
	c.rollbackOpen()
	s, ok := c.log.Redo()
	if !ok {
		return false
	}
	c.restore(s)
	c.notify()
	return true
}

func (c *Collection) CanUndo() bool { return c.log.CanUndo() }

func (c *Collection) CanRedo() bool { return c.log.CanRedo() }

// HistoryLen and HistoryIndex expose the log position for diagnostics
func (c *Collection) HistoryLen() int { return c.log.Len() }

func (c *Collection) HistoryIndex() int { return c.log.Index() }

// Load replaces the content with records fetched from storage and starts a
// fresh history from them.
func (c *Collection) Load(records []domain.Annotation) {
	c.rollbackOpen()
	anns := make([]domain.Annotation, 0, len(records))
	for _, r := range records {
		r = r.Normalized()
		if r.LocalID == "" {
			r.LocalID = c.newID()
		}
		anns = append(anns, r)
	}
	c.annotations = anns
	c.selectedID = ""
	c.log.Reset(c.Snapshot())
	c.notify()
}

// AssignIDs records the persisted ID of annotations after a submit, keyed by
// LocalID. The IDs are stamped into every history entry too, so undo and redo
// keep them. No history entry is added.
func (c *Collection) AssignIDs(ids map[string]string) {
	changed := stampIDs(c.annotations, ids)
	c.log.Each(func(s *domain.Snapshot) {
		stampIDs(s.Annotations, ids)
	})
	if c.tx != nil {
		stampIDs(c.tx.before.Annotations, ids)
	}
	if changed {
		c.notify()
	}
}

func stampIDs(anns []domain.Annotation, ids map[string]string) bool {
	changed := false
	for i, a := range anns {
		if id, ok := ids[a.LocalID]; ok && a.ID != id {
			anns[i].ID = id
			changed = true
		}
	}
	return changed
}

// commitOpen settles a transaction left open by a gesture before another
// change is recorded.
func (c *Collection) commitOpen() {
	if c.tx != nil {
		c.tx.Commit()
	}
}

func (c *Collection) rollbackOpen() {
	if c.tx != nil {
		c.tx.Rollback()
	}
}
