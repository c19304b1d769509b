package render

import "fmt"

// Scheduler coalesces invalidations so that any number of state changes
// between two ticks produce a single paint of the latest state. Only painting
// is throttled; state changes are applied as they happen.
type Scheduler struct {
	source     func() Frame
	presenters []Presenter
	dirty      bool
	painted    int
}

func NewScheduler(source func() Frame, presenters ...Presenter) *Scheduler {
	return &Scheduler{source: source, presenters: presenters, dirty: true}
}

// Add registers another presenter and forces a repaint
func (s *Scheduler) Add(p Presenter) {
	s.presenters = append(s.presenters, p)
	s.dirty = true
}

func (s *Scheduler) Invalidate() { s.dirty = true }

func (s *Scheduler) Dirty() bool { return s.dirty }

// Painted counts the frames presented so far
func (s *Scheduler) Painted() int { return s.painted }

// Tick paints one frame if anything changed since the previous tick.
func (s *Scheduler) Tick() (bool, error) {
	if !s.dirty {
		return false, nil
	}
	s.dirty = false
	f := s.source()
	for i, p := range s.presenters {
		if err := p.Present(f); err != nil {
			return true, fmt.Errorf("while presenting frame with presenter %d: %w", i, err)
		}
	}
	s.painted++
	return true, nil
}
