package collection

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lewtec/enquadra/internal/domain"
)

func newTestCollection(t *testing.T, opts ...Option) *Collection {
	t.Helper()
	n := 0
	opts = append([]Option{WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("local-%d", n)
	})}, opts...)
	c := New(opts...)
	c.SetBounds(640, 480)
	return c
}

func rectAnn(x, y, w, h float64, label string) domain.Annotation {
	return domain.Annotation{X: x, Y: y, Width: w, Height: h, LabelName: label}
}

func TestCollection_Create(t *testing.T) {
	t.Run("creates a visible unlocked annotation and selects it", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(domain.Annotation{X: 1, Y: 2, Width: 3, Height: 4, Locked: true})

		if a.LocalID != "local-1" {
			t.Errorf("LocalID = %q, want local-1", a.LocalID)
		}
		if !a.Visible || a.Locked {
			t.Errorf("Visible, Locked = %v, %v, want true, false", a.Visible, a.Locked)
		}
		if c.SelectedID() != a.LocalID {
			t.Errorf("SelectedID = %q, want %q", c.SelectedID(), a.LocalID)
		}
		if !c.CanUndo() {
			t.Error("Create should be undoable")
		}
	})

	t.Run("normalizes negative extents", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(10, 10, -5, -5, ""))
		if a.X != 5 || a.Y != 5 || a.Width != 5 || a.Height != 5 {
			t.Errorf("got %+v, want 5,5,5,5", a)
		}
	})

	t.Run("takes the label away from the previous owner", func(t *testing.T) {
		c := newTestCollection(t)
		first := c.Create(rectAnn(0, 0, 10, 10, "x"))
		second := c.Create(rectAnn(20, 20, 10, 10, "x"))

		got, _ := c.Get(first.LocalID)
		if got.LabelName != "" {
			t.Errorf("first label = %q, want empty", got.LabelName)
		}
		got, _ = c.Get(second.LocalID)
		if got.LabelName != "x" {
			t.Errorf("second label = %q, want x", got.LabelName)
		}
	})
}

func TestCollection_Update(t *testing.T) {
	t.Run("geometry updates are recorded", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, ""))
		before := c.HistoryLen()

		if !c.Update(a.LocalID, domain.MoveTo(5, 6)) {
			t.Fatal("Update returned false")
		}
		if c.HistoryLen() != before+1 {
			t.Errorf("HistoryLen = %d, want %d", c.HistoryLen(), before+1)
		}
	})

	t.Run("visibility and lock toggles are not recorded", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, ""))
		before := c.HistoryLen()

		c.Update(a.LocalID, domain.Patch{Visible: domain.Ptr(false)})
		c.Update(a.LocalID, domain.Patch{Locked: domain.Ptr(true)})

		if c.HistoryLen() != before {
			t.Errorf("HistoryLen = %d, want %d", c.HistoryLen(), before)
		}
		got, _ := c.Get(a.LocalID)
		if got.Visible || !got.Locked {
			t.Errorf("Visible, Locked = %v, %v, want false, true", got.Visible, got.Locked)
		}
	})

	t.Run("locked annotations reject geometry changes", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, ""))
		c.Update(a.LocalID, domain.Patch{Locked: domain.Ptr(true)})

		if c.Update(a.LocalID, domain.MoveTo(50, 50)) {
			t.Error("Update on a locked annotation should be rejected")
		}
		got, _ := c.Get(a.LocalID)
		if got.X != 0 || got.Y != 0 {
			t.Errorf("locked annotation moved to (%v,%v)", got.X, got.Y)
		}
		if !c.Update(a.LocalID, domain.Patch{Locked: domain.Ptr(false)}) {
			t.Error("unlocking should be allowed")
		}
	})

	t.Run("assigning a label takes it away from others", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, "car"))
		b := c.Create(rectAnn(20, 0, 10, 10, ""))

		c.Update(b.LocalID, domain.Patch{LabelName: domain.Ptr("car")})

		got, _ := c.Get(a.LocalID)
		if got.LabelName != "" {
			t.Errorf("a label = %q, want empty", got.LabelName)
		}
	})

	t.Run("unchanged values do not commit", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(3, 4, 10, 10, ""))
		before := c.HistoryLen()
		if c.Update(a.LocalID, domain.MoveTo(3, 4)) {
			t.Error("no-op update reported a change")
		}
		if c.HistoryLen() != before {
			t.Errorf("HistoryLen = %d, want %d", c.HistoryLen(), before)
		}
	})

	t.Run("stale ids are ignored", func(t *testing.T) {
		c := newTestCollection(t)
		if c.Update("missing", domain.MoveTo(1, 1)) {
			t.Error("Update on a missing id should be a no-op")
		}
		if c.Delete("missing") {
			t.Error("Delete on a missing id should be a no-op")
		}
		c.Select("missing")
		if c.SelectedID() != "" {
			t.Errorf("SelectedID = %q, want empty", c.SelectedID())
		}
	})

	t.Run("lookups accept the persisted id", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, ""))
		c.AssignIDs(map[string]string{a.LocalID: "db-1"})
		if !c.Update("db-1", domain.MoveTo(7, 7)) {
			t.Fatal("Update by persisted id failed")
		}
		got, _ := c.Get(a.LocalID)
		if got.X != 7 || got.ID != "db-1" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("persisted ids survive undo and redo", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, ""))
		c.AssignIDs(map[string]string{a.LocalID: "db-1"})
		c.Update("db-1", domain.MoveTo(50, 50))

		if !c.Undo() {
			t.Fatal("Undo returned false")
		}
		got, ok := c.Get("db-1")
		if !ok {
			t.Fatal("lookup by persisted id failed after undo")
		}
		if got.X != 0 || got.ID != "db-1" {
			t.Errorf("after undo got %+v", got)
		}

		c.Undo()
		c.Redo()
		c.Redo()
		got, ok = c.Get("db-1")
		if !ok || got.X != 50 {
			t.Errorf("after redo got %+v, %v", got, ok)
		}
	})

	t.Run("only changed values decide what is recorded", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(3, 4, 10, 10, ""))
		before := c.HistoryLen()

		if !c.Update(a.LocalID, domain.Patch{X: domain.Ptr(3.0), Visible: domain.Ptr(false)}) {
			t.Fatal("Update returned false")
		}
		if c.HistoryLen() != before {
			t.Errorf("HistoryLen = %d, want %d", c.HistoryLen(), before)
		}
	})

	t.Run("locked annotations accept patches that only change flags", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(3, 4, 10, 10, ""))
		c.Update(a.LocalID, domain.Patch{Locked: domain.Ptr(true)})

		if !c.Update(a.LocalID, domain.Patch{X: domain.Ptr(3.0), Visible: domain.Ptr(false)}) {
			t.Fatal("a patch changing only Visible should be accepted")
		}
		got, _ := c.Get(a.LocalID)
		if got.Visible || got.X != 3 {
			t.Errorf("got %+v", got)
		}
		if c.Update(a.LocalID, domain.Patch{X: domain.Ptr(9.0), Visible: domain.Ptr(true)}) {
			t.Error("a patch moving a locked annotation should be rejected")
		}
	})
}

func TestCollection_Delete(t *testing.T) {
	t.Run("deleting the selection clears it", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, ""))
		if !c.Delete(a.LocalID) {
			t.Fatal("Delete returned false")
		}
		if c.SelectedID() != "" {
			t.Errorf("SelectedID = %q, want empty", c.SelectedID())
		}
		if len(c.Annotations()) != 0 {
			t.Errorf("len = %d, want 0", len(c.Annotations()))
		}
	})

	t.Run("deleting another annotation keeps the selection", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, ""))
		b := c.Create(rectAnn(20, 0, 10, 10, ""))
		c.Delete(a.LocalID)
		if c.SelectedID() != b.LocalID {
			t.Errorf("SelectedID = %q, want %q", c.SelectedID(), b.LocalID)
		}
	})

	t.Run("locked annotations cannot be deleted", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, ""))
		c.Update(a.LocalID, domain.Patch{Locked: domain.Ptr(true)})
		if c.Delete(a.LocalID) {
			t.Error("Delete should refuse a locked annotation")
		}
		if _, ok := c.Get(a.LocalID); !ok {
			t.Error("locked annotation disappeared")
		}
	})
}

func TestCollection_Select(t *testing.T) {
	c := newTestCollection(t)
	a := c.Create(rectAnn(0, 0, 10, 10, ""))
	c.Create(rectAnn(20, 0, 10, 10, ""))
	before := c.HistoryLen()

	c.Select(a.LocalID)
	if c.SelectedID() != a.LocalID {
		t.Errorf("SelectedID = %q, want %q", c.SelectedID(), a.LocalID)
	}
	c.Select("")
	if c.SelectedID() != "" {
		t.Errorf("SelectedID = %q, want empty", c.SelectedID())
	}
	if c.HistoryLen() != before {
		t.Error("selection should not be recorded")
	}
}

func TestCollection_MoveSelected(t *testing.T) {
	t.Run("nudges are clamped to the image", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(2, 2, 10, 10, ""))

		c.MoveSelected(Left, 10)
		c.MoveSelected(Up, 1)
		got, _ := c.Get(a.LocalID)
		if got.X != 0 || got.Y != 1 {
			t.Errorf("position = (%v,%v), want (0,1)", got.X, got.Y)
		}

		c.MoveSelected(Right, 1000)
		c.MoveSelected(Down, 1000)
		got, _ = c.Get(a.LocalID)
		if got.X != 630 || got.Y != 470 {
			t.Errorf("position = (%v,%v), want (630,470)", got.X, got.Y)
		}
	})

	t.Run("boxes larger than the image stay at the origin", func(t *testing.T) {
		c := newTestCollection(t)
		c.Load([]domain.Annotation{{ID: "db-1", X: 0, Y: 0, Width: 800, Height: 600, Visible: true}})
		c.Select("db-1")

		c.MoveSelected(Down, 1)
		c.MoveSelected(Right, 1)
		got, _ := c.Get("db-1")
		if got.X != 0 || got.Y != 0 {
			t.Errorf("position = (%v,%v), want (0,0)", got.X, got.Y)
		}
	})

	t.Run("does nothing without a selection or bounds", func(t *testing.T) {
		c := New()
		a := c.Create(rectAnn(2, 2, 10, 10, ""))
		if c.MoveSelected(Right, 1) {
			t.Error("MoveSelected without bounds should be a no-op")
		}
		c.SetBounds(100, 100)
		c.Select("")
		if c.MoveSelected(Right, 1) {
			t.Error("MoveSelected without selection should be a no-op")
		}
		got, _ := c.Get(a.LocalID)
		if got.X != 2 {
			t.Errorf("X = %v, want 2", got.X)
		}
	})
}

func TestCollection_UndoRedo(t *testing.T) {
	t.Run("undo and redo round trip", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, "x"))
		afterCreate := c.Snapshot()
		c.Update(a.LocalID, domain.MoveTo(20, 20))
		afterMove := c.Snapshot()

		c.Undo()
		if diff := cmp.Diff(afterCreate, c.Snapshot()); diff != "" {
			t.Errorf("undo mismatch (-want +got):\n%s", diff)
		}
		c.Redo()
		if diff := cmp.Diff(afterMove, c.Snapshot()); diff != "" {
			t.Errorf("redo mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("undoing a create restores the empty state", func(t *testing.T) {
		c := newTestCollection(t)
		c.Create(rectAnn(0, 0, 10, 10, ""))
		c.Undo()
		if len(c.Annotations()) != 0 || c.SelectedID() != "" {
			t.Errorf("state after undo = %+v", c.Snapshot())
		}
		if c.CanUndo() {
			t.Error("nothing should be left to undo")
		}
	})

	t.Run("a new change after undo drops the redo branch", func(t *testing.T) {
		c := newTestCollection(t)
		c.Create(rectAnn(0, 0, 10, 10, ""))
		c.Create(rectAnn(20, 0, 10, 10, ""))
		c.Create(rectAnn(40, 0, 10, 10, ""))
		c.Undo()
		c.Undo()
		c.Create(rectAnn(60, 0, 10, 10, ""))

		if c.CanRedo() {
			t.Error("redo should be impossible")
		}
		if c.HistoryLen() != 3 {
			t.Errorf("HistoryLen = %d, want 3", c.HistoryLen())
		}
	})
}

func TestCollection_Tx(t *testing.T) {
	t.Run("commit records a single entry", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, ""))
		before := c.HistoryLen()

		tx := c.Begin()
		for i := 1; i <= 5; i++ {
			tx.Update(a.LocalID, domain.MoveTo(float64(i), 0))
		}
		if !tx.Commit() {
			t.Fatal("Commit returned false")
		}
		if c.HistoryLen() != before+1 {
			t.Errorf("HistoryLen = %d, want %d", c.HistoryLen(), before+1)
		}
		c.Undo()
		got, _ := c.Get(a.LocalID)
		if got.X != 0 {
			t.Errorf("X after undo = %v, want 0", got.X)
		}
	})

	t.Run("commit without changes records nothing", func(t *testing.T) {
		c := newTestCollection(t)
		c.Create(rectAnn(0, 0, 10, 10, ""))
		before := c.HistoryLen()
		if c.Begin().Commit() {
			t.Error("empty transaction should not commit")
		}
		if c.HistoryLen() != before {
			t.Errorf("HistoryLen = %d, want %d", c.HistoryLen(), before)
		}
	})

	t.Run("rollback restores the starting geometry", func(t *testing.T) {
		c := newTestCollection(t)
		a := c.Create(rectAnn(0, 0, 10, 10, ""))
		before := c.HistoryLen()

		tx := c.Begin()
		tx.Update(a.LocalID, domain.Reshape(5, 5, 50, 50))
		tx.Rollback()

		got, _ := c.Get(a.LocalID)
		if got.X != 0 || got.Width != 10 {
			t.Errorf("got %+v after rollback", got)
		}
		if c.HistoryLen() != before {
			t.Errorf("HistoryLen = %d, want %d", c.HistoryLen(), before)
		}
		if tx.Commit() {
			t.Error("a closed transaction should not commit")
		}
	})
}

func TestCollection_Load(t *testing.T) {
	c := newTestCollection(t)
	c.Create(rectAnn(0, 0, 10, 10, ""))

	c.Load([]domain.Annotation{
		{ID: "db-1", X: 1, Y: 1, Width: 5, Height: 5, Visible: true, LabelName: "a"},
		{ID: "db-2", X: 10, Y: 10, Width: -5, Height: 5, Visible: false},
	})

	anns := c.Annotations()
	if len(anns) != 2 {
		t.Fatalf("len = %d, want 2", len(anns))
	}
	if anns[0].LocalID == "" || anns[1].LocalID == "" {
		t.Error("loaded annotations should get local ids")
	}
	if anns[1].X != 5 || anns[1].Width != 5 {
		t.Errorf("loaded geometry not normalized: %+v", anns[1])
	}
	if c.CanUndo() || c.CanRedo() {
		t.Error("Load should start a fresh history")
	}
	if c.SelectedID() != "" {
		t.Errorf("SelectedID = %q, want empty", c.SelectedID())
	}
}

func TestCollection_Subscribe(t *testing.T) {
	c := newTestCollection(t)
	var calls int
	var last domain.Snapshot
	unsubscribe := c.Subscribe(func(s domain.Snapshot) {
		calls++
		last = s
	})

	a := c.Create(rectAnn(0, 0, 10, 10, ""))
	if calls != 1 || last.SelectedID != a.LocalID {
		t.Errorf("calls = %d, last selection = %q", calls, last.SelectedID)
	}
	unsubscribe()
	c.Update(a.LocalID, domain.MoveTo(1, 1))
	if calls != 1 {
		t.Errorf("calls after unsubscribe = %d, want 1", calls)
	}
}
