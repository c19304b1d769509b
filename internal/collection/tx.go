package collection

import "github.com/lewtec/enquadra/internal/domain"

// Tx groups the updates of one pointer gesture into a single history entry.
type Tx struct {
	c      *Collection
	before domain.Snapshot
	done   bool
}

// Begin opens a transaction. A transaction that is still open is committed.
func (c *Collection) Begin() *Tx {
	c.commitOpen()
	tx := &Tx{c: c, before: c.Snapshot()}
	c.tx = tx
	return tx
}

// Update applies p without recording history
func (tx *Tx) Update(id string, p domain.Patch) bool {
	if tx.done {
		return false
	}
	if ok, _ := tx.c.apply(id, p); !ok {
		return false
	}
	tx.c.notify()
	return true
}

// Commit records one history entry when the state differs from the start of
// the transaction.
func (tx *Tx) Commit() bool {
	if tx.done {
		return false
	}
	tx.close()
	if tx.c.Snapshot().Equal(tx.before) {
		return false
	}
	tx.c.commit()
	tx.c.notify()
	return true
}

// Rollback restores the annotations and selection captured by Begin.
func (tx *Tx) Rollback() {
	if tx.done {
		return
	}
	tx.close()
	if tx.c.Snapshot().Equal(tx.before) {
		return
	}
	tx.c.restore(tx.before.Clone())
	tx.c.notify()
}

func (tx *Tx) close() {
	tx.done = true
	if tx.c.tx == tx {
		tx.c.tx = nil
	}
}
