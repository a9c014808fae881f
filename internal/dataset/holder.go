package dataset

import (
	"sync/atomic"

	"github.com/starford/cpidash/internal/models"
)

// Snapshot pairs a table with the load that produced it.
type Snapshot struct {
	Table *Table
	Info  models.LoadInfo
}

// Holder owns the current snapshot. Readers take whatever snapshot is current
// and keep using it even if a reload swaps in a newer one.
type Holder struct {
	cur atomic.Pointer[Snapshot]
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the installed snapshot, or nil before the first load.
func (h *Holder) Current() *Snapshot {
	return h.cur.Load()
}

// Swap installs s and returns the previous snapshot.
func (h *Holder) Swap(s *Snapshot) *Snapshot {
	return h.cur.Swap(s)
}
