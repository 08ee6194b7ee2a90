// Package fdtable walks a process's file-descriptor table.
package fdtable

import (
	"iter"
	"slices"

	"github.com/mrzor/process-inspector/internal/fsmeta"
)

// Table is a sparse, fixed-capacity descriptor table owned by one process.
// Slot occupancy may change while it is walked.
type Table interface {
	Capacity() int
	// Get returns the handle in slot fd, or nil for an empty slot.
	Get(fd int) fsmeta.File
}

// Sparse is implemented by tables that can list their occupied slots without
// probing every index.
type Sparse interface {
	Occupied() []int
}

// OpenFiles yields (descriptor, handle) for each occupied slot in ascending
// descriptor order. Indices at or above the table capacity are never yielded.
func OpenFiles(t Table) iter.Seq2[int, fsmeta.File] {
	return func(yield func(int, fsmeta.File) bool) {
		capacity := t.Capacity()
		if capacity <= 0 {
			return
		}

		if s, ok := t.(Sparse); ok {
			fds := slices.Clone(s.Occupied())
			slices.Sort(fds)
			fds = slices.Compact(fds)
			for _, fd := range fds {
				if fd < 0 {
					continue
				}
				if fd >= capacity {
					return
				}
				if !yieldSlot(t, fd, yield) {
					return
				}
			}
			return
		}

		for fd := 0; fd < capacity; fd++ {
			if !yieldSlot(t, fd, yield) {
				return
			}
		}
	}
}

func yieldSlot(t Table, fd int, yield func(int, fsmeta.File) bool) bool {
	f := t.Get(fd)
	if f == nil {
		return true
	}
	return yield(fd, f)
}
