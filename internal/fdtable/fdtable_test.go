package fdtable_test

import (
	"testing"

	"github.com/mrzor/process-inspector/internal/fdtable"
	"github.com/mrzor/process-inspector/internal/hosttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walk(t fdtable.Table) []int {
	var fds []int
	for fd := range fdtable.OpenFiles(t) {
		fds = append(fds, fd)
	}
	return fds
}

func TestOpenFiles_AscendingAndSkipsEmpty(t *testing.T) {
	table := hosttest.NewTable(8).
		Set(5, hosttest.NewFile("/e", 5, 1, 1)).
		Set(0, hosttest.NewFile("/a", 1, 1, 1)).
		Set(2, hosttest.NewFile("/c", 3, 1, 1))

	assert.Equal(t, []int{0, 2, 5}, walk(table))
	assert.Equal(t, []int{0, 2, 5}, walk(hosttest.Dense{T: table}))
}

func TestOpenFiles_ZeroCapacity(t *testing.T) {
	table := hosttest.NewTable(0).Set(0, hosttest.NewFile("/a", 1, 1, 1))

	assert.Empty(t, walk(table))
	assert.Empty(t, walk(hosttest.Dense{T: table}))
}

func TestOpenFiles_NeverExceedsCapacity(t *testing.T) {
	for capacity := range 6 {
		table := hosttest.NewTable(capacity)
		for fd := -1; fd < 10; fd++ {
			table.Set(fd, hosttest.NewFile("/x", uint64(fd+2), 1, 1))
		}

		for _, tbl := range []fdtable.Table{table, hosttest.Dense{T: table}} {
			fds := walk(tbl)
			assert.LessOrEqual(t, len(fds), capacity)
			for _, fd := range fds {
				assert.GreaterOrEqual(t, fd, 0)
				assert.Less(t, fd, capacity)
			}
		}
	}
}

func TestOpenFiles_YieldsHandles(t *testing.T) {
	f := hosttest.NewFile("/tmp/a.txt", 7, 1, 1)
	table := hosttest.NewTable(4).Set(1, f)

	for fd, got := range fdtable.OpenFiles(table) {
		require.Equal(t, 1, fd)
		assert.Same(t, f, got)
	}
	assert.Zero(t, f.Outstanding(), "walking must not pin paths")
}

func TestOpenFiles_StopsEarly(t *testing.T) {
	table := hosttest.NewTable(16)
	for fd := range 16 {
		table.Set(fd, hosttest.NewFile("/x", uint64(fd+1), 1, 1))
	}

	seen := 0
	for range fdtable.OpenFiles(table) {
		seen++
		if seen == 4 {
			break
		}
	}
	assert.Equal(t, 4, seen)
}

// closing simulates a slot emptied between listing and lookup.
type closing struct {
	*hosttest.Table
}

func (c closing) Occupied() []int {
	return []int{0, 1, 2}
}

func TestOpenFiles_SlotClosedMidWalk(t *testing.T) {
	table := hosttest.NewTable(4).
		Set(0, hosttest.NewFile("/a", 1, 1, 1)).
		Set(2, hosttest.NewFile("/c", 3, 1, 1))

	assert.Equal(t, []int{0, 2}, walk(closing{Table: table}))
}
