package report

import (
	"fmt"
	"io"

	"github.com/mrzor/process-inspector/internal/dlist"
)

// Default sizes for the list walk-through.
const (
	ListInsert = 100
	ListRemove = 10
)

type listNode struct {
	value int
	link  dlist.Element[*listNode]
}

// ListDemo inserts 1..n at the tail, removes the first m nodes while
// iterating with the removal-safe walk and prints what remains.
func ListDemo(w io.Writer, n, m int) error {
	if n < 0 || m < 0 {
		return fmt.Errorf("list demo: negative size (insert=%d remove=%d)", n, m)
	}

	var l dlist.List[*listNode]
	nodes := make([]listNode, n)
	for i := range nodes {
		nodes[i].value = i + 1
		nodes[i].link.Value = &nodes[i]
		l.InsertTail(&nodes[i].link)
	}

	removed := 0
	for e := range l.AllSafe() {
		if removed == m {
			break
		}
		l.Remove(e)
		removed++
	}

	p := newPrinter(w)
	p.Printf("list: inserted %d removed %d remaining %d\n", n, removed, l.Len())
	for node := range l.Values() {
		p.Printf("  node %d\n", node.value)
	}
	return p.err
}
