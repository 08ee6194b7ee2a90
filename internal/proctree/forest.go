package proctree

import (
	"fmt"
	"iter"

	mapset "github.com/deckarep/golang-set/v2"
)

// Forest is an immutable-after-build process tree rooted at RootPID.
type Forest struct {
	root  *Process
	byPID map[int]*Process
}

var _ Directory = (*Forest)(nil)

// Root returns the bootstrap placeholder.
func (f *Forest) Root() *Process { return f.root }

// Len returns the number of processes, the placeholder excluded.
func (f *Forest) Len() int { return len(f.byPID) - 1 }

// FindByID looks a process up by PID.
func (f *Forest) FindByID(pid int) (*Process, error) {
	if err := ValidatePID(pid); err != nil {
		return nil, err
	}
	p, ok := f.byPID[pid]
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, ErrNotFound)
	}
	return p, nil
}

// All walks every process in pre-order, skipping the placeholder.
func (f *Forest) All() iter.Seq[*Process] {
	return func(yield func(*Process) bool) {
		var walk func(p *Process) bool
		walk = func(p *Process) bool {
			for c := range p.children.Values() {
				if !yield(c) || !walk(c) {
					return false
				}
			}
			return true
		}
		walk(f.root)
	}
}

// Children yields p's children in insertion order.
func (f *Forest) Children(p *Process) iter.Seq[*Process] {
	return p.children.Values()
}

// Siblings yields the children of p's parent, p itself included. The
// placeholder has no siblings.
func (f *Forest) Siblings(p *Process) iter.Seq[*Process] {
	parent, ok := f.Parent(p)
	if !ok {
		return func(func(*Process) bool) {}
	}
	return parent.children.Values()
}

// Parent resolves p's PPID.
func (f *Forest) Parent(p *Process) (*Process, bool) {
	if p == f.root {
		return nil, false
	}
	parent, ok := f.byPID[p.PPID]
	return parent, ok
}

// Builder assembles a Forest from flat process records. Records are kept
// unlinked, so every Build returns an independent forest.
type Builder struct {
	procs []Process
	seen  mapset.Set[int]
	root  Process
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		seen: mapset.NewThreadUnsafeSet[int](),
		root: Process{PID: RootPID, Name: "swapper"},
	}
}

// Add records a process. The first record for a PID wins; a record for
// RootPID replaces the placeholder's attributes.
func (b *Builder) Add(p Process) *Builder {
	rec := Process{
		PID:       p.PID,
		PPID:      p.PPID,
		Name:      BoundName(p.Name),
		State:     p.State,
		UTime:     p.UTime,
		STime:     p.STime,
		StartedAt: p.StartedAt,
		Cwd:       p.Cwd,
	}
	if rec.PID == RootPID {
		rec.PPID = RootPID
		b.root = rec
		return b
	}
	if rec.PID < 0 || !b.seen.Add(rec.PID) {
		return b
	}
	b.procs = append(b.procs, rec)
	return b
}

// Build links fresh nodes for the recorded processes. Orphans, self-parents
// and members of parent cycles are attached under the placeholder with PPID
// RootPID.
func (b *Builder) Build() *Forest {
	root := b.root
	f := &Forest{
		root:  &root,
		byPID: make(map[int]*Process, len(b.procs)+1),
	}
	f.byPID[RootPID] = f.root
	f.root.children.Init()

	nodes := make([]*Process, len(b.procs))
	for i := range b.procs {
		p := b.procs[i]
		nodes[i] = &p
		p.sibling.Value = nodes[i]
		f.byPID[p.PID] = nodes[i]
	}

	for _, p := range nodes {
		if _, ok := f.byPID[p.PPID]; !ok || p.PPID == p.PID {
			p.PPID = RootPID
		}
	}

	for _, p := range nodes {
		path := mapset.NewThreadUnsafeSet[int]()
		for cur := p; cur.PID != RootPID; cur = f.byPID[cur.PPID] {
			if !path.Add(cur.PID) {
				cur.PPID = RootPID
				break
			}
		}
	}

	for _, p := range nodes {
		f.byPID[p.PPID].children.InsertTail(&p.sibling)
	}
	return f
}
