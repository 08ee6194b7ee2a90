// Package hosttest provides an in-memory host for tests: a process forest,
// descriptor tables and open-file handles with injectable failures.
package hosttest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/mrzor/process-inspector/internal/fdtable"
	"github.com/mrzor/process-inspector/internal/fsmeta"
	"github.com/mrzor/process-inspector/internal/procmeta"
	"github.com/mrzor/process-inspector/internal/proctree"
)

// File is a fake open-file handle.
type File struct {
	FlagsV uint32
	ModeV  uint32
	Refs   int64

	Path  string
	Inode fsmeta.Inode

	AcquireErr error
	NameErr    error
	EntryErr   error
	ReleaseErr error

	mu       sync.Mutex
	pins     int
	releases int
}

// NewFile returns a handle for path with the given link and reference counts.
func NewFile(path string, ino, nlink uint64, refs int64) *File {
	return &File{
		Refs:  refs,
		Path:  path,
		Inode: fsmeta.Inode{Ino: ino, Nlink: nlink, BlkBits: 12, RefCount: refs},
	}
}

func (f *File) Flags() uint32   { return f.FlagsV }
func (f *File) Mode() uint32    { return f.ModeV }
func (f *File) RefCount() int64 { return f.Refs }

// AcquirePath pins the fake path.
func (f *File) AcquirePath() (fsmeta.Path, error) {
	if f.AcquireErr != nil {
		return nil, f.AcquireErr
	}
	f.mu.Lock()
	f.pins++
	f.mu.Unlock()
	return &path{f: f}, nil
}

// Outstanding returns pins that were never released.
func (f *File) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pins - f.releases
}

type path struct {
	f *File
}

func (p *path) ReadName(buf []byte) (int, error) {
	if p.f.NameErr != nil {
		return 0, p.f.NameErr
	}
	return copy(buf, p.f.Path), nil
}

func (p *path) Entry() (fsmeta.Entry, error) {
	if p.f.EntryErr != nil {
		return fsmeta.Entry{}, p.f.EntryErr
	}
	name, parent := fsmeta.EntryNames(p.f.Path)
	return fsmeta.Entry{Name: name, ParentName: parent, Inode: p.f.Inode}, nil
}

func (p *path) Release() error {
	p.f.mu.Lock()
	p.f.releases++
	p.f.mu.Unlock()
	return p.f.ReleaseErr
}

// Table is a fake descriptor table that lists its occupied slots.
type Table struct {
	Cap   int
	Slots map[int]*File
}

var (
	_ fdtable.Table  = (*Table)(nil)
	_ fdtable.Sparse = (*Table)(nil)
)

// NewTable returns an empty table of the given capacity.
func NewTable(capacity int) *Table {
	return &Table{Cap: capacity, Slots: make(map[int]*File)}
}

// Set places f in slot fd.
func (t *Table) Set(fd int, f *File) *Table {
	t.Slots[fd] = f
	return t
}

func (t *Table) Capacity() int { return t.Cap }

func (t *Table) Get(fd int) fsmeta.File {
	f, ok := t.Slots[fd]
	if !ok || f == nil {
		return nil
	}
	return f
}

func (t *Table) Occupied() []int {
	return slices.Collect(maps.Keys(t.Slots))
}

// Dense hides Occupied so walkers must probe every slot.
type Dense struct {
	T *Table
}

func (d Dense) Capacity() int           { return d.T.Capacity() }
func (d Dense) Get(fd int) fsmeta.File { return d.T.Get(fd) }

// Host is an in-memory host.
type Host struct {
	Forest   *proctree.Forest
	Tables   map[int]fdtable.Table
	Meta     map[int]*procmeta.ProcessMetadata
	MetaErrs map[int]error

	DirectoryErr error
}

// NewHost wraps a forest.
func NewHost(f *proctree.Forest) *Host {
	return &Host{
		Forest:   f,
		Tables:   make(map[int]fdtable.Table),
		Meta:     make(map[int]*procmeta.ProcessMetadata),
		MetaErrs: make(map[int]error),
	}
}

// Directory returns the forest.
func (h *Host) Directory(context.Context) (proctree.Directory, error) {
	if h.DirectoryErr != nil {
		return nil, h.DirectoryErr
	}
	return h.Forest, nil
}

// FileTable returns the table registered for p, or an empty table.
func (h *Host) FileTable(_ context.Context, p *proctree.Process) (fdtable.Table, error) {
	t, ok := h.Tables[p.PID]
	if !ok {
		return NewTable(0), nil
	}
	return t, nil
}

// Metadata returns the registered metadata for pid.
func (h *Host) Metadata(_ context.Context, pid int) (*procmeta.ProcessMetadata, error) {
	if err := h.MetaErrs[pid]; err != nil {
		return nil, err
	}
	meta, ok := h.Meta[pid]
	if !ok {
		return nil, fmt.Errorf("no metadata for pid %d", pid)
	}
	return meta, nil
}

// Sample returns the forest 1 -> {2, 3}, 2 -> {4}.
func Sample() *proctree.Forest {
	return proctree.NewBuilder().
		Add(proctree.Process{PID: 1, PPID: 0, Name: "init", State: "S"}).
		Add(proctree.Process{PID: 2, PPID: 1, Name: "sshd", State: "S"}).
		Add(proctree.Process{PID: 3, PPID: 1, Name: "cron", State: "S"}).
		Add(proctree.Process{PID: 4, PPID: 2, Name: "bash", State: "R"}).
		Build()
}
