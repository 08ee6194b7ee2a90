package proctree

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/mrzor/process-inspector/internal/dlist"
)

// NameLen bounds a process display name, matching the host's comm buffer
// (16 bytes including the terminator).
const NameLen = 15

// RootPID identifies the bootstrap placeholder at the top of every forest.
const RootPID = 0

var (
	// ErrNotFound is returned when no live process has the requested PID.
	ErrNotFound = errors.New("process not found")
	// ErrInvalidPID is returned for identifiers outside the valid PID space.
	ErrInvalidPID = errors.New("invalid process identifier")
)

// Process is one node of the forest. It is owned by the host; this package
// only reads it.
type Process struct {
	PID   int
	PPID  int
	Name  string
	State string

	UTime     time.Duration
	STime     time.Duration
	StartedAt time.Time
	Cwd       string

	children dlist.List[*Process]
	sibling  dlist.Element[*Process]
}

// NumChildren returns the number of linked children, placeholders included.
func (p *Process) NumChildren() int {
	return p.children.Len()
}

// Directory is the process lookup and iteration surface. Sequences are lazy
// and reflect the directory's state at iteration time.
type Directory interface {
	FindByID(pid int) (*Process, error)
	All() iter.Seq[*Process]
	Children(p *Process) iter.Seq[*Process]
	Siblings(p *Process) iter.Seq[*Process]
	Parent(p *Process) (*Process, bool)
}

// ValidatePID rejects identifiers that can never name a live process.
func ValidatePID(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("pid %d: %w", pid, ErrInvalidPID)
	}
	return nil
}

// BoundName truncates a name to NameLen bytes.
func BoundName(name string) string {
	if len(name) > NameLen {
		return name[:NameLen]
	}
	return name
}

// SiblingPolicy decides whether a process counts among its own siblings.
type SiblingPolicy int

const (
	// ExcludeSelf drops the subject from its sibling list.
	ExcludeSelf SiblingPolicy = iota
	// IncludeSelf keeps the subject, i.e. siblings are all of the parent's children.
	IncludeSelf
)

func (s SiblingPolicy) String() string {
	switch s {
	case ExcludeSelf:
		return "exclude-self"
	case IncludeSelf:
		return "include-self"
	default:
		return fmt.Sprintf("SiblingPolicy(%d)", int(s))
	}
}

// SiblingsOf yields p's siblings from d according to policy.
func SiblingsOf(d Directory, p *Process, policy SiblingPolicy) iter.Seq[*Process] {
	return func(yield func(*Process) bool) {
		for s := range d.Siblings(p) {
			if policy == ExcludeSelf && s == p {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// Visible drops kernel placeholder entries whose PID is not strictly positive.
func Visible(seq iter.Seq[*Process]) iter.Seq[*Process] {
	return func(yield func(*Process) bool) {
		for p := range seq {
			if p.PID <= 0 {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}
