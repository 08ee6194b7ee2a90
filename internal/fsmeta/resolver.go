package fsmeta

import (
	"fmt"

	"go.uber.org/multierr"
)

// Resolver turns open-file handles into Records.
type Resolver struct {
	bufs *BufferPool
}

// NewResolver returns a resolver drawing scratch space from bufs.
func NewResolver(bufs *BufferPool) *Resolver {
	return &Resolver{bufs: bufs}
}

// Resolve builds the record for descriptor fd. Errors wrap ErrResolution or
// ErrResourceExhausted and concern this record only. The path pin taken here
// is always released before returning.
func (r *Resolver) Resolve(fd int, f File) (rec Record, err error) {
	buf, err := r.bufs.Get()
	if err != nil {
		return Record{}, fmt.Errorf("fd %d: %w", fd, err)
	}
	defer r.bufs.Put(buf)

	p, err := f.AcquirePath()
	if err != nil {
		return Record{}, fmt.Errorf("fd %d: %w: %w", fd, ErrResolution, err)
	}
	defer func() {
		if relErr := p.Release(); relErr != nil {
			err = multierr.Append(err, fmt.Errorf("fd %d: %w: release: %w", fd, ErrResolution, relErr))
			rec = Record{}
		}
	}()

	n, err := p.ReadName(buf)
	if err != nil {
		return Record{}, fmt.Errorf("fd %d: %w: %w", fd, ErrResolution, err)
	}
	if n > len(buf) {
		n = len(buf)
	}

	entry, err := p.Entry()
	if err != nil {
		return Record{}, fmt.Errorf("fd %d: %w: %w", fd, ErrResolution, err)
	}

	return Record{
		FD:         fd,
		Path:       string(buf[:n]),
		Truncated:  n == len(buf),
		RefCount:   f.RefCount(),
		Flags:      f.Flags(),
		Mode:       f.Mode(),
		EntryName:  entry.Name,
		ParentName: entry.ParentName,
		EntryIno:   entry.Inode.Ino,
		Inode:      entry.Inode,
	}, nil
}
