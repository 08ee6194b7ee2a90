// Package fsmeta expands an open-file handle into a metadata record.
//
// Resolution pins the handle's path object for the duration of one record
// (AcquirePath / Release), reads the canonical name into a bounded scratch
// buffer and copies dentry and inode attributes while the pin is held.
package fsmeta

import (
	"errors"
	"path"
	"strings"
)

// PathMax is the size of a path scratch buffer.
const PathMax = 4096

var (
	// ErrResolution marks a handle whose path or metadata could not be read.
	ErrResolution = errors.New("path resolution failed")
	// ErrResourceExhausted marks a record skipped for lack of scratch space.
	ErrResourceExhausted = errors.New("scratch buffer unavailable")
)

// File is a shared open-file handle held by a descriptor table slot.
type File interface {
	Flags() uint32
	Mode() uint32
	RefCount() int64
	// AcquirePath pins the handle's path. The returned Path must be released.
	AcquirePath() (Path, error)
}

// Path is a pinned path object.
type Path interface {
	// ReadName writes the canonical absolute path into buf and returns the
	// number of bytes written. A name that fills buf is treated as truncated.
	ReadName(buf []byte) (int, error)
	// Entry returns the directory entry and its inode.
	Entry() (Entry, error)
	Release() error
}

// Entry is a directory entry as seen through a pinned path.
type Entry struct {
	Name       string
	ParentName string
	Inode      Inode
}

// Inode holds the identity and accounting fields of an inode.
type Inode struct {
	Ino      uint64
	Nlink    uint64
	Rdev     uint64
	BlkBits  uint8
	Blocks   int64
	RefCount int64
}

// Record is the metadata of one open descriptor.
type Record struct {
	FD        int
	Path      string
	Truncated bool

	RefCount int64
	Flags    uint32
	Mode     uint32

	EntryName  string
	ParentName string
	EntryIno   uint64

	Inode Inode
}

// EntryNames derives the entry and parent entry names from a canonical path.
// Names of pseudo files such as "socket:[123]" hang off the filesystem root.
func EntryNames(p string) (name, parent string) {
	p = strings.TrimSuffix(p, " (deleted)")
	if !strings.HasPrefix(p, "/") {
		return p, "/"
	}
	if p == "/" {
		return "/", "/"
	}
	dir, base := path.Split(p)
	parent = path.Base(dir)
	return base, parent
}
