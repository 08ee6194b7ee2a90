//go:build linux

package procfshost

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"

	"github.com/mrzor/process-inspector/internal/fsmeta"

	"golang.org/x/sys/unix"
)

// selfFD is where the pinned descriptors of this process are named.
const selfFD = "/proc/self/fd/"

// errUnnamed is returned by Entry when ReadName has not succeeded yet. The
// name buffer comes from the caller's bounded pool only.
var errUnnamed = errors.New("entry requested before the name was read")

// file is one slot of a live descriptor table.
type file struct {
	link   string
	target string

	flags    uint32
	pos, mnt string

	refs      int64
	inodeRefs int64
}

var _ fsmeta.File = (*file)(nil)

func (f *file) key() handleKey {
	return handleKey{target: f.target, pos: f.pos, mnt: f.mnt, flags: f.flags}
}

func (f *file) Flags() uint32 { return f.flags }

// Mode derives FMODE_READ and FMODE_WRITE from the access mode bits.
func (f *file) Mode() uint32 { return (f.flags + 1) & unix.O_ACCMODE }

func (f *file) RefCount() int64 { return f.refs }

// AcquirePath pins the open file with an O_PATH descriptor of our own.
func (f *file) AcquirePath() (fsmeta.Path, error) {
	fd, err := unix.Open(f.link, unix.O_PATH|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("pin %s: %w", f.link, err)
	}
	return &pinned{fd: fd, inodeRefs: f.inodeRefs}, nil
}

type pinned struct {
	fd        int
	name      string
	named     bool
	inodeRefs int64
}

func (p *pinned) link() string {
	return selfFD + strconv.Itoa(p.fd)
}

func (p *pinned) ReadName(buf []byte) (int, error) {
	n, err := unix.Readlink(p.link(), buf)
	if err != nil {
		return 0, fmt.Errorf("readlink: %w", err)
	}
	p.name = string(buf[:n])
	p.named = true
	return n, nil
}

func (p *pinned) Entry() (fsmeta.Entry, error) {
	if !p.named {
		return fsmeta.Entry{}, errUnnamed
	}

	var st unix.Stat_t
	if err := unix.Fstat(p.fd, &st); err != nil {
		return fsmeta.Entry{}, fmt.Errorf("fstat: %w", err)
	}

	name, parent := fsmeta.EntryNames(p.name)
	return fsmeta.Entry{
		Name:       name,
		ParentName: parent,
		Inode: fsmeta.Inode{
			Ino:      st.Ino,
			Nlink:    uint64(st.Nlink), //nolint:unconvert // uint32 on some architectures
			Rdev:     uint64(st.Rdev),  //nolint:unconvert // uint32 on some architectures
			BlkBits:  blkBits(int64(st.Blksize)),
			Blocks:   st.Blocks,
			RefCount: p.inodeRefs,
		},
	}, nil
}

func (p *pinned) Release() error {
	if p.fd < 0 {
		return nil
	}
	err := unix.Close(p.fd)
	p.fd = -1
	if err != nil {
		return fmt.Errorf("close pinned descriptor: %w", err)
	}
	return nil
}

// blkBits returns log2 of a power-of-two block size.
func blkBits(size int64) uint8 {
	if size <= 0 {
		return 0
	}
	return uint8(bits.Len64(uint64(size)) - 1) //nolint:gosec // at most 63
}
