//go:build linux

package procfshost

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/mrzor/process-inspector/internal/fdtable"
	"github.com/mrzor/process-inspector/internal/fsmeta"
	"github.com/mrzor/process-inspector/internal/procmeta"
	"github.com/mrzor/process-inspector/internal/proctree"
	"github.com/mrzor/process-inspector/internal/timesync"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/prometheus/procfs"
)

// Host reads processes and descriptor tables from a procfs mount.
type Host struct {
	root  string
	fs    procfs.FS
	clock *timesync.Converter
}

// New opens the procfs mounted at root.
func New(root string) (*Host, error) {
	pfs, err := procfs.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open procfs at %s: %w", root, err)
	}

	clock, err := timesync.NewConverter(pfs)
	if err != nil {
		logger.L().Warning("boot time unavailable, start times are relative to the epoch",
			helpers.String("root", root),
			helpers.Error(err))
		clock = timesync.NewConverterAt(time.Unix(0, 0))
	}

	return &Host{root: root, fs: pfs, clock: clock}, nil
}

// Directory snapshots every process into a forest. Processes that exit
// during the scan are left out.
func (h *Host) Directory(ctx context.Context) (proctree.Directory, error) {
	procs, err := h.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	b := proctree.NewBuilder()
	for _, proc := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stat, err := proc.Stat()
		if err != nil {
			logger.L().Debug("process vanished during scan",
				helpers.Int("pid", proc.PID),
				helpers.Error(err))
			continue
		}
		cwd, _ := proc.Cwd()

		b.Add(proctree.Process{
			PID:       stat.PID,
			PPID:      stat.PPID,
			Name:      stat.Comm,
			State:     stat.State,
			UTime:     h.clock.TicksToDuration(uint64(stat.UTime)),
			STime:     h.clock.TicksToDuration(uint64(stat.STime)),
			StartedAt: h.clock.TicksToWallClock(stat.Starttime),
			Cwd:       cwd,
		})
	}
	return b.Build(), nil
}

// Metadata reads the command line and environment of pid.
func (h *Host) Metadata(_ context.Context, pid int) (*procmeta.ProcessMetadata, error) {
	proc, err := h.fs.Proc(pid)
	if err != nil {
		return nil, lookupErr(pid, err)
	}
	return procmeta.Collect(proc)
}

// FileTable lists the open descriptors of p. Capacity is the soft open-files
// limit, raised to cover the highest open descriptor.
func (h *Host) FileTable(_ context.Context, p *proctree.Process) (fdtable.Table, error) {
	proc, err := h.fs.Proc(p.PID)
	if err != nil {
		return nil, lookupErr(p.PID, err)
	}

	fds, err := proc.FileDescriptors()
	if err != nil {
		return nil, lookupErr(p.PID, err)
	}

	t := &table{slots: make(map[int]*file, len(fds))}
	maxFD := -1
	for _, raw := range fds {
		fd := int(raw) //nolint:gosec // descriptor numbers fit in int
		link := filepath.Join(h.root, strconv.Itoa(p.PID), "fd", strconv.Itoa(fd))
		target, err := os.Readlink(link)
		if err != nil {
			// Closed since the directory was listed.
			continue
		}

		f := &file{link: link, target: target}
		if info, err := proc.FDInfo(strconv.Itoa(fd)); err == nil {
			f.flags = parseFlags(info.Flags)
			f.pos, f.mnt = info.Pos, info.MntID
		} else {
			logger.L().Debug("fdinfo unavailable",
				helpers.Int("pid", p.PID),
				helpers.Int("fd", fd),
				helpers.Error(err))
		}
		t.slots[fd] = f
		maxFD = max(maxFD, fd)
	}
	t.countRefs()

	t.capacity = maxFD + 1
	if lim, err := proc.Limits(); err == nil && lim.OpenFiles <= math.MaxInt32 {
		t.capacity = max(t.capacity, int(lim.OpenFiles)) //nolint:gosec // bounded above
	}
	return t, nil
}

func lookupErr(pid int, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("pid %d: %w", pid, proctree.ErrNotFound)
	}
	return fmt.Errorf("pid %d: %w: %w", pid, fsmeta.ErrResolution, err)
}

func parseFlags(s string) uint32 {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

type table struct {
	capacity int
	slots    map[int]*file
}

func (t *table) Capacity() int { return t.capacity }

func (t *table) Get(fd int) fsmeta.File {
	f, ok := t.slots[fd]
	if !ok {
		return nil
	}
	return f
}

func (t *table) Occupied() []int {
	fds := make([]int, 0, len(t.slots))
	for fd := range t.slots {
		fds = append(fds, fd)
	}
	slices.Sort(fds)
	return fds
}

type handleKey struct {
	target, pos, mnt string
	flags            uint32
}

func (t *table) countRefs() {
	handles := make(map[handleKey]int64)
	inodes := make(map[string]int64)
	for _, f := range t.slots {
		handles[f.key()]++
		inodes[f.target]++
	}
	for _, f := range t.slots {
		f.refs = handles[f.key()]
		f.inodeRefs = inodes[f.target]
	}
}
