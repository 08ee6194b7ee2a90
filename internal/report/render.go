package report

import (
	"io"
	"strings"
	"time"

	"github.com/mrzor/process-inspector/internal/fsmeta"

	"github.com/dustin/go-humanize"
)

const blockSize = 512

// Render writes the hierarchy report.
func (h *HierarchyReport) Render(w io.Writer) error {
	p := newPrinter(w)
	h.render(p)
	return p.err
}

func (h *HierarchyReport) render(p *printer) {
	if !h.Found() {
		renderMissing(p, h.PID, h.Kind, h.Err)
		return
	}

	p.Printf("process %d (%s) state=%s parent=%d (%s)\n",
		h.Process.PID, h.Process.Name, h.State, h.Parent.PID, h.Parent.Name)
	renderRefs(p, "children", h.Children)
	renderRefs(p, "siblings ("+h.Policy.String()+")", h.Siblings)
}

func renderRefs(p *printer, title string, refs []ProcessRef) {
	p.Printf("%s:\n", title)
	for i, ref := range refs {
		p.Printf("  [%d] %d (%s)\n", i+1, ref.PID, ref.Name)
	}
	p.Printf("%s total: %d\n", strings.Fields(title)[0], len(refs))
}

// Render writes every hierarchy section followed by the grand total.
func (b *BulkReport) Render(w io.Writer) error {
	p := newPrinter(w)
	for _, h := range b.Processes {
		h.render(p)
		p.Printf("\n")
	}
	if b.Filter != "" {
		p.Printf("processes matched: %d filter=%q\n", len(b.Processes), b.Filter)
	}
	p.Printf("processes total: %d\n", b.Total)
	return p.err
}

// Render writes the file-system report.
func (f *FSReport) Render(w io.Writer) error {
	p := newPrinter(w)
	if !f.Found() {
		renderMissing(p, f.PID, f.Kind, f.Err)
		return p.err
	}

	p.Printf("process %d (%s) fd capacity=%d\n", f.Process.PID, f.Process.Name, f.Capacity)
	if f.Cwd != "" {
		p.Printf("cwd: %s\n", f.Cwd)
	}

	// Records and skips are each ascending; merge them back into fd order.
	i, j := 0, 0
	for i < len(f.Records) || j < len(f.Skipped) {
		if j == len(f.Skipped) || (i < len(f.Records) && f.Records[i].FD < f.Skipped[j].FD) {
			renderRecord(p, f.Records[i])
			i++
			continue
		}
		s := f.Skipped[j]
		p.Printf("fd %d: skipped (%s): %s\n", s.FD, s.Kind.String(), s.Err)
		j++
	}

	if f.Filter != "" {
		p.Printf("files filtered: %d filter=%q\n", f.Filtered, f.Filter)
	}
	p.Printf("files total: %d skipped: %d\n", len(f.Records), len(f.Skipped))
	return p.err
}

func renderRecord(p *printer, rec fsmeta.Record) {
	if rec.Truncated {
		p.Printf("fd %d: %s (truncated)\n", rec.FD, rec.Path)
	} else {
		p.Printf("fd %d: %s\n", rec.FD, rec.Path)
	}
	p.Printf("  file: refs=%d flags=%#x mode=%#o\n", rec.RefCount, rec.Flags, rec.Mode)
	p.Printf("  dentry: name=%s parent=%s ino=%d\n", rec.EntryName, rec.ParentName, rec.EntryIno)

	in := rec.Inode
	//nolint:gosec // block counts are never negative
	size := humanize.IBytes(uint64(in.Blocks) * blockSize)
	p.Printf("  inode: ino=%d nlink=%d rdev=%d blkbits=%d blocks=%d (%s) refs=%d\n",
		in.Ino, in.Nlink, in.Rdev, in.BlkBits, in.Blocks, size, in.RefCount)
}

// Render writes the detail report.
func (i *InfoReport) Render(w io.Writer) error {
	p := newPrinter(w)
	if !i.Found() {
		renderMissing(p, i.PID, i.Kind, i.Err)
		return p.err
	}

	p.Printf("process %d (%s)\n", i.Process.PID, i.Process.Name)
	p.Printf("  state: %s\n", i.State)
	p.Printf("  parent: %d (%s)\n", i.Parent.PID, i.Parent.Name)
	p.Printf("  utime: %s\n", i.UTime.String())
	p.Printf("  stime: %s\n", i.STime.String())
	if i.StartedAt.IsZero() {
		p.Printf("  started: -\n")
	} else {
		p.Printf("  started: %s\n", i.StartedAt.UTC().Format(time.RFC3339))
	}
	if i.Cwd != "" {
		p.Printf("  cwd: %s\n", i.Cwd)
	}
	if i.HasMetadata {
		p.Printf("  cmdline: %s\n", strings.Join(i.Args, " "))
	}
	for _, issue := range i.MetaIssues {
		p.Printf("  issue: %s\n", issue)
	}
	return p.err
}

func renderMissing(p *printer, pid int, kind Kind, err error) {
	if kind == KindNotFound {
		p.Printf("process %d: not found\n", pid)
		return
	}
	p.Printf("process %d: %s: %s\n", pid, kind.String(), err)
}
