//go:build !linux

package procfshost

import (
	"context"
	"errors"
	"runtime"

	"github.com/mrzor/process-inspector/internal/fdtable"
	"github.com/mrzor/process-inspector/internal/procmeta"
	"github.com/mrzor/process-inspector/internal/proctree"
)

// ErrUnsupported is returned on platforms without a Linux procfs.
var ErrUnsupported = errors.New("procfs host requires linux, running on " + runtime.GOOS)

// Host is unavailable on this platform.
type Host struct{}

// New always fails on this platform.
func New(string) (*Host, error) {
	return nil, ErrUnsupported
}

func (*Host) Directory(context.Context) (proctree.Directory, error) {
	return nil, ErrUnsupported
}

func (*Host) FileTable(context.Context, *proctree.Process) (fdtable.Table, error) {
	return nil, ErrUnsupported
}

func (*Host) Metadata(context.Context, int) (*procmeta.ProcessMetadata, error) {
	return nil, ErrUnsupported
}
