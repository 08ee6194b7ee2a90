package report

import (
	"context"
	"errors"

	"github.com/mrzor/process-inspector/internal/fdtable"
	"github.com/mrzor/process-inspector/internal/filter"
	"github.com/mrzor/process-inspector/internal/fsmeta"
	"github.com/mrzor/process-inspector/internal/procmeta"
	"github.com/mrzor/process-inspector/internal/proctree"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultBuffers is the number of path scratch buffers a Reporter owns.
const DefaultBuffers = 1

// Host is the process registry and filesystem layer a Reporter reads.
type Host interface {
	Directory(ctx context.Context) (proctree.Directory, error)
	FileTable(ctx context.Context, p *proctree.Process) (fdtable.Table, error)
}

// MetadataSource is implemented by hosts that can provide command lines and
// environments for process filters.
type MetadataSource interface {
	Metadata(ctx context.Context, pid int) (*procmeta.ProcessMetadata, error)
}

// Kind classifies a report error.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindResolutionFailure
	KindResourceExhaustion
	KindInvalidConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindNotFound:
		return "not found"
	case KindResolutionFailure:
		return "resolution failure"
	case KindResourceExhaustion:
		return "resource exhaustion"
	case KindInvalidConfiguration:
		return "invalid configuration"
	default:
		return "unknown"
	}
}

// Classify maps an error to its Kind. Unrecognised errors are resolution
// failures.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, proctree.ErrInvalidPID):
		return KindInvalidConfiguration
	case errors.Is(err, proctree.ErrNotFound):
		return KindNotFound
	case errors.Is(err, fsmeta.ErrResourceExhausted):
		return KindResourceExhaustion
	default:
		return KindResolutionFailure
	}
}

// Reporter produces hierarchy, file-system and detail reports.
type Reporter struct {
	host       Host
	resolver   *fsmeta.Resolver
	policy     proctree.SiblingPolicy
	procFilter *filter.Filter
	fileFilter *filter.Filter
	tracer     trace.Tracer
	meta       *procmeta.Manager
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithSiblingPolicy selects whether a process counts among its own siblings.
func WithSiblingPolicy(p proctree.SiblingPolicy) Option {
	return func(r *Reporter) { r.policy = p }
}

// WithResolver replaces the metadata resolver.
func WithResolver(res *fsmeta.Resolver) Option {
	return func(r *Reporter) { r.resolver = res }
}

// WithProcessFilter restricts bulk reports to matching processes.
func WithProcessFilter(f *filter.Filter) Option {
	return func(r *Reporter) { r.procFilter = f }
}

// WithFileFilter restricts file-system reports to matching records.
func WithFileFilter(f *filter.Filter) Option {
	return func(r *Reporter) { r.fileFilter = f }
}

// WithTracer records one span per report.
func WithTracer(t trace.Tracer) Option {
	return func(r *Reporter) { r.tracer = t }
}

// New creates a Reporter reading from host.
func New(host Host, opts ...Option) *Reporter {
	r := &Reporter{
		host:     host,
		resolver: fsmeta.NewResolver(fsmeta.NewBufferPool(DefaultBuffers)),
		policy:   proctree.ExcludeSelf,
		tracer:   noop.NewTracerProvider().Tracer("process-inspector"),
		meta:     procmeta.NewManager(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProcessRef identifies a process in a report.
type ProcessRef struct {
	PID  int
	Name string
}

func refOf(p *proctree.Process) ProcessRef {
	return ProcessRef{PID: p.PID, Name: p.Name}
}

// metadata returns the cached metadata for pid, or nil when the host cannot
// provide any.
func (r *Reporter) metadata(ctx context.Context, pid int) *procmeta.ProcessMetadata {
	src, ok := r.host.(MetadataSource)
	if !ok {
		return nil
	}
	return r.meta.Load(pid, func(pid int) (*procmeta.ProcessMetadata, error) {
		return src.Metadata(ctx, pid)
	})
}

// selected evaluates the process filter. Evaluation errors deselect.
func (r *Reporter) selected(ctx context.Context, p *proctree.Process) bool {
	if r.procFilter.Empty() {
		return true
	}
	ok, err := r.procFilter.MatchProcess(p, r.metadata(ctx, p.PID))
	if err != nil {
		logger.L().Debug("process filter failed",
			helpers.Int("pid", p.PID),
			helpers.Error(err))
		return false
	}
	return ok
}
