package report

import (
	"context"
	"fmt"
	"time"

	"github.com/mrzor/process-inspector/internal/proctree"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// InfoReport is the detail view of a single process.
type InfoReport struct {
	PID  int
	Kind Kind
	Err  error

	Process ProcessRef
	State   string
	Parent  ProcessRef

	UTime     time.Duration
	STime     time.Duration
	StartedAt time.Time
	Cwd       string

	Args        []string
	MetaIssues  []string
	HasMetadata bool
}

// Found reports whether the process resolved.
func (i *InfoReport) Found() bool {
	return i.Kind == KindNone
}

// Info reports identity, parent, CPU times, start time, working directory and
// command line of pid.
func (r *Reporter) Info(ctx context.Context, pid int) (*InfoReport, error) {
	ctx, span := r.tracer.Start(ctx, "report.info",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(semconv.ProcessPID(pid)),
	)
	defer span.End()

	rep := &InfoReport{PID: pid}
	if err := proctree.ValidatePID(pid); err != nil {
		rep.Kind, rep.Err = KindInvalidConfiguration, err
		span.SetStatus(codes.Error, err.Error())
		return rep, fmt.Errorf("info report: %w", err)
	}

	dir, err := r.host.Directory(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read process directory: %w", err)
	}

	p, err := dir.FindByID(pid)
	if err != nil {
		rep.Kind, rep.Err = Classify(err), err
		span.SetAttributes(attribute.String("report.outcome", rep.Kind.String()))
		return rep, nil
	}

	rep.Process = refOf(p)
	rep.State = p.State
	rep.UTime, rep.STime = p.UTime, p.STime
	rep.StartedAt = p.StartedAt
	rep.Cwd = p.Cwd
	if parent, ok := dir.Parent(p); ok {
		rep.Parent = refOf(parent)
	} else {
		rep.Parent = ProcessRef{PID: p.PPID}
	}

	if meta := r.metadata(ctx, pid); meta != nil {
		rep.HasMetadata = true
		rep.Args = meta.Args
		rep.MetaIssues = r.meta.GetIssues(pid)
		if err := r.meta.GetError(pid); err != nil {
			rep.HasMetadata = false
			rep.MetaIssues = append(rep.MetaIssues, err.Error())
		}
	}

	span.SetAttributes(semconv.ProcessParentPID(rep.Parent.PID))
	span.SetStatus(codes.Ok, "")
	return rep, nil
}
