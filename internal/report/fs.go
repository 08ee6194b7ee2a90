package report

import (
	"context"
	"fmt"

	"github.com/mrzor/process-inspector/internal/fdtable"
	"github.com/mrzor/process-inspector/internal/fsmeta"
	"github.com/mrzor/process-inspector/internal/proctree"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Skipped marks a descriptor whose metadata could not be resolved.
type Skipped struct {
	FD   int
	Kind Kind
	Err  error
}

// FSReport lists the open-file metadata of one process.
type FSReport struct {
	PID  int
	Kind Kind
	Err  error

	Process  ProcessRef
	Cwd      string
	Capacity int

	Records []fsmeta.Record
	Skipped []Skipped
	// Filtered counts resolved records dropped by the file filter.
	Filtered int
	Filter   string
}

// Found reports whether the process resolved.
func (f *FSReport) Found() bool {
	return f.Kind == KindNone
}

// FS resolves every open descriptor of pid in ascending order. Descriptors
// that fail to resolve are recorded in Skipped and the walk continues.
func (r *Reporter) FS(ctx context.Context, pid int) (*FSReport, error) {
	ctx, span := r.tracer.Start(ctx, "report.fs",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(semconv.ProcessPID(pid)),
	)
	defer span.End()

	rep := &FSReport{PID: pid, Filter: r.fileFilter.String()}
	if err := proctree.ValidatePID(pid); err != nil {
		rep.Kind, rep.Err = KindInvalidConfiguration, err
		span.SetStatus(codes.Error, err.Error())
		return rep, fmt.Errorf("fs report: %w", err)
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
	rep.Cwd = p.Cwd

	table, err := r.host.FileTable(ctx, p)
	if err != nil {
		// The process exited between lookup and table access.
		rep.Kind, rep.Err = Classify(err), err
		span.SetAttributes(attribute.String("report.outcome", rep.Kind.String()))
		return rep, nil
	}
	rep.Capacity = table.Capacity()

	for fd, f := range fdtable.OpenFiles(table) {
		rec, err := r.resolver.Resolve(fd, f)
		if err != nil {
			r.skip(span, rep, fd, err)
			continue
		}
		if !r.fileSelected(pid, rec) {
			rep.Filtered++
			continue
		}
		rep.Records = append(rep.Records, rec)
	}

	span.SetAttributes(
		attribute.Int("report.capacity", rep.Capacity),
		attribute.Int("report.files", len(rep.Records)),
		attribute.Int("report.skipped", len(rep.Skipped)),
	)
	span.SetStatus(codes.Ok, "")
	return rep, nil
}

func (r *Reporter) skip(span trace.Span, rep *FSReport, fd int, err error) {
	kind := Classify(err)
	rep.Skipped = append(rep.Skipped, Skipped{FD: fd, Kind: kind, Err: err})

	logger.L().Warning("skipping descriptor",
		helpers.Int("pid", rep.PID),
		helpers.Int("fd", fd),
		helpers.String("kind", kind.String()),
		helpers.Error(err))
	span.AddEvent("descriptor.skipped", trace.WithAttributes(
		attribute.Int("fd", fd),
		attribute.String("kind", kind.String()),
		attribute.String("error", err.Error()),
	))
}

// fileSelected evaluates the file filter. Evaluation errors deselect.
func (r *Reporter) fileSelected(pid int, rec fsmeta.Record) bool {
	if r.fileFilter.Empty() {
		return true
	}
	ok, err := r.fileFilter.MatchFile(rec)
	if err != nil {
		logger.L().Debug("file filter failed",
			helpers.Int("pid", pid),
			helpers.Int("fd", rec.FD),
			helpers.Error(err))
		return false
	}
	return ok
}
