package report

import (
	"context"
	"fmt"

	"github.com/mrzor/process-inspector/internal/proctree"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// HierarchyReport describes one process and its immediate family.
type HierarchyReport struct {
	PID  int
	Kind Kind
	Err  error

	Process ProcessRef
	State   string
	Parent  ProcessRef

	Policy   proctree.SiblingPolicy
	Children []ProcessRef
	Siblings []ProcessRef
}

// Found reports whether the process resolved.
func (h *HierarchyReport) Found() bool {
	return h.Kind == KindNone
}

// BulkReport is a hierarchy report for every process in the forest.
type BulkReport struct {
	Processes []*HierarchyReport
	// Total counts every process with a positive PID, selected or not.
	Total  int
	Filter string
}

// Hierarchy reports pid's identity, parent, children and siblings. A PID
// outside the valid space is rejected before lookup with an error matching
// proctree.ErrInvalidPID; an unknown PID yields a not-found report.
func (r *Reporter) Hierarchy(ctx context.Context, pid int) (*HierarchyReport, error) {
	ctx, span := r.tracer.Start(ctx, "report.hierarchy",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(semconv.ProcessPID(pid)),
	)
	defer span.End()

	rep := &HierarchyReport{PID: pid, Policy: r.policy}
	if err := proctree.ValidatePID(pid); err != nil {
		rep.Kind, rep.Err = KindInvalidConfiguration, err
		span.SetStatus(codes.Error, err.Error())
		return rep, fmt.Errorf("hierarchy report: %w", err)
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

	r.fillHierarchy(dir, p, rep)
	span.SetAttributes(
		attribute.Int("report.children", len(rep.Children)),
		attribute.Int("report.siblings", len(rep.Siblings)),
	)
	span.SetStatus(codes.Ok, "")
	return rep, nil
}

// BulkHierarchy reports every process in pre-order, restricted to the
// processes selected by the process filter.
func (r *Reporter) BulkHierarchy(ctx context.Context) (*BulkReport, error) {
	ctx, span := r.tracer.Start(ctx, "report.bulk_hierarchy",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	dir, err := r.host.Directory(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read process directory: %w", err)
	}

	bulk := &BulkReport{Filter: r.procFilter.String()}
	for p := range proctree.Visible(dir.All()) {
		bulk.Total++
		ok := r.selected(ctx, p)
		// Bulk metadata only feeds the filter.
		r.meta.Delete(p.PID)
		if !ok {
			continue
		}
		rep := &HierarchyReport{PID: p.PID, Policy: r.policy}
		r.fillHierarchy(dir, p, rep)
		bulk.Processes = append(bulk.Processes, rep)
	}

	span.SetAttributes(
		attribute.Int("report.processes", bulk.Total),
		attribute.Int("report.selected", len(bulk.Processes)),
	)
	span.SetStatus(codes.Ok, "")
	return bulk, nil
}

func (r *Reporter) fillHierarchy(dir proctree.Directory, p *proctree.Process, rep *HierarchyReport) {
	rep.Process = refOf(p)
	rep.State = p.State
	if parent, ok := dir.Parent(p); ok {
		rep.Parent = refOf(parent)
	} else {
		rep.Parent = ProcessRef{PID: p.PPID}
	}

	if n := p.NumChildren(); n > 0 {
		rep.Children = make([]ProcessRef, 0, n)
	}
	for c := range proctree.Visible(dir.Children(p)) {
		rep.Children = append(rep.Children, refOf(c))
	}
	for s := range proctree.Visible(proctree.SiblingsOf(dir, p, r.policy)) {
		rep.Siblings = append(rep.Siblings, refOf(s))
	}
}
