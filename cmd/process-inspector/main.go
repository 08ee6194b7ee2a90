// process-inspector reports process hierarchy and open-file metadata read from procfs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mrzor/process-inspector/internal/config"
	"github.com/mrzor/process-inspector/internal/filter"
	"github.com/mrzor/process-inspector/internal/otel"
	"github.com/mrzor/process-inspector/internal/procfshost"
	"github.com/mrzor/process-inspector/internal/report"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"go.opentelemetry.io/otel/trace"
)

// Version information injected by GoReleaser at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// exitInvalid is the exit status for a rejected target identifier.
const exitInvalid = 2

func main() {
	if err := run(os.Args, os.Stdout); err != nil {
		if report.Classify(err) == report.KindInvalidConfiguration {
			logger.L().Error("invalid configuration", helpers.Error(err))
			os.Exit(exitInvalid)
		}
		logger.L().Fatal("process-inspector failed", helpers.Error(err))
	}
}

// setupOTEL returns a tracer and cleanup function. Without a configured
// exporter endpoint the reporter keeps its no-op tracer.
func setupOTEL(versionInfo string) (trace.Tracer, func(), error) {
	otelCfg, err := config.ParseOTELConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}
	if !otelCfg.Enabled() {
		return nil, func() {}, nil
	}

	tp, err := otel.InitProvider(otelCfg, versionInfo)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize OTEL provider: %w", err)
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otel.ShutdownProvider(shutdownCtx, tp); err != nil {
			logger.L().Warning("error shutting down OTEL provider", helpers.Error(err))
		}
	}

	return tp.Tracer("process-inspector"), cleanup, nil
}

// reporterOptions compiles the filters and assembles the reporter options.
func reporterOptions(cfg *config.Config, tracer trace.Tracer) ([]report.Option, error) {
	procFilter, err := filter.NewProcessFilter(cfg.ProcessFilter)
	if err != nil {
		return nil, err
	}
	fileFilter, err := filter.NewFileFilter(cfg.FileFilter)
	if err != nil {
		return nil, err
	}

	opts := []report.Option{
		report.WithSiblingPolicy(cfg.SiblingPolicy),
		report.WithProcessFilter(procFilter),
		report.WithFileFilter(fileFilter),
	}
	if tracer != nil {
		opts = append(opts, report.WithTracer(tracer))
	}
	return opts, nil
}

// renderer is implemented by every report.
type renderer interface {
	Render(w io.Writer) error
}

func runReport(ctx context.Context, cfg *config.Config, r *report.Reporter, out io.Writer) error {
	switch cfg.Mode {
	case config.ModeHierarchy:
		rep, err := r.Hierarchy(ctx, cfg.PID)
		if rep == nil {
			return err
		}
		return emit(out, rep, err)
	case config.ModeFS:
		rep, err := r.FS(ctx, cfg.PID)
		if rep == nil {
			return err
		}
		return emit(out, rep, err)
	case config.ModeAll:
		rep, err := r.BulkHierarchy(ctx)
		if rep == nil {
			return err
		}
		return emit(out, rep, err)
	case config.ModeInfo:
		rep, err := r.Info(ctx, cfg.PID)
		if rep == nil {
			return err
		}
		return emit(out, rep, err)
	default:
		return fmt.Errorf("unhandled mode %q", cfg.Mode)
	}
}

// emit renders rep, then surfaces the report error. Rejected reports still
// print their marker.
func emit(out io.Writer, rep renderer, err error) error {
	if renderErr := rep.Render(out); renderErr != nil {
		return fmt.Errorf("failed to write report: %w", renderErr)
	}
	return err
}

func run(args []string, out io.Writer) error {
	program := filepath.Base(args[0])

	cfg, err := config.ParseArgs(args)
	switch {
	case errors.Is(err, config.ErrHelp):
		_, err = fmt.Fprint(out, config.Usage(program))
		return err
	case errors.Is(err, config.ErrVersion):
		_, err = fmt.Fprintf(out, "%s %s (commit: %s, built: %s)\n", program, version, commit, date)
		return err
	case err != nil:
		return fmt.Errorf("%w\n\n%s", err, config.Usage(program))
	}

	if err := logger.L().SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	logger.L().Debug("starting process-inspector",
		helpers.String("version", version),
		helpers.String("commit", commit),
		helpers.String("mode", string(cfg.Mode)),
		helpers.Int("pid", cfg.PID))

	if cfg.Mode == config.ModeList {
		return report.ListDemo(out, report.ListInsert, report.ListRemove)
	}

	tracer, cleanupOTEL, err := setupOTEL(fmt.Sprintf("%s (%s)", version, commit))
	if err != nil {
		return err
	}
	defer cleanupOTEL()

	host, err := procfshost.New(cfg.ProcRoot)
	if err != nil {
		return err
	}

	opts, err := reporterOptions(cfg, tracer)
	if err != nil {
		return err
	}

	return runReport(context.Background(), cfg, report.New(host, opts...), out)
}
