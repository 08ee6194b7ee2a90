package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mrzor/process-inspector/internal/fsmeta"
	"github.com/mrzor/process-inspector/internal/procmeta"
	"github.com/mrzor/process-inspector/internal/proctree"
)

// Filter is a compiled selection expression.
type Filter struct {
	program *vm.Program
	rawExpr string
}

// processEnv is the type-checking environment for process filters.
var processEnv = map[string]interface{}{
	"pid":     0,
	"ppid":    0,
	"name":    "",
	"state":   "",
	"args":    []string{},
	"cmdline": "",
	"env":     map[string]string{},
}

// fileEnv is the type-checking environment for file filters.
var fileEnv = map[string]interface{}{
	"fd":     0,
	"path":   "",
	"name":   "",
	"parent": "",
	"flags":  0,
	"mode":   0,
	"ino":    0,
	"nlink":  0,
}

// NewProcessFilter compiles a process filter.
func NewProcessFilter(exprStr string) (*Filter, error) {
	return compile("process", exprStr, processEnv)
}

// NewFileFilter compiles a file filter.
func NewFileFilter(exprStr string) (*Filter, error) {
	return compile("file", exprStr, fileEnv)
}

func compile(kind, exprStr string, env map[string]interface{}) (*Filter, error) {
	if exprStr == "" {
		return &Filter{}, nil
	}

	program, err := expr.Compile(exprStr, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s filter %q: %w", kind, exprStr, err)
	}

	return &Filter{
		program: program,
		rawExpr: exprStr,
	}, nil
}

// Empty reports whether the filter selects everything.
func (f *Filter) Empty() bool {
	return f == nil || f.program == nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.rawExpr
}

// MatchProcess evaluates the filter for p. meta may be nil.
func (f *Filter) MatchProcess(p *proctree.Process, meta *procmeta.ProcessMetadata) (bool, error) {
	if f.Empty() {
		return true, nil
	}

	env := map[string]interface{}{
		"pid":     p.PID,
		"ppid":    p.PPID,
		"name":    p.Name,
		"state":   p.State,
		"args":    []string{},
		"cmdline": "",
		"env":     map[string]string{},
	}
	if meta != nil {
		if meta.Args != nil {
			env["args"] = meta.Args
		}
		if meta.Environ != nil {
			env["env"] = meta.Environ
		}
		env["cmdline"] = meta.CmdlineFull
	}

	return f.run(env)
}

// MatchFile evaluates the filter for rec.
func (f *Filter) MatchFile(rec fsmeta.Record) (bool, error) {
	if f.Empty() {
		return true, nil
	}

	//nolint:gosec // inode numbers and link counts fit in int on 64-bit hosts
	env := map[string]interface{}{
		"fd":     rec.FD,
		"path":   rec.Path,
		"name":   rec.EntryName,
		"parent": rec.ParentName,
		"flags":  int(rec.Flags),
		"mode":   int(rec.Mode),
		"ino":    int(rec.Inode.Ino),
		"nlink":  int(rec.Inode.Nlink),
	}

	return f.run(env)
}

func (f *Filter) run(env map[string]interface{}) (bool, error) {
	output, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter %q: %w", f.rawExpr, err)
	}
	matched, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", f.rawExpr, output)
	}
	return matched, nil
}
