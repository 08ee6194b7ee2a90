package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/mrzor/process-inspector/internal/proctree"
)

// Mode selects the report to produce.
type Mode string

const (
	ModeHierarchy Mode = "hierarchy"
	ModeFS        Mode = "fs"
	ModeAll       Mode = "all"
	ModeInfo      Mode = "info"
	ModeList      Mode = "list"
)

var modes = []Mode{ModeHierarchy, ModeFS, ModeAll, ModeInfo, ModeList}

// ErrHelp and ErrVersion are returned when the caller asked for usage or
// version output instead of a report.
var (
	ErrHelp    = errors.New("help requested")
	ErrVersion = errors.New("version requested")
)

// Defaults holds the settings read from the environment. Flags override them.
type Defaults struct {
	// PID is the fallback target when no --pid flag is given.
	PID      int    `env:"PROCESS_INSPECTOR_PID" envDefault:"1"`
	Mode     string `env:"PROCESS_INSPECTOR_MODE" envDefault:"hierarchy"`
	ProcRoot string `env:"PROCESS_INSPECTOR_PROC_ROOT" envDefault:"/proc"`
	LogLevel string `env:"PROCESS_INSPECTOR_LOG_LEVEL" envDefault:"info"`
}

// ParseDefaults reads Defaults from the environment.
func ParseDefaults() (*Defaults, error) {
	var d Defaults
	if err := env.Parse(&d); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &d, nil
}

// Config holds the parsed command-line configuration
type Config struct {
	Mode Mode
	// PID is the target process. It is not validated here; the reporter
	// rejects identifiers outside the PID space.
	PID int

	ProcessFilter string
	FileFilter    string
	SiblingPolicy proctree.SiblingPolicy

	ProcRoot string
	LogLevel string
}

// ParseArgs parses command-line arguments on top of the environment defaults.
// Expected format: program_name [flags] [mode]
func ParseArgs(args []string) (*Config, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no arguments provided")
	}

	d, err := ParseDefaults()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Mode:     Mode(d.Mode),
		PID:      d.PID,
		ProcRoot: d.ProcRoot,
		LogLevel: d.LogLevel,
	}

	var positional []string
	for i := 1; i < len(args); i++ {
		arg := args[i]

		// Flags that take a value accept both "--flag value" and "--flag=value".
		name, inline, hasInline := strings.Cut(arg, "=")
		value := func() (string, error) {
			if hasInline {
				return inline, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s requires a value", name)
			}
			i++
			return args[i], nil
		}

		switch name {
		case "-h", "--help":
			return nil, ErrHelp
		case "--version":
			return nil, ErrVersion
		case "-p", "--pid":
			v, err := value()
			if err != nil {
				return nil, err
			}
			pid, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("invalid pid %q: %w", v, err)
			}
			cfg.PID = pid
		case "-f", "--filter":
			v, err := value()
			if err != nil {
				return nil, err
			}
			cfg.ProcessFilter = v
		case "--file-filter":
			v, err := value()
			if err != nil {
				return nil, err
			}
			cfg.FileFilter = v
		case "--siblings-include-self":
			cfg.SiblingPolicy = proctree.IncludeSelf
		case "--proc-root":
			v, err := value()
			if err != nil {
				return nil, err
			}
			cfg.ProcRoot = v
		case "--log-level":
			v, err := value()
			if err != nil {
				return nil, err
			}
			cfg.LogLevel = v
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown flag: %s", arg)
			}
			positional = append(positional, arg)
		}
	}

	switch len(positional) {
	case 0:
	case 1:
		cfg.Mode = Mode(positional[0])
	default:
		return nil, fmt.Errorf("expected at most one mode, got %d: %s", len(positional), strings.Join(positional, " "))
	}

	if err := cfg.Mode.Validate(); err != nil {
		return nil, err
	}
	if cfg.ProcRoot == "" {
		return nil, fmt.Errorf("proc root cannot be empty")
	}

	return cfg, nil
}

// Validate rejects unknown modes.
func (m Mode) Validate() error {
	for _, known := range modes {
		if m == known {
			return nil
		}
	}
	names := make([]string, len(modes))
	for i, known := range modes {
		names[i] = string(known)
	}
	return fmt.Errorf("unknown mode %q (want one of: %s)", string(m), strings.Join(names, ", "))
}

// Usage returns the help text for program.
func Usage(program string) string {
	return fmt.Sprintf(`Usage: %[1]s [flags] [hierarchy|fs|all|info|list]

Modes:
  hierarchy   parent, children and siblings of the target process (default)
  fs          open-file, dentry and inode metadata of the target process
  all         hierarchy of every process
  info        detail view of the target process
  list        linked-list walk-through

Flags:
  -p, --pid PID              target process (env PROCESS_INSPECTOR_PID, default 1)
  -f, --filter EXPR          process filter for "all", e.g. 'name startsWith "kworker"'
      --file-filter EXPR     file filter for "fs", e.g. 'path startsWith "/tmp/"'
      --siblings-include-self  count a process among its own siblings
      --proc-root DIR        procfs mount (env PROCESS_INSPECTOR_PROC_ROOT, default /proc)
      --log-level LEVEL      debug, info, warning or error (env PROCESS_INSPECTOR_LOG_LEVEL)
  -h, --help                 show this help
      --version              show version

Example: %[1]s -p $$ fs
`, program)
}
