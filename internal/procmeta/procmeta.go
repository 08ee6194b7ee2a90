// Package procmeta collects process metadata from /proc filesystem.
package procmeta

import (
	"fmt"
	"strings"

	"github.com/prometheus/procfs"
)

// ProcessMetadata holds structured process information for filter evaluation.
type ProcessMetadata struct {
	Environ     map[string]string // Parsed environment variables
	Args        []string          // Command-line arguments
	CmdlineFull string            // Full command line as single string
}

// Collect reads the command line and environment of proc.
// The environment of another user's process is usually unreadable; in that
// case the command line is still returned together with the error.
func Collect(proc procfs.Proc) (*ProcessMetadata, error) {
	meta := &ProcessMetadata{Environ: make(map[string]string)}

	cmdline, err := proc.CmdLine()
	if err != nil {
		return nil, fmt.Errorf("reading cmdline of pid %d: %w", proc.PID, err)
	}
	meta.Args, meta.CmdlineFull = parseCmdline(cmdline)

	environ, err := proc.Environ()
	if err != nil {
		return meta, fmt.Errorf("reading environ of pid %d: %w", proc.PID, err)
	}
	meta.Environ = parseEnviron(environ)

	return meta, nil
}

// parseEnviron turns KEY=VALUE entries into a map. Entries without a key are
// dropped and the last duplicate wins.
func parseEnviron(raw []string) map[string]string {
	env := make(map[string]string, len(raw))
	for _, entry := range raw {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// parseCmdline returns the argument vector and its space-joined form.
func parseCmdline(raw []string) ([]string, string) {
	args := make([]string, len(raw))
	copy(args, raw)
	return args, strings.Join(args, " ")
}
