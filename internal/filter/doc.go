// Package filter compiles and evaluates selection expressions.
//
// Expressions use the expr language and must evaluate to a boolean. Process
// filters see:
//
//	pid, ppid    int
//	name, state  string
//	args         []string
//	cmdline      string
//	env          map[string]string
//
// File filters see:
//
//	fd, flags, mode, nlink, ino  int
//	path, name, parent           string
//
// An empty expression selects everything.
package filter
