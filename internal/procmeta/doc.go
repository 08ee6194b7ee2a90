// Package procmeta manages process metadata for one report run.
//
// ProcessMetadata holds environment variables, command-line arguments, and
// full command line for filter evaluation. Collect reads them from procfs.
//
// Manager provides command-query separation:
//
// Queries (read-only):
//   - Get(pid) - Retrieve metadata
//   - GetError(pid) - Retrieve collection errors
//   - GetIssues(pid) - Retrieve collection warnings
//
// Commands (mutations):
//   - Set(pid, metadata) - Store metadata
//   - SetError(pid, err) - Store collection error
//   - AddIssue(pid, issue) - Add collection warning
//   - Delete(pid) - Forget a PID
//   - Load(pid, loader) - Cached get-or-load
//
// Thread-safe with RWMutex for concurrent access.
package procmeta
