// Package procfshost is the live host: it snapshots the process forest from
// /proc and exposes every process's descriptor table as pinnable handles.
//
// A handle is pinned by opening its /proc/<pid>/fd/<n> link with O_PATH. The
// pinned descriptor keeps the underlying file alive while its name and inode
// are read, and is closed on Release.
//
// /proc does not export the kernel's reference counters. Handle counts are
// the number of slots in the same table sharing target, flags, position and
// mount; inode counts are the number of slots sharing the target.
package procfshost
