// Package proctree models the host's process forest.
//
// A Forest is rooted at the bootstrap placeholder (PID 0). Each Process keeps
// its children on an intrusive list and is linked into its parent's list
// through its own sibling element, the same shape the host uses:
//
//	root(0)
//	 ├── 1 (init)
//	 │    ├── 2
//	 │    │    └── 4
//	 │    └── 3
//	 └── ...
//
// Directory is the read-only view the reporter consumes:
//   - FindByID(pid) - lookup, ErrInvalidPID for pid <= 0, ErrNotFound if absent
//   - All() - pre-order walk of every process except the placeholder
//   - Children(p) - p's children in insertion order
//   - Siblings(p) - the children of p's parent, p included
//   - Parent(p) - weak parent lookup by PPID
//
// SiblingsOf applies a SiblingPolicy and Visible drops entries with
// non-positive PIDs, which is how the reporter counts.
package proctree
