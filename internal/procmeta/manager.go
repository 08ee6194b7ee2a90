package procmeta

import (
	"sync"
)

// Loader fetches metadata for one PID.
type Loader func(pid int) (*ProcessMetadata, error)

// Manager caches process metadata for the lifetime of one report run.
// It provides command-query separation for metadata access.
type Manager struct {
	mu             sync.RWMutex
	metadata       map[int]*ProcessMetadata // PID -> process metadata
	metadataErrors map[int]error            // PID -> metadata collection errors
	captureIssues  map[int][]string         // PID -> list of warnings/issues
}

// NewManager creates a new process metadata manager.
func NewManager() *Manager {
	return &Manager{
		metadata:       make(map[int]*ProcessMetadata),
		metadataErrors: make(map[int]error),
		captureIssues:  make(map[int][]string),
	}
}

// Get retrieves metadata for a PID (query).
// Returns nil if no metadata exists for this PID.
func (m *Manager) Get(pid int) *ProcessMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[pid]
}

// GetError retrieves the metadata collection error for a PID (query).
func (m *Manager) GetError(pid int) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadataErrors[pid]
}

// GetIssues retrieves the collection issues for a PID (query).
func (m *Manager) GetIssues(pid int) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.captureIssues[pid]
}

// Set stores metadata for a PID (command).
func (m *Manager) Set(pid int, metadata *ProcessMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[pid] = metadata
}

// SetError stores a metadata collection error for a PID (command).
func (m *Manager) SetError(pid int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadataErrors[pid] = err
}

// AddIssue adds a collection issue for a PID (command).
func (m *Manager) AddIssue(pid int, issue string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captureIssues[pid] = append(m.captureIssues[pid], issue)
}

// Delete removes all data for a PID (command).
func (m *Manager) Delete(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.metadata, pid)
	delete(m.metadataErrors, pid)
	delete(m.captureIssues, pid)
}

// Load returns cached metadata for pid, calling load at most once per PID.
// A partial result returned alongside an error is cached and the error is
// recorded as an issue. Never returns nil.
func (m *Manager) Load(pid int, load Loader) *ProcessMetadata {
	if meta := m.Get(pid); meta != nil {
		return meta
	}
	if m.GetError(pid) != nil {
		return &ProcessMetadata{Environ: map[string]string{}}
	}

	meta, err := load(pid)
	if meta == nil {
		meta = &ProcessMetadata{Environ: map[string]string{}}
		if err == nil {
			m.Set(pid, meta)
			return meta
		}
		m.SetError(pid, err)
		return meta
	}
	if err != nil {
		m.AddIssue(pid, err.Error())
	}
	m.Set(pid, meta)
	return meta
}
