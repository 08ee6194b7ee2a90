package procmeta

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Queries(t *testing.T) {
	m := NewManager()
	meta := &ProcessMetadata{Args: []string{"cron", "-f"}, CmdlineFull: "cron -f"}

	m.Set(3, meta)
	m.SetError(4, errors.New("no such process"))
	m.AddIssue(3, "environ unreadable")
	m.AddIssue(3, "cwd unreadable")

	assert.Same(t, meta, m.Get(3))
	assert.Nil(t, m.Get(4))
	assert.Nil(t, m.Get(99))

	assert.EqualError(t, m.GetError(4), "no such process")
	assert.NoError(t, m.GetError(3))

	assert.Equal(t, []string{"environ unreadable", "cwd unreadable"}, m.GetIssues(3))
	assert.Nil(t, m.GetIssues(4))
}

func TestManager_DeleteForgetsEverything(t *testing.T) {
	m := NewManager()
	m.Set(8, &ProcessMetadata{CmdlineFull: "sleep 60"})
	m.SetError(8, errors.New("stale"))
	m.AddIssue(8, "partial")

	m.Delete(8)

	assert.Nil(t, m.Get(8))
	assert.NoError(t, m.GetError(8))
	assert.Nil(t, m.GetIssues(8))
}

func TestManager_LoadCachesResult(t *testing.T) {
	m := NewManager()
	calls := 0
	load := func(int) (*ProcessMetadata, error) {
		calls++
		return &ProcessMetadata{Args: []string{"sleep", "1"}, CmdlineFull: "sleep 1"}, nil
	}

	first := m.Load(42, load)
	second := m.Load(42, load)

	assert.Equal(t, 1, calls)
	assert.Same(t, first, second)
	assert.Equal(t, "sleep 1", first.CmdlineFull)
	assert.Same(t, first, m.Get(42))
}

func TestManager_LoadAfterDeleteReloads(t *testing.T) {
	m := NewManager()
	calls := 0
	load := func(int) (*ProcessMetadata, error) {
		calls++
		return &ProcessMetadata{CmdlineFull: "bash"}, nil
	}

	m.Load(5, load)
	m.Delete(5)
	m.Load(5, load)

	assert.Equal(t, 2, calls)
}

func TestManager_LoadPartialResultRecordsIssue(t *testing.T) {
	m := NewManager()
	load := func(int) (*ProcessMetadata, error) {
		return &ProcessMetadata{Args: []string{"sshd"}}, errors.New("permission denied")
	}

	meta := m.Load(7, load)

	assert.Equal(t, []string{"sshd"}, meta.Args)
	assert.Equal(t, []string{"permission denied"}, m.GetIssues(7))
	assert.NoError(t, m.GetError(7), "a partial result is not a failure")
}

func TestManager_LoadFailureIsNotRetried(t *testing.T) {
	m := NewManager()
	calls := 0
	load := func(int) (*ProcessMetadata, error) {
		calls++
		return nil, errors.New("no such process")
	}

	meta := m.Load(9, load)
	again := m.Load(9, load)

	require.NotNil(t, meta)
	assert.NotNil(t, meta.Environ)
	assert.NotNil(t, again)
	assert.Equal(t, 1, calls)
	assert.Error(t, m.GetError(9))
	assert.Nil(t, m.Get(9))
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup

	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pid := range 50 {
				m.Load(pid, func(pid int) (*ProcessMetadata, error) {
					return &ProcessMetadata{CmdlineFull: "worker"}, nil
				})
				m.AddIssue(pid, "issue")
				if w == 0 {
					m.Delete(pid)
				}
			}
		}()
	}
	wg.Wait()

	for pid := range 50 {
		assert.NotPanics(t, func() { _ = m.GetIssues(pid) })
	}
}
