package fsmeta

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFile struct {
	name       string
	entry      Entry
	acquireErr error
	nameErr    error
	entryErr   error
	releaseErr error

	pins     int
	releases int
}

func (f *fakeFile) Flags() uint32   { return 0o100002 }
func (f *fakeFile) Mode() uint32    { return 3 }
func (f *fakeFile) RefCount() int64 { return 2 }

func (f *fakeFile) AcquirePath() (Path, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.pins++
	return (*fakePath)(f), nil
}

type fakePath fakeFile

func (p *fakePath) ReadName(buf []byte) (int, error) {
	if p.nameErr != nil {
		return 0, p.nameErr
	}
	return copy(buf, p.name), nil
}

func (p *fakePath) Entry() (Entry, error) {
	if p.entryErr != nil {
		return Entry{}, p.entryErr
	}
	return p.entry, nil
}

func (p *fakePath) Release() error {
	p.releases++
	return p.releaseErr
}

func newFakeFile(name string) *fakeFile {
	base, parent := EntryNames(name)
	return &fakeFile{
		name: name,
		entry: Entry{
			Name:       base,
			ParentName: parent,
			Inode:      Inode{Ino: 42, Nlink: 1, BlkBits: 12, Blocks: 8, RefCount: 1},
		},
	}
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(NewBufferPool(1))
	f := newFakeFile("/tmp/a.txt")

	rec, err := r.Resolve(3, f)
	require.NoError(t, err)

	assert.Equal(t, Record{
		FD:         3,
		Path:       "/tmp/a.txt",
		RefCount:   2,
		Flags:      0o100002,
		Mode:       3,
		EntryName:  "a.txt",
		ParentName: "tmp",
		EntryIno:   42,
		Inode:      Inode{Ino: 42, Nlink: 1, BlkBits: 12, Blocks: 8, RefCount: 1},
	}, rec)
	assert.Equal(t, 1, f.pins)
	assert.Equal(t, 1, f.releases)
}

func TestResolver_ReleasesOnFailure(t *testing.T) {
	tests := []struct {
		name string
		mod  func(f *fakeFile)
	}{
		{name: "name", mod: func(f *fakeFile) { f.nameErr = errors.New("ENAMETOOLONG") }},
		{name: "entry", mod: func(f *fakeFile) { f.entryErr = errors.New("ESTALE") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(NewBufferPool(1))
			f := newFakeFile("/var/log/x")
			tt.mod(f)

			_, err := r.Resolve(1, f)
			require.ErrorIs(t, err, ErrResolution)
			assert.Equal(t, f.pins, f.releases)
		})
	}
}

func TestResolver_AcquireFailure(t *testing.T) {
	r := NewResolver(NewBufferPool(1))
	f := newFakeFile("/x")
	f.acquireErr = errors.New("ENOENT")

	_, err := r.Resolve(7, f)
	require.ErrorIs(t, err, ErrResolution)
	assert.Contains(t, err.Error(), "fd 7")
	assert.Zero(t, f.releases)
}

func TestResolver_ReleaseFailureFailsRecord(t *testing.T) {
	r := NewResolver(NewBufferPool(1))
	f := newFakeFile("/x")
	f.releaseErr = errors.New("EBADF")

	rec, err := r.Resolve(0, f)
	require.ErrorIs(t, err, ErrResolution)
	assert.Equal(t, Record{}, rec)
}

func TestResolver_BufferReturnedAfterUse(t *testing.T) {
	r := NewResolver(NewBufferPool(1))

	for i := range 3 {
		_, err := r.Resolve(i, newFakeFile("/x"))
		require.NoError(t, err)
	}
}

func TestResolver_ResourceExhaustion(t *testing.T) {
	r := NewResolver(NewBufferPool(0))
	f := newFakeFile("/x")

	_, err := r.Resolve(0, f)
	require.ErrorIs(t, err, ErrResourceExhausted)
	assert.NotErrorIs(t, err, ErrResolution)
	assert.Zero(t, f.pins, "no pin may be taken without scratch space")
}

func TestResolver_TruncatesLongNames(t *testing.T) {
	r := NewResolver(NewBufferPool(1))
	long := "/" + strings.Repeat("a", PathMax+100)

	rec, err := r.Resolve(0, newFakeFile(long))
	require.NoError(t, err)
	assert.True(t, rec.Truncated)
	assert.Len(t, rec.Path, PathMax)
}

func TestEntryNames(t *testing.T) {
	tests := []struct {
		in, name, parent string
	}{
		{"/tmp/a.txt", "a.txt", "tmp"},
		{"/a", "a", "/"},
		{"/", "/", "/"},
		{"/dev/pts/0", "0", "pts"},
		{"socket:[12345]", "socket:[12345]", "/"},
		{"/tmp/gone (deleted)", "gone", "tmp"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, parent := EntryNames(tt.in)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.parent, parent)
		})
	}
}

func TestBufferPool_GetPut(t *testing.T) {
	p := NewBufferPool(2)

	a, err := p.Get()
	require.NoError(t, err)
	assert.Len(t, a, PathMax)
	_, err = p.Get()
	require.NoError(t, err)

	_, err = p.Get()
	require.ErrorIs(t, err, ErrResourceExhausted)

	p.Put(a[:10])
	b, err := p.Get()
	require.NoError(t, err)
	assert.Len(t, b, PathMax)
}
