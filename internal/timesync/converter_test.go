package timesync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/procfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverter_TicksToWallClock(t *testing.T) {
	// Create a converter with a known boot time
	bootTime := time.Unix(1000000000, 0) // 2001-09-09 01:46:40 UTC
	converter := NewConverterAt(bootTime)

	tests := []struct {
		name  string
		ticks uint64
		want  time.Time
	}{
		{
			name:  "zero ticks",
			ticks: 0,
			want:  bootTime,
		},
		{
			name:  "one second",
			ticks: 100,
			want:  bootTime.Add(1 * time.Second),
		},
		{
			name:  "one hour",
			ticks: 360_000,
			want:  bootTime.Add(1 * time.Hour),
		},
		{
			name:  "fractional",
			ticks: 12_345,
			want:  bootTime.Add(123*time.Second + 450*time.Millisecond),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := converter.TicksToWallClock(tt.ticks)
			if !got.Equal(tt.want) {
				t.Errorf("TicksToWallClock() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConverter_TicksToDuration(t *testing.T) {
	converter := NewConverterAt(time.Time{})

	assert.Equal(t, time.Duration(0), converter.TicksToDuration(0))
	assert.Equal(t, 10*time.Millisecond, converter.TicksToDuration(1))
	assert.Equal(t, 2*time.Second+500*time.Millisecond, converter.TicksToDuration(250))
}

func TestConverter_BootTime(t *testing.T) {
	bootTime := time.Unix(1000000000, 0)
	converter := NewConverterAt(bootTime)

	got := converter.BootTime()
	if !got.Equal(bootTime) {
		t.Errorf("BootTime() = %v, want %v", got, bootTime)
	}
}

func TestNewConverter_ReadsBootTime(t *testing.T) {
	root := t.TempDir()
	stat := "cpu  1 2 3 4 5 6 7 8 9 10\n" +
		"cpu0 1 2 3 4 5 6 7 8 9 10\n" +
		"intr 0\n" +
		"ctxt 100\n" +
		"btime 1700000000\n" +
		"processes 10\n" +
		"procs_running 1\n" +
		"procs_blocked 0\n" +
		"softirq 0 0 0 0 0 0 0 0 0 0 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "stat"), []byte(stat), 0o644))

	fs, err := procfs.NewFS(root)
	require.NoError(t, err)

	converter, err := NewConverter(fs)
	require.NoError(t, err)
	assert.True(t, converter.BootTime().Equal(time.Unix(1700000000, 0)))
}
