package timesync

import (
	"fmt"
	"time"

	"github.com/prometheus/procfs"
)

// UserHZ is the clock-tick rate the kernel exports /proc/<pid>/stat times in.
const UserHZ = 100

// Converter handles conversion from clock-tick counters to durations and
// wall-clock time.
type Converter struct {
	bootTime time.Time
	hz       uint64
}

// NewConverter creates a new time converter.
// It reads the system boot time from the stat file of fs.
func NewConverter(fs procfs.FS) (*Converter, error) {
	stat, err := fs.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to read boot time: %w", err)
	}

	//nolint:gosec // boot time in seconds fits in int64
	return NewConverterAt(time.Unix(int64(stat.BootTime), 0)), nil
}

// NewConverterAt creates a converter for a known boot time.
func NewConverterAt(bootTime time.Time) *Converter {
	return &Converter{
		bootTime: bootTime,
		hz:       UserHZ,
	}
}

// TicksToDuration converts a tick counter such as utime or stime.
func (c *Converter) TicksToDuration(ticks uint64) time.Duration {
	secs := ticks / c.hz
	rem := ticks % c.hz
	//nolint:gosec // tick counters stay far below the int64 range
	return time.Duration(secs)*time.Second + time.Duration(rem)*time.Second/time.Duration(c.hz)
}

// TicksToWallClock converts a tick offset since boot, such as a process
// start time, to wall-clock time.
func (c *Converter) TicksToWallClock(ticks uint64) time.Time {
	return c.bootTime.Add(c.TicksToDuration(ticks))
}

// BootTime returns the system boot time used for conversions.
func (c *Converter) BootTime() time.Time {
	return c.bootTime
}
