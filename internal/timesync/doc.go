// Package timesync converts the clock-tick counters found in /proc/<pid>/stat
// (utime, stime, starttime) to durations and wall-clock time.
//
// Start times are ticks since boot; they become absolute by adding them to
// the boot time read from /proc/stat.
package timesync
