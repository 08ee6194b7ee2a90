package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mrzor/process-inspector/internal/config"
	"github.com/mrzor/process-inspector/internal/hosttest"
	"github.com/mrzor/process-inspector/internal/proctree"
	"github.com/mrzor/process-inspector/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Help(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"/usr/bin/process-inspector", "--help"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "Usage: process-inspector"))
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"process-inspector", "--version"}, &out))
	assert.Equal(t, "process-inspector dev (commit: unknown, built: unknown)\n", out.String())
}

func TestRun_BadArguments(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"process-inspector", "sideways"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "Usage:")
}

func TestRun_ListDemo(t *testing.T) {
	t.Setenv("PROCESS_INSPECTOR_LOG_LEVEL", "error")

	var out bytes.Buffer
	require.NoError(t, run([]string{"process-inspector", "list"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "list: inserted 100 removed 10 remaining 90\n"))
}

func TestRunReport_Modes(t *testing.T) {
	host := hosttest.NewHost(hosttest.Sample())
	host.Tables[4] = hosttest.NewTable(4).Set(0, hosttest.NewFile("/dev/pts/0", 3, 1, 3))

	tests := []struct {
		mode config.Mode
		pid  int
		want string
	}{
		{config.ModeHierarchy, 2, "siblings total: 1\n"},
		{config.ModeFS, 4, "fd 0: /dev/pts/0\n"},
		{config.ModeAll, 0, "processes total: 4\n"},
		{config.ModeInfo, 3, "process 3 (cron)\n"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := &config.Config{Mode: tt.mode, PID: tt.pid}
			var out bytes.Buffer
			require.NoError(t, runReport(context.Background(), cfg, report.New(host), &out))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestRunReport_InvalidPID(t *testing.T) {
	host := hosttest.NewHost(hosttest.Sample())
	cfg := &config.Config{Mode: config.ModeFS, PID: 0}

	var out bytes.Buffer
	err := runReport(context.Background(), cfg, report.New(host), &out)
	require.ErrorIs(t, err, proctree.ErrInvalidPID)
	assert.Equal(t, report.KindInvalidConfiguration, report.Classify(err))
	assert.Equal(t, "process 0: invalid configuration: pid 0: invalid process identifier\n", out.String())
}

func TestReporterOptions_BadFilter(t *testing.T) {
	_, err := reporterOptions(&config.Config{ProcessFilter: "pid +"}, nil)
	require.Error(t, err)

	opts, err := reporterOptions(&config.Config{FileFilter: `fd > 2`}, nil)
	require.NoError(t, err)
	assert.Len(t, opts, 3)
}
