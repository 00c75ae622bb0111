package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplyconnect/supplyconnect/internal/logger"
)

func TestInit_Console(t *testing.T) {
	testCases := []struct {
		name         string
		cfg          logger.Log
		expectOutput bool
		expectJSON   bool
	}{
		{
			name:         "no writer enabled",
			cfg:          logger.Log{LogLevel: "info", ServiceName: "test", AppName: "test"},
			expectOutput: false,
		},
		{
			name: "console json",
			cfg: logger.Log{
				LogLevel: "info", ServiceName: "test", AppName: "test",
				Console: logger.Console{Enabled: true},
			},
			expectOutput: true,
			expectJSON:   true,
		},
		{
			name: "console writer",
			cfg: logger.Log{
				LogLevel: "info", ServiceName: "test", AppName: "test",
				Console: logger.Console{Enabled: true, UseConsoleWriter: true},
			},
			expectOutput: true,
		},
		{
			name: "trace with caller",
			cfg: logger.Log{
				LogLevel: "trace", ServiceName: "test", AppName: "test", ReportCaller: true,
				Console: logger.Console{Enabled: true},
			},
			expectOutput: true,
			expectJSON:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := captureOutput(t, tc.cfg)

			if !tc.expectOutput {
				assert.Empty(t, out)
				return
			}

			require.NotEmpty(t, out)

			if !tc.expectJSON {
				return
			}

			for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
				var entry map[string]any
				require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
				assert.Equal(t, "test", entry["app"])
			}
		})
	}
}

func TestInit_Errors(t *testing.T) {
	testCases := []struct {
		name          string
		cfg           logger.Log
		expectedError error
	}{
		{name: "bad level", cfg: logger.Log{LogLevel: "loud", ServiceName: "s", AppName: "a"}},
		{name: "no service", cfg: logger.Log{LogLevel: "info", AppName: "a"}, expectedError: logger.ErrServiceNameIsEmpty},
		{name: "no app", cfg: logger.Log{LogLevel: "info", ServiceName: "s"}, expectedError: logger.ErrAppNameIsEmpty},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := logger.Init(tc.cfg)
			require.Error(t, err)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
			}
		})
	}
}

func TestInit_Files(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, logger.Init(logger.Log{
		LogLevel:    "info",
		ServiceName: "test",
		AppName:     "test",
		File: logger.LogFile{
			Enabled: true,
			Path:    dir,
			Error:   logger.Rotation{Name: "error.log", MaxSize: 1},
			Info:    logger.Rotation{Name: "info.log", MaxSize: 1},
			Trace:   logger.Rotation{Name: "trace.log", MaxSize: 1},
			Warn:    logger.Rotation{Name: "warn.log", MaxSize: 1},
		},
	}))

	log.Info().Str("tenant", "BR").Msg("sync started")
	log.Error().Err(errors.New("bind failed")).Msg("sync failed")

	info, err := os.ReadFile(filepath.Join(dir, "info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "sync started")
	assert.NotContains(t, string(info), "sync failed")

	errLog, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errLog), "bind failed")
}

func captureOutput(t *testing.T, cfg logger.Log) string {
	t.Helper()

	stdout, stderr := os.Stdout, os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	os.Stderr = w

	outC := make(chan string)

	go func() {
		var buf bytes.Buffer

		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	require.NoError(t, logger.Init(cfg))

	log.Info().Msg("this info message should be seen")
	log.Error().Err(errors.New("a test error")).Msg("this error message should be seen")

	_ = w.Close()
	os.Stdout, os.Stderr = stdout, stderr

	return <-outC
}
