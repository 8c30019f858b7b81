package dcmscan

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		input   string
		level   zapcore.Level
		enabled bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"5", zapcore.DebugLevel, true},
		{"INFO", zapcore.InfoLevel, true},
		{"warn", zapcore.WarnLevel, true},
		{"2", zapcore.ErrorLevel, true},
		{"fatal", zapcore.FatalLevel, true},
		{"none", zapcore.FatalLevel, false},
		{"off", zapcore.FatalLevel, false},
		{"0", zapcore.FatalLevel, false},
	}
	for _, tc := range testCases {
		level, enabled, err := parseLogLevel(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.level, level, tc.input)
		assert.Equal(t, tc.enabled, enabled, tc.input)
	}
	_, _, err := parseLogLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.LogFormat = "json"
	log, err := NewLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)
	log.Debugw("hidden")
	log.Infow("decoded", "name", "a.dcm", "elements", 3)
	require.NoError(t, log.Sync())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"decoded"`)
	assert.Contains(t, buf.String(), `"elements":3`)

	buf.Reset()
	cfg.LogLevel = "none"
	log, err = NewLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)
	log.Errorw("dropped")
	assert.Empty(t, buf.String())

	cfg.LogLevel = "shouting"
	_, err = NewLogger(cfg, zapcore.AddSync(&buf))
	assert.Error(t, err)
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte{}, 0o644))
	}
}

func TestExpandPaths(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFiles(t, dir, "a.dcm", "b.txt", "study/1.dcm", "study/series/2.dcm")

	t.Run("directory", func(t *testing.T) {
		files, err := ExpandPaths([]string{dir})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.dcm"),
			filepath.Join(dir, "b.txt"),
			filepath.Join(dir, "study", "1.dcm"),
			filepath.Join(dir, "study", "series", "2.dcm"),
		}, files)
	})
	t.Run("doublestar glob", func(t *testing.T) {
		files, err := ExpandPaths([]string{filepath.Join(dir, "**", "*.dcm")})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.dcm"),
			filepath.Join(dir, "study", "1.dcm"),
			filepath.Join(dir, "study", "series", "2.dcm"),
		}, files)
	})
	t.Run("duplicates removed", func(t *testing.T) {
		files, err := ExpandPaths([]string{
			filepath.Join(dir, "a.dcm"),
			filepath.Join(dir, "*.dcm"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a.dcm")}, files)
	})
	t.Run("directories skipped by glob", func(t *testing.T) {
		files, err := ExpandPaths([]string{filepath.Join(dir, "stud*")})
		require.NoError(t, err)
		assert.Empty(t, files)
	})
	t.Run("no match", func(t *testing.T) {
		_, err := ExpandPaths([]string{filepath.Join(dir, "*.nii")})
		assert.Error(t, err)
	})
}

func TestConcurrentlyWalkFiles(t *testing.T) {
	t.Parallel()
	files := []string{"a", "b", "c", "d", "e", "f"}

	var (
		mu      sync.Mutex
		visited []string
		running int32
		peak    int32
	)
	err := ConcurrentlyWalkFiles(context.Background(), files, 2, func(ctx context.Context, file string) error {
		n := atomic.AddInt32(&running, 1)
		defer atomic.AddInt32(&running, -1)
		mu.Lock()
		defer mu.Unlock()
		if n > peak {
			peak = n
		}
		visited = append(visited, file)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, files, visited)
	assert.LessOrEqual(t, peak, int32(2))
}

func TestConcurrentlyWalkFilesError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	err := ConcurrentlyWalkFiles(context.Background(), []string{"a", "b", "c"}, 1, func(ctx context.Context, file string) error {
		if file == "b" {
			return boom
		}
		return nil
	})
	assert.Equal(t, boom, err)
}
