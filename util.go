package dcmscan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

/*
===============================================================================
    Logging
===============================================================================
*/

func normaliseWriters(writers ...zapcore.WriteSyncer) zapcore.WriteSyncer {
	if len(writers) == 1 {
		return writers[0]
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

func encoderConfig(level zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		NameKey:        "logger",
		TimeKey:        "ts",
		EncodeLevel:    level,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// NewJSONLogger creates a `zap.SugaredLogger` configured for JSON output to `writers`
func NewJSONLogger(level zapcore.Level, writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	enc := zapcore.NewJSONEncoder(encoderConfig(zapcore.LowercaseLevelEncoder))
	return zap.New(zapcore.NewCore(enc, normaliseWriters(writers...), level)).Sugar()
}

// NewConsoleLogger creates a `zap.SugaredLogger` configured for human-readable output to `writers`
func NewConsoleLogger(level zapcore.Level, writers ...zapcore.WriteSyncer) *zap.SugaredLogger {
	enc := zapcore.NewConsoleEncoder(encoderConfig(zapcore.LowercaseColorLevelEncoder))
	return zap.New(zapcore.NewCore(enc, normaliseWriters(writers...), level)).Sugar()
}

// NewLogger creates the logger described by `cfg`. A log level of "none"
// yields a logger that discards everything.
func NewLogger(cfg Config, writers ...zapcore.WriteSyncer) (*zap.SugaredLogger, error) {
	level, enabled, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if !enabled || len(writers) == 0 {
		return zap.NewNop().Sugar(), nil
	}
	switch cfg.LogFormat {
	case "json":
		return NewJSONLogger(level, writers...), nil
	case "console", "":
		return NewConsoleLogger(level, writers...), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
}

// parseLogLevel maps a level string onto a zap level.
// Supported values:
// "debug" / "5": all logging enabled
// "info" / "4":  info and above enabled
// "warn" / "3":  warn and above enabled
// "error" / "2": error and above enabled
// "fatal" / "1": only fatal enabled
// "disabled" / "none" / "off" / "0": all logging disabled
func parseLogLevel(level string) (lvl zapcore.Level, enabled bool, err error) {
	switch strings.ToLower(level) {
	case "debug", "5":
		return zapcore.DebugLevel, true, nil
	case "info", "4":
		return zapcore.InfoLevel, true, nil
	case "warn", "3":
		return zapcore.WarnLevel, true, nil
	case "error", "2":
		return zapcore.ErrorLevel, true, nil
	case "fatal", "1":
		return zapcore.FatalLevel, true, nil
	case "disabled", "none", "off", "0":
		return zapcore.FatalLevel, false, nil
	}
	return zapcore.InfoLevel, false, fmt.Errorf(
		`invalid log level %q: choose from "debug", "info", "warn", "error", "fatal", or "none"`, level)
}

/*
===============================================================================
    Misc
===============================================================================
*/

// ExpandPaths resolves each of `patterns` into regular files. A directory is
// walked recursively; anything else is matched as a doublestar glob
// (e.g. "studies/**/*.dcm"). Results are sorted and de-duplicated.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			err := filepath.WalkDir(pattern, func(path string, entry fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !entry.IsDir() {
					seen[path] = struct{}{}
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %v", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && !info.IsDir() {
				seen[match] = struct{}{}
			}
		}
	}
	files := make([]string, 0, len(seen))
	for path := range seen {
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// ConcurrentlyWalkFiles calls `onFile` for each of `files` inside a goroutine,
// with at most `limit` running at once. The first error returned by `onFile`
// cancels `ctx` for the remaining calls and is returned.
func ConcurrentlyWalkFiles(ctx context.Context, files []string, limit int, onFile func(ctx context.Context, file string) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, file := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return onFile(ctx, file)
		})
	}
	return g.Wait()
}
