package dcmscan

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

/*
===============================================================================
    Configuration
===============================================================================
*/

// Version equals the current (or aimed for) version of the software.
const Version = "0.2"

// Config represents the application configuration
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error", "fatal" or "none"
	LogLevel string
	// LogFormat is either "console" or "json"
	LogFormat string

	// OpenFileLimit restricts the number of files decoded concurrently
	OpenFileLimit int

	// MaxScanItems caps the item headers scanned for a single element
	MaxScanItems int
	// MaxNestingDepth caps how deeply undefined-length values may nest
	MaxNestingDepth int

	// ElideAbove is the largest value, in bytes, printed in full
	ElideAbove int
	// Color enables coloured printer output
	Color bool

	// do not access / write `_set`. It is used internally.
	_set bool
}

// DefaultConfig returns the configuration used when nothing is set in the environment
func DefaultConfig() Config {
	return Config{
		LogLevel:        "info",
		LogFormat:       "console",
		OpenFileLimit:   64,
		MaxScanItems:    1 << 20,
		MaxNestingDepth: 64,
		ElideAbove:      16,
		Color:           true,
	}
}

// Validate reports the first invalid setting in `cfg`
func (cfg Config) Validate() error {
	if _, _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf(`invalid log format %q: choose from "console" or "json"`, cfg.LogFormat)
	}
	if cfg.OpenFileLimit <= 0 {
		return fmt.Errorf("open file limit must be positive, got %d", cfg.OpenFileLimit)
	}
	if cfg.MaxScanItems <= 0 {
		return fmt.Errorf("max scan items must be positive, got %d", cfg.MaxScanItems)
	}
	if cfg.MaxNestingDepth <= 0 {
		return fmt.Errorf("max nesting depth must be positive, got %d", cfg.MaxNestingDepth)
	}
	if cfg.ElideAbove < 0 {
		return fmt.Errorf("elide threshold must not be negative, got %d", cfg.ElideAbove)
	}
	return nil
}

// intFromEnv retrieves `key` from the OS environment.
// if the key is not found, or cannot be expressed as an integer,
// `found` will be false.
func intFromEnv(key string) (val int, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		found = false
	}
	return
}

func intFromEnvDefault(key string, def int) (val int) {
	val, found := intFromEnv(key)
	if !found {
		val = def
	}
	return
}

func strFromEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

func strFromEnvDefault(key string, def string) (val string) {
	val, found := strFromEnv(key)
	if !found {
		val = def
	}
	return
}

func boolFromEnv(key string) (val bool, found bool) {
	valStr, found := os.LookupEnv(key)
	if !found {
		return
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		found = false
	}
	return
}

func boolFromEnvDefault(key string, def bool) (val bool) {
	val, found := boolFromEnv(key)
	if !found {
		val = def
	}
	return
}

var config Config

// configFromEnv builds a Config from DCMSCAN_* environment variables,
// falling back to DefaultConfig for anything unset or unparseable.
func configFromEnv() Config {
	def := DefaultConfig()
	return Config{
		LogLevel:        strings.ToLower(strFromEnvDefault("DCMSCAN_LOGLEVEL", def.LogLevel)),
		LogFormat:       strings.ToLower(strFromEnvDefault("DCMSCAN_LOGFORMAT", def.LogFormat)),
		OpenFileLimit:   intFromEnvDefault("DCMSCAN_OPENFILELIMIT", def.OpenFileLimit),
		MaxScanItems:    intFromEnvDefault("DCMSCAN_MAXSCANITEMS", def.MaxScanItems),
		MaxNestingDepth: intFromEnvDefault("DCMSCAN_MAXDEPTH", def.MaxNestingDepth),
		ElideAbove:      intFromEnvDefault("DCMSCAN_ELIDEABOVE", def.ElideAbove),
		Color:           boolFromEnvDefault("DCMSCAN_COLOR", def.Color),
	}
}

// GetConfig returns the application configuration.
// Will set from environment if not already set.
func GetConfig() (Config, error) {
	if !config._set {
		cfg := configFromEnv()
		if err := cfg.Validate(); err != nil {
			return cfg, fmt.Errorf("invalid environment configuration: %v", err)
		}
		cfg._set = true
		config = cfg
	}
	return config, nil
}

// OverrideConfig overrides the configuration parsed from environment with the one provided
func OverrideConfig(newconfig Config) error {
	if err := newconfig.Validate(); err != nil {
		return err
	}
	// prevents being reverted by subsequent calls to `GetConfig`
	newconfig._set = true
	config = newconfig
	return nil
}
