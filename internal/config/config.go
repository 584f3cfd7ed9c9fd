// Package config handles the wasmos.toml file, which sets defaults for the wasmos command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/r00ster91/wasmos/sys"
)

// FileName is the name FindAndLoad looks for.
const FileName = "wasmos.toml"

// TUI modes.
const (
	TUIAuto   = "auto"
	TUIAlways = "always"
	TUINever  = "never"
)

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ErrInvalid is returned by Load and Validate when a value is out of range or a key is unknown.
var ErrInvalid = errors.New("invalid config")

// Config represents a wasmos.toml file.
type Config struct {
	Runtime Runtime `toml:"runtime"`
	Log     Log     `toml:"log"`
	Console Console `toml:"console"`

	// Path is the file the config was loaded from, or empty for Default.
	Path string `toml:"-"`
}

// Runtime configures each run of a guest.
type Runtime struct {
	// Descriptors is the count of file descriptors a guest can write to.
	Descriptors int `toml:"descriptors"`
	// MaxOutput is the limit in bytes of each descriptor, or zero for no limit.
	MaxOutput          int  `toml:"max_output"`
	CloseOnContextDone bool `toml:"close_on_context_done"`
}

// Log configures the logger of decoding and execution.
type Log struct {
	// Level is a zapcore.Level name, such as "debug" to trace each instruction.
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Console configures the terminal UI.
type Console struct {
	// Refresh is how often output is redrawn while a guest runs.
	Refresh Duration `toml:"refresh"`
	// TUI is one of TUIAuto, TUIAlways or TUINever. TUIAuto uses the terminal UI only when stdout is a terminal.
	TUI string `toml:"tui"`
}

// Duration is a time.Duration written as a string, such as "50ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the config used when there is no wasmos.toml.
func Default() *Config {
	return &Config{
		Runtime: Runtime{Descriptors: sys.DefaultDescriptors},
		Log:     Log{Level: "warn", Format: FormatConsole},
		Console: Console{Refresh: Duration{50 * time.Millisecond}, TUI: TUIAuto},
	}
}

// Load parses the file at path. Keys absent from the file keep their Default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: %s: unknown keys: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}

	if c.Path, err = filepath.Abs(path); err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	if err = c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a wasmos.toml file, then loads it. Returns Default if none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return Default(), nil
		}
		dir = parent
	}
}

// Validate returns ErrInvalid wrapped with the first value out of range.
func (c *Config) Validate() error {
	if c.Runtime.Descriptors < 0 {
		return fmt.Errorf("%w: runtime.descriptors: %d < 0", ErrInvalid, c.Runtime.Descriptors)
	}
	if c.Runtime.MaxOutput < 0 {
		return fmt.Errorf("%w: runtime.max_output: %d < 0", ErrInvalid, c.Runtime.MaxOutput)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	switch c.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("%w: log.format: %q is not %s or %s", ErrInvalid, c.Log.Format, FormatConsole, FormatJSON)
	}
	if c.Console.Refresh.Duration <= 0 {
		return fmt.Errorf("%w: console.refresh: %s is not positive", ErrInvalid, c.Console.Refresh)
	}
	switch c.Console.TUI {
	case TUIAuto, TUIAlways, TUINever:
	default:
		return fmt.Errorf("%w: console.tui: %q is not %s, %s or %s", ErrInvalid, c.Console.TUI, TUIAuto, TUIAlways, TUINever)
	}
	return nil
}

// Build returns a logger writing to stderr at the configured level and format.
func (l Log) Build() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}

	var zc zap.Config
	switch l.Format {
	case FormatJSON:
		zc = zap.NewProductionConfig()
	case FormatConsole:
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("%w: log.format: %q", ErrInvalid, l.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
