package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// ErrConflictingFiles is returned when both the canonical and legacy
// config paths exist; the user must remove one before starting.
var ErrConflictingFiles = fmt.Errorf("configuration file present at both canonical and legacy paths")

// Loader resolves, loads, and reloads the daemon's TOML configuration file.
type Loader struct {
	path   string
	logger *zap.Logger
}

// canonicalPath returns $XDG_CONFIG_HOME/sunsetrd/sunsetrd.toml, falling
// back to $HOME/.config/sunsetrd/sunsetrd.toml.
func canonicalPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "sunsetrd", "sunsetrd.toml")
}

// legacyPath returns the pre-rename config location this project's original
// implementation used, kept so existing installs are detected (and flagged
// as a conflict) rather than silently ignored.
func legacyPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "hypr", "sunsetr.toml")
}

// NewLoader resolves the config path (honoring the explicit override when
// non-empty) and returns a Loader for it.
func NewLoader(explicitPath string, logger *zap.Logger) (*Loader, error) {
	if explicitPath != "" {
		return &Loader{path: explicitPath, logger: logger}, nil
	}

	canon := canonicalPath()
	legacy := legacyPath()

	_, canonErr := os.Stat(canon)
	_, legacyErr := os.Stat(legacy)
	if canonErr == nil && legacyErr == nil {
		return nil, fmt.Errorf("%w: %s and %s", ErrConflictingFiles, canon, legacy)
	}
	if canonErr != nil && legacyErr == nil {
		logger.Warn("using legacy configuration path; consider migrating", zap.String("path", legacy))
		return &Loader{path: legacy, logger: logger}, nil
	}
	return &Loader{path: canon, logger: logger}, nil
}

// Path returns the resolved configuration file path.
func (l *Loader) Path() string { return l.path }

// Load reads and validates the configuration file, writing a commented
// default file first if none exists.
func (l *Loader) Load() (*Config, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		l.logger.Info("no configuration file found, writing defaults", zap.String("path", l.path))
		if err := l.writeDefaults(); err != nil {
			return nil, fmt.Errorf("write default config %s: %w", l.path, err)
		}
	}

	raw := defaultsRaw()
	if _, err := toml.DecodeFile(l.path, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", l.path, err)
	}
	return cfg, nil
}

// Reload re-reads and re-validates the file. On failure the caller should
// keep running with its previous Config; Reload itself does not mutate any
// shared state.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.Load()
	if err != nil {
		l.logger.Error("reload failed, keeping previous configuration", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) writeDefaults() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(l.path, []byte(defaultConfigTOML), 0o644)
}

const defaultConfigTOML = `# sunsetrd configuration
#
# Times are local wall-clock, "HH:MM:SS".
# Temperatures are in Kelvin; gamma values are percentages (0-100).

start_helper = true            # manage the helper daemon for the socket backend
backend = "auto"                # "auto", "socket", or "gamma"

sunset  = "19:00:00"
sunrise = "06:00:00"

# latitude = 51.5074
# longitude = -0.1278
# city = "London"

night_temp  = 3300
day_temp    = 6500
night_gamma = 90.0
day_gamma   = 100.0

transition_duration = 45        # minutes
update_interval     = 60        # seconds
transition_mode     = "geo"     # "finish_by", "start_at", "center", or "geo"

startup_transition          = false
startup_transition_duration = 10 # seconds

debug = false
`
