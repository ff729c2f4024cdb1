// Package config loads, validates, and reloads the daemon's TOML
// configuration file, and can generate a commented default file on first run.
package config

import (
	"fmt"
	"time"

	"sunsetrd/internal/geo"
	"sunsetrd/internal/sunsetrd"
)

// Backend selects which output backend the control loop should use.
type Backend string

const (
	BackendAuto   Backend = "auto"
	BackendSocket Backend = "socket"
	BackendGamma  Backend = "gamma"
)

// TransitionMode selects how transition windows are placed relative to the
// configured sunset/sunrise anchors.
type TransitionMode string

const (
	ModeFinishBy TransitionMode = "finish_by"
	ModeStartAt  TransitionMode = "start_at"
	ModeCenter   TransitionMode = "center"
	ModeGeo      TransitionMode = "geo"
)

// TimeOfDay is a wall-clock time of day with second resolution, independent
// of any particular calendar date.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// ParseTimeOfDay parses an "HH:MM:SS" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &t.Hour, &t.Minute, &t.Second); err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Duration returns t's offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute + time.Duration(t.Second)*time.Second
}

// OnDate returns the instant t represents on the calendar date of ref, in
// ref's location.
func (t TimeOfDay) OnDate(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, t.Second, 0, ref.Location())
}

// rawConfig mirrors the on-disk TOML shape; zero values distinguish
// "absent" from "explicitly zero" for the handful of optional keys.
type rawConfig struct {
	StartHelper               *bool    `toml:"start_helper"`
	Backend                   string   `toml:"backend"`
	Sunset                    string   `toml:"sunset"`
	Sunrise                   string   `toml:"sunrise"`
	Latitude                  *float64 `toml:"latitude"`
	Longitude                 *float64 `toml:"longitude"`
	City                      string   `toml:"city"`
	NightTemp                 uint32   `toml:"night_temp"`
	DayTemp                   uint32   `toml:"day_temp"`
	NightGamma                float64  `toml:"night_gamma"`
	DayGamma                  float64  `toml:"day_gamma"`
	TransitionDurationMinutes uint64   `toml:"transition_duration"`
	UpdateIntervalSeconds     uint64   `toml:"update_interval"`
	TransitionMode            string   `toml:"transition_mode"`
	StartupTransition         bool     `toml:"startup_transition"`
	StartupTransitionDuration uint64   `toml:"startup_transition_duration"`
	Debug                     bool     `toml:"debug"`
}

// Config is the process-wide, validated configuration. It is owned
// exclusively by the control loop and replaced wholesale on reload.
type Config struct {
	StartHelper bool
	Backend     Backend

	Sunset, Sunrise TimeOfDay

	Latitude, Longitude *float64
	City                *string

	NightTemp, DayTemp   uint32
	NightGamma, DayGamma float64

	TransitionDuration time.Duration
	UpdateInterval     time.Duration
	TransitionMode     TransitionMode

	StartupTransition         bool
	StartupTransitionDuration time.Duration

	Debug bool
}

// defaultsRaw returns a rawConfig pre-populated with every default value, so
// that decoding a partial TOML document only needs to overwrite present keys.
func defaultsRaw() rawConfig {
	startHelper := sunsetrd.DefaultStartHelper
	return rawConfig{
		StartHelper:               &startHelper,
		Backend:                   sunsetrd.DefaultBackendPref,
		Sunset:                    sunsetrd.DefaultSunset,
		Sunrise:                   sunsetrd.DefaultSunrise,
		NightTemp:                 sunsetrd.DefaultNightTemp,
		DayTemp:                   sunsetrd.DefaultDayTemp,
		NightGamma:                sunsetrd.DefaultNightGamma,
		DayGamma:                  sunsetrd.DefaultDayGamma,
		TransitionDurationMinutes: uint64(sunsetrd.DefaultTransitionDuration / time.Minute),
		UpdateIntervalSeconds:     uint64(sunsetrd.DefaultUpdateInterval / time.Second),
		TransitionMode:            sunsetrd.DefaultTransitionMode,
		StartupTransition:         sunsetrd.DefaultStartupTransition,
		StartupTransitionDuration: uint64(sunsetrd.DefaultStartupTransitionDuration / time.Second),
	}
}

// fromRaw converts a decoded rawConfig (already merged over defaults) into a
// validated Config.
func fromRaw(r rawConfig) (*Config, error) {
	sunset, err := ParseTimeOfDay(r.Sunset)
	if err != nil {
		return nil, fmt.Errorf("sunset: %w", err)
	}
	sunrise, err := ParseTimeOfDay(r.Sunrise)
	if err != nil {
		return nil, fmt.Errorf("sunrise: %w", err)
	}

	if r.City != "" && (r.Latitude == nil || r.Longitude == nil) {
		c, err := geo.CityForTimezone(r.City)
		if err != nil {
			return nil, fmt.Errorf("city: %w", err)
		}
		lat, lon := c.Latitude, c.Longitude
		r.Latitude, r.Longitude = &lat, &lon
	}

	mode := TransitionMode(r.TransitionMode)
	switch mode {
	case ModeFinishBy, ModeStartAt, ModeCenter, ModeGeo:
	default:
		return nil, fmt.Errorf("transition_mode: unknown value %q", r.TransitionMode)
	}
	if mode == ModeGeo && (r.Latitude == nil || r.Longitude == nil) {
		mode = TransitionMode(sunsetrd.FallbackTransitionMode)
	}

	backend := Backend(r.Backend)
	switch backend {
	case BackendAuto, BackendSocket, BackendGamma:
	default:
		return nil, fmt.Errorf("backend: unknown value %q", r.Backend)
	}

	startHelper := sunsetrd.DefaultStartHelper
	if r.StartHelper != nil {
		startHelper = *r.StartHelper
	}

	var city *string
	if r.City != "" {
		c := r.City
		city = &c
	}

	cfg := &Config{
		StartHelper:               startHelper,
		Backend:                   backend,
		Sunset:                    sunset,
		Sunrise:                   sunrise,
		Latitude:                  r.Latitude,
		Longitude:                 r.Longitude,
		City:                      city,
		NightTemp:                 r.NightTemp,
		DayTemp:                   r.DayTemp,
		NightGamma:                r.NightGamma,
		DayGamma:                  r.DayGamma,
		TransitionDuration:        time.Duration(r.TransitionDurationMinutes) * time.Minute,
		UpdateInterval:            time.Duration(r.UpdateIntervalSeconds) * time.Second,
		TransitionMode:            mode,
		StartupTransition:         r.StartupTransition,
		StartupTransitionDuration: time.Duration(r.StartupTransitionDuration) * time.Second,
		Debug:                     r.Debug,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the invariants every loaded or reloaded configuration
// must satisfy.
func (c *Config) Validate() error {
	if c.Sunset.Duration() == c.Sunrise.Duration() {
		return fmt.Errorf("invariant violation: sunset must not equal sunrise")
	}
	if c.NightTemp < sunsetrd.MinTemp || c.NightTemp > sunsetrd.MaxTemp {
		return fmt.Errorf("night_temp %d out of range [%d, %d]", c.NightTemp, sunsetrd.MinTemp, sunsetrd.MaxTemp)
	}
	if c.DayTemp < sunsetrd.MinTemp || c.DayTemp > sunsetrd.MaxTemp {
		return fmt.Errorf("day_temp %d out of range [%d, %d]", c.DayTemp, sunsetrd.MinTemp, sunsetrd.MaxTemp)
	}
	if c.NightGamma < sunsetrd.MinGamma || c.NightGamma > sunsetrd.MaxGamma {
		return fmt.Errorf("night_gamma %.1f out of range [%.0f, %.0f]", c.NightGamma, sunsetrd.MinGamma, sunsetrd.MaxGamma)
	}
	if c.DayGamma < sunsetrd.MinGamma || c.DayGamma > sunsetrd.MaxGamma {
		return fmt.Errorf("day_gamma %.1f out of range [%.0f, %.0f]", c.DayGamma, sunsetrd.MinGamma, sunsetrd.MaxGamma)
	}
	if c.TransitionDuration < sunsetrd.MinTransitionDuration || c.TransitionDuration > sunsetrd.MaxTransitionDuration {
		return fmt.Errorf("transition_duration %s out of range [%s, %s]", c.TransitionDuration, sunsetrd.MinTransitionDuration, sunsetrd.MaxTransitionDuration)
	}
	if c.UpdateInterval < sunsetrd.MinUpdateInterval || c.UpdateInterval > sunsetrd.MaxUpdateInterval {
		return fmt.Errorf("update_interval %s out of range [%s, %s]", c.UpdateInterval, sunsetrd.MinUpdateInterval, sunsetrd.MaxUpdateInterval)
	}
	if c.UpdateInterval > c.TransitionDuration {
		return fmt.Errorf("invariant violation: update_interval (%s) must be <= transition_duration (%s)", c.UpdateInterval, c.TransitionDuration)
	}
	if c.StartupTransition {
		if c.StartupTransitionDuration < sunsetrd.MinStartupTransitionDuration || c.StartupTransitionDuration > sunsetrd.MaxStartupTransitionDuration {
			return fmt.Errorf("startup_transition_duration %s out of range [%s, %s]", c.StartupTransitionDuration, sunsetrd.MinStartupTransitionDuration, sunsetrd.MaxStartupTransitionDuration)
		}
	}
	if c.Latitude != nil && (*c.Latitude < -90 || *c.Latitude > 90) {
		return fmt.Errorf("latitude %.4f out of range [-90, 90]", *c.Latitude)
	}
	if c.Longitude != nil && (*c.Longitude < -180 || *c.Longitude > 180) {
		return fmt.Errorf("longitude %.4f out of range [-180, 180]", *c.Longitude)
	}

	if err := c.validateStablePeriodsAndOverlap(); err != nil {
		return err
	}
	return nil
}

// validateStablePeriodsAndOverlap checks that the two stable periods
// (day and night) are each >= MinStablePeriod, and that the two
// transition windows (placed using FinishBy semantics, the tightest of the
// four modes) do not overlap on the 24h cycle. Geo mode's actual window
// widths depend on solar data and are not checked; this catches only the
// configuration-only invariant at load time using transition_duration.
func (c *Config) validateStablePeriodsAndOverlap() error {
	day := 24 * time.Hour
	sunset := c.Sunset.Duration()
	sunrise := c.Sunrise.Duration()

	sunsetStart := mod(sunset-c.TransitionDuration, day)
	sunsetEnd := sunset
	sunriseStart := mod(sunrise-c.TransitionDuration, day)
	sunriseEnd := sunrise

	// Night runs from sunsetEnd to sunriseStart (mod 24h); day runs from
	// sunriseEnd to sunsetStart (mod 24h).
	nightSpan := mod(sunriseStart-sunsetEnd, day)
	daySpan := mod(sunsetStart-sunriseEnd, day)
	if nightSpan < sunsetrd.MinStablePeriod {
		return fmt.Errorf("invariant violation: night stable period (%s) shorter than %s", nightSpan, sunsetrd.MinStablePeriod)
	}
	if daySpan < sunsetrd.MinStablePeriod {
		return fmt.Errorf("invariant violation: day stable period (%s) shorter than %s", daySpan, sunsetrd.MinStablePeriod)
	}

	if intervalsOverlap(sunsetStart, sunsetEnd, sunriseStart, sunriseEnd, day) {
		return fmt.Errorf("invariant violation: sunset and sunrise transition windows overlap")
	}
	return nil
}

func mod(d, m time.Duration) time.Duration {
	d %= m
	if d < 0 {
		d += m
	}
	return d
}

// intervalsOverlap reports whether two possibly-wrapping [start,end)
// intervals on a cycle of length period intersect.
func intervalsOverlap(aStart, aEnd, bStart, bEnd, period time.Duration) bool {
	inA := func(t time.Duration) bool { return inWindow(t, aStart, aEnd, period) }
	return inA(bStart) || inA(mod(bEnd-1, period)) || inWindow(aStart, bStart, bEnd, period)
}

func inWindow(t, start, end time.Duration, period time.Duration) bool {
	t = mod(t, period)
	start = mod(start, period)
	end = mod(end, period)
	if start <= end {
		return t >= start && t < end
	}
	return t >= start || t < end
}
