package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) *Config {
	t.Helper()
	sunset, err := ParseTimeOfDay("19:00:00")
	require.NoError(t, err)
	sunrise, err := ParseTimeOfDay("06:00:00")
	require.NoError(t, err)
	return &Config{
		Sunset: sunset, Sunrise: sunrise,
		NightTemp: 3300, DayTemp: 6500,
		NightGamma: 90, DayGamma: 100,
		TransitionDuration: 45 * time.Minute,
		UpdateInterval:     60 * time.Second,
		TransitionMode:     ModeFinishBy,
		Backend:            BackendAuto,
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	assert.NoError(t, baseConfig(t).Validate())
}

func TestValidate_RejectsSunsetEqualsSunrise(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Sunrise = cfg.Sunset
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sunset must not equal sunrise")
}

func TestValidate_RejectsTemperatureOutOfRange(t *testing.T) {
	cfg := baseConfig(t)
	cfg.NightTemp = 500
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "night_temp")
}

func TestValidate_RejectsUpdateIntervalExceedingTransitionDuration(t *testing.T) {
	cfg := baseConfig(t)
	cfg.UpdateInterval = 50 * time.Minute
	cfg.TransitionDuration = 45 * time.Minute
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update_interval")
}

func TestValidate_RejectsStablePeriodShorterThanMinimum(t *testing.T) {
	cfg := baseConfig(t)
	sunset, err := ParseTimeOfDay("19:00:00")
	require.NoError(t, err)
	sunrise, err := ParseTimeOfDay("19:30:00")
	require.NoError(t, err)
	cfg.Sunset = sunset
	cfg.Sunrise = sunrise
	cfg.TransitionDuration = 5 * time.Minute
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stable period")
}

func TestValidate_RejectsOverlappingTransitionWindows(t *testing.T) {
	cfg := baseConfig(t)
	// sunset 19:00 and sunrise 19:10, both with a 45-minute window: the
	// sunset window [18:15,19:00) and sunrise window [18:25,19:10) overlap.
	sunrise, err := ParseTimeOfDay("19:10:00")
	require.NoError(t, err)
	cfg.Sunrise = sunrise
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestValidate_RejectsLatitudeOutOfRange(t *testing.T) {
	cfg := baseConfig(t)
	lat := 91.0
	cfg.Latitude = &lat
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}

func TestFromRaw_GeoFallsBackToFinishByWithoutCoordinates(t *testing.T) {
	raw := defaultsRaw()
	raw.TransitionMode = string(ModeGeo)
	cfg, err := fromRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, ModeFinishBy, cfg.TransitionMode)
}

func TestFromRaw_GeoKeptWithCoordinates(t *testing.T) {
	raw := defaultsRaw()
	raw.TransitionMode = string(ModeGeo)
	lat, lon := 51.5074, -0.1278
	raw.Latitude = &lat
	raw.Longitude = &lon
	cfg, err := fromRaw(raw)
	require.NoError(t, err)
	assert.Equal(t, ModeGeo, cfg.TransitionMode)
}

func TestFromRaw_RejectsUnknownBackend(t *testing.T) {
	raw := defaultsRaw()
	raw.Backend = "carrier-pigeon"
	_, err := fromRaw(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend")
}

func TestTimeOfDay_ParseAndRoundTrip(t *testing.T) {
	tod, err := ParseTimeOfDay("06:30:15")
	require.NoError(t, err)
	assert.Equal(t, "06:30:15", tod.String())
	assert.Equal(t, 6*time.Hour+30*time.Minute+15*time.Second, tod.Duration())
}

func TestParseTimeOfDay_RejectsOutOfRange(t *testing.T) {
	_, err := ParseTimeOfDay("24:00:00")
	assert.Error(t, err)
}
