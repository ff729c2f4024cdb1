// Package sunsetrd holds process-wide defaults, validation limits, and
// operational timing constants shared across the daemon's packages.
package sunsetrd

import "time"

// Configuration defaults, used when a TOML key is absent.
const (
	DefaultStartHelper                = true
	DefaultBackendPref                = "auto"
	DefaultStartupTransition          = false
	DefaultStartupTransitionDuration  = 10 * time.Second
	DefaultStartupFrameInterval       = 150 * time.Millisecond
	DefaultSunset                     = "19:00:00"
	DefaultSunrise                    = "06:00:00"
	DefaultNightTemp           uint32 = 3300
	DefaultDayTemp             uint32 = 6500
	DefaultNightGamma          float64 = 90.0
	DefaultDayGamma            float64 = 100.0
	DefaultTransitionDuration         = 45 * time.Minute
	DefaultUpdateInterval             = 60 * time.Second
	DefaultTransitionMode             = "geo"
	FallbackTransitionMode            = "finish_by"
)

// Validation limits.
const (
	MinStartupTransitionDuration = 10 * time.Second
	MaxStartupTransitionDuration = 60 * time.Second

	MinTemp uint32 = 1000
	MaxTemp uint32 = 20000

	MinGamma float64 = 0.0
	MaxGamma float64 = 100.0

	MinTransitionDuration = 5 * time.Minute
	MaxTransitionDuration = 120 * time.Minute

	MinUpdateInterval = 10 * time.Second
	MaxUpdateInterval = 300 * time.Second

	MinStablePeriod = 60 * time.Minute
)

// Operational timing.
const (
	SleepDetectionThreshold = 300 * time.Second
	CommandDelay            = 100 * time.Millisecond
	SocketTimeout           = 1000 * time.Millisecond
	SocketBufferSize        = 1024
	HelperSpawnWait         = 500 * time.Millisecond
	ProgressBarWidth        = 30

	MaxRetries          = 3
	RetryDelay          = 1 * time.Second
	SocketRecoveryDelay = 5 * time.Second
	ReconnectProbes     = 3

	HelperShutdownGrace = 2 * time.Second
)

// Bezier control points for the transition ease curve.
const (
	BezierP1X = 0.25
	BezierP1Y = 0.0
	BezierP2X = 0.75
	BezierP2Y = 1.0
)

// ExitFailure is the process exit code used for fatal startup/runtime errors.
const ExitFailure = 1
