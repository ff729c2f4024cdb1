// Package timestate maps the current wall-clock time, together with the
// loaded configuration (and, in geo mode, the day's solar geometry) onto a
// TransitionState describing either a stable day/night period or an
// in-flight sunset/sunrise transition.
package timestate

import (
	"time"

	"sunsetrd/internal/config"
	"sunsetrd/internal/solar"
)

// TimeState is one of the two steady-state endpoints.
type TimeState int

const (
	Day TimeState = iota
	Night
)

func (s TimeState) String() string {
	if s == Day {
		return "day"
	}
	return "night"
}

// TransitionState is either a stable endpoint or a transition in progress.
// Exactly one of the two shapes is meaningful at a time, selected by Stable.
type TransitionState struct {
	// Stable is true when the process is not inside either transition window.
	Stable bool

	// State is the current stable TimeState; only meaningful when Stable.
	State TimeState

	// From, To, Progress describe an in-flight transition; only meaningful
	// when !Stable. Progress is the Bezier-eased fraction through the window,
	// in [0, 1].
	From, To TimeState
	Progress float64
}

func StableState(s TimeState) TransitionState {
	return TransitionState{Stable: true, State: s}
}

func TransitioningState(from, to TimeState, progress float64) TransitionState {
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return TransitionState{Stable: false, From: from, To: to, Progress: progress}
}

// Windows holds the four time-of-day offsets (duration since local
// midnight) bounding the sunset and sunrise transitions. Each may exceed 24h
// or be negative before normalization; membership tests are always modular.
type Windows struct {
	SunsetStart, SunsetEnd   time.Duration
	SunriseStart, SunriseEnd time.Duration
}

const day = 24 * time.Hour

func modDay(d time.Duration) time.Duration {
	d %= day
	if d < 0 {
		d += day
	}
	return d
}

// ComputeWindows derives Windows from the configuration's transition mode.
// solarResult is required (and consulted) only for ModeGeo; callers should
// compute it once per day and pass it in.
func ComputeWindows(cfg *config.Config, solarResult *solar.Result) Windows {
	sunset := cfg.Sunset.Duration()
	sunrise := cfg.Sunrise.Duration()
	d := cfg.TransitionDuration

	switch cfg.TransitionMode {
	case config.ModeStartAt:
		return Windows{
			SunsetStart:  sunset,
			SunsetEnd:    sunset + d,
			SunriseStart: sunrise,
			SunriseEnd:   sunrise + d,
		}
	case config.ModeCenter:
		half := d / 2
		return Windows{
			SunsetStart:  sunset - half,
			SunsetEnd:    sunset + half,
			SunriseStart: sunrise - half,
			SunriseEnd:   sunrise + half,
		}
	case config.ModeGeo:
		if solarResult != nil {
			loc := solarResult.Location
			midnight := time.Date(solarResult.Sunset.Year(), solarResult.Sunset.Month(), solarResult.Sunset.Day(), 0, 0, 0, 0, loc)
			sunsetDur := solarResult.Sunset.Sub(midnight)
			sunriseDur := solarResult.Sunrise.Sub(midnight)
			sunsetHalf := solarResult.CivilDusk.Sub(solarResult.Sunset)
			sunriseHalf := solarResult.Sunrise.Sub(solarResult.CivilDawn)
			return Windows{
				SunsetStart:  sunsetDur - sunsetHalf,
				SunsetEnd:    sunsetDur + sunsetHalf,
				SunriseStart: sunriseDur - sunriseHalf,
				SunriseEnd:   sunriseDur + sunriseHalf,
			}
		}
		fallthrough
	default: // ModeFinishBy, and ModeGeo's fallback when solarResult is unavailable
		return Windows{
			SunsetStart:  sunset - d,
			SunsetEnd:    sunset,
			SunriseStart: sunrise - d,
			SunriseEnd:   sunrise,
		}
	}
}

// inWindow reports whether time-of-day t (mod 24h) lies in [start, end),
// where the interval may wrap past midnight.
func inWindow(t, start, end time.Duration) bool {
	t = modDay(t)
	start = modDay(start)
	end = modDay(end)
	if start <= end {
		return t >= start && t < end
	}
	return t >= start || t < end
}

func timeOfDay(t time.Time) time.Duration {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return t.Sub(midnight)
}

// Compute returns the TransitionState for wall-clock instant now.
func Compute(windows Windows, now time.Time) TransitionState {
	tod := timeOfDay(now)

	if inWindow(tod, windows.SunsetStart, windows.SunsetEnd) {
		frac := windowFraction(tod, windows.SunsetStart, windows.SunsetEnd)
		return TransitioningState(Day, Night, bezierEase(frac))
	}
	if inWindow(tod, windows.SunriseStart, windows.SunriseEnd) {
		frac := windowFraction(tod, windows.SunriseStart, windows.SunriseEnd)
		return TransitioningState(Night, Day, bezierEase(frac))
	}

	if modDay(windows.SunsetEnd) <= modDay(windows.SunriseStart) {
		if tod >= modDay(windows.SunsetEnd) && tod < modDay(windows.SunriseStart) {
			return StableState(Night)
		}
		return StableState(Day)
	}
	if tod >= modDay(windows.SunsetEnd) || tod < modDay(windows.SunriseStart) {
		return StableState(Night)
	}
	return StableState(Day)
}

func windowFraction(t, start, end time.Duration) float64 {
	span := modDay(end - start)
	if span == 0 {
		return 1
	}
	elapsed := modDay(t - start)
	return float64(elapsed) / float64(span)
}

// TimeUntilNextEvent returns update_interval while inside a transition, or
// the duration until the earlier of the next sunset/sunrise window start
// while stable.
func TimeUntilNextEvent(windows Windows, cfg *config.Config, now time.Time) time.Duration {
	state := Compute(windows, now)
	if !state.Stable {
		return cfg.UpdateInterval
	}

	tod := timeOfDay(now)
	untilSunset := modDay(windows.SunsetStart - tod)
	untilSunrise := modDay(windows.SunriseStart - tod)
	if untilSunset == 0 {
		untilSunset = day
	}
	if untilSunrise == 0 {
		untilSunrise = day
	}
	if untilSunset < untilSunrise {
		return untilSunset
	}
	return untilSunrise
}
