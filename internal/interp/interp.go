// Package interp maps a TransitionState onto the (temperature, gamma) pair
// the active backend should apply.
package interp

import (
	"sunsetrd/internal/config"
	"sunsetrd/internal/timestate"
)

// Values is a concrete (temperature, gamma) output.
type Values struct {
	Temperature uint32
	Gamma       float64
}

// Compute interpolates state against cfg's endpoints.
func Compute(state timestate.TransitionState, cfg *config.Config) Values {
	if state.Stable {
		if state.State == timestate.Day {
			return Values{Temperature: cfg.DayTemp, Gamma: cfg.DayGamma}
		}
		return Values{Temperature: cfg.NightTemp, Gamma: cfg.NightGamma}
	}

	fromTemp, fromGamma := endpoints(state.From, cfg)
	toTemp, toGamma := endpoints(state.To, cfg)

	p := clamp(state.Progress)
	return Values{
		Temperature: uint32(lerp(float64(fromTemp), float64(toTemp), p) + 0.5),
		Gamma:       lerp(fromGamma, toGamma, p),
	}
}

func endpoints(s timestate.TimeState, cfg *config.Config) (uint32, float64) {
	if s == timestate.Day {
		return cfg.DayTemp, cfg.DayGamma
	}
	return cfg.NightTemp, cfg.NightGamma
}

func lerp(a, b, p float64) float64 {
	return a + (b-a)*p
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
