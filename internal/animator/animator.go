// Package animator runs the startup animation: a brief eased ramp from the
// configured day values to whatever value the control loop would otherwise
// jump straight to, so a manual launch doesn't slam color temperature and
// gamma in one step.
package animator

import (
	"fmt"

	"go.uber.org/zap"

	"sunsetrd/internal/backend"
	"sunsetrd/internal/clock"
	"sunsetrd/internal/config"
	"sunsetrd/internal/interp"
	"sunsetrd/internal/sunsetrd"
	"sunsetrd/internal/timestate"
)

// Run eases from the day baseline (cfg.DayTemp, cfg.DayGamma) to captured's
// interpolated values over cfg.StartupTransitionDuration, applying
// intermediate values to b at sunsetrd.DefaultStartupFrameInterval cadence and
// redrawing a progress bar on the controlling terminal via progress (may be
// nil to suppress output, e.g. in service mode). Logging from the backend
// is expected to be quiesced by the caller for the animation's duration.
//
// captured is the TransitionState computed once at process start; the value
// it interpolates to is applied unconditionally at the end, regardless of
// wall-clock drift during the animation, so a start near a window edge
// can't flip the final steady state out from under the animation. If
// captured is already mid-transition, each frame instead chases the live
// value the control loop would be applying right now (recomputed from
// windows against the real clock), so the ramp lands on a moving target
// smoothly; a stable captured state ramps to a fixed target throughout.
func Run(clk clock.Clock, b backend.Backend, windows timestate.Windows, captured timestate.TransitionState, cfg *config.Config, logger *zap.Logger, progress func(pct float64)) error {
	target := interp.Compute(captured, cfg)
	baseline := interp.Values{Temperature: cfg.DayTemp, Gamma: cfg.DayGamma}

	if !cfg.StartupTransition {
		return b.Apply(target)
	}

	total := cfg.StartupTransitionDuration
	if total <= 0 {
		return b.Apply(target)
	}

	if captured.Stable && baseline == target {
		return b.Apply(target)
	}

	frameInterval := sunsetrd.DefaultStartupFrameInterval
	steps := int(total / frameInterval)
	if steps < 1 {
		steps = 1
	}

	start := clk.Now()
	for i := 1; i <= steps; i++ {
		frac := clock.Fraction(clk, start, total)
		eased := timestate.EaseFraction(frac)

		frameTarget := target
		if !captured.Stable {
			frameTarget = interp.Compute(timestate.Compute(windows, clk.Now()), cfg)
		}

		values := interp.Values{
			Temperature: lerpU32(baseline.Temperature, frameTarget.Temperature, eased),
			Gamma:       lerpF64(baseline.Gamma, frameTarget.Gamma, eased),
		}
		if err := b.Apply(values); err != nil {
			return fmt.Errorf("animator: apply step %d/%d: %w", i, steps, err)
		}
		if progress != nil {
			progress(eased)
		}
		if frac >= 1 {
			break
		}
		clk.Sleep(frameInterval)
	}

	if err := b.Apply(target); err != nil {
		return fmt.Errorf("animator: apply final target: %w", err)
	}
	if progress != nil {
		progress(1)
	}
	logger.Debug("startup animation complete",
		zap.Uint32("temperature", target.Temperature),
		zap.Float64("gamma", target.Gamma),
	)
	return nil
}

func lerpU32(a, b uint32, p float64) uint32 {
	return uint32(float64(a) + (float64(b)-float64(a))*p + 0.5)
}

func lerpF64(a, b, p float64) float64 {
	return a + (b-a)*p
}

// ProgressBar renders a fixed-width textual progress bar for pct in [0, 1].
func ProgressBar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct*float64(sunsetrd.ProgressBarWidth) + 0.5)
	bar := make([]byte, sunsetrd.ProgressBarWidth)
	for i := range bar {
		if i < filled {
			bar[i] = '='
		} else {
			bar[i] = ' '
		}
	}
	return fmt.Sprintf("[%s] %3.0f%%", bar, pct*100)
}
