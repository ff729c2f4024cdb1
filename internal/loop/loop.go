// Package loop runs the daemon's steady-state control loop: wake on a
// timer or an IPC message, recompute the current TransitionState, decide
// whether it's worth pushing new values to the backend, and apply them.
package loop

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"sunsetrd/internal/backend"
	"sunsetrd/internal/clock"
	"sunsetrd/internal/config"
	"sunsetrd/internal/geo"
	"sunsetrd/internal/interp"
	"sunsetrd/internal/ipc"
	"sunsetrd/internal/solar"
	"sunsetrd/internal/sunsetrd"
	"sunsetrd/internal/timestate"
)

// Loop owns the live configuration, the active backend, and the per-day
// solar cache, and drives should_update/apply on every wake.
type Loop struct {
	Clock    clock.Clock
	Backend  backend.Backend
	Logger   *zap.Logger
	Listener *ipc.Listener

	cfg *config.Config

	resolver *geo.TimezoneResolver

	solarDate   time.Time
	solarResult *solar.Result
	windows     timestate.Windows

	prevState   timestate.TransitionState
	prevApply   time.Time
	haveApplied bool

	testMode   bool
	testValues interp.Values
}

// New builds a Loop ready to Run. cfg must already be validated.
func New(clk clock.Clock, be backend.Backend, logger *zap.Logger, listener *ipc.Listener, cfg *config.Config, resolver *geo.TimezoneResolver) *Loop {
	l := &Loop{
		Clock:    clk,
		Backend:  be,
		Logger:   logger,
		Listener: listener,
		cfg:      cfg,
		resolver: resolver,
	}
	l.refreshSolar(clk.Now())
	l.windows = timestate.ComputeWindows(cfg, l.solarResult)
	return l
}

// refreshSolar recomputes the day's solar geometry when cfg is in geo mode
// and the cached result is for a different calendar date, or there is none.
func (l *Loop) refreshSolar(now time.Time) {
	if l.cfg.TransitionMode != config.ModeGeo || l.cfg.Latitude == nil || l.cfg.Longitude == nil {
		return
	}
	if l.solarResult != nil && sameDate(l.solarDate, now) {
		return
	}

	lookup := func(float64, float64) *time.Location { return nil }
	if l.resolver != nil {
		lookup = l.resolver.Lookup
	}
	result, err := solar.Calculate(*l.cfg.Latitude, *l.cfg.Longitude, now, lookup)
	if err != nil {
		l.Logger.Warn("solar recompute failed, keeping previous windows", zap.Error(err))
		return
	}
	l.solarDate = now
	l.solarResult = &result
	l.windows = timestate.ComputeWindows(l.cfg, l.solarResult)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Reload swaps in a freshly loaded, validated configuration and forces a
// solar/window recompute and an immediate re-apply.
func (l *Loop) Reload(cfg *config.Config) {
	l.cfg = cfg
	l.solarResult = nil
	l.refreshSolar(l.Clock.Now())
	l.windows = timestate.ComputeWindows(cfg, l.solarResult)
	l.haveApplied = false
}

// Run blocks until the listener delivers a Shutdown message (returning nil)
// or a Reload message (returning the reload sentinel, see IsReloadRequest),
// servicing timer wakeups and TestMode messages in between.
func (l *Loop) Run() error {
	if err := l.tick(); err != nil {
		return err
	}

	for {
		wait := l.nextWait()
		select {
		case <-l.Clock.After(wait):
			if l.testMode {
				continue
			}
			if err := l.tick(); err != nil {
				l.Logger.Error("control loop tick failed", zap.Error(err))
			}
		case msg, ok := <-l.Listener.C:
			if !ok {
				return nil
			}
			switch msg.Kind {
			case ipc.Shutdown:
				return nil
			case ipc.Reload:
				l.Logger.Info("reload requested")
				return errReload
			case ipc.TestMode:
				if msg.ExitTestMode() {
					l.testMode = false
					l.haveApplied = false
					l.Logger.Info("exiting test mode")
					continue
				}
				l.testMode = true
				l.testValues = interp.Values{Temperature: msg.Temperature, Gamma: msg.Gamma}
				l.Logger.Info("entering test mode", zap.Uint32("temperature", msg.Temperature), zap.Float64("gamma", msg.Gamma))
				if err := l.Backend.Apply(l.testValues); err != nil {
					l.Logger.Error("test-mode apply failed", zap.Error(err))
				}
			}
		}
	}
}

// errReload is a sentinel Run returns so main can reload the config and
// call Reload before running the loop again.
var errReload = fmt.Errorf("reload requested")

// IsReloadRequest reports whether err is the reload sentinel.
func IsReloadRequest(err error) bool { return err == errReload }

func (l *Loop) nextWait() time.Duration {
	if l.testMode {
		return sunsetrd.MaxUpdateInterval
	}
	return timestate.TimeUntilNextEvent(l.windows, l.cfg, l.Clock.Now())
}

func (l *Loop) tick() error {
	if l.testMode {
		return nil
	}

	now := l.Clock.Now()
	l.refreshSolar(now)
	state := timestate.Compute(l.windows, now)

	if !l.shouldUpdate(state, now) {
		l.prevState = state
		return nil
	}

	values := interp.Compute(state, l.cfg)
	if err := l.Backend.Apply(values); err != nil {
		return fmt.Errorf("apply values: %w", err)
	}

	l.Logger.Debug("applied values",
		zap.Uint32("temperature", values.Temperature),
		zap.Float64("gamma", values.Gamma),
		zap.Bool("stable", state.Stable),
	)

	l.prevState = state
	l.prevApply = now
	l.haveApplied = true
	return nil
}

// shouldUpdate decides whether curr's values are worth pushing to the
// backend given prev, checked in order:
//  1. not yet applied anything this run: always update.
//  2. transitioning into stable: update, unless the previous tick's
//     progress was already >= 0.999, in which case the near-final value is
//     already applied and a reapply would risk a last-frame overshoot.
//  3. stable into transitioning, or vice versa otherwise: always update.
//  4. both ticks mid-transition: update (progress is advancing).
//  5. both ticks stable in different states: update.
//  6. both ticks stable in the same state: update only if enough time has
//     passed to suspect the process was asleep (sleep/suspend resumed with
//     a stale value still applied); otherwise skip.
func (l *Loop) shouldUpdate(curr timestate.TransitionState, now time.Time) bool {
	if !l.haveApplied {
		return true
	}
	prev := l.prevState

	if !prev.Stable && curr.Stable {
		// A transition that was already essentially complete settled into
		// its stable endpoint: the near-final value is already applied, so
		// skip the redundant push rather than risk a last-frame overshoot.
		return prev.Progress < 0.999
	}
	if prev.Stable != curr.Stable {
		return true
	}
	if !curr.Stable {
		// Both ticks mid-transition, including the >=0.999 near-complete
		// case: progress is advancing either way, so always push.
		return true
	}
	if prev.State != curr.State {
		return true
	}

	return clock.HasElapsed(l.Clock, l.prevApply, sunsetrd.SleepDetectionThreshold)
}
