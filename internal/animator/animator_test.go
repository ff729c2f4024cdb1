package animator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sunsetrd/internal/clock"
	"sunsetrd/internal/config"
	"sunsetrd/internal/interp"
	"sunsetrd/internal/timestate"
)

type recordingBackend struct {
	applied []interp.Values
}

func (r *recordingBackend) Name() string          { return "recording" }
func (r *recordingBackend) TestConnection() error { return nil }
func (r *recordingBackend) Cleanup() error        { return nil }
func (r *recordingBackend) Apply(v interp.Values) error {
	r.applied = append(r.applied, v)
	return nil
}

func stableNightConfig() *config.Config {
	return &config.Config{
		DayTemp: 6500, DayGamma: 100,
		NightTemp: 3300, NightGamma: 90,
	}
}

func TestRun_Disabled_AppliesTargetOnce(t *testing.T) {
	cfg := stableNightConfig()
	cfg.StartupTransition = false
	b := &recordingBackend{}
	clk := clock.NewMockClock(time.Now())

	captured := timestate.StableState(timestate.Night)
	err := Run(clk, b, timestate.Windows{}, captured, cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	require.Len(t, b.applied, 1)
	assert.Equal(t, uint32(3300), b.applied[0].Temperature)
}

func TestRun_StableTargetEqualsBaseline_SkipsAnimation(t *testing.T) {
	cfg := stableNightConfig()
	cfg.NightTemp, cfg.NightGamma = cfg.DayTemp, cfg.DayGamma
	cfg.StartupTransition = true
	cfg.StartupTransitionDuration = 1 * time.Second
	b := &recordingBackend{}
	clk := clock.NewMockClock(time.Now())

	captured := timestate.StableState(timestate.Night)
	err := Run(clk, b, timestate.Windows{}, captured, cfg, zap.NewNop(), func(float64) {
		t.Fatal("progress should not be reported when baseline already equals a static target")
	})
	require.NoError(t, err)
	require.Len(t, b.applied, 1, "baseline == static target should apply once and skip the ramp")
}

func TestRun_StaticTarget_RampsFromDayBaselineAndEndsAtTarget(t *testing.T) {
	cfg := stableNightConfig()
	cfg.StartupTransition = true
	cfg.StartupTransitionDuration = 1 * time.Second
	b := &recordingBackend{}
	// MockClock.Sleep is a no-op, so the animator's step loop runs to
	// completion without needing the clock driven forward concurrently.
	clk := clock.NewMockClock(time.Now())

	captured := timestate.StableState(timestate.Night)

	var progressValues []float64
	err := Run(clk, b, timestate.Windows{}, captured, cfg, zap.NewNop(), func(p float64) {
		progressValues = append(progressValues, p)
	})
	require.NoError(t, err)
	require.NotEmpty(t, b.applied)

	first := b.applied[0]
	assert.Equal(t, uint32(6500), first.Temperature, "first frame should start from the day baseline per spec scenario 3")

	last := b.applied[len(b.applied)-1]
	assert.Equal(t, uint32(3300), last.Temperature)
	assert.InDelta(t, 90.0, last.Gamma, 0.01)
	require.NotEmpty(t, progressValues)
	assert.InDelta(t, 1.0, progressValues[len(progressValues)-1], 0.001)
}

// When the captured state is mid-transition, each frame should chase the
// live value the control loop would be applying right now (recomputed from
// windows against the advancing clock), not the value frozen at capture
// time.
func TestRun_DynamicTarget_ChasesLiveScheduleEachFrame(t *testing.T) {
	sunset, err := config.ParseTimeOfDay("19:00:00")
	require.NoError(t, err)
	sunrise, err := config.ParseTimeOfDay("06:00:00")
	require.NoError(t, err)
	cfg := &config.Config{
		Sunset: sunset, Sunrise: sunrise,
		DayTemp: 6500, DayGamma: 100,
		NightTemp: 3300, NightGamma: 90,
		TransitionDuration:        30 * time.Minute,
		TransitionMode:            config.ModeFinishBy,
		StartupTransition:         true,
		StartupTransitionDuration: 300 * time.Millisecond,
	}
	windows := timestate.ComputeWindows(cfg, nil)

	// 18:45 is 15 minutes into the 30-minute [18:30,19:00) sunset window:
	// roughly the midpoint, definitely mid-transition.
	start := time.Date(2026, 6, 1, 18, 45, 0, 0, time.UTC)
	clk := clock.NewMockClock(start)
	b := &recordingBackend{}
	chasing := &chasingBackend{inner: b, clk: clk, step: 10 * time.Minute}

	captured := timestate.Compute(windows, start)
	require.False(t, captured.Stable)

	// chasingBackend advances the clock by 10 minutes on every Apply,
	// simulating wall-clock progress during the animation. With
	// StartupTransitionDuration=300ms and a 150ms frame interval there are
	// exactly 2 loop frames; advancing the clock this far past the first
	// frame pushes elapsed/total past 1 for the second, so it runs at
	// eased=1 and applies its frameTarget exactly unlerped.
	err = Run(clk, chasing, windows, captured, cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	require.Len(t, b.applied, 3, "expected 2 loop frames plus the final unconditional apply")

	capturedTarget := interp.Compute(captured, cfg)
	lastLoopFrame := b.applied[len(b.applied)-2]
	assert.NotEqual(t, capturedTarget.Temperature, lastLoopFrame.Temperature,
		"a dynamic target should chase the live schedule (computed at the advanced clock time), not stay pinned to the value captured at animation start")

	final := b.applied[len(b.applied)-1]
	assert.Equal(t, capturedTarget.Temperature, final.Temperature,
		"the final apply must land on the originally captured target, not the moving one")
}

// chasingBackend advances the driving clock by a fixed step on every Apply,
// so the animator's per-frame recompute of the live target actually sees a
// different wall-clock time from one frame to the next.
type chasingBackend struct {
	inner *recordingBackend
	clk   *clock.MockClock
	step  time.Duration
}

func (c *chasingBackend) Name() string          { return c.inner.Name() }
func (c *chasingBackend) TestConnection() error { return c.inner.TestConnection() }
func (c *chasingBackend) Cleanup() error        { return c.inner.Cleanup() }
func (c *chasingBackend) Apply(v interp.Values) error {
	if err := c.inner.Apply(v); err != nil {
		return err
	}
	c.clk.Advance(c.step)
	return nil
}
