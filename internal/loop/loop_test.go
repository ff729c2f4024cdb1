package loop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sunsetrd/internal/clock"
	"sunsetrd/internal/config"
	"sunsetrd/internal/interp"
	"sunsetrd/internal/ipc"
)

type stubBackend struct {
	applied []interp.Values
}

func (s *stubBackend) Name() string          { return "stub" }
func (s *stubBackend) TestConnection() error { return nil }
func (s *stubBackend) Cleanup() error        { return nil }
func (s *stubBackend) Apply(v interp.Values) error {
	s.applied = append(s.applied, v)
	return nil
}

func mustConfig(t *testing.T) *config.Config {
	t.Helper()
	sunset, err := config.ParseTimeOfDay("19:00:00")
	require.NoError(t, err)
	sunrise, err := config.ParseTimeOfDay("06:00:00")
	require.NoError(t, err)
	return &config.Config{
		Sunset: sunset, Sunrise: sunrise,
		NightTemp: 3300, DayTemp: 6500,
		NightGamma: 90, DayGamma: 100,
		TransitionDuration: 30 * time.Minute,
		UpdateInterval:     60 * time.Second,
		TransitionMode:     config.ModeFinishBy,
	}
}

func newTestLoop(t *testing.T, now time.Time) (*Loop, *stubBackend, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(now)
	be := &stubBackend{}
	listener := &ipc.Listener{C: make(chan ipc.Message, 4)}
	l := New(clk, be, zap.NewNop(), listener, mustConfig(t), nil)
	return l, be, clk
}

func atTime(hh, mm int, ss ...int) time.Time {
	sec := 0
	if len(ss) > 0 {
		sec = ss[0]
	}
	return time.Date(2026, 6, 1, hh, mm, sec, 0, time.UTC)
}

func TestLoop_FirstTickAlwaysApplies(t *testing.T) {
	l, be, _ := newTestLoop(t, atTime(12, 0))
	require.NoError(t, l.tick())
	require.Len(t, be.applied, 1)
	assert.Equal(t, uint32(6500), be.applied[0].Temperature)
}

func TestLoop_StableToStable_SkipsWithoutSleepGap(t *testing.T) {
	l, be, clk := newTestLoop(t, atTime(12, 0))
	require.NoError(t, l.tick())
	clk.Advance(1 * time.Minute)
	require.NoError(t, l.tick())
	assert.Len(t, be.applied, 1, "second stable-to-stable tick with no sleep gap should not reapply")
}

func TestLoop_StableToStable_ReappliesAfterSleepGap(t *testing.T) {
	l, be, clk := newTestLoop(t, atTime(12, 0))
	require.NoError(t, l.tick())
	clk.Advance(10 * time.Minute)
	require.NoError(t, l.tick())
	assert.Len(t, be.applied, 2, "a gap past the sleep-detection threshold should force a reapply")
}

func TestLoop_EnteringTransition_Applies(t *testing.T) {
	l, be, clk := newTestLoop(t, atTime(18, 25))
	require.NoError(t, l.tick())
	clk.Set(atTime(18, 35))
	require.NoError(t, l.tick())
	require.Len(t, be.applied, 2)
	assert.True(t, be.applied[1].Temperature < be.applied[0].Temperature)
}

// Sunset window for mustConfig is [18:30, 19:00). Settling into stable right
// after a near-complete transition tick should not reapply: the previous
// tick's value is already effectively the target.
func TestLoop_SettlingFromNearCompleteTransition_SkipsReapply(t *testing.T) {
	l, be, clk := newTestLoop(t, atTime(18, 59, 59))
	require.NoError(t, l.tick())
	require.False(t, l.prevState.Stable)
	require.GreaterOrEqual(t, l.prevState.Progress, 0.999)

	clk.Set(atTime(19, 0, 0))
	require.NoError(t, l.tick())
	assert.Len(t, be.applied, 1, "settling from a near-complete transition should not reapply")
}

// A transition that is interrupted well before completion (e.g. the clock
// jumps, as after a sleep/suspend) and resumes already stable still needs
// its final value pushed, since the in-flight value never reached the
// endpoint.
func TestLoop_SettlingFromIncompleteTransition_Reapplies(t *testing.T) {
	l, be, clk := newTestLoop(t, atTime(18, 40, 0))
	require.NoError(t, l.tick())
	require.False(t, l.prevState.Stable)
	require.Less(t, l.prevState.Progress, 0.999)

	clk.Set(atTime(19, 5, 0))
	require.NoError(t, l.tick())
	assert.Len(t, be.applied, 2, "settling from an incomplete transition must still push the final value")
}
