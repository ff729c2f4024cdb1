package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sunsetrd/internal/config"
	"sunsetrd/internal/timestate"
)

func cfg() *config.Config {
	return &config.Config{DayTemp: 6500, NightTemp: 3300, DayGamma: 100, NightGamma: 90}
}

func TestCompute_StableEndpoints(t *testing.T) {
	c := cfg()
	assert.Equal(t, Values{Temperature: 6500, Gamma: 100}, Compute(timestate.StableState(timestate.Day), c))
	assert.Equal(t, Values{Temperature: 3300, Gamma: 90}, Compute(timestate.StableState(timestate.Night), c))
}

func TestCompute_TransitionMidpoint(t *testing.T) {
	c := cfg()
	v := Compute(timestate.TransitioningState(timestate.Day, timestate.Night, 0.5), c)
	assert.Equal(t, uint32(4900), v.Temperature)
	assert.InDelta(t, 95.0, v.Gamma, 0.01)
}

func TestCompute_BoundedForOutOfRangeProgress(t *testing.T) {
	c := cfg()
	over := Compute(timestate.TransitioningState(timestate.Day, timestate.Night, 5.0), c)
	under := Compute(timestate.TransitioningState(timestate.Day, timestate.Night, -5.0), c)

	assert.Equal(t, uint32(3300), over.Temperature)
	assert.Equal(t, uint32(6500), under.Temperature)
}
