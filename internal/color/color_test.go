package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRamp_Monotonic(t *testing.T) {
	for _, k := range []float64{1000, 3300, 6500, 10000, 20000} {
		rgb := Blackbody(k)
		for _, factor := range []float64{rgb.R, rgb.G, rgb.B} {
			table := Ramp(256, factor, 100)
			assert.True(t, Monotonic(table), "kelvin=%v factor=%v", k, factor)
		}
	}
}

func TestBlackbody_HighTemperatureBranchAt6600(t *testing.T) {
	rgb := Blackbody(6600)
	assert.InDelta(t, 1.0, rgb.B, 0.01)
	assert.InDelta(t, 0.740, rgb.R, 0.01)
}

func TestRampsBytes_Length(t *testing.T) {
	buf := RampsBytes(256, 3300, 90)
	assert.Len(t, buf, 256*3*2)
}
