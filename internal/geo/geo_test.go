package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCityForTimezone(t *testing.T) {
	c, err := CityForTimezone("London")
	require.NoError(t, err)
	assert.InDelta(t, 51.5074, c.Latitude, 0.001)

	_, err = CityForTimezone("Nowhere")
	assert.Error(t, err)
}

func TestNearestCities_OrderedByDistance(t *testing.T) {
	nearest := NearestCities(51.0, 0.0, 3)
	require.Len(t, nearest, 3)
	assert.Equal(t, "London", nearest[0].Name)
}

func TestNearestCities_ClampsK(t *testing.T) {
	nearest := NearestCities(0, 0, 1000)
	assert.Len(t, nearest, len(Cities))
}
