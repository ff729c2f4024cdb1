// Package geo provides a small embedded reference-city table, haversine
// nearest-city search, and IANA timezone resolution for the solar engine's
// city_for_timezone / nearest_cities lookups.
package geo

import (
	"fmt"
	"math"
	"time"

	"github.com/ringsaturn/tzf"
)

// City is one entry in the embedded reference table.
type City struct {
	Name                string
	Latitude, Longitude float64
}

// Cities is a small embedded table of reference cities spanning a range of
// latitudes, standing in for a full geonames-style database.
var Cities = []City{
	{"Reykjavik", 64.1466, -21.9426},
	{"London", 51.5074, -0.1278},
	{"Berlin", 52.5200, 13.4050},
	{"New York", 40.7128, -74.0060},
	{"San Francisco", 37.7749, -122.4194},
	{"Mexico City", 19.4326, -99.1332},
	{"Singapore", 1.3521, 103.8198},
	{"Nairobi", -1.2921, 36.8219},
	{"Sao Paulo", -23.5505, -46.6333},
	{"Sydney", -33.8688, 151.2093},
	{"Tokyo", 35.6762, 139.6503},
	{"Svalbard", 78.2232, 15.6267},
	{"McMurdo Station", -77.8419, 166.6863},
}

// CityForTimezone looks up a city by (case-sensitive) name.
func CityForTimezone(name string) (City, error) {
	for _, c := range Cities {
		if c.Name == name {
			return c, nil
		}
	}
	return City{}, fmt.Errorf("unknown city %q", name)
}

// NearestCities returns the k closest entries in Cities to (lat, lon),
// nearest first, using the haversine great-circle distance.
func NearestCities(lat, lon float64, k int) []City {
	type scored struct {
		City
		dist float64
	}
	scoredCities := make([]scored, len(Cities))
	for i, c := range Cities {
		scoredCities[i] = scored{City: c, dist: haversineKM(lat, lon, c.Latitude, c.Longitude)}
	}
	for i := 1; i < len(scoredCities); i++ {
		for j := i; j > 0 && scoredCities[j].dist < scoredCities[j-1].dist; j-- {
			scoredCities[j], scoredCities[j-1] = scoredCities[j-1], scoredCities[j]
		}
	}
	if k > len(scoredCities) {
		k = len(scoredCities)
	}
	out := make([]City, k)
	for i := 0; i < k; i++ {
		out[i] = scoredCities[i].City
	}
	return out
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// TimezoneResolver resolves (lat, lon) to an IANA *time.Location using a
// compiled offline boundary dataset, falling back to the process TZ and
// then UTC when resolution fails.
type TimezoneResolver struct {
	finder tzf.F
}

// NewTimezoneResolver builds a resolver backed by tzf's default finder.
func NewTimezoneResolver() (*TimezoneResolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("build timezone finder: %w", err)
	}
	return &TimezoneResolver{finder: finder}, nil
}

// Lookup implements solar.TimezoneLookup.
func (r *TimezoneResolver) Lookup(lat, lon float64) *time.Location {
	name := r.finder.GetTimezoneName(lon, lat)
	if name == "" {
		return fallbackLocation()
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallbackLocation()
	}
	return loc
}

func fallbackLocation() *time.Location {
	if loc, err := time.LoadLocation("Local"); err == nil {
		return loc
	}
	return time.UTC
}
