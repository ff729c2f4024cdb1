// Package solar computes sunrise/sunset and the elevation-angle crossings
// that bound sunset and sunrise transition windows, for a given
// latitude/longitude/date.
//
// The 0-degree crossing (actual sunrise/sunset) is taken from
// github.com/nathan-osman/go-sunrise; the non-zero elevation crossings
// (-2 and +10 degrees for transition extrapolation, -6 for civil twilight,
// +6 for golden hour) have no equivalent in that library's public
// API, so they are derived directly from the underlying NOAA equation of
// time / solar declination / hour angle formulas.
package solar

import (
	"fmt"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Result is the derived solar geometry for one (latitude, longitude, date).
type Result struct {
	Sunrise, Sunset time.Time

	// SunsetStart/SunsetEnd and SunriseStart/SunriseEnd are the +10deg/-2deg
	// crossings (and their sunrise-side mirrors) used as transition window
	// extrapolation endpoints.
	SunsetStart, SunsetEnd   time.Time
	SunriseStart, SunriseEnd time.Time

	// CivilDawn/CivilDusk are the -6deg crossings.
	CivilDawn, CivilDusk time.Time

	// GoldenHourMorningEnd/GoldenHourEveningStart are the +6deg crossings.
	GoldenHourMorningEnd, GoldenHourEveningStart time.Time

	Location *time.Location

	// UsedFallback is true when civil-twilight duration at this latitude was
	// implausible and the extreme-latitude heuristic substituted a fixed
	// duration.
	UsedFallback     bool
	FallbackDuration time.Duration
}

// ErrInvalidInput is returned when latitude/longitude are out of range.
type ErrInvalidInput struct {
	Latitude, Longitude float64
}

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid coordinates (%.4f, %.4f)", e.Latitude, e.Longitude)
}

// TimezoneLookup resolves a (lat, lon) pair to an IANA location. Implementations
// should fall back to the process TZ or UTC rather than erroring.
type TimezoneLookup func(lat, lon float64) *time.Location

// Calculate computes Result for the given coordinates and date. date's time
// components are ignored; only its calendar date (interpreted in loc) is used.
func Calculate(lat, lon float64, date time.Time, lookup TimezoneLookup) (Result, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Result{}, &ErrInvalidInput{Latitude: lat, Longitude: lon}
	}

	loc := lookup(lat, lon)
	if loc == nil {
		loc = time.Local
	}
	local := date.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)

	sunriseTime, sunsetTime := sunrise.SunriseSunset(lat, lon, day.Year(), day.Month(), day.Day())

	res := Result{
		Sunrise:  sunriseTime.In(loc),
		Sunset:   sunsetTime.In(loc),
		Location: loc,
	}

	// For each elevation angle, splitAroundNoon gives the morning (ascending)
	// and evening (descending) crossing; sunrise-side endpoints come from the
	// morning instant, sunset-side endpoints from the evening instant.
	amTwo, pmTwo := splitAroundNoon(day, lat, lon, -2)
	amTen, pmTen := splitAroundNoon(day, lat, lon, 10)
	amSix, pmSix := splitAroundNoon(day, lat, lon, 6)
	amNegSix, pmNegSix := splitAroundNoon(day, lat, lon, -6)

	res.SunriseStart = amTwo
	res.SunriseEnd = amTen
	res.SunsetStart = pmTen
	res.SunsetEnd = pmTwo
	res.GoldenHourMorningEnd = amSix
	res.GoldenHourEveningStart = pmSix
	res.CivilDawn = amNegSix
	res.CivilDusk = pmNegSix

	allCrossed := !amTwo.IsZero() && !pmTwo.IsZero() && !amTen.IsZero() && !pmTen.IsZero() &&
		!amSix.IsZero() && !pmSix.IsZero() && !amNegSix.IsZero() && !pmNegSix.IsZero()

	civilDuration := res.CivilDusk.Sub(res.Sunset)
	if !allCrossed || civilDuration <= 0 || civilDuration > 180*time.Minute {
		if math.Abs(lat) > 60 {
			res.UsedFallback = true
			res.FallbackDuration = fallbackTwilightDuration(lat, day)
			res = applyFallback(res)
		}
	}

	return res, nil
}

// splitAroundNoon returns the morning (ascending) and evening (descending)
// instants the sun crosses elevationDeg, derived from the NOAA solar position
// equations (equation of time, declination, hour angle). Either return value
// is the zero time.Time if the sun never reaches that elevation on this day
// (polar night/day).
func splitAroundNoon(day time.Time, lat, lon, elevationDeg float64) (morning, evening time.Time) {
	orbitAngle := dateOrbitAngle(day)
	decl := sunDeclination(orbitAngle)
	eqtime := equationOfTime(orbitAngle)

	latRad := radians(lat)
	zenithRad := radians(90.0 - elevationDeg)

	cosH := (math.Cos(zenithRad) - math.Sin(latRad)*math.Sin(decl)) / (math.Cos(latRad) * math.Cos(decl))
	if cosH < -1 || cosH > 1 {
		return time.Time{}, time.Time{}
	}
	hourAngle := math.Acos(cosH)

	solarNoonOffset := 720 + 4*degrees(-radians(lon)) - eqtime
	morningOffsetMin := solarNoonOffset - 4*degrees(hourAngle)
	eveningOffsetMin := solarNoonOffset + 4*degrees(hourAngle)

	// The offsets are minutes after UTC midnight of the date.
	base := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	morning = timeAddMinutes(base, morningOffsetMin).In(day.Location())
	evening = timeAddMinutes(base, eveningOffsetMin).In(day.Location())
	return morning, evening
}

func fallbackTwilightDuration(lat float64, day time.Time) time.Duration {
	abs := math.Abs(lat)
	summer := isSummerHemisphere(lat, day)

	var minutes int
	switch {
	case abs >= 80:
		minutes = pick(summer, 90, 15)
	case abs >= 70:
		minutes = pick(summer, 60, 20)
	case abs >= 66:
		minutes = pick(summer, 45, 25)
	default:
		minutes = pick(summer, 25, 20)
	}
	return time.Duration(minutes) * time.Minute
}

func pick(summer bool, s, w int) int {
	if summer {
		return s
	}
	return w
}

// isSummerHemisphere reports whether day falls in the given latitude's local
// summer, using day-of-year as a hemisphere-aware heuristic.
func isSummerHemisphere(lat float64, day time.Time) bool {
	doy := day.YearDay()
	northernSummer := doy > 80 && doy < 266 // roughly equinox-to-equinox
	if lat >= 0 {
		return northernSummer
	}
	return !northernSummer
}

// applyFallback substitutes the extreme-latitude fallback duration for the
// transition window extrapolation endpoints, distributing 5/6 before
// sunset/sunrise and 1/6 after, symmetric for both events.
func applyFallback(res Result) Result {
	d := res.FallbackDuration
	before := d * 5 / 6
	after := d - before

	res.SunsetStart = res.Sunset.Add(-before)
	res.SunsetEnd = res.Sunset.Add(after)
	res.SunriseStart = res.Sunrise.Add(-before)
	res.SunriseEnd = res.Sunrise.Add(after)
	res.CivilDusk = res.Sunset.Add(after)
	res.CivilDawn = res.Sunrise.Add(-before)
	res.GoldenHourEveningStart = res.Sunset.Add(-after)
	res.GoldenHourMorningEnd = res.Sunrise.Add(after)
	return res
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
func radians(deg float64) float64 { return deg * math.Pi / 180 }

func dateOrbitAngle(t time.Time) float64 {
	return (2.0 * math.Pi / float64(daysInYear(t))) * float64(t.YearDay()-1)
}

func daysInYear(t time.Time) int {
	jan1 := time.Date(t.Year()+1, time.January, 1, 0, 0, 0, 0, t.Location())
	jan1 = jan1.Add(-1)
	return jan1.YearDay()
}

// equationOfTime returns the equation of time in minutes for the given
// fractional-year orbit angle.
func equationOfTime(orbitAngle float64) float64 {
	return 229.18 * (0.000075 +
		0.001868*math.Cos(orbitAngle) -
		0.032077*math.Sin(orbitAngle) -
		0.014615*math.Cos(2*orbitAngle) -
		0.040849*math.Sin(2*orbitAngle))
}

func sunDeclination(orbitAngle float64) float64 {
	return 0.006918 -
		0.399912*math.Cos(orbitAngle) +
		0.070257*math.Sin(orbitAngle) -
		0.006758*math.Cos(2*orbitAngle) +
		0.000907*math.Sin(2*orbitAngle) -
		0.002697*math.Cos(3*orbitAngle) +
		0.001480*math.Sin(3*orbitAngle)
}

func timeTruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func timeAddMinutes(t time.Time, minutes float64) time.Time {
	if math.IsNaN(minutes) {
		return time.Time{}
	}
	whole, frac := math.Modf(minutes)
	t = t.Add(time.Duration(whole) * time.Minute)
	t = t.Add(time.Duration(frac * float64(time.Minute)))
	return t
}
