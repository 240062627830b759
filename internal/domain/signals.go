package domain

import (
	"fmt"
	"strings"
)

// signals reads optional values out of a FusionInput.
type signals struct {
	in FusionInput
}

func value(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func (s signals) forecastPrecip() (float64, bool) {
	if s.in.Weather == nil {
		return 0, false
	}
	return value(s.in.Weather.PrecipitationTotal)
}

func (s signals) observedPrecip() (float64, bool) {
	if s.in.Satellite == nil {
		return 0, false
	}
	return value(s.in.Satellite.PrecipitationTotal)
}

func (s signals) precipProbability() (float64, bool) {
	if s.in.Weather == nil {
		return 0, false
	}
	return value(s.in.Weather.PrecipitationProbability)
}

func (s signals) maxTemperature() (float64, bool) {
	if s.in.Weather == nil {
		return 0, false
	}
	return value(s.in.Weather.MaxTemperature)
}

func (s signals) humidity() (float64, bool) {
	if s.in.Weather == nil {
		return 0, false
	}
	return value(s.in.Weather.Humidity)
}

func (s signals) averageTemperature() (float64, bool) {
	if s.in.Satellite == nil {
		return 0, false
	}
	return value(s.in.Satellite.AverageTemperature)
}

func (s signals) soilMoisture() (float64, bool) {
	if s.in.Climate == nil {
		return 0, false
	}
	return value(s.in.Climate.SoilMoisture)
}

func (s signals) evapotranspiration() (float64, bool) {
	if s.in.Climate == nil {
		return 0, false
	}
	return value(s.in.Climate.Evapotranspiration)
}

func (s signals) ndvi() (float64, bool) {
	if s.in.Climate == nil {
		return 0, false
	}
	return value(s.in.Climate.NDVI)
}

// allPrecipBelow reports whether at least one precipitation total is present
// and every present total is below limit.
func (s signals) allPrecipBelow(limit float64) bool {
	seen := false
	for _, get := range []func() (float64, bool){s.forecastPrecip, s.observedPrecip} {
		v, ok := get()
		if !ok {
			continue
		}
		if v >= limit {
			return false
		}
		seen = true
	}
	return seen
}

func (s signals) precipSummary() string {
	var parts []string
	if v, ok := s.forecastPrecip(); ok {
		parts = append(parts, fmt.Sprintf("forecast %.1f mm", v))
	}
	if v, ok := s.observedPrecip(); ok {
		parts = append(parts, fmt.Sprintf("observed %.1f mm", v))
	}
	return strings.Join(parts, ", ")
}
