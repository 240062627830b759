package domain

import (
	"math"
	"strings"
)

// WeatherReading is a short-range forecast summary for the horizon.
type WeatherReading struct {
	PrecipitationTotal       *float64 `json:"precipitation_total_mm,omitempty"`
	PrecipitationProbability *float64 `json:"precipitation_probability_pct,omitempty"`
	MaxTemperature           *float64 `json:"max_temperature_c,omitempty"`
	Humidity                 *float64 `json:"humidity_pct,omitempty"`
}

// SatelliteReading is an observed agroclimatology summary for the recent past.
type SatelliteReading struct {
	PrecipitationTotal *float64 `json:"precipitation_total_mm,omitempty"`
	AverageTemperature *float64 `json:"average_temperature_c,omitempty"`
	SolarRadiation     *float64 `json:"solar_radiation_kwh_m2,omitempty"`
}

// ClimateReading carries land-surface indicators.
type ClimateReading struct {
	SoilMoisture       *float64 `json:"soil_moisture_pct,omitempty"`
	Evapotranspiration *float64 `json:"evapotranspiration_mm,omitempty"`
	NDVI               *float64 `json:"ndvi,omitempty"`
}

// SoilTexture is the dominant soil class at the location.
type SoilTexture string

const (
	TextureUnknown SoilTexture = ""
	TextureClay    SoilTexture = "clay"
	TextureLoam    SoilTexture = "loam"
	TextureSandy   SoilTexture = "sandy"
)

// ParseSoilTexture maps free-form texture names onto the known classes.
func ParseSoilTexture(s string) SoilTexture {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, "clay"):
		return TextureClay
	case strings.Contains(s, "sand"):
		return TextureSandy
	case strings.Contains(s, "loam"), strings.Contains(s, "silt"):
		return TextureLoam
	default:
		return TextureUnknown
	}
}

// SoilReading describes a soil profile. The fractions are topsoil
// percentages and are absent when the texture came from a name.
type SoilReading struct {
	Texture     SoilTexture `json:"texture"`
	ClayPercent *float64    `json:"clay_pct,omitempty"`
	SandPercent *float64    `json:"sand_pct,omitempty"`
}

// TextureFromFractions classes topsoil by its clay and sand percentages:
// clay at 40% or more is clay, sand at 70% or more is sandy, anything else
// with a known make-up is loam.
func TextureFromFractions(clay, sand float64) SoilTexture {
	switch {
	case clay < 0 || sand < 0 || clay+sand > 100:
		return TextureUnknown
	case clay >= 40:
		return TextureClay
	case sand >= 70:
		return TextureSandy
	default:
		return TextureLoam
	}
}

// ClimateZone is a coarse regional climate class.
type ClimateZone string

const (
	ZoneUnknown   ClimateZone = ""
	ZoneTropical  ClimateZone = "tropical"
	ZoneArid      ClimateZone = "arid"
	ZoneTemperate ClimateZone = "temperate"
)

// ZoneForLatitude derives a climate zone from latitude alone. Latitudes in
// the subtropical belt are treated as arid.
func ZoneForLatitude(lat float64) ClimateZone {
	abs := math.Abs(lat)
	switch {
	case abs > 90:
		return ZoneUnknown
	case abs < 23.5:
		return ZoneTropical
	case abs < 35:
		return ZoneArid
	default:
		return ZoneTemperate
	}
}

// FusionInput bundles every reading for one location and horizon. Nil
// readings are absent sources.
type FusionInput struct {
	Weather   *WeatherReading   `json:"weather,omitempty"`
	Satellite *SatelliteReading `json:"satellite,omitempty"`
	Climate   *ClimateReading   `json:"climate,omitempty"`
	Soil      *SoilReading      `json:"soil,omitempty"`
	Zone      ClimateZone       `json:"zone,omitempty"`
}

// Sources returns the names of the present sources in fixed order.
func (in FusionInput) Sources() []string {
	var out []string
	if in.Weather != nil {
		out = append(out, SourceWeather)
	}
	if in.Satellite != nil {
		out = append(out, SourceSatellite)
	}
	if in.Climate != nil {
		out = append(out, SourceClimate)
	}
	if in.Soil != nil {
		out = append(out, SourceSoil)
	}
	return out
}

// Source names recorded in forecasts.
const (
	SourceWeather   = "weather"
	SourceSatellite = "satellite"
	SourceClimate   = "climate"
	SourceSoil      = "soil"
)

// Float returns a pointer to v, for building readings.
func Float(v float64) *float64 { return &v }
