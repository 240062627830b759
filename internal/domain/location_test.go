package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		in       string
		lat, lon float64
		ok       bool
	}{
		{"18.52,73.85", 18.52, 73.85, true},
		{" -33.9 , 151.2 ", -33.9, 151.2, true},
		{"91,10", 0, 0, false},
		{"10,181", 0, 0, false},
		{"Pune, Maharashtra", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lat, lon, ok := ParseCoordinates(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.lat, lat, 1e-9)
			assert.InDelta(t, tt.lon, lon, 1e-9)
		})
	}
}

func TestCleanLocation(t *testing.T) {
	got, err := CleanLocation("  Pune ,,  Maharashtra.  ")
	require.NoError(t, err)
	assert.Equal(t, "Pune, Maharashtra", got)

	_, err = CleanLocation(" , ; ")
	require.ErrorIs(t, err, ErrEmptyLocation)
}

func TestZoneForLatitude(t *testing.T) {
	assert.Equal(t, ZoneTropical, ZoneForLatitude(18.5))
	assert.Equal(t, ZoneTropical, ZoneForLatitude(-10))
	assert.Equal(t, ZoneArid, ZoneForLatitude(30))
	assert.Equal(t, ZoneTemperate, ZoneForLatitude(-45))
	assert.Equal(t, ZoneUnknown, ZoneForLatitude(120))
}

func TestParseSoilTexture(t *testing.T) {
	assert.Equal(t, TextureClay, ParseSoilTexture("Clay Loam"))
	assert.Equal(t, TextureSandy, ParseSoilTexture("loamy sand"))
	assert.Equal(t, TextureLoam, ParseSoilTexture("Silt"))
	assert.Equal(t, TextureUnknown, ParseSoilTexture("peat"))
}

func TestTextureFromFractions(t *testing.T) {
	tests := []struct {
		name       string
		clay, sand float64
		want       SoilTexture
	}{
		{"heavy clay", 45, 20, TextureClay},
		{"clay boundary", 40, 30, TextureClay},
		{"sand", 5, 88, TextureSandy},
		{"sand boundary", 10, 70, TextureSandy},
		{"loam", 20, 40, TextureLoam},
		{"negative", -1, 40, TextureUnknown},
		{"over full", 60, 60, TextureUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TextureFromFractions(tt.clay, tt.sand))
		})
	}
}

func TestNewForecastResult(t *testing.T) {
	fixed := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	loc := Location{Query: "Pune", Name: "Pune, Maharashtra, India", Lat: 18.52, Lon: 73.85}
	fusion := Fuse(FusionInput{Weather: &WeatherReading{PrecipitationTotal: Float(120)}})
	f := NewForecastResult(loc, 45, ZoneTropical, fusion)

	assert.Equal(t, Medium, f.OverallRisk)
	assert.Equal(t, 45, f.HorizonDays)
	assert.Equal(t, "Twice Weekly", f.MonitoringFrequency)
	assert.Equal(t, fixed, f.GeneratedAt)
	assert.Equal(t, "Pune, Maharashtra, India", f.Location.Label())
}
