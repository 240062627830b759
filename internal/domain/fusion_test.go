package domain

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuse_NoSources(t *testing.T) {
	f := Fuse(FusionInput{Zone: ZoneArid})

	assert.Equal(t, Low, f.Overall)
	assert.Empty(t, f.Sources)
	require.Len(t, f.Categories, len(AllCategories))
	for _, c := range AllCategories {
		a := f.Categories[c]
		assert.Equal(t, Low, a.Level, c.String())
		assert.Equal(t, 60, a.Confidence, c.String())
		assert.Equal(t, []string{baselineDriver}, a.Drivers, c.String())
	}
}

func TestFuse_SingleWeatherSource(t *testing.T) {
	f := Fuse(FusionInput{Weather: &WeatherReading{PrecipitationTotal: Float(250)}})

	assert.Equal(t, High, f.Overall)
	assert.Equal(t, []string{SourceWeather}, f.Sources)

	flood := f.Categories[Flood]
	assert.Equal(t, High, flood.Level)
	assert.Equal(t, 65, flood.Confidence)
	assert.NotEmpty(t, flood.Drivers)

	// Derived categories lose five points but stay at the floor.
	assert.Equal(t, 60, f.Categories[Pest].Confidence)
}

func TestFuse_DrySoilOverridesRain(t *testing.T) {
	f := Fuse(FusionInput{
		Weather: &WeatherReading{PrecipitationTotal: Float(150)},
		Climate: &ClimateReading{SoilMoisture: Float(20)},
	})

	drought := f.Categories[Drought]
	assert.Equal(t, High, drought.Level)
	assert.Equal(t, 78, drought.Confidence)
	assert.Contains(t, drought.Drivers[0], "Soil moisture 20%")
	assert.Equal(t, Medium, f.Categories[Flood].Level)
	assert.Equal(t, High, f.Overall)
}

func TestFuse_EvapotranspirationOverride(t *testing.T) {
	f := Fuse(FusionInput{
		Weather: &WeatherReading{PrecipitationTotal: Float(50)},
		Climate: &ClimateReading{SoilMoisture: Float(55), Evapotranspiration: Float(6.5)},
	})

	assert.Equal(t, High, f.Categories[Drought].Level)
}

func TestFuse_ConfidenceBySourceCount(t *testing.T) {
	weather := &WeatherReading{MaxTemperature: Float(30)}
	satellite := &SatelliteReading{AverageTemperature: Float(25)}
	climate := &ClimateReading{NDVI: Float(0.7)}
	soil := &SoilReading{Texture: TextureLoam}

	tests := []struct {
		name    string
		in      FusionInput
		direct  int
		derived int
	}{
		{"one", FusionInput{Weather: weather}, 65, 60},
		{"two", FusionInput{Weather: weather, Satellite: satellite}, 78, 73},
		{"three", FusionInput{Weather: weather, Satellite: satellite, Climate: climate}, 88, 83},
		{"four", FusionInput{Weather: weather, Satellite: satellite, Climate: climate, Soil: soil}, 95, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Fuse(tt.in)
			assert.Equal(t, tt.direct, f.Categories[Drought].Confidence)
			assert.Equal(t, tt.direct, f.Categories[HeatStress].Confidence)
			assert.Equal(t, tt.derived, f.Categories[Disease].Confidence)
			assert.Equal(t, tt.derived, f.Categories[VegetationStress].Confidence)
		})
	}
}

func TestFuse_Deterministic(t *testing.T) {
	in := FusionInput{
		Weather:   &WeatherReading{PrecipitationTotal: Float(8), PrecipitationProbability: Float(80), MaxTemperature: Float(41), Humidity: Float(85)},
		Satellite: &SatelliteReading{PrecipitationTotal: Float(4), AverageTemperature: Float(28)},
		Climate:   &ClimateReading{SoilMoisture: Float(45), NDVI: Float(0.4), Evapotranspiration: Float(5.5)},
		Soil:      &SoilReading{Texture: TextureSandy},
		Zone:      ZoneTropical,
	}

	first := Fuse(in)
	for range 10 {
		assert.Equal(t, first, Fuse(in))
	}
}

func TestFuse_OverallIsMaxAndDriversPresent(t *testing.T) {
	inputs := []FusionInput{
		{Weather: &WeatherReading{Humidity: Float(70)}},
		{Climate: &ClimateReading{NDVI: Float(0.3)}, Weather: &WeatherReading{Humidity: Float(90)}},
		{Satellite: &SatelliteReading{AverageTemperature: Float(12)}, Zone: ZoneTemperate},
		{Weather: &WeatherReading{MaxTemperature: Float(36)}, Zone: ZoneArid},
	}
	for _, in := range inputs {
		f := Fuse(in)
		assert.Equal(t, MaxLevel(f.Categories), f.Overall)
		for c, a := range f.Categories {
			assert.NotEmpty(t, a.Drivers, c.String())
		}
	}
}

// subsetInput switches each source on when its bit in mask is set. Every
// reading is elevated so most categories score above Low.
func subsetInput(mask int) FusionInput {
	in := FusionInput{Zone: ZoneArid}
	if mask&1 != 0 {
		in.Weather = &WeatherReading{
			PrecipitationTotal:       Float(130),
			PrecipitationProbability: Float(80),
			MaxTemperature:           Float(41),
			Humidity:                 Float(85),
		}
	}
	if mask&2 != 0 {
		in.Satellite = &SatelliteReading{PrecipitationTotal: Float(4), AverageTemperature: Float(28)}
	}
	if mask&4 != 0 {
		in.Climate = &ClimateReading{SoilMoisture: Float(25), Evapotranspiration: Float(6.5), NDVI: Float(0.35)}
	}
	if mask&8 != 0 {
		in.Soil = &SoilReading{Texture: TextureSandy}
	}
	return in
}

func TestFuse_AllSourceSubsets(t *testing.T) {
	const numSources = 4
	fused := make([]Fusion, 1<<numSources)
	for mask := range fused {
		fused[mask] = Fuse(subsetInput(mask))
	}

	for mask, f := range fused {
		require.Len(t, f.Categories, len(AllCategories), "mask=%04b", mask)
		assert.Len(t, f.Sources, bits.OnesCount(uint(mask)), "mask=%04b", mask)
		assert.Equal(t, MaxLevel(f.Categories), f.Overall, "mask=%04b", mask)
		for c, a := range f.Categories {
			assert.GreaterOrEqual(t, a.Level, Low, "mask=%04b %s", mask, c)
			assert.LessOrEqual(t, a.Level, Critical, "mask=%04b %s", mask, c)
			assert.NotEmpty(t, a.Drivers, "mask=%04b %s", mask, c)
			assert.GreaterOrEqual(t, a.Confidence, 60, "mask=%04b %s", mask, c)
			assert.LessOrEqual(t, a.Confidence, 95, "mask=%04b %s", mask, c)
		}
	}

	// Adding any source never lowers a category's confidence.
	for mask, f := range fused {
		for bit := 0; bit < numSources; bit++ {
			if mask&(1<<bit) != 0 {
				continue
			}
			more := fused[mask|1<<bit]
			for _, c := range AllCategories {
				assert.GreaterOrEqual(t, more.Categories[c].Confidence, f.Categories[c].Confidence,
					"%s: mask %04b to %04b", c, mask, mask|1<<bit)
			}
		}
	}
}

func TestFuse_Modifiers(t *testing.T) {
	t.Run("sandy soil amplifies drought", func(t *testing.T) {
		f := Fuse(FusionInput{
			Weather:   &WeatherReading{PrecipitationTotal: Float(5)},
			Satellite: &SatelliteReading{PrecipitationTotal: Float(3)},
			Soil:      &SoilReading{Texture: TextureSandy},
		})
		assert.Equal(t, High, f.Categories[Drought].Level)
		assert.Contains(t, f.Categories[Drought].Drivers, "Risk amplified by sandy soil texture")
	})

	t.Run("clay soil amplifies flood", func(t *testing.T) {
		f := Fuse(FusionInput{
			Weather: &WeatherReading{PrecipitationTotal: Float(150)},
			Soil:    &SoilReading{Texture: TextureClay},
		})
		assert.Equal(t, High, f.Categories[Flood].Level)
	})

	t.Run("clay cannot lift the dry soil floor", func(t *testing.T) {
		f := Fuse(FusionInput{
			Climate: &ClimateReading{SoilMoisture: Float(15)},
			Soil:    &SoilReading{Texture: TextureClay},
		})
		assert.Equal(t, High, f.Categories[Drought].Level)
	})

	t.Run("zone does not invent risk", func(t *testing.T) {
		f := Fuse(FusionInput{
			Weather: &WeatherReading{MaxTemperature: Float(30)},
			Zone:    ZoneArid,
		})
		assert.Equal(t, Low, f.Categories[HeatStress].Level)
		assert.Equal(t, []string{neutralDriver}, f.Categories[HeatStress].Drivers)
	})

	t.Run("arid zone amplifies heat", func(t *testing.T) {
		f := Fuse(FusionInput{
			Weather: &WeatherReading{MaxTemperature: Float(36)},
			Zone:    ZoneArid,
		})
		assert.Equal(t, High, f.Categories[HeatStress].Level)
	})
}

func TestFuse_AbsentSignalsAreNeutral(t *testing.T) {
	// Only rainfall present: temperature-driven categories must not fire.
	f := Fuse(FusionInput{Weather: &WeatherReading{PrecipitationTotal: Float(50)}})

	assert.Equal(t, Low, f.Categories[ColdStress].Level)
	assert.Equal(t, Low, f.Categories[HeatStress].Level)
	assert.Equal(t, Low, f.Categories[Drought].Level)
	assert.Equal(t, Low, f.Overall)
}

func TestFuse_CategoryRules(t *testing.T) {
	tests := []struct {
		name     string
		in       FusionInput
		category RiskCategory
		want     Level
	}{
		{
			name:     "rain probability floods",
			in:       FusionInput{Weather: &WeatherReading{PrecipitationProbability: Float(75)}},
			category: Flood,
			want:     Medium,
		},
		{
			name:     "erosion on bare soil",
			in:       FusionInput{Weather: &WeatherReading{PrecipitationProbability: Float(80)}, Climate: &ClimateReading{NDVI: Float(0.4)}},
			category: SoilErosion,
			want:     High,
		},
		{
			name:     "leaching on wet soil",
			in:       FusionInput{Weather: &WeatherReading{PrecipitationTotal: Float(130)}, Climate: &ClimateReading{SoilMoisture: Float(65)}},
			category: NutrientLeaching,
			want:     Medium,
		},
		{
			name:     "observed heat",
			in:       FusionInput{Satellite: &SatelliteReading{AverageTemperature: Float(38.5)}},
			category: HeatStress,
			want:     High,
		},
		{
			name:     "cool maximum",
			in:       FusionInput{Weather: &WeatherReading{MaxTemperature: Float(19)}},
			category: ColdStress,
			want:     Medium,
		},
		{
			name:     "humid and warm disease",
			in:       FusionInput{Weather: &WeatherReading{Humidity: Float(85)}, Satellite: &SatelliteReading{AverageTemperature: Float(26)}},
			category: Disease,
			want:     High,
		},
		{
			name:     "humid without temperature",
			in:       FusionInput{Weather: &WeatherReading{Humidity: Float(85)}},
			category: Disease,
			want:     Medium,
		},
		{
			name:     "pest on weak canopy",
			in:       FusionInput{Climate: &ClimateReading{NDVI: Float(0.4)}},
			category: Pest,
			want:     Medium,
		},
		{
			name:     "vegetation under heat",
			in:       FusionInput{Weather: &WeatherReading{MaxTemperature: Float(40)}, Climate: &ClimateReading{NDVI: Float(0.4)}},
			category: VegetationStress,
			want:     High,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Fuse(tt.in)
			assert.Equal(t, tt.want, f.Categories[tt.category].Level)
		})
	}
}
