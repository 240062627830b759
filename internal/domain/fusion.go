package domain

import "fmt"

// Confidence baseline by number of present sources.
var sourceConfidence = [...]int{0: 60, 1: 65, 2: 78, 3: 88, 4: 95}

const (
	// derivedPenalty is subtracted from categories inferred from indirect signals.
	derivedPenalty = 5
	// confidenceFloor is the lowest confidence fusion reports.
	confidenceFloor = 60
)

const (
	neutralDriver  = "No elevating signals in available sources"
	baselineDriver = "No source readings available; seasonal baseline assumed"
)

// SourceConfidence returns the confidence baseline for n present sources.
func SourceConfidence(n int) int {
	if n < 0 {
		n = 0
	}
	if n >= len(sourceConfidence) {
		n = len(sourceConfidence) - 1
	}
	return sourceConfidence[n]
}

// Fusion is the per-category outcome of fusing one FusionInput.
type Fusion struct {
	Overall    Level
	Categories map[RiskCategory]RiskAssessment
	Sources    []string
}

// evaluation is a category rule's raw verdict before modifiers.
type evaluation struct {
	score   int
	drivers []string
	// floor is the minimum level after modifiers are applied.
	floor Level
}

type categoryRule struct {
	derived bool
	eval    func(s signals) evaluation
}

var categoryRules = [numCategories]categoryRule{
	Drought:          {eval: evalDrought},
	Flood:            {eval: evalFlood},
	Pest:             {derived: true, eval: evalPest},
	Disease:          {derived: true, eval: evalDisease},
	HeatStress:       {eval: evalHeat},
	SoilErosion:      {derived: true, eval: evalErosion},
	NutrientLeaching: {derived: true, eval: evalLeaching},
	ColdStress:       {derived: true, eval: evalCold},
	VegetationStress: {derived: true, eval: evalVegetation},
}

// Score shifts applied to an already elevated category.
var textureShift = map[SoilTexture][numCategories]int{
	TextureSandy: {Drought: 1, Flood: -1, SoilErosion: 1, NutrientLeaching: 1},
	TextureClay:  {Drought: -1, Flood: 1},
}

var zoneShift = map[ClimateZone][numCategories]int{
	ZoneArid:      {Drought: 1, HeatStress: 1},
	ZoneTemperate: {ColdStress: 1},
	ZoneTropical:  {Disease: 1},
}

// Fuse maps the available readings to a risk level, confidence, and drivers
// for every category. It is pure and deterministic: the same input always
// yields the same output, and absent readings are neutral.
func Fuse(in FusionInput) Fusion {
	sources := in.Sources()
	out := Fusion{
		Overall:    Low,
		Categories: make(map[RiskCategory]RiskAssessment, numCategories),
		Sources:    sources,
	}

	if len(sources) == 0 {
		for _, c := range AllCategories {
			out.Categories[c] = RiskAssessment{
				Level:      Low,
				Confidence: confidenceFloor,
				Drivers:    []string{baselineDriver},
			}
		}
		return out
	}

	s := signals{in: in}
	base := SourceConfidence(len(sources))
	texture := TextureUnknown
	if in.Soil != nil {
		texture = in.Soil.Texture
	}

	for _, c := range AllCategories {
		rule := categoryRules[c]
		ev := rule.eval(s)

		if shift := textureShift[texture][c]; shift != 0 {
			ev = ev.shifted(shift, fmt.Sprintf("%s soil texture", texture))
		}
		if shift := zoneShift[in.Zone][c]; shift != 0 {
			ev = ev.shifted(shift, fmt.Sprintf("%s climate zone", in.Zone))
		}

		level := bucket(ev.score)
		if level < ev.floor {
			level = ev.floor
		}

		drivers := ev.drivers
		if len(drivers) == 0 {
			drivers = []string{neutralDriver}
		}

		confidence := base
		if rule.derived {
			confidence -= derivedPenalty
		}
		if confidence < confidenceFloor {
			confidence = confidenceFloor
		}

		out.Categories[c] = RiskAssessment{Level: level, Confidence: confidence, Drivers: drivers}
		if level > out.Overall {
			out.Overall = level
		}
	}
	return out
}

// shifted moves an elevated score by delta. Categories at zero stay put so
// modifiers never invent a risk on their own.
func (e evaluation) shifted(delta int, reason string) evaluation {
	if e.score == 0 {
		return e
	}
	e.score += delta
	if e.score < 0 {
		e.score = 0
	}
	verb := "amplified"
	if delta < 0 {
		verb = "dampened"
	}
	e.drivers = append(e.drivers, fmt.Sprintf("Risk %s by %s", verb, reason))
	return e
}

func bucket(score int) Level {
	switch {
	case score >= 2:
		return High
	case score == 1:
		return Medium
	default:
		return Low
	}
}

func evalDrought(s signals) evaluation {
	var ev evaluation
	soil, hasSoil := s.soilMoisture()
	switch {
	case hasSoil && soil < 30:
		ev.score = 2
		ev.floor = High
		ev.drivers = append(ev.drivers, fmt.Sprintf("Soil moisture %.0f%% below 30%%", soil))
	case s.allPrecipBelow(10):
		ev.score = 1
		ev.drivers = append(ev.drivers, fmt.Sprintf("Rainfall %s below 10 mm", s.precipSummary()))
	}
	if et, ok := s.evapotranspiration(); ok && et >= 6 {
		ev.floor = High
		ev.drivers = append(ev.drivers, fmt.Sprintf("Evapotranspiration %.1f mm/day at or above 6", et))
	}
	return ev
}

func evalFlood(s signals) evaluation {
	var ev evaluation
	precip, hasPrecip := s.forecastPrecip()
	prob, hasProb := s.precipProbability()
	switch {
	case hasPrecip && precip > 200:
		ev.score = 2
		ev.drivers = append(ev.drivers, fmt.Sprintf("Forecast rainfall %.0f mm above 200 mm", precip))
	case hasPrecip && precip > 100:
		ev.score = 1
		ev.drivers = append(ev.drivers, fmt.Sprintf("Forecast rainfall %.0f mm above 100 mm", precip))
	case hasProb && prob > 70:
		ev.score = 1
		ev.drivers = append(ev.drivers, fmt.Sprintf("Rain probability %.0f%% above 70%%", prob))
	}
	return ev
}

func evalPest(s signals) evaluation {
	var ev evaluation
	ndvi, ok := s.ndvi()
	if !ok || ndvi >= 0.45 {
		return ev
	}
	ev.score = 1
	ev.drivers = append(ev.drivers, fmt.Sprintf("Weak canopy NDVI %.2f below 0.45", ndvi))
	if hum, ok := s.humidity(); ok && hum >= 75 {
		ev.score = 2
		ev.drivers = append(ev.drivers, fmt.Sprintf("Humidity %.0f%% favors pest build-up", hum))
	}
	return ev
}

func evalDisease(s signals) evaluation {
	var ev evaluation
	hum, ok := s.humidity()
	if !ok {
		return ev
	}
	avg, hasAvg := s.averageTemperature()
	switch {
	case hum >= 80 && hasAvg && avg >= 20 && avg <= 35:
		ev.score = 2
		ev.drivers = append(ev.drivers,
			fmt.Sprintf("Humidity %.0f%% at or above 80%%", hum),
			fmt.Sprintf("Mean temperature %.1f°C within fungal range 20-35°C", avg))
	case hum >= 65:
		ev.score = 1
		ev.drivers = append(ev.drivers, fmt.Sprintf("Humidity %.0f%% at or above 65%%", hum))
	}
	return ev
}

func evalHeat(s signals) evaluation {
	var ev evaluation
	tmax, hasMax := s.maxTemperature()
	avg, hasAvg := s.averageTemperature()
	switch {
	case hasMax && tmax >= 40:
		ev.score = 2
		ev.drivers = append(ev.drivers, fmt.Sprintf("Max temperature %.1f°C at or above 40°C", tmax))
	case hasAvg && avg >= 38:
		ev.score = 2
		ev.drivers = append(ev.drivers, fmt.Sprintf("Observed mean temperature %.1f°C at or above 38°C", avg))
	case hasMax && tmax >= 35:
		ev.score = 1
		ev.drivers = append(ev.drivers, fmt.Sprintf("Max temperature %.1f°C at or above 35°C", tmax))
	}
	return ev
}

func evalErosion(s signals) evaluation {
	var ev evaluation
	prob, hasProb := s.precipProbability()
	ndvi, hasNDVI := s.ndvi()
	if !hasProb || !hasNDVI {
		return ev
	}
	switch {
	case prob > 75 && ndvi < 0.45:
		ev.score = 2
	case prob > 65 && ndvi < 0.5:
		ev.score = 1
	default:
		return ev
	}
	ev.drivers = append(ev.drivers,
		fmt.Sprintf("Rain probability %.0f%% on sparse cover (NDVI %.2f)", prob, ndvi))
	return ev
}

func evalLeaching(s signals) evaluation {
	var ev evaluation
	precip, hasPrecip := s.forecastPrecip()
	soil, hasSoil := s.soilMoisture()
	if !hasPrecip || !hasSoil {
		return ev
	}
	switch {
	case precip > 180 && soil > 70:
		ev.score = 2
	case precip > 120 && soil > 60:
		ev.score = 1
	default:
		return ev
	}
	ev.drivers = append(ev.drivers,
		fmt.Sprintf("Rainfall %.0f mm on saturated soil (%.0f%% moisture)", precip, soil))
	return ev
}

func evalCold(s signals) evaluation {
	var ev evaluation
	tmax, hasMax := s.maxTemperature()
	avg, hasAvg := s.averageTemperature()
	switch {
	case hasMax && tmax <= 15:
		ev.score = 2
		ev.drivers = append(ev.drivers, fmt.Sprintf("Max temperature %.1f°C at or below 15°C", tmax))
	case hasAvg && avg <= 15:
		ev.score = 2
		ev.drivers = append(ev.drivers, fmt.Sprintf("Observed mean temperature %.1f°C at or below 15°C", avg))
	case hasMax && tmax <= 20:
		ev.score = 1
		ev.drivers = append(ev.drivers, fmt.Sprintf("Max temperature %.1f°C at or below 20°C", tmax))
	case hasAvg && avg <= 18:
		ev.score = 1
		ev.drivers = append(ev.drivers, fmt.Sprintf("Observed mean temperature %.1f°C at or below 18°C", avg))
	}
	return ev
}

func evalVegetation(s signals) evaluation {
	var ev evaluation
	ndvi, ok := s.ndvi()
	if !ok {
		return ev
	}
	et, hasET := s.evapotranspiration()
	tmax, hasMax := s.maxTemperature()
	switch {
	case ndvi < 0.45 && ((hasET && et > 6) || (hasMax && tmax > 39)):
		ev.score = 2
	case ndvi < 0.5 && ((hasET && et > 5) || (hasMax && tmax > 37)):
		ev.score = 1
	default:
		return ev
	}
	ev.drivers = append(ev.drivers, fmt.Sprintf("Canopy NDVI %.2f under heat or water demand", ndvi))
	return ev
}
