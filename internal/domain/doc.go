// Package domain models agricultural risk assessment for a single farm
// location and the readings it is derived from.
//
// # Sources
//
// Up to four independent sources feed an assessment. Any of them may be
// missing for a given run:
//
//	weather    short-range forecast (Open-Meteo): rainfall total, rain
//	           probability, daily max temperature, relative humidity
//	satellite  recent observations (NASA POWER): rainfall total, mean
//	           temperature, surface solar radiation
//	climate    land-surface indicators: root-zone soil moisture,
//	           evapotranspiration, NDVI
//	soil       soil profile: dominant texture (clay, loam, sandy)
//
// Units: millimetres for rainfall and evapotranspiration (mm/day), degrees
// Celsius for temperature, percent for humidity, rain probability, and soil
// moisture. NDVI is unitless in [-1, 1].
//
// # Fusion
//
// Fuse scores each category from a primary signal with fixed thresholds and
// a secondary corrective signal:
//
//	Drought           soil moisture < 30% ⇒ High; all rainfall totals < 10 mm ⇒ Medium;
//	                  evapotranspiration ≥ 6 mm/day ⇒ High
//	Flood             forecast rain > 200 mm ⇒ High; > 100 mm or probability > 70% ⇒ Medium
//	SoilErosion       probability > 75% and NDVI < 0.45 ⇒ High; > 65% and < 0.5 ⇒ Medium
//	NutrientLeaching  rain > 180 mm on soil > 70% ⇒ High; > 120 mm on > 60% ⇒ Medium
//	HeatStress        max ≥ 40°C or observed mean ≥ 38°C ⇒ High; max ≥ 35°C ⇒ Medium
//	ColdStress        max ≤ 15°C or mean ≤ 15°C ⇒ High; max ≤ 20°C or mean ≤ 18°C ⇒ Medium
//	Disease           humidity ≥ 80% with mean 20–35°C ⇒ High; humidity ≥ 65% ⇒ Medium
//	Pest              NDVI < 0.45 ⇒ Medium, plus humidity ≥ 75% ⇒ High
//	VegetationStress  NDVI < 0.45 with ET > 6 or max > 39°C ⇒ High;
//	                  NDVI < 0.5 with ET > 5 or max > 37°C ⇒ Medium
//
// Soil texture and climate zone then shift an elevated score up or down one
// step. The drought floors (dry soil, high evapotranspiration) apply last and
// cannot be shifted away.
//
// Confidence depends only on how many sources were present (none 60, one 65,
// two 78, three 88, four 95). Pest, Disease, SoilErosion, NutrientLeaching,
// ColdStress, and VegetationStress are inferred indirectly and lose 5 points,
// never dropping below 60.
//
// Absent signals are neutral: a rule whose inputs are missing does not fire.
// With no sources at all every category is Low at confidence 60.
package domain
