package domain

import "time"

// ForecastResult is the output of the forecast stage.
type ForecastResult struct {
	Location            Location                        `json:"location"`
	HorizonDays         int                             `json:"horizon_days"`
	OverallRisk         Level                           `json:"overall_risk"`
	Categories          map[RiskCategory]RiskAssessment `json:"categories"`
	SourcesUsed         []string                        `json:"sources_used"`
	Zone                ClimateZone                     `json:"climate_zone,omitempty"`
	MonitoringFrequency string                          `json:"monitoring_frequency"`
	GeneratedAt         time.Time                       `json:"generated_at"`
}

// NewForecastResult assembles a forecast from a fusion outcome.
func NewForecastResult(loc Location, horizonDays int, zone ClimateZone, f Fusion) *ForecastResult {
	return &ForecastResult{
		Location:            loc,
		HorizonDays:         horizonDays,
		OverallRisk:         f.Overall,
		Categories:          f.Categories,
		SourcesUsed:         f.Sources,
		Zone:                zone,
		MonitoringFrequency: MonitoringFrequency(horizonDays),
		GeneratedAt:         Now(),
	}
}

// MonitoringFrequency suggests how often to re-check conditions for a horizon.
func MonitoringFrequency(horizonDays int) string {
	if horizonDays <= 30 {
		return "Weekly"
	}
	return "Twice Weekly"
}
