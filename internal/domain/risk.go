package domain

import "fmt"

// RiskCategory is one of the fixed agronomic hazards the service assesses.
type RiskCategory int

const (
	Drought RiskCategory = iota
	Flood
	Pest
	Disease
	HeatStress
	SoilErosion
	NutrientLeaching
	ColdStress
	VegetationStress

	numCategories int = iota
)

// AllCategories lists every category in canonical order.
var AllCategories = [numCategories]RiskCategory{
	Drought, Flood, Pest, Disease, HeatStress,
	SoilErosion, NutrientLeaching, ColdStress, VegetationStress,
}

var categoryNames = [numCategories]string{
	Drought:          "Drought",
	Flood:            "Flood",
	Pest:             "Pest",
	Disease:          "Disease",
	HeatStress:       "HeatStress",
	SoilErosion:      "SoilErosion",
	NutrientLeaching: "NutrientLeaching",
	ColdStress:       "ColdStress",
	VegetationStress: "VegetationStress",
}

func (c RiskCategory) String() string {
	if c < 0 || int(c) >= numCategories {
		return fmt.Sprintf("RiskCategory(%d)", int(c))
	}
	return categoryNames[c]
}

// MarshalText lets categories key JSON objects by name.
func (c RiskCategory) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= numCategories {
		return nil, fmt.Errorf("unknown risk category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText parses a category name.
func (c *RiskCategory) UnmarshalText(b []byte) error {
	for i, name := range categoryNames {
		if name == string(b) {
			*c = RiskCategory(i)
			return nil
		}
	}
	return fmt.Errorf("unknown risk category %q", b)
}

// Level is an ordered risk severity. Comparisons follow declaration order.
type Level int

const (
	Low Level = iota
	Medium
	High
	Critical
)

var levelNames = [...]string{Low: "Low", Medium: "Medium", High: "High", Critical: "Critical"}

func (l Level) String() string {
	if l < Low || l > Critical {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) MarshalText() ([]byte, error) {
	if l < Low || l > Critical {
		return nil, fmt.Errorf("unknown risk level %d", int(l))
	}
	return []byte(levelNames[l]), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	for i, name := range levelNames {
		if name == string(b) {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("unknown risk level %q", b)
}

// RiskAssessment is the fused outcome for a single category.
type RiskAssessment struct {
	Level      Level    `json:"level"`
	Confidence int      `json:"confidence"`
	Drivers    []string `json:"drivers"`
}

// MaxLevel returns the highest level across the given assessments, or Low
// when there are none.
func MaxLevel(categories map[RiskCategory]RiskAssessment) Level {
	highest := Low
	for _, a := range categories {
		if a.Level > highest {
			highest = a.Level
		}
	}
	return highest
}
