package stage

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
)

var templateActions = map[domain.RiskCategory]string{
	domain.Drought:          "Schedule supplemental irrigation and mulch beds to conserve soil moisture",
	domain.Flood:            "Clear drainage channels and move stored inputs to higher ground",
	domain.Pest:             "Scout fields twice weekly and set pheromone traps at field edges",
	domain.Disease:          "Apply a preventive fungicide and open the canopy to improve airflow",
	domain.HeatStress:       "Irrigate in the early morning and shade heat-sensitive crops",
	domain.SoilErosion:      "Mulch or plant cover crops on exposed slopes",
	domain.NutrientLeaching: "Split fertilizer applications and test soil nitrogen after heavy rain",
	domain.ColdStress:       "Cover seedlings overnight and delay transplanting",
	domain.VegetationStress: "Check irrigation uniformity and crop nutrition in stressed blocks",
}

var expectedOutcomes = map[domain.Priority]string{
	domain.P1: "Limit crop loss from %s within 48 hours",
	domain.P2: "Contain %s risk before it escalates",
	domain.P3: "Early detection of emerging %s conditions",
}

var resourceKeywords = []struct {
	keywords []string
	resource string
}{
	{[]string{"irrig", "soil moisture"}, "Irrigation System"},
	{[]string{"pest"}, "Pest Monitoring Kit"},
	{[]string{"disease", "fung"}, "Disease Control Sprayer"},
	{[]string{"nutrient", "leach"}, "Soil Testing Kit"},
	{[]string{"erosion"}, "Mulching Material"},
}

const generalResource = "General Farm Tools"

func newAction(c domain.RiskCategory, a domain.RiskAssessment) domain.Action {
	priority, deadline := domain.PriorityFor(a.Level)
	text := templateActions[c]
	if a.Level == domain.Low {
		text = fmt.Sprintf("Continue routine monitoring for %s", strings.ToLower(c.String()))
	}
	action := domain.Action{
		Text:            text,
		Category:        &c,
		Level:           a.Level,
		Confidence:      a.Confidence,
		Drivers:         a.Drivers,
		Deadline:        deadline,
		ExpectedOutcome: fmt.Sprintf(expectedOutcomes[priority], strings.ToLower(c.String())),
	}
	action.Resources = inferResources(action)
	return action
}

// inferResources picks equipment from keywords in the action and its drivers.
func inferResources(a domain.Action) []string {
	var b strings.Builder
	if a.Category != nil {
		b.WriteString(a.Category.String())
		b.WriteByte(' ')
	}
	b.WriteString(a.Text)
	for _, d := range a.Drivers {
		b.WriteByte(' ')
		b.WriteString(d)
	}
	text := strings.ToLower(b.String())

	var out []string
	for _, rk := range resourceKeywords {
		for _, kw := range rk.keywords {
			if strings.Contains(text, kw) {
				out = append(out, rk.resource)
				break
			}
		}
	}
	if len(out) == 0 {
		out = []string{generalResource}
	}
	return out
}

// fillDefaults gives every empty bucket a baseline action.
func fillDefaults(p *domain.ActionPlan) {
	if len(p.P1) == 0 {
		p.P1 = []domain.Action{defaultAction("24-48h", "No urgent risks detected; keep emergency inputs and contacts ready")}
	}
	if len(p.P2) == 0 {
		p.P2 = []domain.Action{defaultAction("7 days", "Review field records and plan next week's operations")}
	}
	if len(p.P3) == 0 {
		p.P3 = []domain.Action{defaultAction("Continuous", "Continue routine crop and weather monitoring")}
	}
}

func defaultAction(deadline, text string) domain.Action {
	return domain.Action{
		Text:            text,
		Level:           domain.Low,
		Deadline:        deadline,
		Resources:       []string{generalResource},
		ExpectedOutcome: "Maintain readiness",
	}
}
