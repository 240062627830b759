package domain

import "time"

// Priority buckets for actions.
type Priority string

const (
	P1 Priority = "P1"
	P2 Priority = "P2"
	P3 Priority = "P3"
)

// PriorityFor maps a risk level to its action bucket and deadline.
func PriorityFor(l Level) (Priority, string) {
	switch {
	case l >= High:
		return P1, "24-48h"
	case l == Medium:
		return P2, "7 days"
	default:
		return P3, "Continuous"
	}
}

// Action is a single recommended intervention.
type Action struct {
	Text            string        `json:"text"`
	Category        *RiskCategory `json:"category,omitempty"`
	Level           Level         `json:"level"`
	Confidence      int           `json:"confidence"`
	Drivers         []string      `json:"drivers,omitempty"`
	Deadline        string        `json:"deadline"`
	Resources       []string      `json:"resources"`
	ExpectedOutcome string        `json:"expected_outcome"`
}

// DeliveryStatus describes what happened to the farmer notification.
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "Sent"
	DeliverySkipped DeliveryStatus = "Skipped"
	DeliveryFailed  DeliveryStatus = "Failed"
)

// CommunicationStatus records notification delivery for a plan.
type CommunicationStatus struct {
	Status  DeliveryStatus `json:"status"`
	Failed  bool           `json:"failed"`
	Message string         `json:"message,omitempty"`
}

// ActionPlan is the output of the plan stage.
type ActionPlan struct {
	P1                []Action            `json:"p1"`
	P2                []Action            `json:"p2"`
	P3                []Action            `json:"p3"`
	AdvisoryResources []SearchHit         `json:"advisory_resources,omitempty"`
	Unverified        bool                `json:"unverified,omitempty"`
	Communication     CommunicationStatus `json:"communication"`
	GeneratedAt       time.Time           `json:"generated_at"`
}

// Stamp sets the generation time from the package clock.
func (p *ActionPlan) Stamp() {
	p.GeneratedAt = Now()
}
