package domain

import "time"

// VerificationStatus grades how well a forecast is corroborated.
type VerificationStatus string

const (
	Confirmed   VerificationStatus = "Confirmed"
	NeedsReview VerificationStatus = "NeedsReview"
	Unverified  VerificationStatus = "Unverified"
)

// CategoryVerification is the per-category verdict.
type CategoryVerification struct {
	Confidence int      `json:"confidence"`
	Verified   bool     `json:"verified"`
	Drivers    []string `json:"drivers"`
}

// VerificationResult is the output of the verify stage.
type VerificationResult struct {
	Score               int                                   `json:"score"`
	Status              VerificationStatus                    `json:"status"`
	SourceCount         int                                   `json:"source_count"`
	SupportingEvidence  []string                              `json:"supporting_evidence"`
	ConflictingEvidence []string                              `json:"conflicting_evidence"`
	OpenSources         []SearchHit                           `json:"open_sources,omitempty"`
	PerCategory         map[RiskCategory]CategoryVerification `json:"per_category"`
	Recommendation      string                                `json:"recommendation"`
	VerifiedAt          time.Time                             `json:"verified_at"`
}
