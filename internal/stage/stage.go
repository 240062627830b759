// Package stage implements the three analysis stages of a workflow run:
// forecast, verify, and plan. Each wraps its collaborator calls behind the
// same Stage contract so the orchestrator can sequence them uniformly.
package stage

import (
	"context"
	"errors"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
)

// Stage names as they appear in execution records.
const (
	NameForecast = "Forecast"
	NameVerify   = "Verify"
	NamePlan     = "Plan"
)

// Collaborator names used for metrics and logs.
const (
	collabGeocoder  = "geocoder"
	collabWeather   = "weather"
	collabSatellite = "satellite"
	collabClimate   = "climate"
	collabSoil      = "soil"
	collabSearch    = "search"
	collabAdvisory  = "advisory"
	collabNotifier  = "notifier"
)

var (
	// ErrLocationNotFound is returned when a place name cannot be resolved.
	ErrLocationNotFound = errors.New("location not found")
	// ErrNoGeocoder is returned for place names when no geocoder is configured.
	ErrNoGeocoder = errors.New("no geocoder configured for place names")
	// ErrNoForecast is returned by stages that need a forecast to work on.
	ErrNoForecast = errors.New("no forecast available")
)

// Status is a stage's own outcome.
type Status string

const (
	StatusSuccess        Status = "Success"
	StatusPartialSuccess Status = "PartialSuccess"
	StatusError          Status = "Error"
)

// RunContext is the state one workflow invocation threads through its
// stages. It is owned by a single run and never shared.
type RunContext struct {
	Query       string
	FarmerEmail string
	HorizonDays int
	Iteration   int

	// Unverified is set when the plan is produced without a passing verification.
	Unverified bool

	Location     *domain.Location
	Forecast     *domain.ForecastResult
	Verification *domain.VerificationResult
}

// Result is what a stage hands back. Only the payload matching the stage
// is set.
type Result struct {
	Status     Status
	Confidence int

	Forecast     *domain.ForecastResult
	Verification *domain.VerificationResult
	Plan         *domain.ActionPlan
}

// Stage is one step of the workflow. Run may be called again with the same
// RunContext and produces an equivalent result.
type Stage interface {
	Name() string
	Run(ctx context.Context, rc *RunContext) (Result, error)
}
