package workflow

import "github.com/couchcryptid/agri-risk-service/internal/domain"

// Limits and defaults for a workflow run.
const (
	DefaultConfidenceThreshold = 75
	DefaultMaxIterations       = 2
	DefaultDaysAhead           = 30

	MaxIterationsLimit = 5
	MaxHorizonDays     = 60
	RefineStepDays     = 7
)

// Request describes one workflow invocation.
type Request struct {
	Location      string `json:"location"`
	FarmerEmail   string `json:"farmer_email,omitempty"`
	DaysAhead     int    `json:"days_ahead,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty"`

	// ConfidenceThreshold is optional so that zero can be requested explicitly.
	ConfidenceThreshold *int `json:"confidence_threshold,omitempty"`

	// TaskID links the run to a task whose pause gate is checked between stages.
	TaskID string `json:"-"`
}

// Defaults fill in request fields left unset.
type Defaults struct {
	ConfidenceThreshold int
	MaxIterations       int
	DaysAhead           int
}

// params are a request after defaults and bounds are applied.
type params struct {
	location  string
	email     string
	daysAhead int
	threshold int
	maxIter   int
	taskID    string
}

func normalize(req Request, d Defaults) params {
	threshold := d.ConfidenceThreshold
	if req.ConfidenceThreshold != nil {
		threshold = *req.ConfidenceThreshold
	}
	maxIter := req.MaxIterations
	if maxIter == 0 {
		maxIter = d.MaxIterations
	}
	days := req.DaysAhead
	if days <= 0 {
		days = d.DaysAhead
	}
	return params{
		location:  req.Location,
		email:     req.FarmerEmail,
		daysAhead: clamp(days, 1, MaxHorizonDays),
		threshold: clamp(threshold, 0, 100),
		maxIter:   clamp(maxIter, 1, MaxIterationsLimit),
		taskID:    req.TaskID,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// Status is the top-level outcome of a run.
type Status string

const (
	StatusSuccess   Status = "Success"
	StatusError     Status = "Error"
	StatusCancelled Status = "Cancelled"
)

// Summary describes how a run unfolded.
type Summary struct {
	TotalDurationMs     int64                    `json:"total_duration_ms"`
	Iterations          int                      `json:"iterations"`
	ConfidenceThreshold int                      `json:"confidence_threshold"`
	MaxIterations       int                      `json:"max_iterations"`
	FinalHorizonDays    int                      `json:"final_horizon_days"`
	History             []domain.ExecutionRecord `json:"history"`
}

// Result is the outcome of one workflow invocation. It is always well formed,
// including when a stage fails fatally.
type Result struct {
	Status              Status                     `json:"status"`
	SessionID           string                     `json:"session_id"`
	TaskID              string                     `json:"task_id,omitempty"`
	Location            string                     `json:"location"`
	Message             string                     `json:"message,omitempty"`
	Forecast            *domain.ForecastResult     `json:"forecast,omitempty"`
	Verification        *domain.VerificationResult `json:"verification,omitempty"`
	Plan                *domain.ActionPlan         `json:"plan,omitempty"`
	Unverified          bool                       `json:"unverified,omitempty"`
	CommunicationFailed bool                       `json:"communication_failed,omitempty"`
	Summary             Summary                    `json:"execution_summary"`
}
