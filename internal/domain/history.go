package domain

// RecordStatus is the outcome recorded for one step of a run.
type RecordStatus string

const (
	RecordSuccess        RecordStatus = "Success"
	RecordPartialSuccess RecordStatus = "PartialSuccess"
	RecordError          RecordStatus = "Error"
	RecordWarning        RecordStatus = "Warning"
	RecordRefine         RecordStatus = "Refine"
	RecordCancelled      RecordStatus = "Cancelled"
)

// ExecutionRecord is one entry in a run's history. Records are appended in
// the order the steps happened.
type ExecutionRecord struct {
	Stage      string         `json:"stage"`
	Status     RecordStatus   `json:"status"`
	DurationMs int64          `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
