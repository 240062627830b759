// Package workflow sequences the analysis stages of one run, refining the
// forecast horizon until verification confidence clears the threshold or
// the iteration ceiling is reached.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
	"github.com/couchcryptid/agri-risk-service/internal/observability"
	"github.com/couchcryptid/agri-risk-service/internal/stage"
)

// stageOrchestrator labels records the orchestrator writes itself.
const stageOrchestrator = "Orchestrator"

var errStageReportedError = errors.New("stage reported error status")

// Gate blocks a run while its task is paused. A non-nil error means the run
// must stop.
type Gate interface {
	WaitIfPaused(ctx context.Context, taskID string) error
}

// Orchestrator drives forecast, verify, and plan for a single run.
type Orchestrator struct {
	forecast stage.Stage
	verify   stage.Stage
	plan     stage.Stage

	gate     Gate
	defaults Defaults
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGate sets the pause/cancel gate checked between stages.
func WithGate(g Gate) Option {
	return func(o *Orchestrator) { o.gate = g }
}

// WithDefaults overrides the request defaults.
func WithDefaults(d Defaults) Option {
	return func(o *Orchestrator) { o.defaults = d }
}

// WithClock sets the clock used for durations.
func WithClock(c clockwork.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// New creates an orchestrator over the three stages.
func New(forecast, verify, plan stage.Stage, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		forecast: forecast,
		verify:   verify,
		plan:     plan,
		defaults: Defaults{
			ConfidenceThreshold: DefaultConfidenceThreshold,
			MaxIterations:       DefaultMaxIterations,
			DaysAhead:           DefaultDaysAhead,
		},
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Execute runs the workflow for req and always returns a result. Forecast
// failure ends the run with StatusError; verify and plan failures are
// recorded as warnings. Each call owns its own history.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (res *Result) {
	p := normalize(req, o.defaults)
	r := &run{
		o:     o,
		p:     p,
		start: o.clock.Now(),
		res: &Result{
			SessionID: uuid.NewString(),
			TaskID:    p.taskID,
			Location:  p.location,
			Summary: Summary{
				ConfidenceThreshold: p.threshold,
				MaxIterations:       p.maxIter,
				History:             []domain.ExecutionRecord{},
			},
		},
	}

	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("workflow panicked", "session_id", r.res.SessionID, "panic", rec)
			r.res.Status = StatusError
			r.res.Message = fmt.Sprintf("internal error: %v", rec)
		}
		r.finish()
		res = r.res
	}()

	r.execute(ctx)
	return r.res
}

// run is the mutable state of one Execute call.
type run struct {
	o     *Orchestrator
	p     params
	start time.Time
	res   *Result
}

func (r *run) execute(ctx context.Context) {
	o, p := r.o, r.p
	rc := &stage.RunContext{
		Query:       p.location,
		FarmerEmail: p.email,
		HorizonDays: p.daysAhead,
	}

	horizon := p.daysAhead
	confidence := 0
	verifyFailed := false

	for iter := 1; ; iter++ {
		rc.Iteration = iter
		rc.HorizonDays = horizon
		r.res.Summary.Iterations = iter
		r.res.Summary.FinalHorizonDays = horizon

		if !r.checkpoint(ctx, stage.NameForecast) {
			return
		}
		fr, err := r.runStage(ctx, o.forecast, rc, true, map[string]any{
			"iteration":    iter,
			"horizon_days": horizon,
		})
		if r.interrupted(ctx, stage.NameForecast) {
			return
		}
		if err != nil {
			r.res.Status = StatusError
			r.res.Message = fmt.Sprintf("forecast failed: %v", err)
			return
		}
		rc.Forecast = fr.Forecast
		r.res.Forecast = fr.Forecast

		if !r.checkpoint(ctx, stage.NameVerify) {
			return
		}
		vr, err := r.runStage(ctx, o.verify, rc, false, map[string]any{"iteration": iter})
		if r.interrupted(ctx, stage.NameVerify) {
			return
		}
		if err != nil {
			confidence = 0
			verifyFailed = true
			rc.Verification = nil
			r.res.Verification = nil
		} else {
			confidence = vr.Confidence
			verifyFailed = false
			rc.Verification = vr.Verification
			r.res.Verification = vr.Verification
		}

		if confidence >= p.threshold || iter >= p.maxIter {
			break
		}

		next := min(horizon+RefineStepDays, MaxHorizonDays)
		r.record(domain.ExecutionRecord{
			Stage:  stageOrchestrator,
			Status: domain.RecordRefine,
			Metadata: map[string]any{
				"reason":                "LowConfidence",
				"confidence":            confidence,
				"threshold":             p.threshold,
				"previous_horizon_days": horizon,
				"new_horizon_days":      next,
			},
		})
		o.metrics.Refinements.Inc()
		o.logger.Info("confidence below threshold, refining",
			"session_id", r.res.SessionID,
			"confidence", confidence,
			"threshold", p.threshold,
			"horizon_days", next,
		)
		horizon = next
	}

	rc.Unverified = verifyFailed || confidence < p.threshold
	r.res.Unverified = rc.Unverified

	if !r.checkpoint(ctx, stage.NamePlan) {
		return
	}
	pr, err := r.runStage(ctx, o.plan, rc, false, map[string]any{})
	if r.interrupted(ctx, stage.NamePlan) {
		return
	}
	if err != nil {
		r.res.CommunicationFailed = true
	} else {
		r.res.Plan = pr.Plan
		if pr.Plan != nil && pr.Plan.Communication.Failed {
			r.res.CommunicationFailed = true
		}
	}

	r.res.Status = StatusSuccess
}

// runStage invokes one stage and appends its record. Errors from a fatal
// stage are recorded as Error, from any other stage as Warning.
func (r *run) runStage(ctx context.Context, s stage.Stage, rc *stage.RunContext, fatal bool, meta map[string]any) (stage.Result, error) {
	start := r.o.clock.Now()
	res, err := s.Run(ctx, rc)
	elapsed := r.o.clock.Since(start)

	if err == nil && res.Status == stage.StatusError {
		err = errStageReportedError
	}

	status := domain.RecordStatus(res.Status)
	switch {
	case err != nil && fatal:
		status = domain.RecordError
	case err != nil:
		status = domain.RecordWarning
	case status == "":
		status = domain.RecordSuccess
	}

	if err != nil {
		meta["error"] = err.Error()
		r.o.logger.Warn("stage failed",
			"session_id", r.res.SessionID,
			"stage", s.Name(),
			"fatal", fatal,
			"error", err,
		)
	} else {
		meta["confidence"] = res.Confidence
		if res.Forecast != nil {
			meta["overall_risk"] = res.Forecast.OverallRisk.String()
			meta["sources"] = len(res.Forecast.SourcesUsed)
		}
		if res.Verification != nil {
			meta["verification_status"] = string(res.Verification.Status)
		}
	}

	r.record(domain.ExecutionRecord{
		Stage:      s.Name(),
		Status:     status,
		DurationMs: elapsed.Milliseconds(),
		Metadata:   meta,
	})
	r.o.metrics.StageDuration.WithLabelValues(s.Name()).Observe(elapsed.Seconds())
	r.o.metrics.StageOutcomes.WithLabelValues(s.Name(), string(status)).Inc()
	return res, err
}

// checkpoint runs before each stage: it honors cancellation and blocks
// while the run's task is paused. It returns false when the run must stop.
func (r *run) checkpoint(ctx context.Context, next string) bool {
	if err := ctx.Err(); err != nil {
		r.cancelled(next, err)
		return false
	}
	if r.o.gate == nil || r.p.taskID == "" {
		return true
	}
	if err := r.o.gate.WaitIfPaused(ctx, r.p.taskID); err != nil {
		r.cancelled(next, err)
		return false
	}
	return true
}

// interrupted reports whether the context ended while a stage was running.
func (r *run) interrupted(ctx context.Context, stageName string) bool {
	if err := ctx.Err(); err != nil {
		r.cancelled(stageName, err)
		return true
	}
	return false
}

func (r *run) cancelled(stageName string, err error) {
	r.record(domain.ExecutionRecord{
		Stage:    stageName,
		Status:   domain.RecordCancelled,
		Metadata: map[string]any{"reason": err.Error()},
	})
	r.res.Status = StatusCancelled
	r.res.Message = fmt.Sprintf("cancelled at %s: %v", stageName, err)
}

func (r *run) record(rec domain.ExecutionRecord) {
	r.res.Summary.History = append(r.res.Summary.History, rec)
}

func (r *run) finish() {
	if r.res.Status == "" {
		r.res.Status = StatusError
	}
	r.res.Summary.TotalDurationMs = r.o.clock.Since(r.start).Milliseconds()
	r.o.metrics.WorkflowRuns.WithLabelValues(string(r.res.Status)).Inc()
	r.o.metrics.WorkflowIterations.Observe(float64(r.res.Summary.Iterations))
	r.o.logger.Info("workflow finished",
		"session_id", r.res.SessionID,
		"task_id", r.res.TaskID,
		"status", r.res.Status,
		"iterations", r.res.Summary.Iterations,
		"duration_ms", r.res.Summary.TotalDurationMs,
	)
}
