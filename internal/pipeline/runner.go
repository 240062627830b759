package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/agri-risk-service/internal/observability"
	"github.com/couchcryptid/agri-risk-service/internal/task"
	"github.com/couchcryptid/agri-risk-service/internal/workflow"
)

// ErrInvalidRequest is returned for requests that cannot be run.
var ErrInvalidRequest = errors.New("invalid workflow request")

// Executor runs one workflow to completion.
type Executor interface {
	Execute(ctx context.Context, req workflow.Request) *workflow.Result
}

// ResultPublisher receives results of background runs.
type ResultPublisher interface {
	Publish(ctx context.Context, result *workflow.Result) error
}

// Runner is the entry point shared by the HTTP API and the Kafka intake. It
// runs workflows either inline or as controllable background tasks.
type Runner struct {
	exec      Executor
	tasks     *task.Controller
	publisher ResultPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRunner creates a Runner. A nil publisher disables result publication.
func NewRunner(exec Executor, tasks *task.Controller, publisher ResultPublisher, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{
		exec:      exec,
		tasks:     tasks,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Validate rejects requests without a location.
func Validate(req workflow.Request) error {
	if strings.TrimSpace(req.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalidRequest)
	}
	return nil
}

// Run executes req inline and returns its result.
func (r *Runner) Run(ctx context.Context, req workflow.Request) (*workflow.Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	req.TaskID = ""
	return r.exec.Execute(ctx, req), nil
}

// Submit starts req as a background task and returns its id immediately.
func (r *Runner) Submit(_ context.Context, req workflow.Request) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}
	id := r.tasks.Start(func(ctx context.Context, id string) (any, error) {
		req.TaskID = id
		res := r.exec.Execute(ctx, req)
		if res.Status == workflow.StatusCancelled {
			return nil, task.ErrCancelled
		}
		r.publish(ctx, res)
		return res, nil
	})
	return id, nil
}

func (r *Runner) publish(ctx context.Context, res *workflow.Result) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, res); err != nil {
		r.logger.Error("publish result failed", "task_id", res.TaskID, "error", err)
		return
	}
	r.metrics.ResultsPublished.Inc()
}

// Status returns a snapshot of a task.
func (r *Runner) Status(id string) (task.Snapshot, error) { return r.tasks.Status(id) }

// Pause pauses a running task at its next stage boundary.
func (r *Runner) Pause(id string) (task.Snapshot, error) { return r.tasks.Pause(id) }

// Resume resumes a paused task.
func (r *Runner) Resume(id string) (task.Snapshot, error) { return r.tasks.Resume(id) }

// Cancel cancels a task; its result is discarded.
func (r *Runner) Cancel(id string) (task.Snapshot, error) { return r.tasks.Cancel(id) }
