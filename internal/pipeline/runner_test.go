package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/agri-risk-service/internal/pipeline"
	"github.com/couchcryptid/agri-risk-service/internal/task"
	"github.com/couchcryptid/agri-risk-service/internal/workflow"
)

type execFunc func(ctx context.Context, req workflow.Request) *workflow.Result

func (f execFunc) Execute(ctx context.Context, req workflow.Request) *workflow.Result {
	return f(ctx, req)
}

type recordingPublisher struct {
	mu      sync.Mutex
	results []*workflow.Result
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, r *workflow.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.results = append(p.results, r)
	return nil
}

func (p *recordingPublisher) published() []*workflow.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*workflow.Result(nil), p.results...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoExec(status workflow.Status) execFunc {
	return func(_ context.Context, req workflow.Request) *workflow.Result {
		return &workflow.Result{Status: status, TaskID: req.TaskID, Location: req.Location}
	}
}

func waitDone(t *testing.T, r *pipeline.Runner, tasks *task.Controller, id string) task.Snapshot {
	t.Helper()
	done, err := tasks.Done(id)
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
	snap, err := r.Status(id)
	require.NoError(t, err)
	return snap
}

func TestRunner_SubmitCompletesAndPublishes(t *testing.T) {
	metrics := newTestMetrics()
	tasks := task.NewController(discardLogger(), metrics)
	pub := &recordingPublisher{}
	r := pipeline.NewRunner(echoExec(workflow.StatusSuccess), tasks, pub, discardLogger(), metrics)

	id, err := r.Submit(context.Background(), workflow.Request{Location: "Pune"})
	require.NoError(t, err)

	snap := waitDone(t, r, tasks, id)
	assert.Equal(t, task.StateCompleted, snap.State)
	res, ok := snap.Result.(*workflow.Result)
	require.True(t, ok)
	assert.Equal(t, id, res.TaskID, "task id is threaded into the request")

	published := pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, id, published[0].TaskID)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResultsPublished))
}

func TestRunner_WorkflowErrorStillCompletesTask(t *testing.T) {
	metrics := newTestMetrics()
	tasks := task.NewController(discardLogger(), metrics)
	r := pipeline.NewRunner(echoExec(workflow.StatusError), tasks, nil, discardLogger(), metrics)

	id, err := r.Submit(context.Background(), workflow.Request{Location: "Pune"})
	require.NoError(t, err)

	snap := waitDone(t, r, tasks, id)
	assert.Equal(t, task.StateCompleted, snap.State)
	res := snap.Result.(*workflow.Result)
	assert.Equal(t, workflow.StatusError, res.Status)
}

func TestRunner_CancelledWorkflowCancelsTask(t *testing.T) {
	metrics := newTestMetrics()
	tasks := task.NewController(discardLogger(), metrics)
	pub := &recordingPublisher{}
	r := pipeline.NewRunner(echoExec(workflow.StatusCancelled), tasks, pub, discardLogger(), metrics)

	id, err := r.Submit(context.Background(), workflow.Request{Location: "Pune"})
	require.NoError(t, err)

	snap := waitDone(t, r, tasks, id)
	assert.Equal(t, task.StateCancelled, snap.State)
	assert.Nil(t, snap.Result)
	assert.Empty(t, pub.published())
}

func TestRunner_PublishFailureKeepsResult(t *testing.T) {
	metrics := newTestMetrics()
	tasks := task.NewController(discardLogger(), metrics)
	pub := &recordingPublisher{err: errors.New("broker down")}
	r := pipeline.NewRunner(echoExec(workflow.StatusSuccess), tasks, pub, discardLogger(), metrics)

	id, err := r.Submit(context.Background(), workflow.Request{Location: "Pune"})
	require.NoError(t, err)

	snap := waitDone(t, r, tasks, id)
	assert.Equal(t, task.StateCompleted, snap.State)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ResultsPublished))
}

func TestRunner_RunInline(t *testing.T) {
	metrics := newTestMetrics()
	tasks := task.NewController(discardLogger(), metrics)
	r := pipeline.NewRunner(echoExec(workflow.StatusSuccess), tasks, nil, discardLogger(), metrics)

	res, err := r.Run(context.Background(), workflow.Request{Location: "Pune", TaskID: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusSuccess, res.Status)
	assert.Empty(t, res.TaskID, "inline runs have no task")
}

func TestRunner_RejectsEmptyLocation(t *testing.T) {
	metrics := newTestMetrics()
	tasks := task.NewController(discardLogger(), metrics)
	r := pipeline.NewRunner(echoExec(workflow.StatusSuccess), tasks, nil, discardLogger(), metrics)

	_, err := r.Submit(context.Background(), workflow.Request{Location: " "})
	require.ErrorIs(t, err, pipeline.ErrInvalidRequest)

	_, err = r.Run(context.Background(), workflow.Request{})
	require.ErrorIs(t, err, pipeline.ErrInvalidRequest)
}

func TestRunner_UnknownTask(t *testing.T) {
	metrics := newTestMetrics()
	tasks := task.NewController(discardLogger(), metrics)
	r := pipeline.NewRunner(echoExec(workflow.StatusSuccess), tasks, nil, discardLogger(), metrics)

	_, err := r.Pause("nope")
	require.ErrorIs(t, err, task.ErrTaskNotFound)
	_, err = r.Resume("nope")
	require.ErrorIs(t, err, task.ErrTaskNotFound)
	_, err = r.Cancel("nope")
	require.ErrorIs(t, err, task.ErrTaskNotFound)
}
