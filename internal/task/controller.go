// Package task runs workflow invocations as background units that callers
// can pause, resume, cancel, and query by id.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/agri-risk-service/internal/observability"
)

var (
	// ErrTaskNotFound is returned for ids the controller does not know.
	ErrTaskNotFound = errors.New("task not found")
	// ErrCancelled is returned to a work unit whose task was cancelled.
	ErrCancelled = errors.New("task cancelled")
)

// State is a task's lifecycle state.
type State string

const (
	StatePending   State = "Pending"
	StateRunning   State = "Running"
	StatePaused    State = "Paused"
	StateCompleted State = "Completed"
	StateError     State = "Error"
	StateCancelled State = "Cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError || s == StateCancelled
}

// WorkUnit is the body of a task. It should call WaitIfPaused at safe points.
type WorkUnit func(ctx context.Context, id string) (any, error)

// Snapshot is a point-in-time copy of a task.
type Snapshot struct {
	ID        string    `json:"task_id"`
	State     State     `json:"state"`
	Paused    bool      `json:"paused"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type record struct {
	id    string
	state State

	// resume is non-nil while paused; closing it releases waiters.
	resume chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	result    any
	err       string
	createdAt time.Time
	updatedAt time.Time
}

// Controller owns the task registry. All methods are safe for concurrent use.
type Controller struct {
	mu    sync.Mutex
	tasks map[string]*record

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	newID   func() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock used for task timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// NewController creates an empty controller.
func NewController(logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Controller {
	c := &Controller{
		tasks:   make(map[string]*record),
		clock:   clockwork.NewRealClock(),
		logger:  logger,
		metrics: metrics,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start registers a new Pending task and runs work in the background. The
// task's context is independent of any request context.
func (c *Controller) Start(work WorkUnit) string {
	ctx, cancel := context.WithCancel(context.Background())
	now := c.clock.Now()
	rec := &record{
		id:        c.newID(),
		state:     StatePending,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		createdAt: now,
		updatedAt: now,
	}

	c.mu.Lock()
	c.tasks[rec.id] = rec
	c.mu.Unlock()

	c.metrics.TasksStarted.Inc()
	c.metrics.TasksActive.Inc()
	c.logger.Info("task started", "task_id", rec.id)

	go c.run(rec, work)
	return rec.id
}

func (c *Controller) run(rec *record, work WorkUnit) {
	defer close(rec.done)

	c.mu.Lock()
	if rec.state == StatePending {
		c.setState(rec, StateRunning)
	}
	c.mu.Unlock()

	result, err := safeRun(rec.ctx, rec.id, work)
	c.finish(rec, result, err)
}

func safeRun(ctx context.Context, id string, work WorkUnit) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return work(ctx, id)
}

func (c *Controller) finish(rec *record, result any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A cancelled task stays cancelled even if its work unit returns a result.
	if rec.state.Terminal() {
		return
	}

	switch {
	case err == nil:
		rec.result = result
		c.terminate(rec, StateCompleted)
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		c.terminate(rec, StateCancelled)
	default:
		rec.err = err.Error()
		c.terminate(rec, StateError)
	}
}

// terminate moves rec to a terminal state. Callers hold c.mu.
func (c *Controller) terminate(rec *record, s State) {
	c.setState(rec, s)
	if rec.resume != nil {
		close(rec.resume)
		rec.resume = nil
	}
	rec.cancel()
	c.metrics.TasksFinished.WithLabelValues(string(s)).Inc()
	c.metrics.TasksActive.Dec()
	c.logger.Info("task finished", "task_id", rec.id, "state", s, "error", rec.err)
}

func (c *Controller) setState(rec *record, s State) {
	rec.state = s
	rec.updatedAt = c.clock.Now()
}

// Pause closes the task's gate; the work unit blocks at its next
// WaitIfPaused. Pausing a paused or finished task is a no-op.
func (c *Controller) Pause(id string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.tasks[id]
	if !ok {
		return Snapshot{}, ErrTaskNotFound
	}
	if rec.state == StatePending || rec.state == StateRunning {
		rec.resume = make(chan struct{})
		c.setState(rec, StatePaused)
		c.logger.Info("task paused", "task_id", id)
	}
	return rec.snapshot(), nil
}

// Resume reopens the gate of a paused task. Resuming any other task is a no-op.
func (c *Controller) Resume(id string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.tasks[id]
	if !ok {
		return Snapshot{}, ErrTaskNotFound
	}
	if rec.state == StatePaused {
		close(rec.resume)
		rec.resume = nil
		c.setState(rec, StateRunning)
		c.logger.Info("task resumed", "task_id", id)
	}
	return rec.snapshot(), nil
}

// Cancel moves the task to Cancelled and signals its work unit, which
// observes it at the next gate check. Cancelling a finished task is a no-op.
func (c *Controller) Cancel(id string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.tasks[id]
	if !ok {
		return Snapshot{}, ErrTaskNotFound
	}
	if !rec.state.Terminal() {
		c.terminate(rec, StateCancelled)
	}
	return rec.snapshot(), nil
}

// CancelAll cancels every unfinished task.
func (c *Controller) CancelAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rec := range c.tasks {
		if !rec.state.Terminal() {
			c.terminate(rec, StateCancelled)
		}
	}
}

// Status returns a snapshot of the task.
func (c *Controller) Status(id string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.tasks[id]
	if !ok {
		return Snapshot{}, ErrTaskNotFound
	}
	return rec.snapshot(), nil
}

// Done returns a channel closed when the task's work unit has returned.
func (c *Controller) Done(id string) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return rec.done, nil
}

// WaitIfPaused blocks while the task is paused. It returns ErrCancelled once
// the task is cancelled and ctx.Err() if ctx ends first.
func (c *Controller) WaitIfPaused(ctx context.Context, id string) error {
	for {
		c.mu.Lock()
		rec, ok := c.tasks[id]
		if !ok {
			c.mu.Unlock()
			return ErrTaskNotFound
		}
		if rec.state == StateCancelled {
			c.mu.Unlock()
			return ErrCancelled
		}
		resume := rec.resume
		c.mu.Unlock()

		if resume == nil {
			return nil
		}

		select {
		case <-resume:
			// Re-check: the gate also opens on cancellation.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (r *record) snapshot() Snapshot {
	return Snapshot{
		ID:        r.id,
		State:     r.state,
		Paused:    r.resume != nil,
		Result:    r.result,
		Error:     r.err,
		CreatedAt: r.createdAt,
		UpdatedAt: r.updatedAt,
	}
}
