package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/agri-risk-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/agri-risk-service/internal/pipeline"
	"github.com/couchcryptid/agri-risk-service/internal/task"
	"github.com/couchcryptid/agri-risk-service/internal/workflow"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

// fakeAPI knows a single task, "t-1".
type fakeAPI struct {
	submitted []workflow.Request
	controls  []string
	runErr    error
}

func (f *fakeAPI) Run(_ context.Context, req workflow.Request) (*workflow.Result, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	if err := pipeline.Validate(req); err != nil {
		return nil, err
	}
	return &workflow.Result{Status: workflow.StatusSuccess, SessionID: "s-1", Location: req.Location}, nil
}

func (f *fakeAPI) Submit(_ context.Context, req workflow.Request) (string, error) {
	if err := pipeline.Validate(req); err != nil {
		return "", err
	}
	f.submitted = append(f.submitted, req)
	return "t-1", nil
}

func (f *fakeAPI) lookup(op, id string, state task.State) (task.Snapshot, error) {
	if id != "t-1" {
		return task.Snapshot{}, fmt.Errorf("%s %s: %w", op, id, task.ErrTaskNotFound)
	}
	f.controls = append(f.controls, op)
	return task.Snapshot{ID: id, State: state}, nil
}

func (f *fakeAPI) Status(id string) (task.Snapshot, error) { return f.lookup("status", id, task.StateRunning) }
func (f *fakeAPI) Pause(id string) (task.Snapshot, error)  { return f.lookup("pause", id, task.StatePaused) }
func (f *fakeAPI) Resume(id string) (task.Snapshot, error) { return f.lookup("resume", id, task.StateRunning) }
func (f *fakeAPI) Cancel(id string) (task.Snapshot, error) { return f.lookup("cancel", id, task.StateCancelled) }

func newTestServer(api httpadapter.TaskAPI, readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", api, &mockReadiness{err: readyErr}, slog.Default())
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(&fakeAPI{}, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReflectsChecker(t *testing.T) {
	rec := do(t, newTestServer(&fakeAPI{}, nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newTestServer(&fakeAPI{}, errors.New("not ready yet")), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAlwaysReady(t *testing.T) {
	assert.NoError(t, httpadapter.AlwaysReady.CheckReadiness(context.Background()))
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(&fakeAPI{}, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSubmitReturns202WithTaskID(t *testing.T) {
	api := &fakeAPI{}
	rec := do(t, newTestServer(api, nil), http.MethodPost, "/api/v1/workflows",
		`{"location":"Pune, Maharashtra","farmer_email":"farmer@example.com","days_ahead":21,"confidence_threshold":0}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "t-1", body["task_id"])
	assert.Equal(t, "/api/v1/tasks/t-1", body["status_url"])

	require.Len(t, api.submitted, 1)
	got := api.submitted[0]
	assert.Equal(t, "Pune, Maharashtra", got.Location)
	assert.Equal(t, 21, got.DaysAhead)
	require.NotNil(t, got.ConfidenceThreshold)
	assert.Equal(t, 0, *got.ConfidenceThreshold)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	srv := newTestServer(&fakeAPI{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"location":`},
		{name: "unknown field", body: `{"location":"Pune","colour":"green"}`},
		{name: "empty location", body: `{"location":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/v1/workflows", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestRunReturnsResult(t *testing.T) {
	rec := do(t, newTestServer(&fakeAPI{}, nil), http.MethodPost, "/api/v1/workflows/run", `{"location":"18.52,73.85"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var res workflow.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, workflow.StatusSuccess, res.Status)
	assert.Equal(t, "18.52,73.85", res.Location)
}

func TestRunInternalErrorIsHidden(t *testing.T) {
	rec := do(t, newTestServer(&fakeAPI{runErr: errors.New("db password wrong")}, nil),
		http.MethodPost, "/api/v1/workflows/run", `{"location":"Pune"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestTaskRoutes(t *testing.T) {
	tests := []struct {
		method string
		path   string
		state  task.State
	}{
		{http.MethodGet, "/api/v1/tasks/t-1", task.StateRunning},
		{http.MethodPost, "/api/v1/tasks/t-1/pause", task.StatePaused},
		{http.MethodPost, "/api/v1/tasks/t-1/resume", task.StateRunning},
		{http.MethodPost, "/api/v1/tasks/t-1/cancel", task.StateCancelled},
	}
	api := &fakeAPI{}
	srv := newTestServer(api, nil)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)
			var snap task.Snapshot
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
			assert.Equal(t, "t-1", snap.ID)
			assert.Equal(t, tt.state, snap.State)
		})
	}
	assert.Equal(t, []string{"status", "pause", "resume", "cancel"}, api.controls)
}

func TestUnknownTaskIs404(t *testing.T) {
	srv := newTestServer(&fakeAPI{}, nil)
	for _, path := range []string{"/api/v1/tasks/nope/pause", "/api/v1/tasks/nope/resume", "/api/v1/tasks/nope/cancel"} {
		rec := do(t, srv, http.MethodPost, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec := do(t, srv, http.MethodGet, "/api/v1/tasks/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
