package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/agri-risk-service/internal/pipeline"
	"github.com/couchcryptid/agri-risk-service/internal/task"
	"github.com/couchcryptid/agri-risk-service/internal/workflow"
)

const maxBodyBytes = 1 << 20

// TaskAPI is the workflow surface served over HTTP. pipeline.Runner implements it.
type TaskAPI interface {
	Run(ctx context.Context, req workflow.Request) (*workflow.Result, error)
	Submit(ctx context.Context, req workflow.Request) (string, error)
	Status(id string) (task.Snapshot, error)
	Pause(id string) (task.Snapshot, error)
	Resume(id string) (task.Snapshot, error)
	Cancel(id string) (task.Snapshot, error)
}

type handlers struct {
	api    TaskAPI
	logger *slog.Logger
}

type submitResponse struct {
	TaskID    string `json:"task_id"`
	State     string `json:"state"`
	StatusURL string `json:"status_url"`
}

func (h *handlers) submit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	id, err := h.api.Submit(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{
		TaskID:    id,
		State:     string(task.StatePending),
		StatusURL: "/api/v1/tasks/" + id,
	})
}

func (h *handlers) run(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	res, err := h.api.Run(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	snap, err := h.api.Status(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handlers) control(op func(id string) (task.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := op(r.PathValue("id"))
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (workflow.Request, bool) {
	var req workflow.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return workflow.Request{}, false
	}
	return req, true
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, pipeline.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		h.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
