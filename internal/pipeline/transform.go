package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/agri-risk-service/internal/domain"
	"github.com/couchcryptid/agri-risk-service/internal/workflow"
)

// DecodeRequest parses a request-topic message into a workflow request. The
// farmer_email header, when present, fills a missing body field.
func DecodeRequest(raw domain.RawEvent) (workflow.Request, error) {
	var req workflow.Request
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return workflow.Request{}, fmt.Errorf("%w: decode: %v", ErrInvalidRequest, err)
	}
	if req.FarmerEmail == "" {
		req.FarmerEmail = raw.Headers["farmer_email"]
	}
	if err := Validate(req); err != nil {
		return workflow.Request{}, err
	}
	return req, nil
}
