package backend

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/buensabor/buensabor-web/internal/shared"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail json.RawMessage
}

func (e *APIError) Error() string {
	return shared.StatusMessage(e.Status)
}

// Unwrap maps well-known statuses onto shared sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case http.StatusForbidden:
		return shared.ErrForbidden
	case http.StatusNotFound:
		return shared.ErrNotFound
	default:
		return nil
	}
}

// HTTPStatus implements shared.ResponseError.
func (e *APIError) HTTPStatus() int {
	return e.Status
}

// ResponseDetail implements shared.ResponseError.
func (e *APIError) ResponseDetail() json.RawMessage {
	return e.Detail
}

// GoString keeps request coordinates visible in logs.
func (e *APIError) GoString() string {
	return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Path, e.Status)
}

func extractDetail(body []byte) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	if detail, ok := envelope["detail"]; ok {
		return detail
	}
	if _, ok := envelope["message"]; ok {
		return json.RawMessage(body)
	}
	return nil
}
