package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NetworkError reports a request that never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError reports a non-2xx response. Detail holds the backend's message
// when the body carried one.
type BackendError struct {
	Op     string
	Status int
	Detail string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var backendErr *BackendError
	return errors.As(err, &backendErr) && backendErr.Status == http.StatusNotFound
}

// DetailOrDefault returns the backend's message carried by err, or fallback
// when err is not a BackendError or the body had no message.
func DetailOrDefault(err error, fallback string) string {
	var backendErr *BackendError
	if errors.As(err, &backendErr) && backendErr.Detail != "" {
		return backendErr.Detail
	}
	return fallback
}

// parseDetail extracts a string "detail" field from an error body. Validation
// errors carry a list instead of a string and yield "".
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}
