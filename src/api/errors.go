package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoResponse means the request never reached the server or no
	// response came back.
	ErrNoResponse = errors.New("No response from server")
	// ErrUnauthorized is returned for 401 responses. Session handling
	// belongs to the UnauthorizedHandler, not to callers.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDecode means a 2xx body did not match the resource's shape.
	ErrDecode = errors.New("unexpected response shape")
)

// APIError is a non-2xx response. Message is the body's "error" or "message"
// field and may be empty.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// ServerMessage returns the server-provided message carried by err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// errorBody covers the error shapes the backend emits.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

func parseErrorBody(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return apiErr
	}
	if len(eb.Error) > 0 {
		var s string
		if json.Unmarshal(eb.Error, &s) == nil {
			apiErr.Message = strings.TrimSpace(s)
		} else {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(eb.Error, &nested) == nil {
				apiErr.Message = strings.TrimSpace(nested.Message)
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(eb.Message)
	}
	return apiErr
}
