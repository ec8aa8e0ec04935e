package commands

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
)

// ErrRejected marks a request the server understood and refused
// (success=false in the response envelope)
var ErrRejected = errors.New("command rejected")

// HTTPError is a non-2xx response
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	switch {
	case e.Message == "":
		return fmt.Sprintf("HTTP error: %d", e.StatusCode)
	case e.Code != "":
		return fmt.Sprintf("HTTP error: %d (%s: %s)", e.StatusCode, e.Code, e.Message)
	default:
		return fmt.Sprintf("HTTP error: %d (%s)", e.StatusCode, e.Message)
	}
}

// Temporary reports whether the failure is on the server side
func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// parseHTTPError extracts the most specific message the body offers:
// {"error":{"code","message"}}, {"error":"..."}, {"message":"..."} or the
// raw text
func parseHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{StatusCode: status}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return e
	}

	var parsed struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := api.Unmarshal(body, &parsed); err != nil {
		e.Message = string(body)
		return e
	}

	switch v := parsed.Error.(type) {
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			e.Message = msg
			e.Code, _ = v["code"].(string)
			return e
		}
	case string:
		e.Message = v
		return e
	}

	if parsed.Message != "" {
		e.Message = parsed.Message
		return e
	}
	e.Message = string(body)
	return e
}

func rejected(op, reason string) error {
	if reason == "" {
		reason = "unknown error"
	}
	return fmt.Errorf("%s: %w: %s", op, ErrRejected, reason)
}

// countsAgainstServer decides what the breaker treats as an outage
func countsAgainstServer(err error) bool {
	if err == nil || errors.Is(err, ErrRejected) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Temporary()
	}
	return true
}
