package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnavailable marks transport failures: no response was received.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized marks an explicit 401/403 from the server.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrLocalDataNotAvailable is returned when the local store cannot be opened.
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)

// ServerError is a non-2xx response, or a 2xx response with success:false.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("server error: status %d: %s", e.StatusCode, e.Message)
}

// mapStatus converts a failed response into ErrUnauthorized or *ServerError.
func mapStatus(resp *Response) error {
	msg := errorMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			return ErrUnauthorized
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	default:
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ServerError{StatusCode: resp.StatusCode, Message: msg}
	}
}

// rejected builds the error for a 2xx response carrying success:false.
func rejected(statusCode int, message string) error {
	if message == "" {
		message = "request rejected"
	}
	return &ServerError{StatusCode: statusCode, Message: message}
}

func errorMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		return env.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
