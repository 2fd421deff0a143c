package providers

import (
	"encoding/json"
	"fmt"
)

// Error types for a failed messages exchange
type (
	// TransportError is a non-2xx reply, or a connection that never produced one (StatusCode 0)
	TransportError struct {
		StatusCode int
		Body       string
		ErrType    string // from an Anthropic-style error envelope, if any
		ErrMessage string
		Err        error
	}

	// TimeoutError means no response arrived within the budget
	TimeoutError struct {
		Timeout string
		Err     error
	}

	// MalformedResponseError means the body could not be decoded as a messages response
	MalformedResponseError struct {
		Body string
		Err  error
	}
)

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	if e.ErrType != "" {
		return fmt.Sprintf("transport error: HTTP %d (%s): %s", e.StatusCode, e.ErrType, e.ErrMessage)
	}
	return fmt.Sprintf("transport error: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout error: no response within %s", e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// newStatusError builds a TransportError, lifting type and message out of an error envelope
func newStatusError(status int, body []byte) *TransportError {
	te := &TransportError{StatusCode: status, Body: string(body)}

	var envelope struct {
		Type  string `json:"type"`
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Type == "error" {
		te.ErrType = envelope.Error.Type
		te.ErrMessage = envelope.Error.Message
	}
	return te
}
