package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// GenericMessage is used when a failure carries no readable message.
const GenericMessage = "An error occurred"

// RequestError is the only error returned by Gateway.Do.
type RequestError struct {
	// StatusCode is zero for network-level failures.
	StatusCode int
	Message    string
	RequestID  string
	Err        error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Unauthorized reports whether the server rejected the session token.
func (e *RequestError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// AsRequestError unwraps err to a *RequestError.
func AsRequestError(err error) (*RequestError, bool) {
	var rerr *RequestError
	if errors.As(err, &rerr) {
		return rerr, true
	}
	return nil, false
}

// errorMessage pulls a readable message out of an error body. It looks at
// "message", then "error" as a string or as an object with "message".
func errorMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return GenericMessage
	}

	if msg := stringField(payload["message"]); msg != "" {
		return msg
	}
	if raw, ok := payload["error"]; ok {
		if msg := stringField(raw); msg != "" {
			return msg
		}
		var nested map[string]json.RawMessage
		if json.Unmarshal(raw, &nested) == nil {
			if msg := stringField(nested["message"]); msg != "" {
				return msg
			}
		}
	}
	return GenericMessage
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
