package crmapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// ErrSessionExpired is returned when the remote service rejects the access
// token and a refresh did not produce a usable one.
var ErrSessionExpired = errors.New("session expired")

const (
	msgRequestFailed = "Request failed"
	msgUnparsable    = "An error occurred"
	msgExpired       = "Your session has expired, please sign in again"
)

// APIError is any non-2xx answer from the remote service.
type APIError struct {
	Status int
	// Detail is the server-supplied "detail" message, if any.
	Detail string
	// Fields holds validation messages keyed by payload field.
	Fields map[string][]string

	parsed bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm api: http %d: %s", e.Status, e.Message())
}

// Message is the text shown to the user.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if msg := e.firstFieldError(); msg != "" {
		return msg
	}
	if !e.parsed {
		return msgUnparsable
	}
	return msgRequestFailed
}

// FieldError returns the first message for one payload field.
func (e *APIError) FieldError(field string) string {
	if msgs := e.Fields[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e *APIError) firstFieldError() string {
	if len(e.Fields) == 0 {
		return ""
	}
	if msg := e.FieldError("non_field_errors"); msg != "" {
		return msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msg := e.FieldError(k); msg != "" {
			return msg
		}
	}
	return ""
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return apiErr
	}
	apiErr.parsed = true

	for key, val := range raw {
		if key == "detail" {
			var detail string
			if json.Unmarshal(val, &detail) == nil {
				apiErr.Detail = detail
			}
			continue
		}

		var list []string
		if json.Unmarshal(val, &list) == nil {
			if len(list) > 0 {
				apiErr.addField(key, list...)
			}
			continue
		}
		var single string
		if json.Unmarshal(val, &single) == nil && single != "" {
			apiErr.addField(key, single)
		}
	}
	return apiErr
}

func (e *APIError) addField(key string, msgs ...string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[key] = append(e.Fields[key], msgs...)
}

// Message turns any gateway error into the notification text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrSessionExpired) {
		return msgExpired
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return msgRequestFailed
}

// IsNotFound reports whether err is a 404 from the remote service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsForbidden reports whether err is a 403 from the remote service.
func IsForbidden(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden
}
