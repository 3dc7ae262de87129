// Package forms binds the create and edit forms to url.Values, checks the
// required fields and builds the JSON payloads sent upstream.
package forms

import (
	"net/url"
	"strconv"
	"strings"
)

// Errors maps a field name to its message. The general key holds messages
// that belong to no single field.
type Errors map[string]string

const General = "_general"

func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Any() bool { return len(e) > 0 }

// First returns one message for a flash notification, preferring general
// errors and then the order of fields.
func (e Errors) First(fields ...string) string {
	if msg, ok := e[General]; ok {
		return msg
	}
	for _, f := range fields {
		if msg, ok := e[f]; ok {
			return msg
		}
	}
	for _, msg := range e {
		return msg
	}
	return ""
}

func field(v url.Values, name string) string {
	return strings.TrimSpace(v.Get(name))
}

func required(errs Errors, name, value, msg string) {
	if value == "" {
		errs.Add(name, msg)
	}
}

func parseInt(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
