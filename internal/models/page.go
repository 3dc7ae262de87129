package models

import (
	"bytes"
	"encoding/json"
)

// Page is a list response. The remote service answers either a paginated
// envelope or a bare JSON array; both decode here.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// pageEnvelope has Page's fields without its UnmarshalJSON.
type pageEnvelope[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		if items == nil {
			items = []T{}
		}
		*p = Page[T]{Count: len(items), Results: items}
		return nil
	}

	var env pageEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	if env.Results == nil {
		env.Results = []T{}
	}
	*p = Page[T]{Count: env.Count, Next: env.Next, Previous: env.Previous, Results: env.Results}
	return nil
}
