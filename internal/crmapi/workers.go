package crmapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"crmdash/internal/models"
)

func (c *Conn) ListWorkers(ctx context.Context, params url.Values) (*models.Page[models.ServiceWorker], error) {
	var page models.Page[models.ServiceWorker]
	if err := c.do(ctx, http.MethodGet, "/workers/", params, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Conn) GetWorker(ctx context.Context, id int64) (*models.ServiceWorker, error) {
	var worker models.ServiceWorker
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/workers/%d/", id), nil, nil, &worker); err != nil {
		return nil, err
	}
	return &worker, nil
}

func (c *Conn) CreateWorker(ctx context.Context, payload any) (*models.ServiceWorker, error) {
	var worker models.ServiceWorker
	if err := c.write(ctx, http.MethodPost, "/workers/", payload, &worker); err != nil {
		return nil, err
	}
	return &worker, nil
}

func (c *Conn) UpdateWorker(ctx context.Context, id int64, payload any) (*models.ServiceWorker, error) {
	var worker models.ServiceWorker
	if err := c.write(ctx, http.MethodPatch, fmt.Sprintf("/workers/%d/", id), payload, &worker); err != nil {
		return nil, err
	}
	return &worker, nil
}

func (c *Conn) DeleteWorker(ctx context.Context, id int64) error {
	return c.write(ctx, http.MethodDelete, fmt.Sprintf("/workers/%d/", id), nil, nil)
}

func (c *Conn) WorkerStats(ctx context.Context) (*models.WorkerStats, error) {
	var stats models.WorkerStats
	if err := c.getStats(ctx, statsWorkers, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// WorkerAvailability fetches availability for a worker on date (YYYY-MM-DD).
func (c *Conn) WorkerAvailability(ctx context.Context, id int64, date string) (json.RawMessage, error) {
	var out json.RawMessage
	q := url.Values{"date": {date}}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/workers/%d/availability/", id), q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
