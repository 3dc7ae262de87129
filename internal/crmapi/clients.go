package crmapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"crmdash/internal/models"
)

func (c *Conn) ListClients(ctx context.Context, params url.Values) (*models.Page[models.Client], error) {
	var page models.Page[models.Client]
	if err := c.do(ctx, http.MethodGet, "/clients/", params, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Conn) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	var client models.Client
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/clients/%d/", id), nil, nil, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (c *Conn) CreateClient(ctx context.Context, payload any) (*models.Client, error) {
	var client models.Client
	if err := c.write(ctx, http.MethodPost, "/clients/", payload, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (c *Conn) UpdateClient(ctx context.Context, id int64, payload any) (*models.Client, error) {
	var client models.Client
	if err := c.write(ctx, http.MethodPatch, fmt.Sprintf("/clients/%d/", id), payload, &client); err != nil {
		return nil, err
	}
	return &client, nil
}

func (c *Conn) DeleteClient(ctx context.Context, id int64) error {
	return c.write(ctx, http.MethodDelete, fmt.Sprintf("/clients/%d/", id), nil, nil)
}

func (c *Conn) ClientStats(ctx context.Context) (*models.ClientStats, error) {
	var stats models.ClientStats
	if err := c.getStats(ctx, statsClients, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
