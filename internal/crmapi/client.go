package crmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crmdash/internal/metrics"
	"crmdash/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const maxBodyBytes = 8 << 20

// Tokens is the bearer token pair issued by the remote service.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// TokenHolder is where a Conn reads the current tokens and stores refreshed
// ones. Implementations must be safe for concurrent use.
type TokenHolder interface {
	Tokens() Tokens
	SetTokens(Tokens)
}

// Scoped holders namespace cached responses, so one user's stats are never
// served to another.
type Scoped interface {
	CacheScope() string
}

// Client is the shared HTTP client for the CRM REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration

	// refreshes collapses concurrent refreshes of the same refresh token.
	refreshes singleflight.Group
}

// NewClient constructs a client for baseURL (for example
// http://localhost:8000/api).
func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// UseRedisCache configures optional Redis caching for the stats endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// Login exchanges credentials for a token pair and the user record.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	creds := models.LoginCredentials{Username: username, Password: password}
	if err := c.send(ctx, http.MethodPost, "/auth/login/", nil, creds, "", &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" {
		return nil, &APIError{Status: http.StatusBadGateway, Detail: "Login response did not include a token", parsed: true}
	}
	return &resp, nil
}

// Refresh trades a refresh token for a new access token. The returned pair
// keeps the old refresh token when the server does not rotate it.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	var resp Tokens
	err := c.send(ctx, http.MethodPost, "/auth/refresh/", nil, map[string]string{"refresh": refreshToken}, "", &resp)
	if err == nil && resp.Access == "" {
		err = errors.New("refresh response did not include an access token")
	}
	metrics.IncTokenRefresh(err == nil)
	if err != nil {
		return Tokens{}, err
	}
	if resp.Refresh == "" {
		resp.Refresh = refreshToken
	}
	return resp, nil
}

// Conn binds the client to one session's tokens.
func (c *Client) Conn(holder TokenHolder) *Conn {
	conn := &Conn{client: c, holder: holder}
	if s, ok := holder.(Scoped); ok {
		conn.scope = s.CacheScope()
	}
	return conn
}

// Conn performs authenticated calls on behalf of one session.
type Conn struct {
	client *Client
	holder TokenHolder
	scope  string
}

// do sends an authenticated request. A 401 triggers one refresh and one retry.
func (c *Conn) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	tokens := c.holder.Tokens()
	err := c.client.send(ctx, method, path, query, body, tokens.Access, out)
	if !isUnauthorized(err) {
		return err
	}

	fresh, err := c.refresh(ctx, tokens, path)
	if err != nil {
		return err
	}

	err = c.client.send(ctx, method, path, query, body, fresh.Access, out)
	if isUnauthorized(err) {
		return fmt.Errorf("%w: rejected after refresh", ErrSessionExpired)
	}
	return err
}

// refresh replaces the stale pair. Requests that fail together share one
// upstream refresh, and a request that lost the race takes the tokens the
// winner already stored, so a rotating refresh token is spent only once.
func (c *Conn) refresh(ctx context.Context, stale Tokens, path string) (Tokens, error) {
	if stale.Refresh == "" {
		return Tokens{}, fmt.Errorf("%w: no refresh token", ErrSessionExpired)
	}

	v, err, _ := c.client.refreshes.Do(stale.Refresh, func() (any, error) {
		if cur := c.holder.Tokens(); cur.Access != "" && cur.Access != stale.Access {
			return cur, nil
		}
		fresh, err := c.client.Refresh(ctx, stale.Refresh)
		if err != nil {
			return nil, err
		}
		c.holder.SetTokens(fresh)
		return fresh, nil
	})
	if err != nil {
		c.client.logger.Info().Err(err).Str("path", path).Msg("token refresh failed")
		return Tokens{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	fresh := v.(Tokens)
	if c.holder.Tokens() != fresh {
		c.holder.SetTokens(fresh)
	}
	return fresh, nil
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, token string, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	group := endpointGroup(path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveUpstream(group, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(group, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("crm api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// endpointGroup maps "/appointments/12/complete/" to "appointments".
func endpointGroup(path string) string {
	trimmed := strings.Trim(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}
