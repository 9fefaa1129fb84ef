package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

const (
	defaultMapsBaseURL = "https://maps.googleapis.com/maps/api"
	defaultRoutesURL   = "https://routes.googleapis.com/directions/v2:computeRoutes"
	defaultTimeout     = 5 * time.Second

	httpMaxIdleConns    = 10
	httpIdleConnTimeout = 30 * time.Second
)

// Config configures the Google Maps Platform client.
type Config struct {
	APIKey      string
	MapsBaseURL string
	RoutesURL   string
	Language    string
	Timeout     time.Duration
}

// Client talks to the Maps JSON web services and the Routes API v2.
type Client struct {
	apiKey      string
	mapsBaseURL string
	routesURL   string
	language    string
	timeout     time.Duration
	httpClient  *http.Client
}

// NewClient creates a client with a pooled transport.
func NewClient(cfg Config) *Client {
	c := &Client{
		apiKey:      cfg.APIKey,
		mapsBaseURL: cfg.MapsBaseURL,
		routesURL:   cfg.RoutesURL,
		language:    cfg.Language,
		timeout:     cfg.Timeout,
	}
	if c.mapsBaseURL == "" {
		c.mapsBaseURL = defaultMapsBaseURL
	}
	if c.routesURL == "" {
		c.routesURL = defaultRoutesURL
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	c.httpClient = &http.Client{
		Timeout: c.timeout,
		Transport: &http.Transport{
			MaxIdleConns:        httpMaxIdleConns,
			MaxIdleConnsPerHost: httpMaxIdleConns,
			IdleConnTimeout:     httpIdleConnTimeout,
		},
	}
	return c
}

// legacyStatus is the envelope shared by the JSON web services.
type legacyStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// err maps a non-OK status to a ProviderAPIError. Key and quota rejections
// wrap ErrProviderUnavailable so callers switch to offline mode.
func (s legacyStatus) err(op string) error {
	if s.Status == "OK" {
		return nil
	}
	e := &domain.ProviderAPIError{Operation: op, Status: s.Status}
	switch s.Status {
	case "REQUEST_DENIED", "OVER_DAILY_LIMIT":
		e.Err = fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, s.ErrorMessage)
	default:
		if s.ErrorMessage != "" {
			e.Err = errors.New(s.ErrorMessage)
		}
	}
	return e
}

// getJSON calls a JSON web service endpoint such as /place/details/json.
func (c *Client) getJSON(ctx context.Context, op, endpoint string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	if c.language != "" && params.Get("language") == "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.mapsBaseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("google: %s: create request: %w", op, err)
	}
	return c.do(req, op, out)
}

// postJSON calls a JSON API with a request body and header field mask.
func (c *Client) postJSON(ctx context.Context, op, endpoint, fieldMask string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("google: %s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("google: %s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	// Request only the fields we need to minimize response size and latency.
	req.Header.Set("X-Goog-FieldMask", fieldMask)
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("google: %s: http: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("google: %s: read response: %w", op, err)
	}

	if resp.StatusCode != http.StatusOK {
		e := &domain.ProviderAPIError{Operation: op, Status: apiErrorStatus(resp.StatusCode, body)}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			e.Err = domain.ErrProviderUnavailable
		}
		return e
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("google: %s: unmarshal response: %w", op, err)
	}
	return nil
}

// apiErrorStatus extracts the status of a Google API error body
// ({"error":{"code":403,"status":"PERMISSION_DENIED"}}), else the HTTP code.
func apiErrorStatus(code int, body []byte) string {
	var e struct {
		Error struct {
			Status string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Status != "" {
		return e.Error.Status
	}
	return fmt.Sprintf("HTTP_%d", code)
}
