package google

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
)

// Loader checks that the Maps Platform is reachable with the configured key
// before handing out a provider.
type Loader struct {
	client *Client
	probe  domain.Coordinate
}

// NewLoader creates a loader. probe is reverse-geocoded as a health check.
func NewLoader(client *Client, probe domain.Coordinate) *Loader {
	return &Loader{client: client, probe: probe}
}

// Load satisfies ports.ProviderLoader.
func (l *Loader) Load(ctx context.Context) (ports.MapProvider, error) {
	if l.client.apiKey == "" {
		return nil, errors.New("google: no api key configured")
	}
	if err := l.healthCheck(ctx); err != nil {
		return nil, err
	}
	return &Provider{client: l.client}, nil
}

// healthCheck makes a simple geocoding request to verify the API key.
func (l *Loader) healthCheck(ctx context.Context) error {
	params := url.Values{}
	params.Set("latlng", l.probe.String())

	var result legacyStatus
	if err := l.client.getJSON(ctx, "geocode", "/geocode/json", params, &result); err != nil {
		return fmt.Errorf("google: health check: %w", err)
	}
	if result.Status == "ZERO_RESULTS" {
		return nil
	}
	if err := result.err("geocode"); err != nil {
		return fmt.Errorf("google: health check: %w", err)
	}
	return nil
}

// Provider implements ports.MapProvider on Google Maps Platform.
type Provider struct {
	client *Client
}

// NewMap binds server-side map state to surface and renders it.
func (p *Provider) NewMap(surface ports.RenderTarget, opts domain.MapOptions) (ports.MapHandle, error) {
	return newMap(surface, opts)
}
