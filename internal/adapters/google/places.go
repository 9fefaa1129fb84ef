package google

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/pkg/geospatial"
)

// Autocomplete queries Place Autocomplete biased towards bias. A radius turns
// the bias into a bounding rectangle.
func (p *Provider) Autocomplete(ctx context.Context, query string, bias domain.Coordinate, opts domain.SearchOptions) ([]domain.PlaceCandidate, error) {
	params := url.Values{}
	params.Set("input", query)
	if opts.RadiusMeters > 0 {
		minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(bias.Lat, bias.Lon, float64(opts.RadiusMeters))
		params.Set("locationbias", fmt.Sprintf("rectangle:%s,%s|%s,%s",
			coord(minLat), coord(minLon), coord(maxLat), coord(maxLon)))
	} else {
		params.Set("locationbias", "point:"+bias.String())
	}
	if len(opts.Types) > 0 {
		params.Set("types", strings.Join(opts.Types, "|"))
	}

	var resp autocompleteResponse
	if err := p.client.getJSON(ctx, "autocomplete", "/place/autocomplete/json", params, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("autocomplete"); err != nil {
		return nil, err
	}

	out := make([]domain.PlaceCandidate, 0, len(resp.Predictions))
	for _, pr := range resp.Predictions {
		out = append(out, domain.PlaceCandidate{ID: pr.PlaceID, Description: pr.Description})
	}
	return out, nil
}

// PlaceDetails resolves a place id to its description and coordinate.
func (p *Provider) PlaceDetails(ctx context.Context, placeID string) (*domain.PlaceCandidate, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "place_id,name,formatted_address,geometry/location")

	var resp detailsResponse
	if err := p.client.getJSON(ctx, "details", "/place/details/json", params, &resp); err != nil {
		return nil, err
	}
	if err := resp.err("details"); err != nil {
		return nil, err
	}

	r := resp.Result
	desc := r.FormattedAddress
	if r.Name != "" && !strings.HasPrefix(desc, r.Name) {
		desc = strings.TrimSuffix(r.Name+", "+desc, ", ")
	}
	c := domain.Coordinate{Lat: r.Geometry.Location.Lat, Lon: r.Geometry.Location.Lng}
	candidate := &domain.PlaceCandidate{ID: r.PlaceID, Description: desc}
	if c.Validate() == nil && c != (domain.Coordinate{}) {
		candidate.Coordinate = &c
	}
	if candidate.ID == "" {
		candidate.ID = placeID
	}
	return candidate, nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

type autocompleteResponse struct {
	legacyStatus
	Predictions []struct {
		PlaceID     string `json:"place_id"`
		Description string `json:"description"`
	} `json:"predictions"`
}

type detailsResponse struct {
	legacyStatus
	Result struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}
