package google

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

const routesFieldMask = "routes.legs.distanceMeters,routes.legs.duration,routes.optimizedIntermediateWaypointIndex"

var travelModes = map[domain.TravelMode]string{
	domain.TravelDriving:   "DRIVE",
	domain.TravelWalking:   "WALK",
	domain.TravelBicycling: "BICYCLE",
	domain.TravelTransit:   "TRANSIT",
}

// Directions calls the Routes API v2 and returns the legs of the primary route.
func (p *Provider) Directions(ctx context.Context, req domain.RouteRequest) ([]domain.RouteLeg, error) {
	mode, ok := travelModes[req.TravelMode]
	if !ok {
		mode = "DRIVE"
	}

	body := routesAPIRequest{
		Origin:                waypoint(req.Origin),
		Destination:           waypoint(req.Destination),
		TravelMode:            mode,
		OptimizeWaypointOrder: req.OptimizeWaypoints && len(req.Waypoints) > 1,
		LanguageCode:          p.client.language,
		Units:                 "METRIC",
	}
	// Alternatives are not supported together with intermediates.
	body.ComputeAlternativeRoutes = req.WantAlternatives && len(req.Waypoints) == 0
	for _, wp := range req.Waypoints {
		body.Intermediates = append(body.Intermediates, waypoint(wp))
	}
	if mode == "DRIVE" {
		body.RoutingPreference = "TRAFFIC_AWARE"
	}
	if req.AvoidTolls || req.AvoidHighways {
		body.RouteModifiers = &routesAPIRouteModifiers{AvoidTolls: req.AvoidTolls, AvoidHighways: req.AvoidHighways}
	}

	var resp routesAPIResponse
	if err := p.client.postJSON(ctx, "directions", p.client.routesURL, routesFieldMask, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return nil, &domain.ProviderAPIError{Operation: "directions", Status: "ZERO_RESULTS"}
	}

	route := resp.Routes[0]
	labels := stopLabels(req, route.OptimizedIntermediateWaypointIndex)
	if len(labels) != len(route.Legs)+1 {
		return nil, &domain.ProviderAPIError{
			Operation: "directions",
			Status:    "INVALID_RESPONSE",
			Err:       fmt.Errorf("%d legs for %d stops", len(route.Legs), len(labels)),
		}
	}

	legs := make([]domain.RouteLeg, 0, len(route.Legs))
	for i, l := range route.Legs {
		d, err := time.ParseDuration(l.Duration)
		if err != nil {
			return nil, fmt.Errorf("google: directions: parse duration %q: %w", l.Duration, err)
		}
		legs = append(legs, domain.RouteLeg{
			DistanceMeters:  float64(l.DistanceMeters),
			DurationSeconds: d.Seconds(),
			StartLabel:      labels[i],
			EndLabel:        labels[i+1],
		})
	}
	return legs, nil
}

// stopLabels names origin, intermediates (in visiting order) and destination.
func stopLabels(req domain.RouteRequest, order []int) []string {
	labels := []string{label(req.OriginLabel, req.Origin)}
	if len(order) == len(req.Waypoints) {
		for _, i := range order {
			if i < 0 || i >= len(req.Waypoints) {
				return nil
			}
			labels = append(labels, req.Waypoints[i].String())
		}
	} else {
		for _, wp := range req.Waypoints {
			labels = append(labels, wp.String())
		}
	}
	return append(labels, label(req.DestinationLabel, req.Destination))
}

func label(l string, c domain.Coordinate) string {
	if l != "" {
		return l
	}
	return c.String()
}

func waypoint(c domain.Coordinate) routesAPIWaypoint {
	return routesAPIWaypoint{Location: routesAPILocation{LatLng: routesAPILatLng{Latitude: c.Lat, Longitude: c.Lon}}}
}

// --- JSON types for the Google Routes API v2 ---

type routesAPIRequest struct {
	Origin                   routesAPIWaypoint        `json:"origin"`
	Destination              routesAPIWaypoint        `json:"destination"`
	Intermediates            []routesAPIWaypoint      `json:"intermediates,omitempty"`
	TravelMode               string                   `json:"travelMode"`
	RoutingPreference        string                   `json:"routingPreference,omitempty"`
	ComputeAlternativeRoutes bool                     `json:"computeAlternativeRoutes,omitempty"`
	OptimizeWaypointOrder    bool                     `json:"optimizeWaypointOrder,omitempty"`
	RouteModifiers           *routesAPIRouteModifiers `json:"routeModifiers,omitempty"`
	LanguageCode             string                   `json:"languageCode,omitempty"`
	Units                    string                   `json:"units"`
}

type routesAPIWaypoint struct {
	Location routesAPILocation `json:"location"`
}

type routesAPILocation struct {
	LatLng routesAPILatLng `json:"latLng"`
}

type routesAPILatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type routesAPIRouteModifiers struct {
	AvoidTolls    bool `json:"avoidTolls"`
	AvoidHighways bool `json:"avoidHighways"`
}

type routesAPIResponse struct {
	Routes []routesAPIRoute `json:"routes"`
}

type routesAPIRoute struct {
	Legs                               []routesAPILeg `json:"legs"`
	OptimizedIntermediateWaypointIndex []int          `json:"optimizedIntermediateWaypointIndex"`
}

type routesAPILeg struct {
	DistanceMeters int    `json:"distanceMeters"`
	Duration       string `json:"duration"`
}
