package domain

import (
	"fmt"
	"strings"
)

// TravelMode is the mode of transport assumed for routing.
type TravelMode string

const (
	TravelDriving   TravelMode = "DRIVING"
	TravelWalking   TravelMode = "WALKING"
	TravelBicycling TravelMode = "BICYCLING"
	TravelTransit   TravelMode = "TRANSIT"
)

// ParseTravelMode accepts any casing; an empty string yields DRIVING.
func ParseTravelMode(s string) (TravelMode, error) {
	switch TravelMode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", TravelDriving:
		return TravelDriving, nil
	case TravelWalking:
		return TravelWalking, nil
	case TravelBicycling:
		return TravelBicycling, nil
	case TravelTransit:
		return TravelTransit, nil
	}
	return "", fmt.Errorf("unknown travel mode %q", s)
}

// RouteRequest describes a route computation.
type RouteRequest struct {
	Origin            Coordinate   `json:"origin"`
	Destination       Coordinate   `json:"destination"`
	OriginLabel       string       `json:"origin_label,omitempty"`
	DestinationLabel  string       `json:"destination_label,omitempty"`
	TravelMode        TravelMode   `json:"travel_mode"`
	Waypoints         []Coordinate `json:"waypoints,omitempty"`
	AvoidHighways     bool         `json:"avoid_highways"`
	AvoidTolls        bool         `json:"avoid_tolls"`
	OptimizeWaypoints bool         `json:"optimize_waypoints"`
	WantAlternatives  bool         `json:"want_alternatives"`
}

// Validate checks every coordinate of the request.
func (r RouteRequest) Validate() error {
	if err := r.Origin.Validate(); err != nil {
		return fmt.Errorf("origin: %w", err)
	}
	if err := r.Destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	for i, wp := range r.Waypoints {
		if err := wp.Validate(); err != nil {
			return fmt.Errorf("waypoint %d: %w", i, err)
		}
	}
	return nil
}

// RouteLeg is one segment of a route.
type RouteLeg struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	StartLabel      string  `json:"start_label"`
	EndLabel        string  `json:"end_label"`
}

// RouteResult is a computed route. Legs is never empty.
type RouteResult struct {
	Legs []RouteLeg `json:"legs"`
	// IsApproximate marks offline, straight-line estimates.
	IsApproximate bool `json:"is_approximate"`
}

// TotalDistanceMeters sums the distance of all legs.
func (r RouteResult) TotalDistanceMeters() float64 {
	var total float64
	for _, l := range r.Legs {
		total += l.DistanceMeters
	}
	return total
}

// TotalDurationSeconds sums the duration of all legs.
func (r RouteResult) TotalDurationSeconds() float64 {
	var total float64
	for _, l := range r.Legs {
		total += l.DurationSeconds
	}
	return total
}
