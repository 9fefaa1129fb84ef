package domain

// NavigationStatus is the lifecycle state of a navigation session.
type NavigationStatus string

const (
	NavIdle    NavigationStatus = "IDLE"
	NavActive  NavigationStatus = "ACTIVE"
	NavStopped NavigationStatus = "STOPPED"
)

// NavigationSnapshot is a read-only copy of a session's state.
type NavigationSnapshot struct {
	ID                string           `json:"id"`
	DeviceID          string           `json:"device_id"`
	Status            NavigationStatus `json:"status"`
	Destination       Coordinate       `json:"destination"`
	LastKnownLocation *LocationSample  `json:"last_known_location,omitempty"`
	CurrentRoute      *RouteResult     `json:"current_route,omitempty"`
	// Sequence is the number of the recomputation that produced CurrentRoute.
	Sequence uint64 `json:"sequence"`
}

// RouteUpdate is published whenever a session applies a new route.
type RouteUpdate struct {
	SessionID string         `json:"session_id"`
	Sequence  uint64         `json:"sequence"`
	Location  LocationSample `json:"location"`
	Route     RouteResult    `json:"route"`
}
