package domain

// PlaceCandidate is a search hit or a resolved place.
type PlaceCandidate struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Coordinate  *Coordinate `json:"coordinate,omitempty"`
}

// SearchOptions narrows a place search.
type SearchOptions struct {
	RadiusMeters int      `json:"radius_meters"`
	Types        []string `json:"types,omitempty"`
}

// GazetteerEntry is a row of the offline place table.
type GazetteerEntry struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Coordinate  Coordinate `json:"coordinate"`
}

// Candidate converts the entry to a PlaceCandidate.
func (e GazetteerEntry) Candidate() PlaceCandidate {
	c := e.Coordinate
	return PlaceCandidate{ID: e.ID, Description: e.Description, Coordinate: &c}
}
