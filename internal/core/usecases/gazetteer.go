package usecases

import (
	"strings"
	"sync"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// defaultPlaces is bundled with the service for offline search.
var defaultPlaces = []domain.GazetteerEntry{
	{ID: "gz-le-patio", Description: "Restaurant Le Patio, Rue du Commerce, Conakry", Coordinate: domain.Coordinate{Lat: 9.5092, Lon: -13.7122}},
	{ID: "gz-marche-niger", Description: "Marché Niger, Kaloum, Conakry", Coordinate: domain.Coordinate{Lat: 9.5155, Lon: -13.7068}},
	{ID: "gz-palais-peuple", Description: "Palais du Peuple, Boulevard du Commerce, Conakry", Coordinate: domain.Coordinate{Lat: 9.5203, Lon: -13.6996}},
	{ID: "gz-gbessia", Description: "Aéroport International de Conakry-Gbessia", Coordinate: domain.Coordinate{Lat: 9.5769, Lon: -13.6120}},
	{ID: "gz-grande-mosquee", Description: "Grande Mosquée Fayçal, Camayenne, Conakry", Coordinate: domain.Coordinate{Lat: 9.5375, Lon: -13.6773}},
	{ID: "gz-gamal", Description: "Université Gamal Abdel Nasser, Dixinn, Conakry", Coordinate: domain.Coordinate{Lat: 9.5397, Lon: -13.6731}},
	{ID: "gz-madina", Description: "Marché de Madina, Matam, Conakry", Coordinate: domain.Coordinate{Lat: 9.5551, Lon: -13.6538}},
	{ID: "gz-kipe", Description: "Centre commercial Kipé, Ratoma, Conakry", Coordinate: domain.Coordinate{Lat: 9.6150, Lon: -13.6370}},
}

// Gazetteer is the offline place table.
type Gazetteer struct {
	mu      sync.RWMutex
	entries []domain.GazetteerEntry
	byID    map[string]int
}

// NewGazetteer builds a gazetteer from entries, keeping their order.
func NewGazetteer(entries []domain.GazetteerEntry) *Gazetteer {
	g := &Gazetteer{}
	g.Replace(entries)
	return g
}

// DefaultGazetteer returns the bundled table.
func DefaultGazetteer() *Gazetteer {
	return NewGazetteer(defaultPlaces)
}

// DefaultPlaces returns a copy of the bundled entries.
func DefaultPlaces() []domain.GazetteerEntry {
	return append([]domain.GazetteerEntry(nil), defaultPlaces...)
}

// Replace swaps the whole table, e.g. after loading it from the database.
func (g *Gazetteer) Replace(entries []domain.GazetteerEntry) {
	cp := append([]domain.GazetteerEntry(nil), entries...)
	idx := make(map[string]int, len(cp))
	for i, e := range cp {
		idx[e.ID] = i
	}

	g.mu.Lock()
	g.entries = cp
	g.byID = idx
	g.mu.Unlock()
}

// Search returns every entry whose description contains query, ignoring case.
func (g *Gazetteer) Search(query string) []domain.PlaceCandidate {
	q := strings.ToLower(query)

	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]domain.PlaceCandidate, 0)
	for _, e := range g.entries {
		if strings.Contains(strings.ToLower(e.Description), q) {
			out = append(out, e.Candidate())
		}
	}
	return out
}

// Lookup resolves an entry by id.
func (g *Gazetteer) Lookup(id string) (*domain.PlaceCandidate, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	i, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	c := g.entries[i].Candidate()
	return &c, true
}

// Entries returns a copy of the table.
func (g *Gazetteer) Entries() []domain.GazetteerEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]domain.GazetteerEntry(nil), g.entries...)
}
