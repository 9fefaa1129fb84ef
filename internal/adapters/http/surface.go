package http

import (
	"sync"

	"github.com/samirrijal/wayfinder/internal/core/domain"
)

// Surface is a server-side render target. It keeps the last frame pushed
// to it so clients can fetch it over the API.
type Surface struct {
	id string

	mu   sync.RWMutex
	view *domain.MapView
}

func (s *Surface) ID() string { return s.id }

func (s *Surface) Render(view domain.MapView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = &view
	return nil
}

func (s *Surface) RenderPlaceholder(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = &domain.MapView{Degraded: true, Message: message}
	return nil
}

// View returns the last frame, or false if nothing was rendered yet.
func (s *Surface) View() (domain.MapView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.view == nil {
		return domain.MapView{}, false
	}
	return *s.view, true
}

// SurfaceStore holds one Surface per id.
type SurfaceStore struct {
	mu       sync.Mutex
	surfaces map[string]*Surface
}

func NewSurfaceStore() *SurfaceStore {
	return &SurfaceStore{surfaces: make(map[string]*Surface)}
}

// Surface returns the surface with the given id, creating it on first use.
func (st *SurfaceStore) Surface(id string) *Surface {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.surfaces[id]
	if !ok {
		s = &Surface{id: id}
		st.surfaces[id] = s
	}
	return s
}

// Lookup returns an existing surface.
func (st *SurfaceStore) Lookup(id string) (*Surface, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.surfaces[id]
	return s, ok
}
