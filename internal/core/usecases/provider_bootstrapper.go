package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// ProviderState is the view of the provider bootstrap consumed by the services.
type ProviderState interface {
	Mode() domain.ProviderMode
	Provider() (ports.MapProvider, bool)
	Degrade(reason error)
	MapCenter() domain.Coordinate
}

const offlinePlaceholder = "Carte indisponible : mode hors ligne"

// ProviderBootstrapper loads the mapping backend once per process and owns
// the ONLINE/OFFLINE mode flag.
type ProviderBootstrapper struct {
	loader        ports.ProviderLoader
	defaultCenter domain.Coordinate

	group singleflight.Group
	mode  atomic.Int32

	mu         sync.Mutex
	loaded     bool
	provider   ports.MapProvider
	loadErr    error
	lastHandle ports.MapHandle
}

// NewProviderBootstrapper creates a bootstrapper. A nil loader means no
// provider is configured; the first Initialize then switches to OFFLINE.
func NewProviderBootstrapper(loader ports.ProviderLoader, defaultCenter domain.Coordinate) *ProviderBootstrapper {
	b := &ProviderBootstrapper{loader: loader, defaultCenter: defaultCenter}
	b.mode.Store(int32(domain.ModeOnline))
	metrics.ProviderMode.Set(0)
	return b
}

// Initialize loads the provider if needed and binds a map to surface.
// On load failure it renders a placeholder and returns nil.
func (b *ProviderBootstrapper) Initialize(ctx context.Context, surface ports.RenderTarget, opts domain.MapOptions) ports.MapHandle {
	provider, err := b.load(ctx)
	if err == nil && b.Mode() == domain.ModeOffline {
		err = domain.ErrProviderUnavailable
	}
	if err != nil {
		b.placeholder(ctx, surface, err)
		return nil
	}

	if opts.Center == (domain.Coordinate{}) {
		opts.Center = b.defaultCenter
	}
	handle, err := provider.NewMap(surface, opts)
	if err != nil {
		slog.WarnContext(ctx, "map construction failed", "surface", surface.ID(), "error", err)
		b.placeholder(ctx, surface, err)
		return nil
	}

	b.mu.Lock()
	b.lastHandle = handle
	b.mu.Unlock()
	return handle
}

// Load forces the provider load without binding a surface.
func (b *ProviderBootstrapper) Load(ctx context.Context) error {
	_, err := b.load(ctx)
	return err
}

var errLoadInterrupted = errors.New("provider load interrupted")

// load runs the shared provider load. A load abandoned by the caller that
// started it is not an outcome: joiners whose own ctx is still live run it
// again.
func (b *ProviderBootstrapper) load(ctx context.Context) (ports.MapProvider, error) {
	for {
		p, err := b.loadShared(ctx)
		if errors.Is(err, errLoadInterrupted) && ctx.Err() == nil {
			continue
		}
		return p, err
	}
}

func (b *ProviderBootstrapper) loadShared(ctx context.Context) (ports.MapProvider, error) {
	if p, done, err := b.outcome(); done {
		return p, err
	}

	v, err, _ := b.group.Do("load", func() (interface{}, error) {
		if p, done, err := b.outcome(); done {
			return p, err
		}
		if b.loader == nil {
			return nil, b.finish(nil, errors.New("no mapping provider configured"))
		}

		p, err := b.loader.Load(ctx)
		if err == nil && p == nil {
			err = errors.New("loader returned no provider")
		}
		if err != nil && ctx.Err() != nil {
			// The caller gave up; the provider itself did not fail.
			return nil, fmt.Errorf("%w: %w", errLoadInterrupted, ctx.Err())
		}
		return p, b.finish(p, err)
	})
	if err != nil {
		return nil, err
	}
	p, _ := v.(ports.MapProvider)
	return p, nil
}

func (b *ProviderBootstrapper) outcome() (ports.MapProvider, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.provider, b.loaded, b.loadErr
}

func (b *ProviderBootstrapper) finish(p ports.MapProvider, err error) error {
	b.mu.Lock()
	b.loaded = true
	if err != nil {
		b.loadErr = &domain.ProviderLoadError{Err: err}
	} else {
		b.provider = p
	}
	loadErr := b.loadErr
	b.mu.Unlock()

	if loadErr != nil {
		metrics.ProviderLoads.WithLabelValues("failure").Inc()
		b.Degrade(loadErr)
		return loadErr
	}
	metrics.ProviderLoads.WithLabelValues("success").Inc()
	slog.Info("mapping provider loaded")
	return nil
}

func (b *ProviderBootstrapper) placeholder(ctx context.Context, surface ports.RenderTarget, cause error) {
	if surface == nil {
		return
	}
	if err := surface.RenderPlaceholder(offlinePlaceholder); err != nil {
		slog.WarnContext(ctx, "placeholder render failed", "surface", surface.ID(), "error", err, "cause", cause)
	}
}

// Mode returns the current provider mode.
func (b *ProviderBootstrapper) Mode() domain.ProviderMode {
	return domain.ProviderMode(b.mode.Load())
}

// Provider returns the loaded provider while the mode is ONLINE.
func (b *ProviderBootstrapper) Provider() (ports.MapProvider, bool) {
	if b.Mode() != domain.ModeOnline {
		return nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.provider, b.provider != nil
}

// Degrade switches to OFFLINE for the rest of the process lifetime.
func (b *ProviderBootstrapper) Degrade(reason error) {
	if b.mode.CompareAndSwap(int32(domain.ModeOnline), int32(domain.ModeOffline)) {
		metrics.ProviderMode.Set(1)
		slog.Warn("mapping provider switched to offline mode", "reason", reason)
	}
}

// LoadErr returns the load failure, if any.
func (b *ProviderBootstrapper) LoadErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadErr
}

// MapCenter returns the center of the most recent map, or the default center.
func (b *ProviderBootstrapper) MapCenter() domain.Coordinate {
	b.mu.Lock()
	h := b.lastHandle
	b.mu.Unlock()
	if h == nil {
		return b.defaultCenter
	}
	return h.Center()
}
