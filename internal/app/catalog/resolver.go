// Package catalog resolves free-text song queries against music catalogs.
package catalog

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/tunecast/tunecast/internal/domain/track"
)

// Resolution errors.
var (
	// ErrNotFound means the query matched nothing, the service is unknown,
	// or the provider could not be reached.
	ErrNotFound = errors.New("no track found")
	// ErrUnconfigured means the selected provider has no credentials.
	ErrUnconfigured = errors.New("provider is not configured")
)

// Provider is a single catalog search backend.
type Provider interface {
	// Name returns the catalog name (used in config and logs).
	Name() string
	// Configured reports whether the provider has usable credentials.
	Configured() bool
	// SearchTrack returns the top hit for the query, or (nil, nil) on a miss.
	SearchTrack(ctx context.Context, query string) (*track.Track, error)
}

// Resolver resolves a song query against exactly one catalog.
type Resolver interface {
	Resolve(ctx context.Context, service track.Service, query string) (*track.Track, error)
}

// Catalog is a Resolver backed by per-service providers.
type Catalog struct {
	providers map[track.Service]Provider
	timeout   time.Duration
}

// New creates a Catalog over the given providers with a per-search timeout.
func New(providers map[track.Service]Provider, timeout time.Duration) *Catalog {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Catalog{
		providers: providers,
		timeout:   timeout,
	}
}

// Provider returns the registered provider for a service.
func (c *Catalog) Provider(service track.Service) (Provider, bool) {
	p, ok := c.providers[service]
	return p, ok
}

// Resolve resolves query against exactly one catalog provider.
//
// Unknown services and provider failures both collapse to ErrNotFound.
// A known provider without credentials yields ErrUnconfigured before any
// network traffic happens. There are no retries and no fallback to other
// providers.
func (c *Catalog) Resolve(ctx context.Context, service track.Service, query string) (*track.Track, error) {
	if !service.Known() {
		return nil, ErrNotFound
	}
	p, ok := c.providers[service]
	if !ok {
		return nil, ErrNotFound
	}
	if !p.Configured() {
		return nil, ErrUnconfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	t, err := p.SearchTrack(ctx, query)
	if err != nil {
		zlog.Warn().Msgf("catalog search failed: provider=%s error=%v", p.Name(), err)
		return nil, ErrNotFound
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}
