// Package tzlookup resolves airport coordinates to time zones using the tzf
// polygon index.
package tzlookup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ringsaturn/tzf"

	"github.com/flightops/arrivals/internal/airports"
)

// Finder is the polygon lookup: position in, IANA zone name out (empty when
// no zone contains the point). Satisfied by tzf's default finder.
type Finder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// NameCache persists resolved zone names across runs. Implemented by
// cache.TimezoneCache; nil-able (resolution then always recomputes).
type NameCache interface {
	Get(ctx context.Context, iataCode string) (string, error)
	Set(ctx context.Context, iataCode, zoneName string) error
}

// Resolver maps airport coordinates to *time.Location. Lookups are memoized
// in process per IATA code, and optionally in a shared cache.
type Resolver struct {
	finder Finder
	cache  NameCache
	log    *slog.Logger

	mu   sync.Mutex
	memo map[string]*time.Location
}

// New constructs a Resolver backed by the embedded tzf data set.
// The cache may be nil.
func New(cache NameCache, log *slog.Logger) (*Resolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("initializing timezone finder: %w", err)
	}
	return NewWithFinder(finder, cache, log), nil
}

// NewWithFinder constructs a Resolver with an injectable Finder (for tests).
func NewWithFinder(finder Finder, cache NameCache, log *slog.Logger) *Resolver {
	return &Resolver{
		finder: finder,
		cache:  cache,
		log:    log,
		memo:   make(map[string]*time.Location),
	}
}

// Resolve returns the time zone of the airport at coords. The IATA code is
// only a cache key; the geographic lookup uses the coordinates alone.
func (r *Resolver) Resolve(ctx context.Context, iataCode string, coords airports.Coordinates) (*time.Location, error) {
	r.mu.Lock()
	loc, ok := r.memo[iataCode]
	r.mu.Unlock()
	if ok {
		return loc, nil
	}

	name, err := r.zoneName(ctx, iataCode, coords)
	if err != nil {
		return nil, err
	}

	loc, err = time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading zone %q for airport %s: %w", name, iataCode, err)
	}

	r.mu.Lock()
	r.memo[iataCode] = loc
	r.mu.Unlock()
	return loc, nil
}

func (r *Resolver) zoneName(ctx context.Context, iataCode string, coords airports.Coordinates) (string, error) {
	if r.cache != nil {
		name, err := r.cache.Get(ctx, iataCode)
		if err != nil {
			r.log.Warn("timezone cache get failed", "iata", iataCode, "err", err)
		} else if name != "" {
			return name, nil
		}
	}

	name := r.finder.GetTimezoneName(coords.Lng, coords.Lat)
	if name == "" {
		return "", fmt.Errorf("no timezone at lat=%v lng=%v for airport %s", coords.Lat, coords.Lng, iataCode)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, iataCode, name); err != nil {
			r.log.Warn("timezone cache set failed", "iata", iataCode, "err", err)
		}
	}
	return name, nil
}
