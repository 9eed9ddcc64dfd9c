package gmt

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gogsea/domain/core"
	"gogsea/domain/geneset"
	"gogsea/internal"

	"golang.org/x/sync/singleflight"
)

// LoadObserver receives the outcome of each catalog load attempt.
type LoadObserver interface {
	CatalogLoaded(species string, sets int, elapsed time.Duration, err error)
}

// RegistryConfig maps species to catalog locations (paths or s3:// URIs).
type RegistryConfig struct {
	Locations map[core.Species]string
	Parse     ParseOptions
}

// Registry loads one catalog per species on first use and shares it.
// Failed loads are not cached, so a later request retries.
type Registry struct {
	locations map[core.Species]string
	parse     ParseOptions
	opener    Opener
	logger    *internal.Logger
	observer  LoadObserver

	sf    singleflight.Group
	mu    sync.RWMutex
	cache map[core.Species]*geneset.Catalog
}

// NewRegistry creates a registry; nothing is loaded until requested.
func NewRegistry(cfg RegistryConfig, opener Opener, logger *internal.Logger) *Registry {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	locations := make(map[core.Species]string, len(cfg.Locations))
	for species, loc := range cfg.Locations {
		if loc != "" {
			locations[species] = loc
		}
	}
	return &Registry{
		locations: locations,
		parse:     cfg.Parse,
		opener:    opener,
		logger:    logger,
		cache:     make(map[core.Species]*geneset.Catalog),
	}
}

// SetObserver installs a load observer (metrics).
func (r *Registry) SetObserver(o LoadObserver) {
	r.observer = o
}

// Species lists configured species in lexical order.
func (r *Registry) Species() []core.Species {
	out := make([]core.Species, 0, len(r.locations))
	for s := range r.locations {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CatalogStatus describes one configured catalog.
type CatalogStatus struct {
	Species  core.Species `json:"species"`
	Location string       `json:"location"`
	Loaded   bool         `json:"loaded"`
	GeneSets int          `json:"geneSets"`
}

// Status reports every configured catalog without triggering loads.
func (r *Registry) Status() []CatalogStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CatalogStatus, 0, len(r.locations))
	for _, species := range r.Species() {
		st := CatalogStatus{Species: species, Location: r.locations[species]}
		if cat, ok := r.cache[species]; ok {
			st.Loaded = true
			st.GeneSets = cat.Len()
		}
		out = append(out, st)
	}
	return out
}

// Catalog returns the catalog for species, loading it at most once
// concurrently. Unknown species is a configuration error.
func (r *Registry) Catalog(ctx context.Context, species core.Species) (*geneset.Catalog, error) {
	location, ok := r.locations[species]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSpecies, species)
	}

	r.mu.RLock()
	cat, ok := r.cache[species]
	r.mu.RUnlock()
	if ok {
		return cat, nil
	}

	// The shared load must not die with the first caller's request.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.sf.DoChan(string(species), func() (interface{}, error) {
		r.mu.RLock()
		cached, ok := r.cache[species]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := r.load(loadCtx, species, location)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.cache[species] = loaded
		r.mu.Unlock()
		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return nil, core.NewAbortedError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*geneset.Catalog), nil
	}
}

// Preload loads every configured catalog, logging failures instead of returning them.
func (r *Registry) Preload(ctx context.Context) {
	for _, species := range r.Species() {
		if _, err := r.Catalog(ctx, species); err != nil {
			r.logger.Warn("[Catalog] preload %s failed: %v", species, err)
		}
	}
}

func (r *Registry) load(ctx context.Context, species core.Species, location string) (cat *geneset.Catalog, err error) {
	start := time.Now()
	defer func() {
		if r.observer != nil {
			n := 0
			if cat != nil {
				n = cat.Len()
			}
			r.observer.CatalogLoaded(string(species), n, time.Since(start), err)
		}
	}()

	r.logger.Info("[Catalog] loading %s gene sets from %s", species, location)
	rc, err := openResource(ctx, r.opener, location)
	if err != nil {
		r.logger.Error("[Catalog] open %s failed: %v", location, err)
		return nil, core.NewCatalogError(location, err)
	}
	defer rc.Close()

	sets, err := Parse(rc, r.parse)
	if err != nil {
		r.logger.Error("[Catalog] parse %s failed: %v", location, err)
		return nil, core.NewCatalogError(location, err)
	}
	if len(sets) == 0 {
		return nil, core.NewCatalogError(location, fmt.Errorf("no gene sets"))
	}

	cat = geneset.NewCatalog(species, sets)
	if dups := cat.Duplicates(); len(dups) > 0 {
		r.logger.Warn("[Catalog] %s: %d gene sets reuse an earlier stable ID and were dropped: %s",
			location, len(dups), strings.Join(dups, ", "))
	}
	r.logger.Info("[Catalog] loaded %d %s gene sets in %s", cat.Len(), species, time.Since(start).Round(time.Millisecond))
	return cat, nil
}
