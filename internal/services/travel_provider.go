package services

import (
	"context"
	"fmt"
	"inspection-route-service/internal/domain"
	"inspection-route-service/internal/geo"
	"inspection-route-service/internal/platform/obs"
	"inspection-route-service/internal/ports"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type TravelProviderOptions struct {
	SpeedKmh              float64
	RoadFactor            float64
	GridDecimals          int
	SameClusterDistanceKm float64
	SameClusterMinutes    float64
	UnlocatableDistanceKm float64
	SourceTimeout         time.Duration
	PrecomputeWorkers     int
	// FallbackTTL bounds how long a fallback produced by a failed source call
	// stays cached. Zero disables caching such results.
	FallbackTTL           time.Duration
}

func DefaultTravelProviderOptions() TravelProviderOptions {
	return TravelProviderOptions{
		SpeedKmh:              45,
		RoadFactor:            1.25,
		GridDecimals:          4,
		SameClusterDistanceKm: 0.5,
		SameClusterMinutes:    1,
		UnlocatableDistanceKm: 25,
		SourceTimeout:         10 * time.Second,
		PrecomputeWorkers:     4,
		FallbackTTL:           time.Minute,
	}
}

// TravelStats is a snapshot of a provider's counters.
type TravelStats struct {
	CacheHits    int64
	CacheMisses  int64
	StoreHits    int64
	SourceCalls  int64
	SourceErrors int64
	Fallbacks    int64
}

// TravelProvider implements ports.TravelTimeProvider.
//
// It coordinates:
//   - A write-once in-process cache keyed on the unordered, grid-rounded pair
//   - An optional persistent store for authoritative results
//   - An optional authoritative routing source under a per-call timeout
//   - The haversine fallback, which cannot fail
//
// Fallbacks caused by a failed source call expire after FallbackTTL so the
// pair is retried once the source recovers; those produced after the caller
// gave up are not cached at all.
//
// The provider is safe for concurrent use.
type TravelProvider struct {
	opts    TravelProviderOptions
	source  ports.RouteSource
	store   ports.EstimateStore
	metrics *obs.Metrics

	mu    sync.RWMutex
	cache map[string]cacheEntry
	now   func() time.Time

	hits, misses, storeHits, sourceCalls, sourceErrors, fallbacks atomic.Int64
}

// NewTravelProvider builds a provider. source and store may be nil, in which
// case every miss is answered by the fallback formula.
func NewTravelProvider(
	opts TravelProviderOptions,
	source ports.RouteSource,
	store ports.EstimateStore,
	metrics *obs.Metrics,
) *TravelProvider {
	return &TravelProvider{
		opts:    opts,
		source:  source,
		store:   store,
		metrics: metrics,
		cache:   make(map[string]cacheEntry),
		now:     time.Now,
	}
}

type cacheEntry struct {
	est     domain.TravelEstimate
	expires time.Time
}

func (e cacheEntry) live(now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

// CacheKey canonicalizes a pair so (a,b) and (b,a) share one entry.
func CacheKey(a, b domain.Coordinates, decimals int) string {
	ka := a.Round(decimals)
	kb := b.Round(decimals)
	if kb.Lat < ka.Lat || (kb.Lat == ka.Lat && kb.Lon < ka.Lon) {
		ka, kb = kb, ka
	}
	return fmt.Sprintf("%.*f,%.*f|%.*f,%.*f", decimals, ka.Lat, decimals, ka.Lon, decimals, kb.Lat, decimals, kb.Lon)
}

// SameCluster reports whether two labels name the same known cluster.
func SameCluster(a, b string) bool {
	return a != "" && a != domain.UnknownRegion && a == b
}

func (p *TravelProvider) ClusterTravelTime(
	ctx context.Context,
	origin, destination domain.Coordinates,
	originCluster, destinationCluster string,
) domain.TravelEstimate {
	if SameCluster(originCluster, destinationCluster) {
		p.metrics.TravelEstimate(domain.SourceSameCluster)
		return domain.TravelEstimate{
			DistanceKm:      p.opts.SameClusterDistanceKm,
			DurationMinutes: p.opts.SameClusterMinutes,
			Source:          domain.SourceSameCluster,
		}
	}
	return p.TravelTime(ctx, origin, destination)
}

func (p *TravelProvider) TravelTime(ctx context.Context, origin, destination domain.Coordinates) domain.TravelEstimate {
	if !origin.Valid() || !destination.Valid() {
		p.metrics.TravelEstimate(domain.SourceRegionEstimate)
		return p.regionEstimate()
	}

	key := CacheKey(origin, destination, p.opts.GridDecimals)

	p.mu.RLock()
	cached, ok := p.cache[key]
	p.mu.RUnlock()
	if ok && cached.live(p.now()) {
		p.hits.Add(1)
		p.metrics.TravelCacheLookup(true)
		return cached.est
	}
	p.misses.Add(1)
	p.metrics.TravelCacheLookup(false)

	est, degraded := p.resolve(ctx, key, origin, destination)
	p.metrics.TravelEstimate(est.Source)

	entry := cacheEntry{est: est}
	if degraded {
		if ctx.Err() != nil || p.opts.FallbackTTL <= 0 {
			return est
		}
		entry.expires = p.now().Add(p.opts.FallbackTTL)
	}

	// First live writer wins so a hit always equals what was first stored.
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.cache[key]; ok && existing.live(p.now()) {
		return existing.est
	}
	p.cache[key] = entry
	return est
}

// resolve answers a cache miss. degraded is true when a configured source
// failed and the estimate is the fallback formula.
func (p *TravelProvider) resolve(
	ctx context.Context,
	key string,
	origin, destination domain.Coordinates,
) (_ domain.TravelEstimate, degraded bool) {
	if origin.Round(p.opts.GridDecimals) == destination.Round(p.opts.GridDecimals) {
		return domain.TravelEstimate{Source: domain.SourceFallback}, false
	}

	logger := zerolog.Ctx(ctx)

	if p.store != nil {
		est, ok, err := p.store.Get(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("travel estimate store read failed")
		} else if ok {
			p.storeHits.Add(1)
			return est, false
		}
	}

	if p.source != nil {
		if est, ok := p.fromSource(ctx, origin, destination); ok {
			if p.store != nil {
				if err := p.store.Put(ctx, key, est); err != nil {
					logger.Warn().Err(err).Str("key", key).Msg("travel estimate store write failed")
				}
			}
			return est, false
		}
	}

	p.fallbacks.Add(1)
	return p.fallback(origin, destination), p.source != nil
}

func (p *TravelProvider) fromSource(ctx context.Context, origin, destination domain.Coordinates) (domain.TravelEstimate, bool) {
	p.sourceCalls.Add(1)

	callCtx := ctx
	if p.opts.SourceTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.opts.SourceTimeout)
		defer cancel()
	}

	res, err := p.source.Route(callCtx, origin, destination)
	if err == nil && (res.DistanceMeters < 0 || res.DurationSeconds < 0 ||
		math.IsNaN(res.DistanceMeters) || math.IsNaN(res.DurationSeconds)) {
		err = fmt.Errorf("route source returned invalid figures: %+v", res)
	}
	if err != nil {
		p.sourceErrors.Add(1)
		zerolog.Ctx(ctx).Warn().Err(err).
			Stringer("origin", origin).
			Stringer("destination", destination).
			Msg("routing source failed, using fallback estimate")
		return domain.TravelEstimate{}, false
	}

	return domain.TravelEstimate{
		DistanceKm:      res.DistanceMeters / 1000,
		DurationMinutes: res.DurationSeconds / 60,
		Source:          domain.SourceRouting,
	}, true
}

// fallback is pure arithmetic on valid coordinates.
func (p *TravelProvider) fallback(origin, destination domain.Coordinates) domain.TravelEstimate {
	km := geo.RoadDistanceKm(origin, destination, p.opts.RoadFactor)
	return domain.TravelEstimate{
		DistanceKm:      km,
		DurationMinutes: geo.EstimateDurationMinutes(km, p.opts.SpeedKmh),
		Source:          domain.SourceFallback,
	}
}

func (p *TravelProvider) regionEstimate() domain.TravelEstimate {
	return domain.TravelEstimate{
		DistanceKm:      p.opts.UnlocatableDistanceKm,
		DurationMinutes: geo.EstimateDurationMinutes(p.opts.UnlocatableDistanceKm, p.opts.SpeedKmh),
		Source:          domain.SourceRegionEstimate,
	}
}

// Precompute warms the cache for every unordered cluster pair and every
// cluster-to-home leg. Lookups run in parallel; each one writes a single key.
func (p *TravelProvider) Precompute(
	ctx context.Context,
	clusters map[string]domain.Coordinates,
	home domain.Coordinates,
) (err error) {
	defer obs.Time(ctx, "travel.Precompute")(&err)

	names := make([]string, 0, len(clusters))
	for name, c := range clusters {
		if c.Valid() {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	legs := make([]travelLeg, 0, len(names)*(len(names)+1)/2)
	for i, a := range names {
		legs = append(legs, travelLeg{clusters[a], home})
		for _, b := range names[i+1:] {
			legs = append(legs, travelLeg{clusters[a], clusters[b]})
		}
	}

	legs = p.preload(ctx, legs)

	g, gctx := errgroup.WithContext(ctx)
	workers := p.opts.PrecomputeWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, l := range legs {
		l := l
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.TravelTime(gctx, l.from, l.to)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("precompute travel times: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Int("clusters", len(names)).Int("legs", len(legs)).Msg("travel cache warmed")
	return nil
}

type travelLeg struct{ from, to domain.Coordinates }

// preload copies stored estimates for the legs into the cache in one batch
// read and returns the legs still missing.
func (p *TravelProvider) preload(ctx context.Context, legs []travelLeg) []travelLeg {
	batch, ok := p.store.(ports.BatchEstimateStore)
	if !ok || len(legs) == 0 {
		return legs
	}

	keys := make([]string, 0, len(legs))
	for _, l := range legs {
		keys = append(keys, CacheKey(l.from, l.to, p.opts.GridDecimals))
	}

	stored, err := batch.GetMany(ctx, keys)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("travel estimate batch read failed")
		return legs
	}

	missing := make([]travelLeg, 0, len(legs))
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, l := range legs {
		est, ok := stored[keys[i]]
		if !ok {
			missing = append(missing, l)
			continue
		}
		if existing, cached := p.cache[keys[i]]; !cached || !existing.live(p.now()) {
			p.cache[keys[i]] = cacheEntry{est: est}
			p.storeHits.Add(1)
		}
	}
	return missing
}

// Stats returns a snapshot of the provider's counters.
func (p *TravelProvider) Stats() TravelStats {
	return TravelStats{
		CacheHits:    p.hits.Load(),
		CacheMisses:  p.misses.Load(),
		StoreHits:    p.storeHits.Load(),
		SourceCalls:  p.sourceCalls.Load(),
		SourceErrors: p.sourceErrors.Load(),
		Fallbacks:    p.fallbacks.Load(),
	}
}

// CacheSize returns the number of cached pairs.
func (p *TravelProvider) CacheSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.cache)
}
