package currency

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"budgethelper/internal/log"
)

// DefaultTTL is how long a live matrix is served without refetching.
const DefaultTTL = time.Hour

// ProviderConfig tunes the provider; zero values select defaults.
type ProviderConfig struct {
	TTL time.Duration
	// MinInterval is the minimum gap between two calls to the same source.
	// Zero disables throttling.
	MinInterval time.Duration
}

type throttledSource struct {
	Source
	limiter *rate.Limiter
}

// Provider serves a cached rate matrix, refreshing it from the configured
// sources in order and falling back to the static table when all fail.
// Rates never returns an error.
type Provider struct {
	sources []throttledSource
	ttl     time.Duration
	now     func() time.Time
	logger  *log.Logger

	mu      sync.RWMutex
	cached  *RateMatrix
	expired bool

	group singleflight.Group
}

func NewProvider(cfg ProviderConfig, logger *log.Logger, sources ...Source) *Provider {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if logger == nil {
		logger = log.Default(log.ComponentRates)
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	p := &Provider{
		ttl:    cfg.TTL,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentRates),
	}
	for _, s := range sources {
		p.sources = append(p.sources, throttledSource{Source: s, limiter: rate.NewLimiter(limit, 1)})
	}
	return p
}

// Rates returns the current matrix. A cached matrix younger than the TTL is
// returned without any network call. Concurrent refreshes share one fetch.
func (p *Provider) Rates(ctx context.Context) RateMatrix {
	if m, ok := p.fresh(); ok {
		return m
	}

	// The shared fetch must not be cut short by whichever caller started it.
	fetchCtx := context.WithoutCancel(ctx)
	v, _, _ := p.group.Do("rates", func() (any, error) {
		if m, ok := p.fresh(); ok {
			return m, nil
		}
		return p.refresh(fetchCtx), nil
	})
	return v.(RateMatrix)
}

// Snapshot returns the cached live matrix, if any, regardless of age.
func (p *Provider) Snapshot() (RateMatrix, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cached == nil {
		return RateMatrix{}, false
	}
	return *p.cached, true
}

// Invalidate marks the cached matrix stale so the next call refetches. The
// stale matrix stays available to Snapshot and to throttled refreshes.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.expired = true
	p.mu.Unlock()
}

func (p *Provider) fresh() (RateMatrix, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cached == nil || p.expired || p.now().Sub(p.cached.FetchedAt) >= p.ttl {
		return RateMatrix{}, false
	}
	return *p.cached, true
}

func (p *Provider) refresh(ctx context.Context) RateMatrix {
	throttled := false
	for _, s := range p.sources {
		if !s.limiter.Allow() {
			p.logger.DebugContext(ctx, "Rate source throttled", log.FieldSource, s.Name())
			throttled = true
			continue
		}

		table, err := s.Fetch(ctx)
		if err != nil {
			p.logger.WarnContext(ctx, "Rate source failed",
				log.FieldSource, s.Name(),
				log.FieldError, err)
			continue
		}

		m := RateMatrix{Rates: table, Source: s.Name(), FetchedAt: p.now()}
		p.mu.Lock()
		p.cached = &m
		p.expired = false
		p.mu.Unlock()

		p.logger.InfoContext(ctx, "Exchange rates refreshed", log.FieldSource, s.Name())
		return m
	}

	// A skipped source may have recovered; prefer its last live rates over
	// the static table until it may be asked again.
	if throttled {
		if m, ok := p.Snapshot(); ok {
			p.logger.WarnContext(ctx, "Rate sources throttled, serving last live rates",
				log.FieldSource, m.Source)
			return m
		}
		p.logger.WarnContext(ctx, "Rate sources throttled or failed, using static rates")
		return Fallback(p.now())
	}

	p.logger.WarnContext(ctx, "All rate sources failed, using static rates")
	return Fallback(p.now())
}
