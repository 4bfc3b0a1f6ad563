package exchange

import (
	"context"
	"errors"
	"sync"
	"time"
)

type cachedRate struct {
	rate      Rate
	expiresAt time.Time
}

type inFlightCall struct {
	done chan struct{}
	rate Rate
	err  error
}

const (
	// DefaultCacheTTL is used when NewCachedService is given a non-positive TTL.
	DefaultCacheTTL    = 12 * time.Hour
	maxCleanupInterval = 5 * time.Minute
)

// CachedService wraps a RateSource with an in-memory TTL cache. Concurrent
// lookups of the same pair share one upstream request.
type CachedService struct {
	inner RateSource
	ttl   time.Duration
	now   func() time.Time

	mu          sync.RWMutex
	rates       map[string]cachedRate
	inFlight    map[string]*inFlightCall
	lastCleanup time.Time
}

// NewCachedService returns a rate source that caches rates in memory.
func NewCachedService(inner RateSource, ttl time.Duration) *CachedService {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedService{
		inner:    inner,
		ttl:      ttl,
		now:      time.Now,
		rates:    make(map[string]cachedRate),
		inFlight: make(map[string]*inFlightCall),
	}
}

func pairKey(from, to string) string {
	return from + "->" + to
}

// Rate implements RateSource.
func (s *CachedService) Rate(ctx context.Context, fromCurrency, toCurrency string) (Rate, error) {
	if s.inner == nil {
		return Rate{}, errors.New("inner rate source is required")
	}

	from := normalizeCurrency(fromCurrency)
	to := normalizeCurrency(toCurrency)
	if from == "" || to == "" {
		return Rate{}, errCurrencyRequired
	}
	if from == to {
		return identityRate(from), nil
	}

	key := pairKey(from, to)
	now := s.now()

	s.mu.RLock()
	entry, ok := s.rates[key]
	s.mu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.rate, nil
	}

	s.mu.Lock()
	entry, ok = s.rates[key]
	if ok && now.Before(entry.expiresAt) {
		s.mu.Unlock()
		return entry.rate, nil
	}
	if ok {
		delete(s.rates, key)
	}

	if call, waiting := s.inFlight[key]; waiting {
		s.mu.Unlock()
		return waitForInFlight(ctx, call)
	}

	call := &inFlightCall{done: make(chan struct{})}
	s.inFlight[key] = call
	s.mu.Unlock()

	// The fetch outlives a single caller's deadline so other waiters still get a result.
	go s.fetch(context.WithoutCancel(ctx), key, from, to, call)
	return waitForInFlight(ctx, call)
}

func (s *CachedService) fetch(ctx context.Context, key, from, to string, call *inFlightCall) {
	rate, err := s.inner.Rate(ctx, from, to)
	if err == nil {
		err = validateConversionRate(rate.Value)
	}

	fetchedAt := s.now()
	s.mu.Lock()
	if err == nil {
		s.rates[key] = cachedRate{rate: rate, expiresAt: fetchedAt.Add(s.ttl)}
		s.cleanupExpiredLocked(fetchedAt)
	}
	call.rate = rate
	call.err = err
	delete(s.inFlight, key)
	close(call.done)
	s.mu.Unlock()
}

func waitForInFlight(ctx context.Context, call *inFlightCall) (Rate, error) {
	select {
	case <-ctx.Done():
		return Rate{}, ctx.Err()
	case <-call.done:
		return call.rate, call.err
	}
}

func (s *CachedService) cleanupExpiredLocked(now time.Time) {
	interval := min(s.ttl, maxCleanupInterval)
	if !s.lastCleanup.IsZero() && now.Sub(s.lastCleanup) < interval {
		return
	}
	for pair, entry := range s.rates {
		if !now.Before(entry.expiresAt) {
			delete(s.rates, pair)
		}
	}
	s.lastCleanup = now
}
