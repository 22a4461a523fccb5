// Package storage provides a thread-safe in-memory cache of monthly seller profiles.
//
// Profiles are keyed by (month, lookback) and built at most once per key: concurrent
// callers missing the same key share a single build. Cached profiles are never evicted;
// callers clear the cache explicitly with Invalidate.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Quintas0658/olist-ecommerce-project/internal/logger"
	"github.com/Quintas0658/olist-ecommerce-project/internal/models"
)

// BuildFunc builds the profile for a key on a cache miss.
type BuildFunc func(ctx context.Context, key models.ProfileKey) (*models.MonthlyProfile, error)

// ProfileStore caches monthly profiles by key.
type ProfileStore struct {
	profiles map[models.ProfileKey]*models.MonthlyProfile
	mu       sync.RWMutex
	group    singleflight.Group
}

// New creates an empty ProfileStore.
func New() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[models.ProfileKey]*models.MonthlyProfile),
	}
}

// Put stores a profile under its key, replacing any cached one.
func (s *ProfileStore) Put(p *models.MonthlyProfile) error {
	if p == nil {
		return fmt.Errorf("invalid profile: nil")
	}
	if err := validate(p); err != nil {
		return fmt.Errorf("invalid profile %s: %w", p.Key(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.Key()] = p
	return nil
}

// Get retrieves a cached profile.
func (s *ProfileStore) Get(key models.ProfileKey) (*models.MonthlyProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[key]
	return p, ok
}

// GetOrBuild returns the cached profile for key, building and caching it on a miss.
// Failed builds are not cached.
func (s *ProfileStore) GetOrBuild(ctx context.Context, key models.ProfileKey, build BuildFunc) (*models.MonthlyProfile, error) {
	if p, ok := s.Get(key); ok {
		logger.Debug("profile cache hit: %s", key)
		return p, nil
	}

	v, err, shared := s.group.Do(key.String(), func() (interface{}, error) {
		if p, ok := s.Get(key); ok {
			return p, nil
		}
		p, err := build(ctx, key)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("builder returned no profile for key %s", key)
		}
		if p.Key() != key {
			return nil, fmt.Errorf("builder returned profile %s for key %s", p.Key(), key)
		}
		if err := s.Put(p); err != nil {
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build profile %s: %w", key, err)
	}
	if shared {
		logger.Debug("profile build shared: %s", key)
	}
	return v.(*models.MonthlyProfile), nil
}

// Warm builds the given keys in parallel with at most workers concurrent builds.
// The first failure cancels the remaining builds.
func (s *ProfileStore) Warm(ctx context.Context, keys []models.ProfileKey, workers int, build BuildFunc) error {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := s.GetOrBuild(gctx, key, build)
			return err
		})
	}
	return g.Wait()
}

// Keys returns the cached keys ordered by month, then lookback.
func (s *ProfileStore) Keys() []models.ProfileKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]models.ProfileKey, 0, len(s.profiles))
	for k := range s.profiles {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Month != keys[j].Month {
			return keys[i].Month.Before(keys[j].Month)
		}
		return keys[i].Lookback < keys[j].Lookback
	})
	return keys
}

// Len returns the number of cached profiles.
func (s *ProfileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// Invalidate removes every cached profile.
func (s *ProfileStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles = make(map[models.ProfileKey]*models.MonthlyProfile)
}

func validate(p *models.MonthlyProfile) error {
	if p.Month.IsZero() {
		return fmt.Errorf("profile month must be set")
	}
	for i := range p.Sellers {
		if err := p.Sellers[i].Validate(); err != nil {
			return fmt.Errorf("seller %s: %w", p.Sellers[i].SellerID, err)
		}
	}
	return nil
}
