package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/artifact-scout/internal/domain"
	"github.com/example/artifact-scout/internal/logging"
	"github.com/example/artifact-scout/internal/metrics"
)

// TeamStore is the read side of the team reference table.
type TeamStore interface {
	FindTeam(ctx context.Context, location, objectType string) (*domain.Team, error)
}

// TeamResolver maps (location, object type) to a research team. Lookups are
// exact; object types are expected to be lower-cased by the caller.
type TeamResolver struct {
	store  TeamStore
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewTeamResolver builds a resolver. cache may be nil to disable caching.
func NewTeamResolver(store TeamStore, cache Cache, ttl time.Duration, logger *zap.Logger) *TeamResolver {
	return &TeamResolver{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("team_resolver"),
	}
}

func cacheKey(location, objectType string) string {
	return fmt.Sprintf("team:%s:%s", location, objectType)
}

// Resolve returns the matching team or nil when no row matches.
func (r *TeamResolver) Resolve(ctx context.Context, location, objectType string) (*domain.Team, error) {
	key := cacheKey(location, objectType)
	if team, ok := r.fromCache(ctx, key); ok {
		return team, nil
	}

	team, err := r.store.FindTeam(ctx, location, objectType)
	if err != nil {
		return nil, logging.NewOperationError("resolver.resolve", "", err)
	}
	if team != nil {
		r.toCache(ctx, key, team)
	}
	return team, nil
}

func (r *TeamResolver) fromCache(ctx context.Context, key string) (*domain.Team, bool) {
	if r.cache == nil {
		return nil, false
	}

	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			metrics.TeamCacheLookupsTotal.WithLabelValues("miss").Inc()
		} else {
			metrics.TeamCacheLookupsTotal.WithLabelValues("error").Inc()
			r.logger.Warn("failed to read team cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var team domain.Team
	if err := json.Unmarshal(raw, &team); err != nil {
		metrics.TeamCacheLookupsTotal.WithLabelValues("error").Inc()
		r.logger.Warn("failed to decode cached team", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	metrics.TeamCacheLookupsTotal.WithLabelValues("hit").Inc()
	return &team, true
}

func (r *TeamResolver) toCache(ctx context.Context, key string, team *domain.Team) {
	if r.cache == nil {
		return
	}
	serialized, err := json.Marshal(team)
	if err != nil {
		r.logger.Warn("failed to serialize team", zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, key, serialized, r.ttl); err != nil {
		r.logger.Warn("failed to cache team", zap.String("key", key), zap.Error(err))
	}
}
