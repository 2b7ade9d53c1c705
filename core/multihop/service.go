package multihop

import (
	"context"
	"log/slog"
	"time"

	"github.com/siherrmann/graphreason/helper"
	"github.com/siherrmann/graphreason/model"
)

const (
	nHopPrefix     = "multi_hop"
	filteredPrefix = "multi_hop_filtered"
	maxFilterHops  = 4
)

// ReachDB finds the distinct end nodes reachable from a start node.
type ReachDB interface {
	SelectReachable(ctx context.Context, query model.ReachQuery) ([]*model.HopResult, error)
}

// Service answers cached multi-hop reachability queries.
type Service struct {
	db           ReachDB
	cache        Cache
	ttl          time.Duration
	defaultLimit int
	logger       *slog.Logger
}

// NewService creates a multi-hop service. A nil cache falls back to a
// MemoryCache with the given ttl.
func NewService(db ReachDB, cache Cache, ttl time.Duration, defaultLimit int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = NewMemoryCache(ttl)
	}
	if defaultLimit <= 0 {
		defaultLimit = 100
	}
	return &Service{
		db:           db,
		cache:        cache,
		ttl:          ttl,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// QueryNHop returns the distinct nodes reachable from startID within 1..n
// hops, n being 2, 3 or 4.
func (s *Service) QueryNHop(ctx context.Context, startID string, n int, opts model.MultiHopOptions) (*model.MultiHopResult, error) {
	if n < 2 || n > 4 {
		return nil, helper.NewError("query n hop", helper.Invalid("hop count must be 2, 3 or 4, got %d", n))
	}
	return s.query(ctx, "query n hop", nHopPrefix, startID, n, opts, nil)
}

// QueryWithFilters is QueryNHop with equality filters on end node properties.
func (s *Service) QueryWithFilters(ctx context.Context, startID string, hops int, opts model.MultiHopOptions, filters model.Metadata) (*model.MultiHopResult, error) {
	if hops < 1 || hops > maxFilterHops {
		return nil, helper.NewError("query with filters", helper.Invalid("hop count must be between 1 and %d, got %d", maxFilterHops, hops))
	}
	if err := filters.ValidateFilters(); err != nil {
		return nil, helper.NewError("query with filters", err)
	}
	return s.query(ctx, "query with filters", filteredPrefix, startID, hops, opts, filters)
}

func (s *Service) query(ctx context.Context, operation string, prefix string, startID string, hops int, opts model.MultiHopOptions, filters model.Metadata) (*model.MultiHopResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = s.defaultLimit
	}

	extra := map[string]interface{}{"hops": hops}
	if len(filters) > 0 {
		extra["filters"] = filters
	}
	key := CacheKey(prefix, startID, opts, extra)

	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Reading multi-hop cache failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if ok {
		cached.Cached = true
		return cached, nil
	}

	query := model.ReachQuery{
		StartID:         startID,
		MaxHops:         hops,
		RelationTypes:   opts.RelationTypes,
		EntityTypes:     opts.EntityTypes,
		MinConfidence:   opts.MinConfidence,
		PropertyFilters: filters,
		Limit:           opts.Limit,
	}

	results, err := s.db.SelectReachable(ctx, query)
	if err != nil {
		if helper.IsStoreUnavailable(err) {
			s.logger.Warn(
				"Graph store unavailable, returning empty multi-hop result",
				slog.String("operation", operation),
				slog.String("start_id", startID),
				slog.String("error", err.Error()),
			)
			return &model.MultiHopResult{
				StartID: startID,
				Hops:    hops,
				Results: []*model.HopResult{},
				Filters: &query,
			}, nil
		}
		return nil, helper.NewError(operation, err)
	}

	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	result := &model.MultiHopResult{
		StartID: startID,
		Hops:    hops,
		Results: results,
		Total:   len(results),
		Filters: &query,
	}

	if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
		s.logger.Warn("Writing multi-hop cache failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return result, nil
}

// ClearCache drops every cached result.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return helper.NewError("clear cache", err)
	}
	return nil
}
