// Package sourcecache decorates the Demand/Journey Sources with a Redis
// read-through cache for by-id lookups. Enrichment fetches the same handful of
// summaries over and over; caching them bounds the fan-out to the remote services.
// Status-filtered listings used as discovery candidate pools are never cached:
// discovery must see a fresh pool.
package sourcecache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carrylink/carrylink_backend/internal/core/domain"
	"github.com/carrylink/carrylink_backend/internal/core/ports/sources"
	"github.com/carrylink/carrylink_backend/internal/middleware"
)

const (
	demandKeyPrefix  = "source:demand:"
	journeyKeyPrefix = "source:journey:"
)

// CachedDemandSource wraps a DemandSource with a Redis read-through cache.
type CachedDemandSource struct {
	next  sources.DemandSource
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedDemandSource decorates next with a cache of the given TTL.
func NewCachedDemandSource(next sources.DemandSource, client *redis.Client, ttl time.Duration) sources.DemandSource {
	return &CachedDemandSource{next: next, redis: client, ttl: ttl}
}

var _ sources.DemandSource = (*CachedDemandSource)(nil)

// GetDemandByID serves from cache when possible. Cache failures degrade to the
// underlying source; they are logged at debug and never surfaced.
func (s *CachedDemandSource) GetDemandByID(ctx context.Context, demandID string) (*domain.DemandSummary, error) {
	key := demandKeyPrefix + demandID

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == nil {
		var demand domain.DemandSummary
		if unmarshalErr := json.Unmarshal(data, &demand); unmarshalErr == nil {
			return &demand, nil
		}
		// A corrupt entry falls through to the source and gets overwritten.
	} else if !errors.Is(err, redis.Nil) {
		middleware.GetLoggerFromCtx(ctx).Debug("Demand cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}

	demand, err := s.next.GetDemandByID(ctx, demandID)
	if err != nil {
		return nil, err
	}

	if data, marshalErr := json.Marshal(demand); marshalErr == nil {
		if setErr := s.redis.Set(ctx, key, data, s.ttl).Err(); setErr != nil {
			middleware.GetLoggerFromCtx(ctx).Debug("Demand cache write failed",
				slog.String("key", key), slog.String("error", setErr.Error()))
		}
	}
	return demand, nil
}

// ListDemandsByStatus always hits the underlying source.
func (s *CachedDemandSource) ListDemandsByStatus(ctx context.Context, status domain.DemandStatus) ([]domain.DemandSummary, error) {
	return s.next.ListDemandsByStatus(ctx, status)
}

// CachedJourneySource wraps a JourneySource with a Redis read-through cache.
type CachedJourneySource struct {
	next  sources.JourneySource
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedJourneySource decorates next with a cache of the given TTL.
func NewCachedJourneySource(next sources.JourneySource, client *redis.Client, ttl time.Duration) sources.JourneySource {
	return &CachedJourneySource{next: next, redis: client, ttl: ttl}
}

var _ sources.JourneySource = (*CachedJourneySource)(nil)

// GetJourneyByID serves from cache when possible, degrading to the source.
func (s *CachedJourneySource) GetJourneyByID(ctx context.Context, journeyID int64) (*domain.JourneySummary, error) {
	key := journeyKeyPrefix + strconv.FormatInt(journeyID, 10)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == nil {
		var journey domain.JourneySummary
		if unmarshalErr := json.Unmarshal(data, &journey); unmarshalErr == nil {
			return &journey, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		middleware.GetLoggerFromCtx(ctx).Debug("Journey cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}

	journey, err := s.next.GetJourneyByID(ctx, journeyID)
	if err != nil {
		return nil, err
	}

	if data, marshalErr := json.Marshal(journey); marshalErr == nil {
		if setErr := s.redis.Set(ctx, key, data, s.ttl).Err(); setErr != nil {
			middleware.GetLoggerFromCtx(ctx).Debug("Journey cache write failed",
				slog.String("key", key), slog.String("error", setErr.Error()))
		}
	}
	return journey, nil
}

// ListJourneysByStatus always hits the underlying source.
func (s *CachedJourneySource) ListJourneysByStatus(ctx context.Context, status domain.JourneyStatus) ([]domain.JourneySummary, error) {
	return s.next.ListJourneysByStatus(ctx, status)
}
