package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/loyalty-service/internal/passtoken"
	"github.com/spec-kit/loyalty-service/internal/persistence"
	"github.com/spec-kit/loyalty-service/internal/repository"
)

const statsCacheTTL = time.Minute

// ReportService serves the read-only validation reporting surface.
// Aggregates are cached in redis; the cache is best effort and a
// miss or redis outage falls through to postgres.
type ReportService struct {
	events repository.ValidationEventRepository
	cache  *persistence.Redis
	logger *zap.Logger
}

// NewReportService builds the service.
func NewReportService(events repository.ValidationEventRepository, cache *persistence.Redis, logger *zap.Logger) *ReportService {
	return &ReportService{events: events, cache: cache, logger: logger}
}

// RecentEvents lists the newest validation events.
func (s *ReportService) RecentEvents(ctx context.Context, limit int) ([]passtoken.Event, error) {
	return s.events.ListRecent(ctx, limit)
}

// Stats aggregates validation outcomes over the trailing window.
func (s *ReportService) Stats(ctx context.Context, windowHours int) ([]repository.OutcomeStat, error) {
	if windowHours <= 0 {
		windowHours = 24
	}
	key := fmt.Sprintf("loyalty:validation-stats:%dh", windowHours)

	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	since := time.Now().Add(-time.Duration(windowHours) * time.Hour)
	stats, err := s.events.AggregateStats(ctx, since)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, stats)
	return stats, nil
}

func (s *ReportService) fromCache(ctx context.Context, key string) []repository.OutcomeStat {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var stats []repository.OutcomeStat
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return stats
}

func (s *ReportService) toCache(ctx context.Context, key string, stats []repository.OutcomeStat) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, key, raw, statsCacheTTL).Err(); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
}
