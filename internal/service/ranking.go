package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"habbo-tracker/internal/constants"
	"habbo-tracker/internal/domain"
	"habbo-tracker/internal/hotel"
	"habbo-tracker/internal/monitoring"

	"github.com/rs/zerolog"
)

type RankingStore interface {
	RankByBadgeCount(ctx context.Context, hotelID string, limit int) ([]domain.LeaderboardEntry, error)
}

type RankingCache interface {
	Get(ctx context.Context, hotelID string, limit int) ([]domain.LeaderboardEntry, bool, error)
	Set(ctx context.Context, hotelID string, limit int, entries []domain.LeaderboardEntry) error
}

// RankingService serves the badge leaderboard. store is nil when
// persistence is not available; cache is optional.
type RankingService struct {
	store  RankingStore
	cache  RankingCache
	logger zerolog.Logger
}

func NewRankingService(store RankingStore, cache RankingCache, logger zerolog.Logger) *RankingService {
	return &RankingService{store: store, cache: cache, logger: logger}
}

func (s *RankingService) Available() bool {
	return s.store != nil
}

func (s *RankingService) RankByBadgeCount(ctx context.Context, hotelID string, limit int) ([]domain.LeaderboardEntry, error) {
	if hotelID == "" {
		return nil, fmt.Errorf("%w: hotel is required", domain.ErrInvalidInput)
	}
	if _, ok := hotel.ByID(hotelID); !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDeployment, hotelID)
	}
	if s.store == nil {
		return nil, domain.ErrPersistenceUnavailable
	}
	limit = ClampLimit(limit)

	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx, hotelID, limit)
		switch {
		case err != nil:
			monitoring.RankingCache.WithLabelValues("error").Inc()
			s.logger.Warn().Err(err).Str("hotel", hotelID).Msg("ranking cache read failed")
		case ok:
			monitoring.RankingCache.WithLabelValues("hit").Inc()
			return entries, nil
		default:
			monitoring.RankingCache.WithLabelValues("miss").Inc()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	entries, err := s.store.RankByBadgeCount(ctx, hotelID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("hotel", hotelID).Int("limit", limit).Msg("failed to rank players")
		return nil, err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, hotelID, limit, entries); err != nil {
			s.logger.Warn().Err(err).Str("hotel", hotelID).Msg("ranking cache write failed")
		}
	}

	s.logger.Info().Str("hotel", hotelID).Int("limit", limit).Int("count", len(entries)).Msg("ranking served")
	return entries, nil
}

func ClampLimit(limit int) int {
	if limit == 0 {
		return constants.RankingDefaultLimit
	}
	if limit < constants.RankingMinLimit {
		return constants.RankingMinLimit
	}
	if limit > constants.RankingMaxLimit {
		return constants.RankingMaxLimit
	}
	return limit
}

// ParseLimit reads a raw limit parameter; missing, zero or non-numeric
// values fall back to the default.
func ParseLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return constants.RankingDefaultLimit
	}
	return ClampLimit(n)
}
