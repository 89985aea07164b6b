package repository

import (
	"context"
	"fmt"

	"habbo-tracker/internal/constants"
	"habbo-tracker/internal/db"
	"habbo-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type RankingRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewRankingRepository(queries *db.Queries, logger zerolog.Logger) *RankingRepository {
	return &RankingRepository{
		queries: queries,
		logger:  logger,
	}
}

// RankByBadgeCount ranks players of a hotel by distinct observed badges.
// Equal counts are ordered by player id; players without an identity row
// get a placeholder name.
func (r *RankingRepository) RankByBadgeCount(ctx context.Context, hotelID string, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.queries.RankByBadgeCount(ctx, db.RankByBadgeCountParams{
		HotelID: hotelID,
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rank players: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, len(rows))
	for i, row := range rows {
		name := constants.UnknownDisplayName
		if row.DisplayName.Valid {
			name = row.DisplayName.String
		}
		entries[i] = domain.LeaderboardEntry{
			Rank:             i + 1,
			HotelID:          hotelID,
			PlayerID:         row.PlayerID,
			DisplayName:      name,
			AppearanceString: row.AppearanceString.String,
			BadgeCount:       int(row.BadgeCount),
		}
	}

	r.logger.Debug().Str("hotel", hotelID).Int("limit", limit).Int("count", len(entries)).Msg("ranking computed")
	return entries, nil
}
