package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"habbo-tracker/internal/db"
	"habbo-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type IdentityRepository struct {
	queries *db.Queries
	logger  zerolog.Logger
}

func NewIdentityRepository(queries *db.Queries, logger zerolog.Logger) *IdentityRepository {
	return &IdentityRepository{
		queries: queries,
		logger:  logger,
	}
}

// Upsert overwrites the stored snapshot unconditionally; last write wins.
func (r *IdentityRepository) Upsert(ctx context.Context, identity domain.PlayerIdentity) error {
	err := r.queries.UpsertIdentity(ctx, db.UpsertIdentityParams{
		HotelID:          identity.HotelID,
		PlayerID:         identity.PlayerID,
		DisplayName:      identity.DisplayName,
		AppearanceString: identity.AppearanceString,
		LastSeenAt:       normalizeTime(identity.LastSeenAt),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert identity %s/%s: %w", identity.HotelID, identity.PlayerID, err)
	}

	r.logger.Debug().
		Str("hotel", identity.HotelID).
		Str("player_id", identity.PlayerID).
		Msg("identity upserted")
	return nil
}

// Get returns nil without error when the player has no identity row.
func (r *IdentityRepository) Get(ctx context.Context, hotelID, playerID string) (*domain.PlayerIdentity, error) {
	identity, err := r.queries.GetIdentity(ctx, hotelID, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &domain.PlayerIdentity{
		HotelID:          identity.HotelID,
		PlayerID:         identity.PlayerID,
		DisplayName:      identity.DisplayName,
		AppearanceString: identity.AppearanceString,
		LastSeenAt:       identity.LastSeenAt.UTC(),
	}, nil
}
