package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habbo-tracker/internal/constants"
	"habbo-tracker/internal/db"
	"habbo-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// ObservationRepository is the badge observation ledger. It is the only
// writer of badge_observations rows.
type ObservationRepository struct {
	queries *db.Queries
	db      *sql.DB
	logger  zerolog.Logger
}

func NewObservationRepository(sqlDB *sql.DB, queries *db.Queries, logger zerolog.Logger) *ObservationRepository {
	return &ObservationRepository{
		queries: queries,
		db:      sqlDB,
		logger:  logger,
	}
}

func (r *ObservationRepository) ObservedCodes(ctx context.Context, hotelID, playerID string) (map[string]struct{}, error) {
	codes, err := r.queries.ListObservedCodes(ctx, hotelID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observed codes: %w", err)
	}

	observed := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		observed[code] = struct{}{}
	}
	return observed, nil
}

// RecordNew inserts one row per entry with first_seen_at = last_seen_at =
// observedAt. Rows that already exist are left untouched, so racing
// callers can never overwrite an earlier first_seen_at.
func (r *ObservationRepository) RecordNew(ctx context.Context, hotelID, playerID string, entries []domain.NewObservation, observedAt time.Time) error {
	if len(entries) == 0 {
		return nil
	}
	observedAt = normalizeTime(observedAt)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	inserted := 0
	for i := 0; i < len(entries); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(entries) {
			end = len(entries)
		}

		for _, entry := range entries[i:end] {
			id, err := gonanoid.New()
			if err != nil {
				return fmt.Errorf("failed to generate nanoid: %w", err)
			}

			created, err := qtx.InsertObservationIfAbsent(ctx, db.InsertObservationParams{
				ID:                id,
				HotelID:           hotelID,
				PlayerID:          playerID,
				BadgeCode:         entry.Code,
				FirstSeenAt:       observedAt,
				FirstSeenPosition: int64(entry.Position),
				LastSeenAt:        observedAt,
			})
			if err != nil {
				return fmt.Errorf("failed to insert observation %s: %w", entry.Code, err)
			}
			if created {
				inserted++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit observations: %w", err)
	}

	r.logger.Debug().
		Str("hotel", hotelID).
		Str("player_id", playerID).
		Int("requested", len(entries)).
		Int("inserted", inserted).
		Msg("recorded new observations")
	return nil
}

// Touch moves last_seen_at to observedAt for existing rows among codes.
func (r *ObservationRepository) Touch(ctx context.Context, hotelID, playerID string, codes []string, observedAt time.Time) error {
	if len(codes) == 0 {
		return nil
	}
	observedAt = normalizeTime(observedAt)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := r.queries.WithTx(tx)

	var touched int64
	for i := 0; i < len(codes); i += constants.DBBatchSize {
		end := i + constants.DBBatchSize
		if end > len(codes) {
			end = len(codes)
		}

		n, err := qtx.TouchObservations(ctx, db.TouchObservationsParams{
			HotelID:    hotelID,
			PlayerID:   playerID,
			Codes:      codes[i:end],
			LastSeenAt: observedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to touch observations: %w", err)
		}
		touched += n
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit touch: %w", err)
	}

	r.logger.Debug().
		Str("hotel", hotelID).
		Str("player_id", playerID).
		Int64("touched", touched).
		Msg("touched observations")
	return nil
}

// OrderedHistory lists every observed badge newest discovery first, ties
// broken by the position the badge had when it was discovered.
func (r *ObservationRepository) OrderedHistory(ctx context.Context, hotelID, playerID string) ([]domain.ObservationHistory, error) {
	rows, err := r.queries.ListObservationHistory(ctx, hotelID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observation history: %w", err)
	}

	history := make([]domain.ObservationHistory, len(rows))
	for i, row := range rows {
		history[i] = domain.ObservationHistory{
			Code:        row.BadgeCode,
			FirstSeenAt: row.FirstSeenAt.UTC(),
		}
	}
	return history, nil
}

func (r *ObservationRepository) Get(ctx context.Context, hotelID, playerID, badgeCode string) (*domain.BadgeObservation, error) {
	row, err := r.queries.GetObservation(ctx, hotelID, playerID, badgeCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &domain.BadgeObservation{
		ID:                row.ID,
		HotelID:           row.HotelID,
		PlayerID:          row.PlayerID,
		BadgeCode:         row.BadgeCode,
		FirstSeenAt:       row.FirstSeenAt.UTC(),
		FirstSeenPosition: int(row.FirstSeenPosition),
		LastSeenAt:        row.LastSeenAt.UTC(),
	}, nil
}

// Both dialects compare timestamps at microsecond precision in UTC.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
