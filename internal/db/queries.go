package db

import (
	"context"
	"strings"
	"time"
)

const upsertIdentity = `
INSERT INTO identities (hotel_id, player_id, display_name, appearance_string, last_seen_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (hotel_id, player_id) DO UPDATE SET
    display_name = excluded.display_name,
    appearance_string = excluded.appearance_string,
    last_seen_at = excluded.last_seen_at
`

type UpsertIdentityParams struct {
	HotelID          string
	PlayerID         string
	DisplayName      string
	AppearanceString string
	LastSeenAt       time.Time
}

func (q *Queries) UpsertIdentity(ctx context.Context, arg UpsertIdentityParams) error {
	_, err := q.db.ExecContext(ctx, q.rebind(upsertIdentity),
		arg.HotelID,
		arg.PlayerID,
		arg.DisplayName,
		arg.AppearanceString,
		arg.LastSeenAt,
	)
	return err
}

const getIdentity = `
SELECT hotel_id, player_id, display_name, appearance_string, last_seen_at
FROM identities
WHERE hotel_id = ? AND player_id = ?
`

func (q *Queries) GetIdentity(ctx context.Context, hotelID, playerID string) (Identity, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(getIdentity), hotelID, playerID)
	var i Identity
	err := row.Scan(
		&i.HotelID,
		&i.PlayerID,
		&i.DisplayName,
		&i.AppearanceString,
		&i.LastSeenAt,
	)
	return i, err
}

const listObservedCodes = `
SELECT badge_code
FROM badge_observations
WHERE hotel_id = ? AND player_id = ?
`

func (q *Queries) ListObservedCodes(ctx context.Context, hotelID, playerID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(listObservedCodes), hotelID, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		items = append(items, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Insert-only: an existing row keeps its first_seen_at.
const insertObservationIfAbsent = `
INSERT INTO badge_observations (id, hotel_id, player_id, badge_code, first_seen_at, first_seen_position, last_seen_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (hotel_id, player_id, badge_code) DO NOTHING
`

type InsertObservationParams struct {
	ID                string
	HotelID           string
	PlayerID          string
	BadgeCode         string
	FirstSeenAt       time.Time
	FirstSeenPosition int64
	LastSeenAt        time.Time
}

// InsertObservationIfAbsent reports whether a row was created.
func (q *Queries) InsertObservationIfAbsent(ctx context.Context, arg InsertObservationParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, q.rebind(insertObservationIfAbsent),
		arg.ID,
		arg.HotelID,
		arg.PlayerID,
		arg.BadgeCode,
		arg.FirstSeenAt,
		arg.FirstSeenPosition,
		arg.LastSeenAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const touchObservations = `
UPDATE badge_observations
SET last_seen_at = ?
WHERE hotel_id = ? AND player_id = ? AND last_seen_at < ? AND badge_code IN (/*codes*/)
`

type TouchObservationsParams struct {
	HotelID    string
	PlayerID   string
	Codes      []string
	LastSeenAt time.Time
}

// TouchObservations moves last_seen_at forward for existing rows. It never
// creates rows and never moves last_seen_at backwards.
func (q *Queries) TouchObservations(ctx context.Context, arg TouchObservationsParams) (int64, error) {
	if len(arg.Codes) == 0 {
		return 0, nil
	}

	query := strings.Replace(touchObservations, "/*codes*/", placeholders(len(arg.Codes)), 1)
	args := make([]interface{}, 0, len(arg.Codes)+4)
	args = append(args, arg.LastSeenAt, arg.HotelID, arg.PlayerID, arg.LastSeenAt)
	for _, code := range arg.Codes {
		args = append(args, code)
	}

	res, err := q.db.ExecContext(ctx, q.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listObservationHistory = `
SELECT badge_code, first_seen_at
FROM badge_observations
WHERE hotel_id = ? AND player_id = ?
ORDER BY first_seen_at DESC, first_seen_position ASC, badge_code ASC
`

func (q *Queries) ListObservationHistory(ctx context.Context, hotelID, playerID string) ([]ListObservationHistoryRow, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(listObservationHistory), hotelID, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ListObservationHistoryRow
	for rows.Next() {
		var i ListObservationHistoryRow
		if err := rows.Scan(&i.BadgeCode, &i.FirstSeenAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getObservation = `
SELECT id, hotel_id, player_id, badge_code, first_seen_at, first_seen_position, last_seen_at
FROM badge_observations
WHERE hotel_id = ? AND player_id = ? AND badge_code = ?
`

func (q *Queries) GetObservation(ctx context.Context, hotelID, playerID, badgeCode string) (BadgeObservation, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(getObservation), hotelID, playerID, badgeCode)
	var i BadgeObservation
	err := row.Scan(
		&i.ID,
		&i.HotelID,
		&i.PlayerID,
		&i.BadgeCode,
		&i.FirstSeenAt,
		&i.FirstSeenPosition,
		&i.LastSeenAt,
	)
	return i, err
}

const rankByBadgeCount = `
SELECT o.player_id, COUNT(DISTINCT o.badge_code) AS badge_count, i.display_name, i.appearance_string
FROM badge_observations o
LEFT JOIN identities i ON i.hotel_id = o.hotel_id AND i.player_id = o.player_id
WHERE o.hotel_id = ?
GROUP BY o.player_id, i.display_name, i.appearance_string
ORDER BY badge_count DESC, o.player_id ASC
LIMIT ?
`

type RankByBadgeCountParams struct {
	HotelID string
	Limit   int64
}

func (q *Queries) RankByBadgeCount(ctx context.Context, arg RankByBadgeCountParams) ([]RankByBadgeCountRow, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(rankByBadgeCount), arg.HotelID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RankByBadgeCountRow
	for rows.Next() {
		var i RankByBadgeCountRow
		if err := rows.Scan(
			&i.PlayerID,
			&i.BadgeCount,
			&i.DisplayName,
			&i.AppearanceString,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
