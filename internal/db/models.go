package db

import (
	"database/sql"
	"time"
)

type Identity struct {
	HotelID          string
	PlayerID         string
	DisplayName      string
	AppearanceString string
	LastSeenAt       time.Time
}

type BadgeObservation struct {
	ID                string
	HotelID           string
	PlayerID          string
	BadgeCode         string
	FirstSeenAt       time.Time
	FirstSeenPosition int64
	LastSeenAt        time.Time
}

type ListObservationHistoryRow struct {
	BadgeCode   string
	FirstSeenAt time.Time
}

type RankByBadgeCountRow struct {
	PlayerID         string
	BadgeCount       int64
	DisplayName      sql.NullString
	AppearanceString sql.NullString
}
