package domain

import (
	"encoding/json"
	"time"
)

type Badge struct {
	BadgeIndex  int    `json:"badgeIndex"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Profile is the upstream profile document. Only badges and the identity
// fields of the user block are interpreted; everything else passes through.
type Profile struct {
	User    json.RawMessage `json:"user"`
	Badges  []Badge         `json:"badges"`
	Friends json.RawMessage `json:"friends"`
	Groups  json.RawMessage `json:"groups"`
	Rooms   json.RawMessage `json:"rooms"`
}

type ProfileUser struct {
	UniqueID     string `json:"uniqueId"`
	Name         string `json:"name"`
	FigureString string `json:"figureString"`
}

// ProfileView is a profile enriched with badge discovery annotations.
type ProfileView struct {
	User           json.RawMessage      `json:"user"`
	Friends        json.RawMessage      `json:"friends"`
	Groups         json.RawMessage      `json:"groups"`
	Rooms          json.RawMessage      `json:"rooms"`
	Badges         []Badge              `json:"badges"`
	NewBadgeCodes  []string             `json:"newBadgeCodes"`
	BadgeFirstSeen map[string]time.Time `json:"badgeFirstSeen"`
}

type PlayerIdentity struct {
	HotelID          string
	PlayerID         string
	DisplayName      string
	AppearanceString string
	LastSeenAt       time.Time
}

type BadgeObservation struct {
	ID                string // nanoid
	HotelID           string
	PlayerID          string
	BadgeCode         string
	FirstSeenAt       time.Time
	FirstSeenPosition int
	LastSeenAt        time.Time
}

type NewObservation struct {
	Code     string
	Position int
}

type ObservationHistory struct {
	Code        string
	FirstSeenAt time.Time
}

type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	HotelID          string `json:"deploymentId"`
	PlayerID         string `json:"playerId"`
	DisplayName      string `json:"displayName"`
	AppearanceString string `json:"appearanceString"`
	BadgeCount       int    `json:"badgeCount"`
}
