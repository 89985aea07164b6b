package constants

import "time"

const (
	RankingCacheTTL = 1 * time.Minute
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
	DBPingTimeout     = 5 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	RankingDefaultLimit = 1000
	RankingMinLimit     = 1
	RankingMaxLimit     = 5000
)

// Placeholder identity for ranked players whose identity row was never written.
const (
	UnknownDisplayName = "?"
)
