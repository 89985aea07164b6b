package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"habbo-tracker/internal/config"
	"habbo-tracker/internal/constants"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/sqlite3/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// Store is the optional persistence handle. A Store without a DB means
// persistence is unconfigured or was unreachable at start-up.
type Store struct {
	DB      *sql.DB
	Dialect string
}

func (s *Store) Available() bool {
	return s != nil && s.DB != nil
}

func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	return s.DB.Close()
}

// New never fails on connection problems: the service keeps running
// without discovery annotations instead.
func New(cfg *config.Config, logger zerolog.Logger) *Store {
	if !cfg.PersistenceEnabled() {
		logger.Warn().Msg("persistence disabled, badge discovery and ranking unavailable")
		return &Store{}
	}

	store, err := Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.DBDriver).Msg("persistence unreachable, continuing without it")
		return &Store{}
	}
	return store
}

func Open(dialect, dsn string, logger zerolog.Logger) (*Store, error) {
	logger.Info().Str("driver", dialect).Msg("connecting to database")

	driverName := dialect
	if dialect == config.DriverPostgres {
		driverName = "pgx"
	}
	if dialect == config.DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(constants.DBMaxOpenConns)
	db.SetMaxIdleConns(constants.DBMaxIdleConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), constants.DBPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if dialect == config.DriverSQLite {
		if err := optimizeSQLite(db, logger); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to optimize SQLite: %w", err)
		}
	}
	if err := runMigrations(db, dialect, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info().Str("driver", dialect).Msg("database connection established")
	return &Store{DB: db, Dialect: dialect}, nil
}

// sqliteDSN sets per-connection options in the DSN; PRAGMAs run through
// the pool only reach one connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return dsn + sep + "_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL"
}

func runMigrations(db *sql.DB, dialect string, logger zerolog.Logger) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations/"+dialect); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	logger.Info().Msg("migrations completed successfully")
	return nil
}

func optimizeSQLite(sqlDB *sql.DB, logger zerolog.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"cache_size", "-64000"},
		{"temp_store", "MEMORY"},
		{"mmap_size", "268435456"}, // memory map 256MB for better performance https://sqlite.org/mmap.html
	}

	for _, pragma := range pragmas {
		query := fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)
		if _, err := sqlDB.Exec(query); err != nil {
			logger.Warn().
				Err(err).
				Str("pragma", pragma.name).
				Str("value", pragma.value).
				Msg("failed to set pragma")
			return fmt.Errorf("failed to set PRAGMA %s: %w", pragma.name, err)
		}
		logger.Debug().
			Str("pragma", pragma.name).
			Str("value", pragma.value).
			Msg("SQLite pragma set")
	}

	return nil
}
