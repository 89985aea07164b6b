package fx

import (
	"habbo-tracker/internal/api"
	"habbo-tracker/internal/cache"
	"habbo-tracker/internal/config"
	"habbo-tracker/internal/database"
	"habbo-tracker/internal/db"
	"habbo-tracker/internal/logger"
	"habbo-tracker/internal/repository"
	"habbo-tracker/internal/server"
	"habbo-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Persistence carries the optional stores. All fields are nil when the
// database is disabled or was unreachable at start-up.
type Persistence struct {
	fx.Out

	Ledger     service.Ledger
	Identities service.IdentityStore
	Ranking    service.RankingStore
}

func ProvidePersistence(store *database.Store, logger zerolog.Logger) Persistence {
	if !store.Available() {
		return Persistence{}
	}
	queries := db.New(store.DB, store.Dialect)
	return Persistence{
		Ledger:     repository.NewObservationRepository(store.DB, queries, logger),
		Identities: repository.NewIdentityRepository(queries, logger),
		Ranking:    repository.NewRankingRepository(queries, logger),
	}
}

func ProvideRankingCache(c *cache.RankingCache) service.RankingCache {
	if c == nil {
		return nil
	}
	return c
}

// Module wires the application. Options passed in share the logger narrowed
// to the configured level.
func Module(extra ...fx.Option) fx.Option {
	opts := []fx.Option{
		fx.Decorate(logger.ForConfig),
		// storage
		fx.Provide(database.New),
		fx.Provide(ProvidePersistence),
		fx.Provide(cache.New),
		fx.Provide(ProvideRankingCache),
		// api client
		fx.Provide(fx.Annotate(api.NewHabboClient, fx.As(new(service.ProfileFetcher)))),
		// svc
		fx.Provide(service.NewReconciler),
		fx.Provide(service.NewProfileService),
		fx.Provide(service.NewRankingService),
		// server
		fx.Provide(server.NewTrackerServer),
	}

	return fx.Options(
		logger.Module,
		config.Module,
		fx.Module("tracker", append(opts, extra...)...),
	)
}
