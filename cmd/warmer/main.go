package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/adapters/observability"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/adapters/places"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/app"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/shared"
	mysqlrepo "github.com/amandagilmer/Rental-Directory-sub002/internal/storage/mysql"
)

// Refreshes the external review cache for every business that carries a
// provider place reference. Businesses with a valid cache are skipped; only
// stale or empty caches hit the provider.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, "warmer")

	log.Info().
		Str("base", cfg.PlacesBase).
		Int("workers", cfg.Workers).
		Msg("warmer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)

	client, err := places.New(cfg.PlacesBase, cfg.PlacesKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize places client")
	}
	svc := app.NewReviewService(repo, client, cfg.ExternalRevTTL, cfg.ExternalRevCap, cfg.FirstPartyLimit)

	refs, err := repo.ListPlaceRefs(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list place refs failed")
	}
	log.Info().Int("businesses", len(refs)).Msg("refreshable businesses found")

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, ref := range refs {
		ref := ref

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(int64(1))

			if err := svc.WarmExternal(ctx, ref.BusinessID, ref.PlaceID); err != nil {
				log.Warn().Str("business_id", ref.BusinessID).Err(err).Msg("warm failed")
				return
			}
			log.Info().Str("business_id", ref.BusinessID).Msg("warm ok")
		}()
	}

	wg.Wait()
	log.Info().Msg("warm completed")
}
