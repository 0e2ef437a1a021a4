package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "github.com/amandagilmer/Rental-Directory-sub002/internal/adapters/http_server"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/adapters/observability"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/adapters/places"
	redisad "github.com/amandagilmer/Rental-Directory-sub002/internal/adapters/redis"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/app"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/domain"
	"github.com/amandagilmer/Rental-Directory-sub002/internal/shared"
	mysqlrepo "github.com/amandagilmer/Rental-Directory-sub002/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "api")

	observability.Serve(cfg.MetricsAddr)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	var provider domain.PlacesClient
	if cfg.PlacesKey != "" {
		pc, err := places.New(cfg.PlacesBase, cfg.PlacesKey, 5)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize places client")
		}
		provider = pc
	} else {
		log.Warn().Msg("no places key configured; external reviews disabled")
	}

	q := app.NewQueryService(repo, cache, cfg.ViewCacheTTL)
	rs := app.NewReviewService(repo, provider, cfg.ExternalRevTTL, cfg.ExternalRevCap, cfg.FirstPartyLimit)
	is := app.NewImportService(repo)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Q: q, R: rs, I: is})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
