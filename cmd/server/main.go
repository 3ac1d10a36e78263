// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/Adam-Dabees/LiveCategories-sub000/internal/cache"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/category"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/config"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/game"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/handlers"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/middleware"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/stats"
	"github.com/Adam-Dabees/LiveCategories-sub000/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg := config.Load()
	ctx := context.Background()

	// Lobby store: remote documents when Mongo is reachable, with a per-lobby
	// in-memory failover behind it. A missing MONGO_URI means memory-only.
	var primary store.Store
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		ms, err := store.NewMongoStore(connectCtx, cfg.MongoURI, cfg.MongoDB, logger)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("mongo unreachable at startup, serving from memory")
		} else {
			primary = ms
			logger.WithField("db", cfg.MongoDB).Info("connected to mongo")
		}
	}
	st := store.NewFailoverStore(primary, store.NewMemoryStore(), logger)
	defer st.Close(ctx)

	// Category item cache: optional Redis second level.
	var itemsCache *cache.ItemsCache
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("redis unreachable, category caching is in-process only")
		} else {
			itemsCache = cache.NewItemsCache(client, category.DefaultTTL)
			logger.WithField("addr", cfg.RedisAddr).Info("connected to redis")
		}
	}
	registry := category.NewDefaultRegistry(itemsCache, logger)

	// Stats: Postgres when configured, else in-memory.
	var recorder stats.Recorder
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.WithError(err).Warn("postgres config invalid, stats are in-memory")
		} else {
			pg := stats.NewPostgresRecorder(pool)
			if err := pg.EnsureSchema(ctx); err != nil {
				logger.WithError(err).Warn("postgres unreachable, stats are in-memory")
				pool.Close()
			} else {
				recorder = pg
				defer pool.Close()
				logger.Info("connected to postgres")
			}
		}
	}
	if recorder == nil {
		recorder = stats.NewMemoryRecorder()
	}

	sched := game.NewTimerScheduler(logger)
	defer sched.Stop()

	engine := game.NewEngine(st, sched, registry, recorder, logger)
	engine.DefaultBestOf = cfg.DefaultBestOf
	engine.Timings.Bidding = cfg.BiddingDuration
	engine.Timings.PassWindow = cfg.PassWindow
	engine.Timings.Listing = cfg.ListingDuration
	engine.Timings.Summary = cfg.SummaryDuration
	engine.Timings.ShotClock = cfg.BidShotClock

	dispatcher := handlers.NewDispatcher(engine, logger)
	api := handlers.NewAPI(engine, st, registry, recorder, logger)

	mux := http.NewServeMux()
	api.Routes(mux)
	mux.HandleFunc("/ws/", handlers.WSHandler(st, dispatcher, logger))

	addr := ":" + cfg.Port
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, middleware.LogMiddleware(logger)(mux)); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
