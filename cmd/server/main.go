package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/legal-search/internal/config"
	"github.com/ayush/legal-search/internal/history"
	"github.com/ayush/legal-search/internal/kanoon"
	"github.com/ayush/legal-search/internal/logger"
	"github.com/ayush/legal-search/internal/metrics"
	"github.com/ayush/legal-search/internal/middleware"
	"github.com/ayush/legal-search/internal/render"
	"github.com/ayush/legal-search/internal/search"
	"github.com/ayush/legal-search/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	var (
		routerOpts []search.RouterOption
		searchLog  history.SearchStore
		viewLog    history.ViewStore
	)

	// ── PostgreSQL (search history) ──────────────────────────
	if cfg.PostgresDSN != "" {
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connect")
		}
		defer pgPool.Close()
		pgStore := store.NewPostgresStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres migrate")
		}
		routerOpts = append(routerOpts, search.WithSearchLog(pgStore))
		searchLog = pgStore
	}

	// ── MongoDB (document views) ─────────────────────────────
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connect")
		}
		defer mongoClient.Disconnect(ctx)
		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		routerOpts = append(routerOpts, search.WithViewLog(mongoStore))
		viewLog = mongoStore
	}

	// ── Redis (rate limit) ───────────────────────────────────
	var limiter middleware.Limiter
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect")
		}
		defer rdb.Close()
		limiter = store.NewRedisLimiter(rdb, cfg.RateLimitPerMinute, time.Minute)
	}

	// ── Legal search API ─────────────────────────────────────
	client := kanoon.NewClient(kanoon.Options{
		SearchURL: cfg.SearchAPIURL,
		DocURL:    cfg.DocAPIURL,
		Token:     cfg.APIToken,
		Timeout:   cfg.UpstreamTimeout,
	})

	var renderOpts []render.Option
	if cfg.SanitizeUpstreamHTML {
		renderOpts = append(renderOpts, render.WithSanitizer())
	}
	renderer, err := render.New(renderOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("load templates")
	}

	// ── Handlers ─────────────────────────────────────────────
	searchHandler := search.NewHandler(search.NewRouter(client, client, routerOpts...), renderer)
	historyHandler := history.NewHandler(searchLog, viewLog)

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("trusted proxies")
	}

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(middleware.RealIP(trustedProxies))
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(middleware.RateLimit(limiter))
		}
		r.Get("/", searchHandler.View)
		r.Post("/", searchHandler.View)

		// History exposes other visitors' queries; operator token only.
		if cfg.HistoryTokenHash == "" {
			log.Info().Msg("history routes disabled: HISTORY_TOKEN_HASH not set")
			return
		}
		r.Route("/api/history", func(r chi.Router) {
			r.Use(middleware.RequireToken([]byte(cfg.HistoryTokenHash)))
			r.Get("/searches", historyHandler.Searches)
			r.Get("/views", historyHandler.Views)
		})
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("legal search listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
