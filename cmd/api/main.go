package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"accessible_travel/internal/adapters/crawl"
	server "accessible_travel/internal/adapters/http_server"
	"accessible_travel/internal/adapters/mail"
	"accessible_travel/internal/adapters/observability"
	redisad "accessible_travel/internal/adapters/redis"
	"accessible_travel/internal/app"
	"accessible_travel/internal/catalog"
	"accessible_travel/internal/domain"
	"accessible_travel/internal/shared"
	mysqlstore "accessible_travel/internal/storage/mysql"
	"accessible_travel/internal/storage/sqlite"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	cat, err := catalog.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("catalog load failed")
	}

	// stores: the hotel cache lives in redis, overlays in the configured backend
	hotelStore := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer hotelStore.Close()
	if err := hotelStore.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable")
	}
	overlayStore, closer, err := openOverlayStore(ctx, cfg, hotelStore)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.OverlayBackend).Msg("overlay store failed")
	}
	defer closer.Close()
	log.Info().Str("backend", cfg.OverlayBackend).Msg("overlay store ready")

	// services
	scraper := crawl.New(cfg.CrawlBase, cfg.CrawlKey, cfg.CrawlRPS, cfg.CrawlMaxRetries)
	mailer := mail.New(cfg.MailBase, cfg.MailKey, cfg.MailFrom)
	feedback := app.NewFeedbackService(overlayStore, crawl.NewCollector(20*time.Second), cat)

	// http
	srv := server.New(cfg.RequestTimeout)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Catalog:      cat,
		Hotels:       app.NewHotelService(hotelStore, scraper, cfg.HotelSearchURL, cfg.CacheFreshness),
		Trips:        app.NewTripService(overlayStore, cat, mailer),
		Overlays:     app.NewOverlayService(overlayStore, cat, feedback),
		Feedback:     feedback,
		FeedbackURLs: cfg.FeedbackURLs,
	})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openOverlayStore(ctx context.Context, cfg shared.Config, redisStore *redisad.Store) (domain.KVStore, io.Closer, error) {
	switch cfg.OverlayBackend {
	case "redis":
		return redisStore, nopCloser{}, nil
	case "mysql":
		db, err := mysqlstore.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		s := mysqlstore.New(db)
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return s, db, nil
	default:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
}
