package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/semaphore"

	"accessible_travel/internal/adapters/crawl"
	"accessible_travel/internal/adapters/observability"
	redisad "accessible_travel/internal/adapters/redis"
	"accessible_travel/internal/app"
	"accessible_travel/internal/catalog"
	"accessible_travel/internal/domain"
	"accessible_travel/internal/shared"
)

func main() {
	force := flag.Bool("force", false, "refresh cities even when a fresh entry is cached")
	quiet := flag.Bool("quiet", false, "hide the progress bar")
	flag.Parse()

	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.CrawlKey == "" {
		log.Fatal().Msg("CRAWL_API_KEY is required to warm the hotel cache")
	}

	cat, err := catalog.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("catalog load failed")
	}
	store := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
	}

	scraper := crawl.New(cfg.CrawlBase, cfg.CrawlKey, cfg.CrawlRPS, cfg.CrawlMaxRetries)
	hotels := app.NewHotelService(store, scraper, cfg.HotelSearchURL, cfg.CacheFreshness)
	warm := app.NewWarmService(hotels, cat)
	cities := warm.Cities()

	workers := cfg.WarmWorkers
	if workers <= 0 {
		workers = 1
	}
	log.Info().Int("cities", len(cities)).Int("workers", workers).Bool("force", *force).Msg("warmer starting")

	bar := progressbar.NewOptions(len(cities),
		progressbar.OptionSetDescription("Warming hotel cache"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!*quiet),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var refreshed, skipped, failed atomic.Int32
	for _, city := range cities {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("warmer interrupted")
			break
		}
		wg.Add(1)
		go func(city string) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() { _ = bar.Add(1) }()

			r := warm.WarmCity(ctx, city, *force)
			switch {
			case r.Err != nil:
				failed.Add(1)
				if errors.Is(r.Err, domain.ErrMissingCredential) {
					stop()
				}
			case r.Skipped:
				skipped.Add(1)
			default:
				refreshed.Add(1)
				log.Debug().Str("city", city).Int("hotels", r.Hotels).Msg("warmed")
			}
		}(city)
	}
	wg.Wait()

	log.Info().
		Int32("refreshed", refreshed.Load()).
		Int32("skipped", skipped.Load()).
		Int32("failed", failed.Load()).
		Msg("warming completed")
	if failed.Load() > 0 {
		os.Exit(1)
	}
}
