package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-co-op/gocron"
	"github.com/redis/go-redis/v9"

	"github.com/flightops/arrivals/internal/airports"
	"github.com/flightops/arrivals/internal/cache"
	"github.com/flightops/arrivals/internal/config"
	"github.com/flightops/arrivals/internal/flight"
	"github.com/flightops/arrivals/internal/pipeline"
	"github.com/flightops/arrivals/internal/status"
	"github.com/flightops/arrivals/internal/storage"
	"github.com/flightops/arrivals/internal/timetable"
	"github.com/flightops/arrivals/internal/tzlookup"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("pipeline exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reference datasets load fully before any fetch; absence is fatal.
	targets, index, err := airports.Load(ctx, cfg.TargetAirportsFile, cfg.WorldAirportsFile)
	if err != nil {
		return fmt.Errorf("loading airport reference data: %w", err)
	}
	log.Info("airport reference data loaded", "targets", len(targets), "known_codes", index.Len())

	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := storage.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied")

	// The timezone-name cache is optional; without Redis every run
	// recomputes the polygon lookups.
	var (
		tzCache     tzlookup.NameCache
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		tzCache = cache.NewTimezoneCache(redisClient)
		log.Info("timezone cache enabled")
	}

	resolver, err := tzlookup.New(tzCache, log)
	if err != nil {
		return fmt.Errorf("initializing timezone resolver: %w", err)
	}

	// Wire the pipeline.
	estimator := flight.NewDurationEstimator(index, resolver, log)
	normalizer := flight.NewNormalizer(index, estimator)
	client := timetable.NewClient(cfg.APIKey, cfg.HTTPTimeout)
	orch := pipeline.New(client, normalizer, cfg.SleepBetweenCalls, cfg.MaxRetryRounds, log)
	repo := storage.NewArrivalRepository(pool, cfg.UpsertBatchSize)
	reporter := status.NewReporter()

	runOnce := func(ctx context.Context) error {
		records, summary, err := orch.Run(ctx, targets)
		if err != nil {
			reporter.Record(status.RunReport{Summary: summary, Error: err.Error()})
			return fmt.Errorf("fetching timetables: %w", err)
		}
		log.Info("run finished",
			"rounds", summary.Rounds,
			"kept", summary.Kept,
			"skipped", len(summary.Skipped),
			"dropped", len(summary.Dropped),
		)

		if err := repo.UpsertBatch(ctx, records); err != nil {
			reporter.Record(status.RunReport{Summary: summary, Error: err.Error()})
			return fmt.Errorf("saving arrivals: %w", err)
		}
		log.Info("arrivals saved", "count", len(records))

		reporter.Record(status.RunReport{Summary: summary, Saved: len(records)})
		return nil
	}

	if cfg.RunEvery <= 0 {
		return runOnce(ctx)
	}

	return runScheduled(ctx, cfg, runOnce, reporter, pool, redisClient, log)
}

// runScheduled repeats the pipeline on a fixed interval and serves the
// status endpoints until a termination signal arrives.
func runScheduled(
	ctx context.Context,
	cfg *config.Config,
	runOnce func(context.Context) error,
	reporter *status.Reporter,
	pool status.Pinger,
	redisClient *redis.Client,
	log *slog.Logger,
) error {
	sched := gocron.NewScheduler(time.UTC)
	_, err := sched.Every(cfg.RunEvery).SingletonMode().Do(func() {
		if err := runOnce(ctx); err != nil {
			log.Error("scheduled run failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling pipeline: %w", err)
	}
	sched.StartAsync()
	defer sched.Stop()
	log.Info("scheduler started", "every", cfg.RunEvery.String())

	var redisPinger status.Pinger
	if redisClient != nil {
		redisPinger = &redisPingerAdapter{client: redisClient}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.StatusPort,
		Handler:      status.NewRouter(reporter, pool, redisPinger, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("status server starting", "port", cfg.StatusPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("status server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}

	log.Info("shut down cleanly")
	return nil
}

// redisPingerAdapter adapts redis.Client to the status.Pinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
