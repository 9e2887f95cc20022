package main

import (
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/config"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/aggregate"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/compare"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/period"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/pipeline"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/release"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/schedule"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/exposure"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/logger"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/pkg/blsapi"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/pkg/storage/postgres"

	"context"
	"time"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg := config.Load()

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	// Postgres client with schema migration
	store, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	// BLS index client
	indexClient := blsapi.NewClient(cfg.BLS.BaseURL, cfg.BLS.APIKey, cfg.BLS.Timeout)

	// Core engines
	monitor := release.NewMonitor(store, store, indexClient, cfg.BLS.Series,
		release.NewSchedule(cfg.Monitor.Weekdays, cfg.Monitor.EarliestDay, cfg.Monitor.LatestDay), log)
	resolver := period.NewResolver(cfg.Aggregation.BootstrapMonths)
	aggregator := aggregate.NewEngine(store, store, store, cfg.Aggregation.Workers, log)
	comparator := compare.NewEngine(store, store, store, cfg.Comparison.ThresholdPoints, log)

	// Exposure surface: read API plus live comparison feed
	hub := exposure.NewHub(log)
	api := exposure.NewAPI(store, hub, log)

	pipe := pipeline.New(store, monitor, resolver, aggregator, comparator, hub, log)

	// Daily release check and processing
	runner := &schedule.DailyRunner{
		Hour: cfg.Monitor.CheckHour,
		Run: func(now time.Time) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if err := pipe.RunOnce(ctx, now); err != nil {
				log.Error("pipeline run failed", zap.Error(err))
			}
		},
	}
	runner.Start()

	log.Info("serving benchmark API", zap.String("addr", cfg.API.Addr))
	if err := api.Router().Run(cfg.API.Addr); err != nil {
		log.Fatal("api server failed", zap.Error(err))
	}
}
