// Package aggregate reduces raw daily price observations into one
// statistical summary row per (retailer, series, location) group for a
// resolved period.
package aggregate

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

type Engine struct {
	obs     benchmark.ObservationStore
	aggs    benchmark.AggregateStore
	basket  benchmark.BasketProvider // nil means every product is eligible
	workers int
	log     *zap.Logger
}

func NewEngine(obs benchmark.ObservationStore, aggs benchmark.AggregateStore,
	basket benchmark.BasketProvider, workers int, log *zap.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{obs: obs, aggs: aggs, basket: basket, workers: workers, log: log}
}

// AggregatePeriod reduces all available observations within [start, end]
// into period aggregates for release, persists the whole batch atomically
// (which also records previousID on the release and marks it processed),
// and returns the rows. Groups with zero observations produce no row.
// Re-running for the same release replaces the previous batch, never
// duplicates it.
func (e *Engine) AggregatePeriod(ctx context.Context, start, end time.Time,
	release *benchmark.Release, previousID *uint) ([]benchmark.PeriodAggregate, error) {

	observations, err := e.obs.AvailableObservations(ctx, start, end)
	if err != nil {
		return nil, benchmark.Transient("load price observations", err)
	}

	groups, err := e.groupEligible(ctx, observations, release.DataPeriod)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		e.log.Warn("no observations in period",
			zap.Time("period_start", start),
			zap.Time("period_end", end),
			zap.Uint("release_id", release.ID))
	}

	keys := make([]benchmark.GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	// Per-group reductions are independent; run them on a bounded pool.
	rows := make([]benchmark.PeriodAggregate, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, key := range keys {
		g.Go(func() error {
			row, err := e.reduceGroup(gctx, key, groups[key], start, end, release)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := e.aggs.ReplaceAggregates(ctx, release.ID, previousID, rows); err != nil {
		return nil, err
	}

	e.log.Info("aggregated period",
		zap.Uint("release_id", release.ID),
		zap.String("data_period", release.DataPeriod.String()),
		zap.Time("period_start", start),
		zap.Time("period_end", end),
		zap.Int("groups", len(rows)))

	return rows, nil
}

// groupEligible buckets observations by group key, dropping products
// outside the retailer's monthly basket. A retailer without a basket for
// the month keeps all its products (fallback policy).
func (e *Engine) groupEligible(ctx context.Context, observations []benchmark.PriceObservation,
	month benchmark.YearMonth) (map[benchmark.GroupKey][]benchmark.PriceObservation, error) {

	baskets := make(map[string]map[string]struct{})
	groups := make(map[benchmark.GroupKey][]benchmark.PriceObservation)

	for _, o := range observations {
		if e.basket != nil {
			eligible, ok := baskets[o.RetailerID]
			if !ok {
				var err error
				eligible, err = e.basket.EligibleProducts(ctx, o.RetailerID, month)
				if err != nil {
					return nil, benchmark.Transient("load basket", err)
				}
				baskets[o.RetailerID] = eligible
			}
			if len(eligible) > 0 {
				if _, ok := eligible[o.ProductID]; !ok {
					continue
				}
			}
		}

		key := benchmark.GroupKey{RetailerID: o.RetailerID, SeriesID: o.SeriesID, Location: o.Location}
		groups[key] = append(groups[key], o)
	}

	return groups, nil
}

func (e *Engine) reduceGroup(ctx context.Context, key benchmark.GroupKey,
	observations []benchmark.PriceObservation, start, end time.Time,
	release *benchmark.Release) (benchmark.PeriodAggregate, error) {

	prices := make([]float64, len(observations))
	days := make(map[string]struct{})
	for i, o := range observations {
		prices[i] = o.UnitPrice
		days[o.ScrapeDate.Format("2006-01-02")] = struct{}{}
	}

	row := benchmark.PeriodAggregate{
		ReleaseID:            release.ID,
		PeriodStart:          start,
		PeriodEnd:            end,
		RetailerID:           key.RetailerID,
		SeriesID:             key.SeriesID,
		Location:             key.Location,
		MeanPrice:            mean(prices),
		MedianPrice:          median(prices),
		StdDev:               sampleStdDev(prices),
		SampleSize:           len(prices),
		DistinctDaysWithData: len(days),
	}

	idx, err := e.obs.IndexObservation(ctx, key.SeriesID, release.DataPeriod)
	if err != nil {
		return benchmark.PeriodAggregate{}, benchmark.Transient("load index observation", err)
	}
	if idx == nil {
		// Missing index data is expected for series outside this release;
		// the gap fields stay nil.
		e.log.Warn("no index observation for group",
			zap.String("series_id", key.SeriesID),
			zap.String("data_period", release.DataPeriod.String()))
		return row, nil
	}

	value := idx.Value
	row.IndexValue = &value
	if value != 0 {
		gap := row.MeanPrice - value
		gapPct := gap / value * 100
		row.GapAmount = &gap
		row.GapPercent = &gapPct
	}

	return row, nil
}

func lessKey(a, b benchmark.GroupKey) bool {
	if a.RetailerID != b.RetailerID {
		return a.RetailerID < b.RetailerID
	}
	if a.SeriesID != b.SeriesID {
		return a.SeriesID < b.SeriesID
	}
	return a.Location < b.Location
}
