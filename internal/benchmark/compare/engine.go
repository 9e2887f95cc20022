// Package compare matches a release's period aggregates against the
// previous period's aggregates and produces directional verdicts.
package compare

import (
	"context"

	"go.uber.org/zap"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

// DefaultThresholdPoints is the half-width of the INLINE band in
// percentage points.
const DefaultThresholdPoints = 0.2

type Engine struct {
	releases  benchmark.ReleaseStore
	aggs      benchmark.AggregateStore
	comps     benchmark.ComparisonStore
	threshold float64
	log       *zap.Logger
}

func NewEngine(releases benchmark.ReleaseStore, aggs benchmark.AggregateStore,
	comps benchmark.ComparisonStore, thresholdPoints float64, log *zap.Logger) *Engine {
	if thresholdPoints <= 0 {
		thresholdPoints = DefaultThresholdPoints
	}
	return &Engine{releases: releases, aggs: aggs, comps: comps, threshold: thresholdPoints, log: log}
}

// Classify maps a delta gap (in percentage points) to a verdict. The band
// is inclusive on both boundaries: exactly +/- threshold is INLINE.
func Classify(deltaGapPoints, thresholdPoints float64) benchmark.Verdict {
	switch {
	case deltaGapPoints > thresholdPoints:
		return benchmark.VerdictAbove
	case deltaGapPoints < -thresholdPoints:
		return benchmark.VerdictBelow
	default:
		return benchmark.VerdictInline
	}
}

// CompareRelease pairs each aggregate of release with the previous
// period's aggregate for the same group key, computes deltas, persists
// the comparisons idempotently and returns them. The first release, and
// groups with no history, produce nothing; neither is an error.
func (e *Engine) CompareRelease(ctx context.Context, release *benchmark.Release) ([]benchmark.PeriodComparison, error) {
	previous, err := e.previousOf(ctx, release)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		e.log.Info("first release, nothing to compare against",
			zap.Uint("release_id", release.ID))
		return nil, nil
	}

	current, err := e.aggs.AggregatesForRelease(ctx, release.ID)
	if err != nil {
		return nil, benchmark.Transient("load current aggregates", err)
	}
	prior, err := e.aggs.AggregatesForRelease(ctx, previous.ID)
	if err != nil {
		return nil, benchmark.Transient("load previous aggregates", err)
	}

	priorByKey := make(map[benchmark.GroupKey]benchmark.PeriodAggregate, len(prior))
	for _, a := range prior {
		priorByKey[a.GroupKey()] = a
	}

	var comps []benchmark.PeriodComparison
	for _, cur := range current {
		prev, ok := priorByKey[cur.GroupKey()]
		if !ok {
			// Group newly appeared; no history yet.
			e.log.Debug("no previous-period aggregate for group",
				zap.String("retailer_id", cur.RetailerID),
				zap.String("series_id", cur.SeriesID),
				zap.String("location", cur.Location))
			continue
		}
		comps = append(comps, e.comparePair(cur, prev))
	}

	if err := e.comps.InsertComparisons(ctx, comps); err != nil {
		return nil, err
	}

	e.log.Info("compared release",
		zap.Uint("release_id", release.ID),
		zap.Uint("previous_release_id", previous.ID),
		zap.Int("pairs", len(comps)))

	return comps, nil
}

// previousOf prefers the previous-release id recorded at aggregation
// time; recomputing it later could disagree with the boundaries the
// aggregates were built on.
func (e *Engine) previousOf(ctx context.Context, release *benchmark.Release) (*benchmark.Release, error) {
	if release.PreviousID != nil {
		prev, err := e.releases.ReleaseByID(ctx, *release.PreviousID)
		if err != nil {
			return nil, benchmark.Transient("load previous release", err)
		}
		return prev, nil
	}

	prev, err := e.releases.PreviousRelease(ctx, release)
	if err != nil {
		return nil, benchmark.Transient("find previous release", err)
	}
	return prev, nil
}

func (e *Engine) comparePair(cur, prev benchmark.PeriodAggregate) benchmark.PeriodComparison {
	comp := benchmark.PeriodComparison{
		CurrentAggregateID:  cur.ID,
		PreviousAggregateID: prev.ID,
		ReleaseID:           cur.ReleaseID,
		RetailerID:          cur.RetailerID,
		SeriesID:            cur.SeriesID,
		Location:            cur.Location,
		RetailerDeltaAmount: cur.MeanPrice - prev.MeanPrice,
	}
	if prev.MeanPrice != 0 {
		comp.RetailerDeltaPercent = (cur.MeanPrice/prev.MeanPrice - 1) * 100
	}

	if cur.IndexValue == nil || prev.IndexValue == nil {
		// No meaningful index comparison exists; retailer deltas still stand.
		e.log.Debug("index value missing for pair, skipping verdict",
			zap.String("series_id", cur.SeriesID),
			zap.Uint("current_aggregate_id", cur.ID),
			zap.Uint("previous_aggregate_id", prev.ID))
		return comp
	}

	indexDelta := *cur.IndexValue - *prev.IndexValue
	comp.IndexDeltaAmount = &indexDelta

	indexDeltaPct := 0.0
	if *prev.IndexValue != 0 {
		indexDeltaPct = (*cur.IndexValue / *prev.IndexValue - 1) * 100
	}
	comp.IndexDeltaPercent = &indexDeltaPct

	gap := comp.RetailerDeltaPercent - indexDeltaPct
	comp.DeltaGapPoints = &gap

	verdict := Classify(gap, e.threshold)
	comp.Verdict = &verdict

	return comp
}
