// Package pipeline sequences the core: release detection, period
// resolution, aggregation and comparison, strictly in release order.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/aggregate"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/compare"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/period"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/release"
)

// Notifier receives newly produced comparisons. Implemented by the
// exposure feed; nil disables publishing.
type Notifier interface {
	PublishComparisons(comps []benchmark.PeriodComparison)
}

type Pipeline struct {
	// mu serializes release processing: two workers resolving period
	// boundaries concurrently could disagree on "previous release".
	mu sync.Mutex

	store      benchmark.Store
	monitor    *release.Monitor
	resolver   period.Resolver
	aggregator *aggregate.Engine
	comparator *compare.Engine
	notifier   Notifier
	log        *zap.Logger
}

func New(store benchmark.Store, monitor *release.Monitor, resolver period.Resolver,
	aggregator *aggregate.Engine, comparator *compare.Engine, notifier Notifier,
	log *zap.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		monitor:    monitor,
		resolver:   resolver,
		aggregator: aggregator,
		comparator: comparator,
		notifier:   notifier,
		log:        log,
	}
}

// RunOnce performs one scheduling trigger: probe for a new release, then
// aggregate and compare every pending release in chronological order. A
// failed release stays unprocessed and is retried on the next trigger.
func (p *Pipeline) RunOnce(ctx context.Context, today time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.monitor.CheckForNewRelease(ctx, today); err != nil {
		if benchmark.IsIntegrity(err) {
			return err
		}
		// A transient probe failure must not block aggregation of
		// releases already recorded.
		p.log.Warn("release check failed", zap.Error(err))
	}

	return p.processPending(ctx)
}

func (p *Pipeline) processPending(ctx context.Context) error {
	processedAny := false

	for {
		rel, err := p.store.NextUnprocessedRelease(ctx)
		if err != nil {
			return benchmark.Transient("find next unprocessed release", err)
		}
		if rel == nil {
			break
		}
		if err := p.processRelease(ctx, rel); err != nil {
			return err
		}
		processedAny = true
	}

	if !processedAny {
		return p.healComparisons(ctx)
	}
	return nil
}

// processRelease resolves the period, aggregates it (one atomic batch,
// marking the release processed), then compares against the previous
// period. Aggregation and comparison are distinct steps: a comparison
// failure leaves the release processed and is healed on the next trigger.
func (p *Pipeline) processRelease(ctx context.Context, rel *benchmark.Release) error {
	var previous *benchmark.Release
	var err error

	if rel.PreviousID != nil {
		// A previous pointer recorded on an earlier attempt wins;
		// re-deriving it could shift boundaries under existing aggregates.
		previous, err = p.store.ReleaseByID(ctx, *rel.PreviousID)
		if err != nil {
			return benchmark.Transient("load recorded previous release", err)
		}
	} else {
		previous, err = p.store.PreviousRelease(ctx, rel)
		if err != nil {
			return benchmark.Transient("find previous release", err)
		}
	}

	var previousID *uint
	if previous != nil {
		previousID = &previous.ID
	}

	start, end := p.resolver.Resolve(rel, previous)
	p.log.Info("processing release",
		zap.Uint("release_id", rel.ID),
		zap.String("data_period", rel.DataPeriod.String()),
		zap.Time("period_start", start),
		zap.Time("period_end", end))

	if _, err := p.aggregator.AggregatePeriod(ctx, start, end, rel, previousID); err != nil {
		return err
	}
	rel.PreviousID = previousID
	rel.Processed = true

	comps, err := p.comparator.CompareRelease(ctx, rel)
	if err != nil {
		return err
	}
	p.publish(comps)

	return nil
}

// healComparisons re-runs comparison for the latest processed release
// when it has none on record. Inserts are idempotent, so a re-run after
// a mid-batch comparison failure is safe.
func (p *Pipeline) healComparisons(ctx context.Context) error {
	latest, err := p.store.LatestProcessedRelease(ctx)
	if err != nil {
		return benchmark.Transient("find latest processed release", err)
	}
	if latest == nil || latest.PreviousID == nil {
		return nil
	}

	existing, err := p.store.ComparisonsForRelease(ctx, latest.ID)
	if err != nil {
		return benchmark.Transient("load comparisons", err)
	}
	if len(existing) > 0 {
		return nil
	}

	comps, err := p.comparator.CompareRelease(ctx, latest)
	if err != nil {
		return err
	}
	p.publish(comps)
	return nil
}

func (p *Pipeline) publish(comps []benchmark.PeriodComparison) {
	if p.notifier == nil || len(comps) == 0 {
		return
	}
	p.notifier.PublishComparisons(comps)
}
