package benchmark

import (
	"context"
	"time"
)

// ReleaseStore persists and queries release records. "Latest" and
// "previous" are always derived from durable storage, never from
// in-memory state, so any worker instance resolves the same answer.
type ReleaseStore interface {
	// InsertRelease persists a new release and assigns its ID. Returns an
	// IntegrityError when a release for the same (ReleaseDate, DataPeriod)
	// already exists.
	InsertRelease(ctx context.Context, r *Release) error

	ReleaseByID(ctx context.Context, id uint) (*Release, error)

	// LatestProcessedRelease returns the processed release with the
	// greatest ReleaseDate, or nil when none exists.
	LatestProcessedRelease(ctx context.Context) (*Release, error)

	// NextUnprocessedRelease returns the unprocessed release with the
	// smallest ReleaseDate, or nil when all releases are processed.
	NextUnprocessedRelease(ctx context.Context) (*Release, error)

	// PreviousRelease returns the release chronologically preceding r by
	// ReleaseDate, or nil for the first release.
	PreviousRelease(ctx context.Context, r *Release) (*Release, error)
}

// ObservationStore reads the raw inputs materialized by the external
// collaborators: daily retail price observations from the scraping
// subsystem and index observations persisted by the release monitor.
type ObservationStore interface {
	// AvailableObservations returns all observations with Available=true
	// and ScrapeDate within [start, end] inclusive.
	AvailableObservations(ctx context.Context, start, end time.Time) ([]PriceObservation, error)

	// LatestIndexPeriod returns the most recent stored period for a
	// series, or nil when no observation is stored yet.
	LatestIndexPeriod(ctx context.Context, seriesID string) (*YearMonth, error)

	// IndexObservation returns the stored value for (series, period), or
	// nil when the index has not published it yet.
	IndexObservation(ctx context.Context, seriesID string, period YearMonth) (*IndexObservation, error)

	// UpsertIndexObservations stores index observations, replacing any
	// existing value for the same (series, period).
	UpsertIndexObservations(ctx context.Context, obs []IndexObservation) error
}

// AggregateStore persists period aggregates.
type AggregateStore interface {
	// ReplaceAggregates commits one release's whole aggregation batch as
	// a single atomic unit: existing aggregates for the release are
	// replaced, the chosen previous-release id is recorded, and the
	// release is marked processed. Either all rows become visible or none.
	ReplaceAggregates(ctx context.Context, releaseID uint, previousID *uint, aggs []PeriodAggregate) error

	AggregatesForRelease(ctx context.Context, releaseID uint) ([]PeriodAggregate, error)
}

// ComparisonStore persists period comparisons. Inserts are append-only
// and idempotent: a row that already exists for the same
// (current, previous) aggregate pair is silently skipped.
type ComparisonStore interface {
	InsertComparisons(ctx context.Context, comps []PeriodComparison) error

	ComparisonsForRelease(ctx context.Context, releaseID uint) ([]PeriodComparison, error)
}

// Store is the full storage surface the pipeline runs against.
type Store interface {
	ReleaseStore
	ObservationStore
	AggregateStore
	ComparisonStore
}

// BasketProvider supplies the monthly basket: the product identifiers that
// count toward a retailer's aggregate for a given month. An empty result
// means no basket is defined and all available products are eligible.
type BasketProvider interface {
	EligibleProducts(ctx context.Context, retailerID string, month YearMonth) (map[string]struct{}, error)
}

// IndexClient is the external index-API capability the release monitor
// probes. It is the only collaborator in this core that touches the
// network.
type IndexClient interface {
	// ObservationsSince returns the observations for a series that are
	// strictly newer than since; a nil since returns the latest available
	// observations.
	ObservationsSince(ctx context.Context, seriesID string, since *YearMonth) ([]IndexObservation, error)
}
