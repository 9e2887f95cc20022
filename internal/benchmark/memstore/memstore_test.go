package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

func ym(y int, m time.Month) benchmark.YearMonth {
	return benchmark.YearMonth{Year: y, Month: m}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInsertReleaseRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := benchmark.Release{ReleaseDate: day(2026, time.July, 14), DataPeriod: ym(2026, time.June)}
	require.NoError(t, s.InsertRelease(ctx, &r))
	assert.Equal(t, uint(1), r.ID)

	dup := benchmark.Release{ReleaseDate: day(2026, time.July, 14), DataPeriod: ym(2026, time.June)}
	err := s.InsertRelease(ctx, &dup)
	assert.True(t, benchmark.IsIntegrity(err))
}

func TestReleaseOrdering(t *testing.T) {
	ctx := context.Background()
	s := New()

	r1 := benchmark.Release{ReleaseDate: day(2026, time.June, 10), DataPeriod: ym(2026, time.May)}
	r2 := benchmark.Release{ReleaseDate: day(2026, time.July, 14), DataPeriod: ym(2026, time.June)}
	require.NoError(t, s.InsertRelease(ctx, &r1))
	require.NoError(t, s.InsertRelease(ctx, &r2))

	next, err := s.NextUnprocessedRelease(ctx)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, r1.ID, next.ID)

	prev, err := s.PreviousRelease(ctx, &r2)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, r1.ID, prev.ID)

	prev, err = s.PreviousRelease(ctx, &r1)
	require.NoError(t, err)
	assert.Nil(t, prev)

	latest, err := s.LatestProcessedRelease(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.ReplaceAggregates(ctx, r1.ID, nil, nil))
	latest, err = s.LatestProcessedRelease(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, r1.ID, latest.ID)
	assert.True(t, latest.Processed)
}

func TestAvailableObservationsFilters(t *testing.T) {
	ctx := context.Background()
	s := New()

	s.AddPriceObservations(
		benchmark.PriceObservation{RetailerID: "target", SeriesID: "S1", ProductID: "p1",
			UnitPrice: 3.99, Available: true, ScrapeDate: day(2026, time.June, 5)},
		benchmark.PriceObservation{RetailerID: "target", SeriesID: "S1", ProductID: "p1",
			UnitPrice: 4.29, Available: false, ScrapeDate: day(2026, time.June, 6)},
		benchmark.PriceObservation{RetailerID: "target", SeriesID: "S1", ProductID: "p1",
			UnitPrice: 3.79, Available: true, ScrapeDate: day(2026, time.May, 28)},
	)

	obs, err := s.AvailableObservations(ctx, day(2026, time.June, 1), day(2026, time.June, 30))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 3.99, obs[0].UnitPrice)
}

func TestIndexObservationUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	latest, err := s.LatestIndexPeriod(ctx, "S1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.UpsertIndexObservations(ctx, []benchmark.IndexObservation{
		{SeriesID: "S1", Period: ym(2026, time.May), Value: 4.16},
		{SeriesID: "S1", Period: ym(2026, time.June), Value: 4.17},
	}))

	latest, err = s.LatestIndexPeriod(ctx, "S1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, ym(2026, time.June), *latest)

	// Upsert overwrites a revised value in place.
	require.NoError(t, s.UpsertIndexObservations(ctx, []benchmark.IndexObservation{
		{SeriesID: "S1", Period: ym(2026, time.June), Value: 4.18},
	}))
	idx, err := s.IndexObservation(ctx, "S1", ym(2026, time.June))
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, 4.18, idx.Value)

	missing, err := s.IndexObservation(ctx, "S1", ym(2026, time.April))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReplaceAggregatesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := benchmark.Release{ReleaseDate: day(2026, time.July, 14), DataPeriod: ym(2026, time.June)}
	require.NoError(t, s.InsertRelease(ctx, &r))

	prevID := uint(42)
	first := []benchmark.PeriodAggregate{
		{RetailerID: "target", SeriesID: "S1", Location: "55331", MeanPrice: 3.99},
	}
	require.NoError(t, s.ReplaceAggregates(ctx, r.ID, &prevID, first))

	second := []benchmark.PeriodAggregate{
		{RetailerID: "target", SeriesID: "S1", Location: "55331", MeanPrice: 4.01},
		{RetailerID: "kroger", SeriesID: "S1", Location: "55331", MeanPrice: 3.89},
	}
	require.NoError(t, s.ReplaceAggregates(ctx, r.ID, &prevID, second))

	got, err := s.AggregatesForRelease(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "kroger", got[0].RetailerID)
	assert.Equal(t, 4.01, got[1].MeanPrice)

	rel, err := s.ReleaseByID(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, rel.Processed)
	require.NotNil(t, rel.PreviousID)
	assert.Equal(t, prevID, *rel.PreviousID)
}

func TestInsertComparisonsSkipsExistingPairs(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := benchmark.PeriodComparison{ReleaseID: 2, CurrentAggregateID: 10, PreviousAggregateID: 5,
		RetailerID: "target", SeriesID: "S1", Location: "55331"}
	require.NoError(t, s.InsertComparisons(ctx, []benchmark.PeriodComparison{c}))
	require.NoError(t, s.InsertComparisons(ctx, []benchmark.PeriodComparison{c}))

	got, err := s.ComparisonsForRelease(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEligibleProducts(t *testing.T) {
	ctx := context.Background()
	s := New()

	// No basket means no restriction.
	eligible, err := s.EligibleProducts(ctx, "target", ym(2026, time.June))
	require.NoError(t, err)
	assert.Empty(t, eligible)

	s.SetBasket("target", ym(2026, time.June), []string{"p1", "p2"})
	eligible, err = s.EligibleProducts(ctx, "target", ym(2026, time.June))
	require.NoError(t, err)
	assert.Len(t, eligible, 2)
	_, ok := eligible["p1"]
	assert.True(t, ok)
}
