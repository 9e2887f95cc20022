package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/memstore"
)

const (
	seriesGasoline = "CUUR0000SEFJ01"
	locMinneapolis = "55331"
)

func ym(y int, m time.Month) benchmark.YearMonth {
	return benchmark.YearMonth{Year: y, Month: m}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedRelease(t *testing.T, s *memstore.MemoryStore) *benchmark.Release {
	t.Helper()
	r := benchmark.Release{ReleaseDate: day(2026, time.July, 14), DataPeriod: ym(2026, time.June)}
	require.NoError(t, s.InsertRelease(context.Background(), &r))
	return &r
}

func TestAggregatePeriod(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rel := seedRelease(t, s)

	s.AddPriceObservations(
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "milk-1gal",
			Location: locMinneapolis, UnitPrice: 3.89, Available: true, ScrapeDate: day(2026, time.June, 5)},
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "milk-1gal",
			Location: locMinneapolis, UnitPrice: 3.99, Available: true, ScrapeDate: day(2026, time.June, 12)},
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "milk-1gal",
			Location: locMinneapolis, UnitPrice: 4.09, Available: true, ScrapeDate: day(2026, time.June, 19)},
		// Unavailable rows never count.
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "milk-1gal",
			Location: locMinneapolis, UnitPrice: 9.99, Available: false, ScrapeDate: day(2026, time.June, 20)},
	)
	require.NoError(t, s.UpsertIndexObservations(ctx, []benchmark.IndexObservation{
		{SeriesID: seriesGasoline, Period: ym(2026, time.June), Value: 4.17},
	}))

	e := NewEngine(s, s, s, 4, zap.NewNop())
	rows, err := e.AggregatePeriod(ctx, day(2026, time.June, 1), day(2026, time.June, 30), rel, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, rel.ID, row.ReleaseID)
	assert.Equal(t, "target", row.RetailerID)
	assert.InDelta(t, 3.99, row.MeanPrice, 1e-9)
	assert.InDelta(t, 3.99, row.MedianPrice, 1e-9)
	assert.InDelta(t, 0.1, row.StdDev, 1e-9)
	assert.Equal(t, 3, row.SampleSize)
	assert.Equal(t, 3, row.DistinctDaysWithData)

	require.NotNil(t, row.IndexValue)
	assert.InDelta(t, 4.17, *row.IndexValue, 1e-9)
	require.NotNil(t, row.GapAmount)
	assert.InDelta(t, -0.18, *row.GapAmount, 1e-9)
	require.NotNil(t, row.GapPercent)
	assert.InDelta(t, -4.316547, *row.GapPercent, 1e-4)

	// The release is marked processed as part of the same batch write.
	got, err := s.ReleaseByID(ctx, rel.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
}

func TestAggregatePeriodRerunReplacesBatch(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rel := seedRelease(t, s)

	s.AddPriceObservations(
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "p1",
			Location: locMinneapolis, UnitPrice: 3.99, Available: true, ScrapeDate: day(2026, time.June, 5)},
	)

	e := NewEngine(s, s, nil, 2, zap.NewNop())
	_, err := e.AggregatePeriod(ctx, day(2026, time.June, 1), day(2026, time.June, 30), rel, nil)
	require.NoError(t, err)

	// Late observation arrives, the period is recomputed.
	s.AddPriceObservations(
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "p1",
			Location: locMinneapolis, UnitPrice: 4.19, Available: true, ScrapeDate: day(2026, time.June, 28)},
	)
	_, err = e.AggregatePeriod(ctx, day(2026, time.June, 1), day(2026, time.June, 30), rel, nil)
	require.NoError(t, err)

	rows, err := s.AggregatesForRelease(ctx, rel.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 4.09, rows[0].MeanPrice, 1e-9)
	assert.Equal(t, 2, rows[0].SampleSize)
}

func TestAggregatePeriodMissingIndexLeavesGapsNil(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rel := seedRelease(t, s)

	s.AddPriceObservations(
		benchmark.PriceObservation{RetailerID: "target", SeriesID: "APU0000709112", ProductID: "p1",
			Location: locMinneapolis, UnitPrice: 3.99, Available: true, ScrapeDate: day(2026, time.June, 5)},
	)

	e := NewEngine(s, s, nil, 2, zap.NewNop())
	rows, err := e.AggregatePeriod(ctx, day(2026, time.June, 1), day(2026, time.June, 30), rel, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Nil(t, rows[0].IndexValue)
	assert.Nil(t, rows[0].GapAmount)
	assert.Nil(t, rows[0].GapPercent)
	assert.InDelta(t, 3.99, rows[0].MeanPrice, 1e-9)
}

func TestAggregatePeriodZeroIndexValue(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rel := seedRelease(t, s)

	s.AddPriceObservations(
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "p1",
			Location: locMinneapolis, UnitPrice: 3.99, Available: true, ScrapeDate: day(2026, time.June, 5)},
	)
	require.NoError(t, s.UpsertIndexObservations(ctx, []benchmark.IndexObservation{
		{SeriesID: seriesGasoline, Period: ym(2026, time.June), Value: 0},
	}))

	e := NewEngine(s, s, nil, 2, zap.NewNop())
	rows, err := e.AggregatePeriod(ctx, day(2026, time.June, 1), day(2026, time.June, 30), rel, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// The zero value is recorded but never divided by.
	require.NotNil(t, rows[0].IndexValue)
	assert.Equal(t, 0.0, *rows[0].IndexValue)
	assert.Nil(t, rows[0].GapAmount)
	assert.Nil(t, rows[0].GapPercent)
}

func TestAggregatePeriodBasketFilter(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rel := seedRelease(t, s)

	s.SetBasket("target", ym(2026, time.June), []string{"milk-1gal"})
	s.AddPriceObservations(
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "milk-1gal",
			Location: locMinneapolis, UnitPrice: 3.99, Available: true, ScrapeDate: day(2026, time.June, 5)},
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "oat-milk",
			Location: locMinneapolis, UnitPrice: 6.49, Available: true, ScrapeDate: day(2026, time.June, 5)},
		// No basket for kroger, all of its products count.
		benchmark.PriceObservation{RetailerID: "kroger", SeriesID: seriesGasoline, ProductID: "oat-milk",
			Location: locMinneapolis, UnitPrice: 5.99, Available: true, ScrapeDate: day(2026, time.June, 5)},
	)

	e := NewEngine(s, s, s, 2, zap.NewNop())
	rows, err := e.AggregatePeriod(ctx, day(2026, time.June, 1), day(2026, time.June, 30), rel, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "kroger", rows[0].RetailerID)
	assert.InDelta(t, 5.99, rows[0].MeanPrice, 1e-9)
	assert.Equal(t, "target", rows[1].RetailerID)
	assert.InDelta(t, 3.99, rows[1].MeanPrice, 1e-9)
	assert.Equal(t, 1, rows[1].SampleSize)
}

func TestAggregatePeriodDistinctDays(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rel := seedRelease(t, s)

	// Two scrapes on the same day count once toward coverage.
	s.AddPriceObservations(
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "p1",
			Location: locMinneapolis, UnitPrice: 3.89, Available: true, ScrapeDate: day(2026, time.June, 5)},
		benchmark.PriceObservation{RetailerID: "target", SeriesID: seriesGasoline, ProductID: "p2",
			Location: locMinneapolis, UnitPrice: 4.09, Available: true, ScrapeDate: day(2026, time.June, 5)},
	)

	e := NewEngine(s, s, nil, 2, zap.NewNop())
	rows, err := e.AggregatePeriod(ctx, day(2026, time.June, 1), day(2026, time.June, 30), rel, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].SampleSize)
	assert.Equal(t, 1, rows[0].DistinctDaysWithData)
}

func TestAggregatePeriodEmpty(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rel := seedRelease(t, s)

	e := NewEngine(s, s, nil, 2, zap.NewNop())
	rows, err := e.AggregatePeriod(ctx, day(2026, time.June, 1), day(2026, time.June, 30), rel, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// An empty batch still marks the release processed.
	got, err := s.ReleaseByID(ctx, rel.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
}
