package exposure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ym(y int, m time.Month) benchmark.YearMonth {
	return benchmark.YearMonth{Year: y, Month: m}
}

func fptr(v float64) *float64 { return &v }

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func seedProcessedRelease(t *testing.T, s *memstore.MemoryStore) *benchmark.Release {
	t.Helper()
	ctx := context.Background()

	r := benchmark.Release{
		ReleaseDate:   time.Date(2026, 7, 14, 0, 0, 0, 0, time.UTC),
		DataPeriod:    ym(2026, time.June),
		CoveredSeries: []string{"CUUR0000SEFJ01"},
	}
	require.NoError(t, s.InsertRelease(ctx, &r))
	require.NoError(t, s.ReplaceAggregates(ctx, r.ID, nil, []benchmark.PeriodAggregate{{
		PeriodStart:          time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:            time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		RetailerID:           "target",
		SeriesID:             "CUUR0000SEFJ01",
		Location:             "55331",
		MeanPrice:            3.99,
		MedianPrice:          3.99,
		StdDev:               0.1,
		SampleSize:           3,
		DistinctDaysWithData: 3,
		IndexValue:           fptr(4.17),
		GapAmount:            fptr(-0.18),
	}}))

	got, err := s.ReleaseByID(ctx, r.ID)
	require.NoError(t, err)
	return got
}

func TestHealthz(t *testing.T) {
	api := NewAPI(memstore.New(), nil, zap.NewNop())
	w := get(t, api.Router(), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLatestRelease(t *testing.T) {
	s := memstore.New()
	rel := seedProcessedRelease(t, s)
	api := NewAPI(s, nil, zap.NewNop())

	w := get(t, api.Router(), "/api/releases/latest")
	require.Equal(t, http.StatusOK, w.Code)

	var got releaseView
	decode(t, w, &got)
	assert.Equal(t, rel.ID, got.ID)
	assert.Equal(t, "2026-07-14", got.ReleaseDate)
	assert.Equal(t, "2026-06", got.DataPeriod)
	assert.Equal(t, []string{"CUUR0000SEFJ01"}, got.CoveredSeries)
	assert.True(t, got.Processed)
}

func TestLatestReleaseNoneYet(t *testing.T) {
	api := NewAPI(memstore.New(), nil, zap.NewNop())
	w := get(t, api.Router(), "/api/releases/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReleaseAggregates(t *testing.T) {
	s := memstore.New()
	rel := seedProcessedRelease(t, s)
	api := NewAPI(s, nil, zap.NewNop())

	w := get(t, api.Router(), "/api/releases/1/aggregates")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		ReleaseID  uint            `json:"release_id"`
		Aggregates []aggregateView `json:"aggregates"`
	}
	decode(t, w, &got)
	assert.Equal(t, rel.ID, got.ReleaseID)
	require.Len(t, got.Aggregates, 1)

	agg := got.Aggregates[0]
	assert.Equal(t, "target", agg.RetailerID)
	assert.Equal(t, "2026-06-01", agg.PeriodStart)
	assert.Equal(t, "2026-06-30", agg.PeriodEnd)
	assert.InDelta(t, 3.99, agg.MeanPrice, 1e-9)
	require.NotNil(t, agg.IndexValue)
	assert.InDelta(t, 4.17, *agg.IndexValue, 1e-9)
	// Unset gap percent serializes as an explicit null.
	assert.Nil(t, agg.GapPercent)
}

func TestReleaseComparisons(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	rel := seedProcessedRelease(t, s)

	verdict := benchmark.VerdictAbove
	require.NoError(t, s.InsertComparisons(ctx, []benchmark.PeriodComparison{{
		ReleaseID:            rel.ID,
		CurrentAggregateID:   2,
		PreviousAggregateID:  1,
		RetailerID:           "target",
		SeriesID:             "CUUR0000SEFJ01",
		Location:             "55331",
		RetailerDeltaAmount:  0.03,
		RetailerDeltaPercent: 0.757576,
		IndexDeltaAmount:     fptr(0.01),
		IndexDeltaPercent:    fptr(0.240385),
		DeltaGapPoints:       fptr(0.517191),
		Verdict:              &verdict,
	}}))

	api := NewAPI(s, nil, zap.NewNop())
	w := get(t, api.Router(), "/api/releases/1/comparisons")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		ReleaseID   uint             `json:"release_id"`
		Comparisons []comparisonView `json:"comparisons"`
	}
	decode(t, w, &got)
	require.Len(t, got.Comparisons, 1)

	comp := got.Comparisons[0]
	assert.InDelta(t, 0.757576, comp.RetailerDeltaPercent, 1e-6)
	require.NotNil(t, comp.DeltaGapPoints)
	assert.InDelta(t, 0.517191, *comp.DeltaGapPoints, 1e-6)
	require.NotNil(t, comp.Verdict)
	assert.Equal(t, "ABOVE", *comp.Verdict)
}

func TestInvalidReleaseID(t *testing.T) {
	api := NewAPI(memstore.New(), nil, zap.NewNop())
	w := get(t, api.Router(), "/api/releases/latest-1/aggregates")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
