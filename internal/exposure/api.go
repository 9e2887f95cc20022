// Package exposure is the read surface for presentation and alerting
// collaborators: a JSON API over the committed aggregates and
// comparisons, and a websocket feed of newly produced comparisons. Field
// names here are stable export names; percentage fields are in points.
package exposure

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

type API struct {
	store benchmark.Store
	hub   *Hub
	log   *zap.Logger
}

func NewAPI(store benchmark.Store, hub *Hub, log *zap.Logger) *API {
	return &API{store: store, hub: hub, log: log}
}

func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/releases/latest", a.latestRelease)
		api.GET("/releases/:id/aggregates", a.releaseAggregates)
		api.GET("/releases/:id/comparisons", a.releaseComparisons)
	}

	if a.hub != nil {
		r.GET("/ws/comparisons", a.hub.Serve)
	}

	return r
}

func (a *API) latestRelease(c *gin.Context) {
	rel, err := a.store.LatestProcessedRelease(c.Request.Context())
	if err != nil {
		a.log.Error("latest release lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}
	if rel == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no processed release yet"})
		return
	}
	c.JSON(http.StatusOK, toReleaseView(rel))
}

func (a *API) releaseAggregates(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	aggs, err := a.store.AggregatesForRelease(c.Request.Context(), id)
	if err != nil {
		a.log.Error("aggregate lookup failed", zap.Uint("release_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}

	views := make([]aggregateView, len(aggs))
	for i, agg := range aggs {
		views[i] = toAggregateView(agg)
	}
	c.JSON(http.StatusOK, gin.H{"release_id": id, "aggregates": views})
}

func (a *API) releaseComparisons(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	comps, err := a.store.ComparisonsForRelease(c.Request.Context(), id)
	if err != nil {
		a.log.Error("comparison lookup failed", zap.Uint("release_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}

	views := make([]comparisonView, len(comps))
	for i, comp := range comps {
		views[i] = toComparisonView(comp)
	}
	c.JSON(http.StatusOK, gin.H{"release_id": id, "comparisons": views})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid release id"})
		return 0, false
	}
	return uint(id), true
}

type releaseView struct {
	ID            uint     `json:"id"`
	ReleaseDate   string   `json:"release_date"`
	DataPeriod    string   `json:"data_period"`
	CoveredSeries []string `json:"covered_series"`
	Processed     bool     `json:"processed"`
}

type aggregateView struct {
	ID                   uint     `json:"id"`
	ReleaseID            uint     `json:"release_id"`
	PeriodStart          string   `json:"period_start"`
	PeriodEnd            string   `json:"period_end"`
	RetailerID           string   `json:"retailer_id"`
	SeriesID             string   `json:"series_id"`
	Location             string   `json:"location"`
	MeanPrice            float64  `json:"mean_price"`
	MedianPrice          float64  `json:"median_price"`
	StdDev               float64  `json:"std_dev"`
	SampleSize           int      `json:"sample_size"`
	DistinctDaysWithData int      `json:"distinct_days_with_data"`
	IndexValue           *float64 `json:"index_value"`
	GapAmount            *float64 `json:"gap_amount"`
	GapPercent           *float64 `json:"gap_percent"`
}

type comparisonView struct {
	ID                   uint     `json:"id"`
	ReleaseID            uint     `json:"release_id"`
	RetailerID           string   `json:"retailer_id"`
	SeriesID             string   `json:"series_id"`
	Location             string   `json:"location"`
	RetailerDeltaAmount  float64  `json:"retailer_delta_amount"`
	RetailerDeltaPercent float64  `json:"retailer_delta_percent"`
	IndexDeltaAmount     *float64 `json:"index_delta_amount"`
	IndexDeltaPercent    *float64 `json:"index_delta_percent"`
	DeltaGapPoints       *float64 `json:"delta_gap_points"`
	Verdict              *string  `json:"verdict"`
}

func toReleaseView(r *benchmark.Release) releaseView {
	return releaseView{
		ID:            r.ID,
		ReleaseDate:   r.ReleaseDate.Format(time.DateOnly),
		DataPeriod:    r.DataPeriod.String(),
		CoveredSeries: r.CoveredSeries,
		Processed:     r.Processed,
	}
}

func toAggregateView(a benchmark.PeriodAggregate) aggregateView {
	return aggregateView{
		ID:                   a.ID,
		ReleaseID:            a.ReleaseID,
		PeriodStart:          a.PeriodStart.Format(time.DateOnly),
		PeriodEnd:            a.PeriodEnd.Format(time.DateOnly),
		RetailerID:           a.RetailerID,
		SeriesID:             a.SeriesID,
		Location:             a.Location,
		MeanPrice:            a.MeanPrice,
		MedianPrice:          a.MedianPrice,
		StdDev:               a.StdDev,
		SampleSize:           a.SampleSize,
		DistinctDaysWithData: a.DistinctDaysWithData,
		IndexValue:           a.IndexValue,
		GapAmount:            a.GapAmount,
		GapPercent:           a.GapPercent,
	}
}

func toComparisonView(c benchmark.PeriodComparison) comparisonView {
	view := comparisonView{
		ID:                   c.ID,
		ReleaseID:            c.ReleaseID,
		RetailerID:           c.RetailerID,
		SeriesID:             c.SeriesID,
		Location:             c.Location,
		RetailerDeltaAmount:  c.RetailerDeltaAmount,
		RetailerDeltaPercent: c.RetailerDeltaPercent,
		IndexDeltaAmount:     c.IndexDeltaAmount,
		IndexDeltaPercent:    c.IndexDeltaPercent,
		DeltaGapPoints:       c.DeltaGapPoints,
	}
	if c.Verdict != nil {
		v := string(*c.Verdict)
		view.Verdict = &v
	}
	return view
}
