// Package release detects new government index releases and records them
// for the aggregation pipeline.
package release

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

// Monitor decides whether a new index-release record should be created
// today. It only probes the index client on candidate dates, persists
// any newly published observations, and records one Release row per
// detected release. It never runs aggregation itself; the caller triggers
// that once the release is durably stored.
type Monitor struct {
	releases benchmark.ReleaseStore
	obs      benchmark.ObservationStore
	client   benchmark.IndexClient
	series   []string // tracked index series
	schedule Schedule
	log      *zap.Logger
}

func NewMonitor(releases benchmark.ReleaseStore, obs benchmark.ObservationStore,
	client benchmark.IndexClient, series []string, schedule Schedule, log *zap.Logger) *Monitor {
	return &Monitor{
		releases: releases,
		obs:      obs,
		client:   client,
		series:   series,
		schedule: schedule,
		log:      log,
	}
}

// CheckForNewRelease returns the newly created release, or nil when today
// is not a candidate date or no tracked series has new data. The new
// index observations are persisted before the Release row, so a detected
// release always has its data on hand for aggregation.
func (m *Monitor) CheckForNewRelease(ctx context.Context, today time.Time) (*benchmark.Release, error) {
	today = today.UTC().Truncate(24 * time.Hour)

	if !m.schedule.IsCandidate(today) {
		m.log.Debug("not a candidate release date", zap.Time("date", today))
		return nil, nil
	}

	var fresh []benchmark.IndexObservation
	covered := make(map[string]bool)

	for _, seriesID := range m.series {
		since, err := m.obs.LatestIndexPeriod(ctx, seriesID)
		if err != nil {
			return nil, benchmark.Transient("load latest index period", err)
		}

		observations, err := m.client.ObservationsSince(ctx, seriesID, since)
		if err != nil {
			return nil, benchmark.Transient("probe index client", err)
		}

		for _, o := range observations {
			if since != nil && !o.Period.After(*since) {
				continue
			}
			fresh = append(fresh, o)
			covered[seriesID] = true
		}
	}

	if len(fresh) == 0 {
		m.log.Debug("no new index data", zap.Time("date", today))
		return nil, nil
	}

	if err := m.obs.UpsertIndexObservations(ctx, fresh); err != nil {
		return nil, benchmark.Transient("store index observations", err)
	}

	dataPeriod := fresh[0].Period
	for _, o := range fresh[1:] {
		if o.Period.After(dataPeriod) {
			dataPeriod = o.Period
		}
	}

	coveredSeries := make([]string, 0, len(covered))
	for id := range covered {
		coveredSeries = append(coveredSeries, id)
	}
	sort.Strings(coveredSeries)

	rel := &benchmark.Release{
		ReleaseDate:   today,
		DataPeriod:    dataPeriod,
		CoveredSeries: coveredSeries,
	}
	if err := m.releases.InsertRelease(ctx, rel); err != nil {
		return nil, err
	}

	m.log.Info("detected new index release",
		zap.Uint("release_id", rel.ID),
		zap.Time("release_date", today),
		zap.String("data_period", dataPeriod.String()),
		zap.Strings("covered_series", coveredSeries))

	return rel, nil
}
