package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

// InsertComparisons appends comparison rows. The unique index on
// (current_aggregate_id, previous_aggregate_id) makes retries after a
// partial failure safe: already-inserted pairs are skipped.
func (p *PostgresClient) InsertComparisons(ctx context.Context, comps []benchmark.PeriodComparison) error {
	if len(comps) == 0 {
		return nil
	}

	records := make([]PeriodComparisonRecord, len(comps))
	for i, c := range comps {
		records[i] = fromComparison(c)
	}

	err := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "current_aggregate_id"},
			{Name: "previous_aggregate_id"},
		},
		DoNothing: true,
	}).CreateInBatches(&records, 500).Error
	if err != nil {
		return fmt.Errorf("insert comparisons: %w", err)
	}
	return nil
}

func (p *PostgresClient) ComparisonsForRelease(ctx context.Context, releaseID uint) ([]benchmark.PeriodComparison, error) {
	var records []PeriodComparisonRecord
	err := p.DB.WithContext(ctx).
		Where("release_id = ?", releaseID).
		Order("retailer_id, series_id, location").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load comparisons: %w", err)
	}

	out := make([]benchmark.PeriodComparison, len(records))
	for i, r := range records {
		out[i] = toComparison(r)
	}
	return out, nil
}

func fromComparison(c benchmark.PeriodComparison) PeriodComparisonRecord {
	record := PeriodComparisonRecord{
		CurrentAggregateID:   c.CurrentAggregateID,
		PreviousAggregateID:  c.PreviousAggregateID,
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
		record.Verdict = &v
	}
	return record
}

func toComparison(r PeriodComparisonRecord) benchmark.PeriodComparison {
	comp := benchmark.PeriodComparison{
		ID:                   r.ID,
		CurrentAggregateID:   r.CurrentAggregateID,
		PreviousAggregateID:  r.PreviousAggregateID,
		ReleaseID:            r.ReleaseID,
		RetailerID:           r.RetailerID,
		SeriesID:             r.SeriesID,
		Location:             r.Location,
		RetailerDeltaAmount:  r.RetailerDeltaAmount,
		RetailerDeltaPercent: r.RetailerDeltaPercent,
		IndexDeltaAmount:     r.IndexDeltaAmount,
		IndexDeltaPercent:    r.IndexDeltaPercent,
		DeltaGapPoints:       r.DeltaGapPoints,
	}
	if r.Verdict != nil {
		v := benchmark.Verdict(*r.Verdict)
		comp.Verdict = &v
	}
	return comp
}
