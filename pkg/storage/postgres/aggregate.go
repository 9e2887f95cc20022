package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

// ReplaceAggregates commits one release's aggregation batch atomically:
// any existing rows for the release are replaced, the previous-release
// pointer is recorded and the release is marked processed, all in one
// transaction. A failure rolls everything back, leaving the release
// unprocessed so the next trigger re-attempts the whole batch.
func (p *PostgresClient) ReplaceAggregates(ctx context.Context, releaseID uint, previousID *uint, aggs []benchmark.PeriodAggregate) error {
	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("release_id = ?", releaseID).
			Delete(&PeriodAggregateRecord{}).Error; err != nil {
			return fmt.Errorf("clear previous batch: %w", err)
		}

		if len(aggs) > 0 {
			records := make([]PeriodAggregateRecord, len(aggs))
			for i, a := range aggs {
				records[i] = fromAggregate(releaseID, a)
			}
			if err := tx.CreateInBatches(&records, 500).Error; err != nil {
				return fmt.Errorf("insert aggregates: %w", err)
			}
		}

		res := tx.Model(&ReleaseRecord{}).
			Where("id = ?", releaseID).
			Updates(map[string]interface{}{
				"previous_id": previousID,
				"processed":   true,
			})
		if res.Error != nil {
			return fmt.Errorf("mark release processed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return benchmark.Integrity("mark release processed",
				fmt.Errorf("release %d not found", releaseID))
		}

		return nil
	})
}

func (p *PostgresClient) AggregatesForRelease(ctx context.Context, releaseID uint) ([]benchmark.PeriodAggregate, error) {
	var records []PeriodAggregateRecord
	err := p.DB.WithContext(ctx).
		Where("release_id = ?", releaseID).
		Order("retailer_id, series_id, location").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load aggregates: %w", err)
	}

	out := make([]benchmark.PeriodAggregate, len(records))
	for i, r := range records {
		out[i] = toAggregate(r)
	}
	return out, nil
}

func fromAggregate(releaseID uint, a benchmark.PeriodAggregate) PeriodAggregateRecord {
	return PeriodAggregateRecord{
		ReleaseID:            releaseID,
		PeriodStart:          a.PeriodStart,
		PeriodEnd:            a.PeriodEnd,
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

func toAggregate(r PeriodAggregateRecord) benchmark.PeriodAggregate {
	return benchmark.PeriodAggregate{
		ID:                   r.ID,
		ReleaseID:            r.ReleaseID,
		PeriodStart:          r.PeriodStart,
		PeriodEnd:            r.PeriodEnd,
		RetailerID:           r.RetailerID,
		SeriesID:             r.SeriesID,
		Location:             r.Location,
		MeanPrice:            r.MeanPrice,
		MedianPrice:          r.MedianPrice,
		StdDev:               r.StdDev,
		SampleSize:           r.SampleSize,
		DistinctDaysWithData: r.DistinctDaysWithData,
		IndexValue:           r.IndexValue,
		GapAmount:            r.GapAmount,
		GapPercent:           r.GapPercent,
	}
}
