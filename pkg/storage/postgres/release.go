package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

// InsertRelease persists a new release. The unique index on
// (release_date, data_period) makes duplicate detection race-free.
func (p *PostgresClient) InsertRelease(ctx context.Context, r *benchmark.Release) error {
	record := fromRelease(r)

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "release_date"},
			{Name: "data_period"},
		},
		DoNothing: true,
	}).Create(&record)

	if tx.Error != nil {
		return fmt.Errorf("insert release: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return benchmark.Integrity("insert release",
			fmt.Errorf("release for %s / %s already exists",
				r.ReleaseDate.Format("2006-01-02"), r.DataPeriod))
	}

	r.ID = record.ID
	return nil
}

func (p *PostgresClient) ReleaseByID(ctx context.Context, id uint) (*benchmark.Release, error) {
	var record ReleaseRecord
	err := p.DB.WithContext(ctx).First(&record, id).Error
	if err != nil {
		return nil, fmt.Errorf("release %d: %w", id, err)
	}
	return toRelease(record)
}

func (p *PostgresClient) LatestProcessedRelease(ctx context.Context) (*benchmark.Release, error) {
	var record ReleaseRecord
	err := p.DB.WithContext(ctx).
		Where("processed = ?", true).
		Order("release_date DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest processed release: %w", err)
	}
	return toRelease(record)
}

func (p *PostgresClient) NextUnprocessedRelease(ctx context.Context) (*benchmark.Release, error) {
	var record ReleaseRecord
	err := p.DB.WithContext(ctx).
		Where("processed = ?", false).
		Order("release_date ASC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next unprocessed release: %w", err)
	}
	return toRelease(record)
}

func (p *PostgresClient) PreviousRelease(ctx context.Context, r *benchmark.Release) (*benchmark.Release, error) {
	var record ReleaseRecord
	err := p.DB.WithContext(ctx).
		Where("release_date < ?", r.ReleaseDate).
		Order("release_date DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("previous release: %w", err)
	}
	return toRelease(record)
}

func fromRelease(r *benchmark.Release) ReleaseRecord {
	return ReleaseRecord{
		ID:            r.ID,
		ReleaseDate:   r.ReleaseDate,
		DataPeriod:    r.DataPeriod.String(),
		CoveredSeries: strings.Join(r.CoveredSeries, ","),
		PreviousID:    r.PreviousID,
		Processed:     r.Processed,
	}
}

func toRelease(record ReleaseRecord) (*benchmark.Release, error) {
	period, err := benchmark.ParseYearMonth(record.DataPeriod)
	if err != nil {
		return nil, fmt.Errorf("release %d: %w", record.ID, err)
	}

	var covered []string
	if record.CoveredSeries != "" {
		covered = strings.Split(record.CoveredSeries, ",")
	}

	return &benchmark.Release{
		ID:            record.ID,
		ReleaseDate:   record.ReleaseDate,
		DataPeriod:    period,
		CoveredSeries: covered,
		PreviousID:    record.PreviousID,
		Processed:     record.Processed,
	}, nil
}
