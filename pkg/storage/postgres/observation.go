package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

func (p *PostgresClient) AvailableObservations(ctx context.Context, start, end time.Time) ([]benchmark.PriceObservation, error) {
	var records []PriceObservationRecord
	err := p.DB.WithContext(ctx).
		Where("available = ? AND scrape_date >= ? AND scrape_date <= ?", true, start, end).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}

	out := make([]benchmark.PriceObservation, len(records))
	for i, r := range records {
		out[i] = benchmark.PriceObservation{
			ID:         r.ID,
			RetailerID: r.RetailerID,
			SeriesID:   r.SeriesID,
			ProductID:  r.ProductID,
			Location:   r.Location,
			UnitPrice:  r.UnitPrice,
			Available:  r.Available,
			ScrapeDate: r.ScrapeDate,
		}
	}
	return out, nil
}

// InsertPriceObservations stores raw daily observations. It exists for
// the scraping collaborator and for seeding test databases; the core
// never writes observations.
func (p *PostgresClient) InsertPriceObservations(ctx context.Context, obs []benchmark.PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}
	records := make([]PriceObservationRecord, len(obs))
	for i, o := range obs {
		records[i] = PriceObservationRecord{
			RetailerID: o.RetailerID,
			SeriesID:   o.SeriesID,
			ProductID:  o.ProductID,
			Location:   o.Location,
			UnitPrice:  o.UnitPrice,
			Available:  o.Available,
			ScrapeDate: o.ScrapeDate,
		}
	}
	if err := p.DB.WithContext(ctx).CreateInBatches(&records, 500).Error; err != nil {
		return fmt.Errorf("insert observations: %w", err)
	}
	return nil
}

// LatestIndexPeriod relies on the zero-padded "2006-01" period format
// sorting lexicographically in chronological order.
func (p *PostgresClient) LatestIndexPeriod(ctx context.Context, seriesID string) (*benchmark.YearMonth, error) {
	var record IndexObservationRecord
	err := p.DB.WithContext(ctx).
		Where("series_id = ?", seriesID).
		Order("period DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest index period: %w", err)
	}

	period, err := benchmark.ParseYearMonth(record.Period)
	if err != nil {
		return nil, err
	}
	return &period, nil
}

func (p *PostgresClient) IndexObservation(ctx context.Context, seriesID string, period benchmark.YearMonth) (*benchmark.IndexObservation, error) {
	var record IndexObservationRecord
	err := p.DB.WithContext(ctx).
		Where("series_id = ? AND period = ?", seriesID, period.String()).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index observation: %w", err)
	}

	return &benchmark.IndexObservation{
		SeriesID: record.SeriesID,
		Period:   period,
		Value:    record.Value,
	}, nil
}

func (p *PostgresClient) UpsertIndexObservations(ctx context.Context, obs []benchmark.IndexObservation) error {
	if len(obs) == 0 {
		return nil
	}

	records := make([]IndexObservationRecord, len(obs))
	for i, o := range obs {
		records[i] = IndexObservationRecord{
			SeriesID: o.SeriesID,
			Period:   o.Period.String(),
			Value:    o.Value,
		}
	}

	err := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "series_id"},
			{Name: "period"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&records).Error
	if err != nil {
		return fmt.Errorf("upsert index observations: %w", err)
	}
	return nil
}

// EligibleProducts returns the basket for a retailer and month; empty
// means no basket is defined and every product counts.
func (p *PostgresClient) EligibleProducts(ctx context.Context, retailerID string, month benchmark.YearMonth) (map[string]struct{}, error) {
	var productIDs []string
	err := p.DB.WithContext(ctx).
		Model(&BasketEntryRecord{}).
		Where("retailer_id = ? AND month = ?", retailerID, month.String()).
		Pluck("product_id", &productIDs).Error
	if err != nil {
		return nil, fmt.Errorf("load basket: %w", err)
	}

	if len(productIDs) == 0 {
		return nil, nil
	}
	out := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		out[id] = struct{}{}
	}
	return out, nil
}
