package postgres

import "time"

// ReleaseRecord tracks one government data-release event. The unique
// index enforces at most one release per (release_date, data_period).
type ReleaseRecord struct {
	ID uint `gorm:"primaryKey"`

	ReleaseDate time.Time `gorm:"not null;index:idx_release_date_period,unique"`
	DataPeriod  string    `gorm:"type:varchar(7);not null;index:idx_release_date_period,unique"` // "2006-01"

	// Comma-separated series identifiers updated by this release.
	CoveredSeries string `gorm:"type:text;not null"`

	// PreviousID is recorded once, inside the aggregation batch
	// transaction, and never changed afterwards.
	PreviousID *uint

	Processed bool `gorm:"not null;default:false;index:idx_release_processed"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ReleaseRecord) TableName() string {
	return "releases"
}

// PriceObservationRecord is one retailer's price for one product on one
// day at one location. Written by the scraping subsystem; the core only
// reads it.
type PriceObservationRecord struct {
	ID uint `gorm:"primaryKey"`

	RetailerID string `gorm:"type:varchar(50);not null;index:idx_obs_group"`
	SeriesID   string `gorm:"type:varchar(50);not null;index:idx_obs_group"`
	ProductID  string `gorm:"type:varchar(100);not null"`
	Location   string `gorm:"type:varchar(50);not null;index:idx_obs_group"`

	UnitPrice float64 `gorm:"type:numeric;not null"`
	Available bool    `gorm:"not null"`

	ScrapeDate time.Time `gorm:"not null;index:idx_obs_scrape_date"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PriceObservationRecord) TableName() string {
	return "price_observations"
}

// IndexObservationRecord is one government index value for one series
// for one year-month.
type IndexObservationRecord struct {
	ID uint `gorm:"primaryKey"`

	SeriesID string  `gorm:"type:varchar(50);not null;index:idx_index_series_period,unique"`
	Period   string  `gorm:"type:varchar(7);not null;index:idx_index_series_period,unique"` // "2006-01"
	Value    float64 `gorm:"type:numeric;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (IndexObservationRecord) TableName() string {
	return "index_observations"
}

// BasketEntryRecord marks one product as counting toward a retailer's
// aggregate for one month. No entries for a (retailer, month) means all
// products are eligible.
type BasketEntryRecord struct {
	ID uint `gorm:"primaryKey"`

	RetailerID string `gorm:"type:varchar(50);not null;index:idx_basket_entry,unique"`
	Month      string `gorm:"type:varchar(7);not null;index:idx_basket_entry,unique"` // "2006-01"
	ProductID  string `gorm:"type:varchar(100);not null;index:idx_basket_entry,unique"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (BasketEntryRecord) TableName() string {
	return "basket_entries"
}

// PeriodAggregateRecord is the statistical summary of one group over one
// period. Unique per (release, retailer, series, location); immutable
// once written, replaced only when the release's batch is re-run.
type PeriodAggregateRecord struct {
	ID uint `gorm:"primaryKey"`

	ReleaseID uint `gorm:"not null;index:idx_aggregate_group,unique"`

	PeriodStart time.Time `gorm:"not null"`
	PeriodEnd   time.Time `gorm:"not null"`

	RetailerID string `gorm:"type:varchar(50);not null;index:idx_aggregate_group,unique"`
	SeriesID   string `gorm:"type:varchar(50);not null;index:idx_aggregate_group,unique"`
	Location   string `gorm:"type:varchar(50);not null;index:idx_aggregate_group,unique"`

	MeanPrice   float64 `gorm:"type:numeric;not null"`
	MedianPrice float64 `gorm:"type:numeric;not null"`
	StdDev      float64 `gorm:"type:numeric;not null"`

	SampleSize           int `gorm:"not null"`
	DistinctDaysWithData int `gorm:"not null"`

	IndexValue *float64 `gorm:"type:numeric"`
	GapAmount  *float64 `gorm:"type:numeric"`
	GapPercent *float64 `gorm:"type:numeric"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PeriodAggregateRecord) TableName() string {
	return "period_aggregates"
}

// PeriodComparisonRecord links two aggregates of the same group across
// consecutive periods. Unique per (current, previous) pair; the field
// names are the stable export names downstream consumers rely on.
type PeriodComparisonRecord struct {
	ID uint `gorm:"primaryKey"`

	CurrentAggregateID  uint `gorm:"not null;index:idx_comparison_pair,unique"`
	PreviousAggregateID uint `gorm:"not null;index:idx_comparison_pair,unique"`

	ReleaseID uint `gorm:"not null;index:idx_comparison_release"`

	RetailerID string `gorm:"type:varchar(50);not null"`
	SeriesID   string `gorm:"type:varchar(50);not null"`
	Location   string `gorm:"type:varchar(50);not null"`

	RetailerDeltaAmount  float64 `gorm:"type:numeric;not null"`
	RetailerDeltaPercent float64 `gorm:"type:numeric;not null"`

	IndexDeltaAmount  *float64 `gorm:"type:numeric"`
	IndexDeltaPercent *float64 `gorm:"type:numeric"`
	DeltaGapPoints    *float64 `gorm:"type:numeric"`

	Verdict *string `gorm:"type:varchar(10)"` // ABOVE, INLINE, BELOW

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PeriodComparisonRecord) TableName() string {
	return "period_comparisons"
}
