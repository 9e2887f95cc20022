package benchmark

import (
	"fmt"
	"time"
)

// YearMonth identifies the calendar month an index release's data describes.
type YearMonth struct {
	Year  int
	Month time.Month
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses the "2006-01" form used in storage and on the wire.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("parse year-month %q: %w", s, err)
	}
	return YearMonthOf(t), nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

// FirstDay returns midnight UTC on the first day of the month.
func (ym YearMonth) FirstDay() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns midnight UTC on the last day of the month.
func (ym YearMonth) LastDay() time.Time {
	return ym.FirstDay().AddDate(0, 1, -1)
}

// AddMonths returns the year-month n months later (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	return YearMonthOf(ym.FirstDay().AddDate(0, n, 0))
}

func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

func (ym YearMonth) After(other YearMonth) bool {
	return other.Before(ym)
}

// Release represents one government data-release event. At most one
// release exists per (ReleaseDate, DataPeriod) pair, and releases are
// aggregated strictly in ReleaseDate order.
type Release struct {
	ID            uint
	ReleaseDate   time.Time // calendar date, midnight UTC
	DataPeriod    YearMonth // the year-month the release's data describes
	CoveredSeries []string  // series identifiers updated by this release

	// PreviousID is the chronologically previous release, recorded once
	// when the release is aggregated so re-runs resolve identical period
	// boundaries. Nil for the first release.
	PreviousID *uint

	Processed bool
}

// PriceObservation is one retailer's price for one product on one day at
// one location. Populated by the scraping subsystem; read-only here.
type PriceObservation struct {
	ID         uint
	RetailerID string
	SeriesID   string
	ProductID  string
	Location   string
	UnitPrice  float64 // normalized unit price
	Available  bool
	ScrapeDate time.Time // calendar date, midnight UTC
}

// IndexObservation is one government index value for one series for one
// year-month.
type IndexObservation struct {
	SeriesID string
	Period   YearMonth
	Value    float64
}

// PeriodAggregate is the statistical reduction of price observations for
// one (retailer, series, location) group over one period. Immutable once
// persisted; superseded only by a later release's aggregate.
type PeriodAggregate struct {
	ID        uint
	ReleaseID uint

	PeriodStart time.Time
	PeriodEnd   time.Time

	RetailerID string
	SeriesID   string
	Location   string

	MeanPrice   float64
	MedianPrice float64
	StdDev      float64

	SampleSize           int
	DistinctDaysWithData int

	// IndexValue is nil when the index client has no matching observation
	// yet; the gap fields are nil whenever IndexValue is nil or zero.
	IndexValue *float64
	GapAmount  *float64
	GapPercent *float64
}

// GroupKey identifies the (retailer, series, location) group an aggregate
// summarizes.
type GroupKey struct {
	RetailerID string
	SeriesID   string
	Location   string
}

func (a *PeriodAggregate) GroupKey() GroupKey {
	return GroupKey{RetailerID: a.RetailerID, SeriesID: a.SeriesID, Location: a.Location}
}

// Verdict classifies a retailer's period-over-period price change against
// the index's change. The values are stable export names.
type Verdict string

const (
	VerdictAbove  Verdict = "ABOVE"
	VerdictInline Verdict = "INLINE"
	VerdictBelow  Verdict = "BELOW"
)

// PeriodComparison links a current-period aggregate to the previous
// period's aggregate for the same group. Percentage fields are in points
// (0.7 means 0.7%); DeltaGapPoints is in percentage points.
type PeriodComparison struct {
	ID                  uint
	CurrentAggregateID  uint
	PreviousAggregateID uint
	ReleaseID           uint

	RetailerID string
	SeriesID   string
	Location   string

	RetailerDeltaAmount  float64
	RetailerDeltaPercent float64

	// Index deltas and the verdict are nil when either period's index
	// value is missing; no meaningful comparison exists then.
	IndexDeltaAmount  *float64
	IndexDeltaPercent *float64
	DeltaGapPoints    *float64
	Verdict           *Verdict
}
