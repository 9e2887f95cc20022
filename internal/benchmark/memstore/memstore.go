// Package memstore provides a mutex-guarded in-memory implementation of
// the benchmark storage interfaces, used by engine and pipeline tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

type MemoryStore struct {
	mu sync.Mutex

	releases     []benchmark.Release
	observations []benchmark.PriceObservation
	indexObs     map[string]map[benchmark.YearMonth]float64 // series -> period -> value
	aggregates   []benchmark.PeriodAggregate
	comparisons  []benchmark.PeriodComparison
	baskets      map[string]map[benchmark.YearMonth][]string // retailer -> month -> product ids

	nextReleaseID    uint
	nextAggregateID  uint
	nextComparisonID uint

	// ReplaceErr, when set, makes ReplaceAggregates fail before any state
	// changes. Used to exercise the retry path.
	ReplaceErr error
}

func New() *MemoryStore {
	return &MemoryStore{
		indexObs:         make(map[string]map[benchmark.YearMonth]float64),
		baskets:          make(map[string]map[benchmark.YearMonth][]string),
		nextReleaseID:    1,
		nextAggregateID:  1,
		nextComparisonID: 1,
	}
}

var _ benchmark.Store = (*MemoryStore)(nil)
var _ benchmark.BasketProvider = (*MemoryStore)(nil)

// AddPriceObservations seeds raw daily observations, standing in for the
// scraping subsystem.
func (m *MemoryStore) AddPriceObservations(obs ...benchmark.PriceObservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range obs {
		o.ID = uint(len(m.observations) + 1)
		m.observations = append(m.observations, o)
	}
}

// SetBasket defines the eligible products for a retailer and month.
func (m *MemoryStore) SetBasket(retailerID string, month benchmark.YearMonth, productIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.baskets[retailerID] == nil {
		m.baskets[retailerID] = make(map[benchmark.YearMonth][]string)
	}
	m.baskets[retailerID][month] = productIDs
}

func (m *MemoryStore) InsertRelease(ctx context.Context, r *benchmark.Release) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.releases {
		if existing.ReleaseDate.Equal(r.ReleaseDate) && existing.DataPeriod == r.DataPeriod {
			return benchmark.Integrity("insert release",
				fmt.Errorf("release for %s / %s already exists",
					r.ReleaseDate.Format("2006-01-02"), r.DataPeriod))
		}
	}

	r.ID = m.nextReleaseID
	m.nextReleaseID++
	m.releases = append(m.releases, cloneRelease(*r))
	return nil
}

func (m *MemoryStore) ReleaseByID(ctx context.Context, id uint) (*benchmark.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.releases {
		if r.ID == id {
			c := cloneRelease(r)
			return &c, nil
		}
	}
	return nil, fmt.Errorf("release %d not found", id)
}

func (m *MemoryStore) LatestProcessedRelease(ctx context.Context) (*benchmark.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *benchmark.Release
	for i := range m.releases {
		r := m.releases[i]
		if !r.Processed {
			continue
		}
		if latest == nil || r.ReleaseDate.After(latest.ReleaseDate) {
			c := cloneRelease(r)
			latest = &c
		}
	}
	return latest, nil
}

func (m *MemoryStore) NextUnprocessedRelease(ctx context.Context) (*benchmark.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var next *benchmark.Release
	for i := range m.releases {
		r := m.releases[i]
		if r.Processed {
			continue
		}
		if next == nil || r.ReleaseDate.Before(next.ReleaseDate) {
			c := cloneRelease(r)
			next = &c
		}
	}
	return next, nil
}

func (m *MemoryStore) PreviousRelease(ctx context.Context, rel *benchmark.Release) (*benchmark.Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var prev *benchmark.Release
	for i := range m.releases {
		r := m.releases[i]
		if !r.ReleaseDate.Before(rel.ReleaseDate) {
			continue
		}
		if prev == nil || r.ReleaseDate.After(prev.ReleaseDate) {
			c := cloneRelease(r)
			prev = &c
		}
	}
	return prev, nil
}

func (m *MemoryStore) AvailableObservations(ctx context.Context, start, end time.Time) ([]benchmark.PriceObservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []benchmark.PriceObservation
	for _, o := range m.observations {
		if !o.Available {
			continue
		}
		if o.ScrapeDate.Before(start) || o.ScrapeDate.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *MemoryStore) LatestIndexPeriod(ctx context.Context, seriesID string) (*benchmark.YearMonth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	periods, ok := m.indexObs[seriesID]
	if !ok || len(periods) == 0 {
		return nil, nil
	}
	var latest benchmark.YearMonth
	for p := range periods {
		if latest.IsZero() || p.After(latest) {
			latest = p
		}
	}
	return &latest, nil
}

func (m *MemoryStore) IndexObservation(ctx context.Context, seriesID string, period benchmark.YearMonth) (*benchmark.IndexObservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	periods, ok := m.indexObs[seriesID]
	if !ok {
		return nil, nil
	}
	v, ok := periods[period]
	if !ok {
		return nil, nil
	}
	return &benchmark.IndexObservation{SeriesID: seriesID, Period: period, Value: v}, nil
}

func (m *MemoryStore) UpsertIndexObservations(ctx context.Context, obs []benchmark.IndexObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range obs {
		if m.indexObs[o.SeriesID] == nil {
			m.indexObs[o.SeriesID] = make(map[benchmark.YearMonth]float64)
		}
		m.indexObs[o.SeriesID][o.Period] = o.Value
	}
	return nil
}

func (m *MemoryStore) ReplaceAggregates(ctx context.Context, releaseID uint, previousID *uint, aggs []benchmark.PeriodAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}

	kept := m.aggregates[:0]
	for _, a := range m.aggregates {
		if a.ReleaseID != releaseID {
			kept = append(kept, a)
		}
	}
	m.aggregates = kept

	for _, a := range aggs {
		a.ReleaseID = releaseID
		a.ID = m.nextAggregateID
		m.nextAggregateID++
		m.aggregates = append(m.aggregates, a)
	}

	for i := range m.releases {
		if m.releases[i].ID == releaseID {
			m.releases[i].PreviousID = previousID
			m.releases[i].Processed = true
			return nil
		}
	}
	return fmt.Errorf("release %d not found", releaseID)
}

func (m *MemoryStore) AggregatesForRelease(ctx context.Context, releaseID uint) ([]benchmark.PeriodAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []benchmark.PeriodAggregate
	for _, a := range m.aggregates {
		if a.ReleaseID == releaseID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return lessGroupKey(out[i].GroupKey(), out[j].GroupKey())
	})
	return out, nil
}

func (m *MemoryStore) InsertComparisons(ctx context.Context, comps []benchmark.PeriodComparison) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range comps {
		exists := false
		for _, existing := range m.comparisons {
			if existing.CurrentAggregateID == c.CurrentAggregateID &&
				existing.PreviousAggregateID == c.PreviousAggregateID {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		c.ID = m.nextComparisonID
		m.nextComparisonID++
		m.comparisons = append(m.comparisons, c)
	}
	return nil
}

func (m *MemoryStore) ComparisonsForRelease(ctx context.Context, releaseID uint) ([]benchmark.PeriodComparison, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []benchmark.PeriodComparison
	for _, c := range m.comparisons {
		if c.ReleaseID == releaseID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ki := benchmark.GroupKey{RetailerID: out[i].RetailerID, SeriesID: out[i].SeriesID, Location: out[i].Location}
		kj := benchmark.GroupKey{RetailerID: out[j].RetailerID, SeriesID: out[j].SeriesID, Location: out[j].Location}
		return lessGroupKey(ki, kj)
	})
	return out, nil
}

func (m *MemoryStore) EligibleProducts(ctx context.Context, retailerID string, month benchmark.YearMonth) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	products := m.baskets[retailerID][month]
	if len(products) == 0 {
		return nil, nil
	}
	out := make(map[string]struct{}, len(products))
	for _, p := range products {
		out[p] = struct{}{}
	}
	return out, nil
}

func cloneRelease(r benchmark.Release) benchmark.Release {
	c := r
	c.CoveredSeries = append([]string(nil), r.CoveredSeries...)
	if r.PreviousID != nil {
		id := *r.PreviousID
		c.PreviousID = &id
	}
	return c
}

func lessGroupKey(a, b benchmark.GroupKey) bool {
	if a.RetailerID != b.RetailerID {
		return a.RetailerID < b.RetailerID
	}
	if a.SeriesID != b.SeriesID {
		return a.SeriesID < b.SeriesID
	}
	return a.Location < b.Location
}
