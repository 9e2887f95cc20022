package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveWithPreviousRelease(t *testing.T) {
	r := NewResolver(1)

	current := &benchmark.Release{DataPeriod: benchmark.YearMonth{Year: 2026, Month: time.July}}
	previous := &benchmark.Release{DataPeriod: benchmark.YearMonth{Year: 2026, Month: time.June}}

	start, end := r.Resolve(current, previous)
	assert.Equal(t, date(2026, time.June, 1), start)
	assert.Equal(t, date(2026, time.July, 31), end)
}

func TestResolveSpansIrregularCadence(t *testing.T) {
	// A skipped release leaves a two-month gap; the period covers it.
	r := NewResolver(1)

	current := &benchmark.Release{DataPeriod: benchmark.YearMonth{Year: 2026, Month: time.August}}
	previous := &benchmark.Release{DataPeriod: benchmark.YearMonth{Year: 2026, Month: time.May}}

	start, end := r.Resolve(current, previous)
	assert.Equal(t, date(2026, time.May, 1), start)
	assert.Equal(t, date(2026, time.August, 31), end)
}

func TestResolveBootstrap(t *testing.T) {
	r := NewResolver(1)

	current := &benchmark.Release{DataPeriod: benchmark.YearMonth{Year: 2026, Month: time.January}}

	start, end := r.Resolve(current, nil)
	assert.Equal(t, date(2025, time.December, 1), start)
	assert.Equal(t, date(2026, time.January, 31), end)
}

func TestResolveBootstrapIsConfigurable(t *testing.T) {
	// The single-month fallback is policy, not invariant.
	r := NewResolver(3)

	current := &benchmark.Release{DataPeriod: benchmark.YearMonth{Year: 2026, Month: time.July}}

	start, end := r.Resolve(current, nil)
	assert.Equal(t, date(2026, time.April, 1), start)
	assert.Equal(t, date(2026, time.July, 31), end)
}

func TestNewResolverClampsBootstrap(t *testing.T) {
	r := NewResolver(0)
	assert.Equal(t, 1, r.BootstrapMonths)
}
