// Package period derives the calendar boundaries a release covers.
// Periods are not fixed-length: each spans one release-to-release gap,
// so resolution must happen in release order against the chronologically
// previous release.
package period

import (
	"time"

	"github.com/seanpgleeson-creator/cpi-retail-benchmark/internal/benchmark"
)

// Resolver computes the inclusive [start, end] range for a release.
type Resolver struct {
	// BootstrapMonths is how many months before the data period the first
	// period reaches when no previous release exists. The single-month
	// default mirrors the upstream behavior; it is policy, not invariant.
	BootstrapMonths int
}

func NewResolver(bootstrapMonths int) Resolver {
	if bootstrapMonths < 1 {
		bootstrapMonths = 1
	}
	return Resolver{BootstrapMonths: bootstrapMonths}
}

// Resolve returns the period boundaries for release. The end is the last
// day of the release's data-period month. The start is the first day of
// the previous release's data-period month, or the bootstrap window when
// previous is nil. Both are midnight UTC.
func (r Resolver) Resolve(release, previous *benchmark.Release) (start, end time.Time) {
	end = release.DataPeriod.LastDay()

	if previous != nil {
		start = previous.DataPeriod.FirstDay()
		return start, end
	}

	start = release.DataPeriod.AddMonths(-r.BootstrapMonths).FirstDay()
	return start, end
}
