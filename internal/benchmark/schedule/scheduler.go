// Package schedule runs the pipeline once per day at a fixed UTC hour.
package schedule

import (
	"time"
)

// DailyRunner invokes Run once immediately and then once every 24 hours
// at the configured UTC hour.
type DailyRunner struct {
	Hour int // UTC hour of day, 0-23
	Run  func(now time.Time)
}

func (d *DailyRunner) Start() {
	go func() {
		// Run immediately once at startup
		d.Run(time.Now().UTC())

		// Wait until the next scheduled hour
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), d.Hour, 0, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		time.Sleep(time.Until(next))

		// Then run once every 24 hours
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			d.Run(time.Now().UTC())
			<-ticker.C
		}
	}()
}
