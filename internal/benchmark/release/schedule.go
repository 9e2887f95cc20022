package release

import "time"

// Schedule is the candidate-date predicate: the index client is only
// probed on dates plausibly matching the release calendar.
type Schedule struct {
	Weekdays    map[time.Weekday]bool
	EarliestDay int // day-of-month window, inclusive
	LatestDay   int
}

// NewSchedule builds a schedule from weekday names ("Tuesday", ...) and a
// day-of-month window. Unknown weekday names are ignored; an empty list
// admits every weekday.
func NewSchedule(weekdays []string, earliestDay, latestDay int) Schedule {
	byName := map[string]time.Weekday{
		"Sunday":    time.Sunday,
		"Monday":    time.Monday,
		"Tuesday":   time.Tuesday,
		"Wednesday": time.Wednesday,
		"Thursday":  time.Thursday,
		"Friday":    time.Friday,
		"Saturday":  time.Saturday,
	}

	s := Schedule{
		Weekdays:    make(map[time.Weekday]bool),
		EarliestDay: earliestDay,
		LatestDay:   latestDay,
	}
	for _, name := range weekdays {
		if wd, ok := byName[name]; ok {
			s.Weekdays[wd] = true
		}
	}
	return s
}

// IsCandidate reports whether t is a plausible release date.
func (s Schedule) IsCandidate(t time.Time) bool {
	if len(s.Weekdays) > 0 && !s.Weekdays[t.Weekday()] {
		return false
	}
	if s.EarliestDay > 0 && t.Day() < s.EarliestDay {
		return false
	}
	if s.LatestDay > 0 && t.Day() > s.LatestDay {
		return false
	}
	return true
}
