// Package timeseries derives daily series from transaction subsets: per-user
// price spreads and supply/demand volume.
package timeseries

import (
	"time"
)

const dayLayout = "2006-01-02"

// dayOf converts a millisecond timestamp to its UTC calendar day.
func dayOf(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(dayLayout)
}

// dateRange returns every calendar day from first to last inclusive.
// Both bounds are "2006-01-02" strings; an invalid bound yields nil.
func dateRange(first, last string) []string {
	start, err := time.Parse(dayLayout, first)
	if err != nil {
		return nil
	}
	end, err := time.Parse(dayLayout, last)
	if err != nil {
		return nil
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(dayLayout))
	}
	return days
}

// boundsOf returns the min and max day over the given ms timestamps.
func boundsOf(timestamps []int64) (string, string) {
	if len(timestamps) == 0 {
		return "", ""
	}
	min, max := timestamps[0], timestamps[0]
	for _, ts := range timestamps[1:] {
		if ts < min {
			min = ts
		}
		if ts > max {
			max = ts
		}
	}
	return dayOf(min), dayOf(max)
}
