package core

import (
	"fmt"
	"time"
)

// Chart windows: monthly series span 6 calendar months, weekly series span
// 26 ISO weeks, both ending in the current period.
const (
	trendMonths = 6
	trendWeeks  = 26
)

// monthStart truncates t to the first day of its month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// weekStart truncates t to the preceding Monday, matching Postgres
// date_trunc('week', ...).
func weekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	back := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -back)
}

// monthSpine returns the first days of the n calendar months ending with
// the month of now, oldest first.
func monthSpine(now time.Time, n int) []time.Time {
	first := monthStart(now).AddDate(0, -(n - 1), 0)
	spine := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		spine = append(spine, first.AddDate(0, i, 0))
	}
	return spine
}

// weekSpine returns the Mondays of the n weeks ending with the week of now,
// oldest first.
func weekSpine(now time.Time, n int) []time.Time {
	first := weekStart(now).AddDate(0, 0, -7*(n-1))
	spine := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		spine = append(spine, first.AddDate(0, 0, 7*i))
	}
	return spine
}

func monthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

func weekLabel(t time.Time) string {
	_, wk := t.ISOWeek()
	return fmt.Sprintf("Wk %02d", wk)
}

// bucketKey normalizes a date_trunc'd bucket (scanned as a date) for map
// lookup against a spine.
func bucketKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// fillCounts expands bucketed counts over the spine. Periods without a row
// appear with count 0, so every series has exactly len(spine) points.
func fillCounts(spine []time.Time, rows map[string]int, label func(time.Time) string) []TrendPoint {
	out := make([]TrendPoint, 0, len(spine))
	for _, p := range spine {
		out = append(out, TrendPoint{Label: label(p), Count: rows[bucketKey(p)]})
	}
	return out
}

// fillAmounts is fillCounts for monetary series.
func fillAmounts(spine []time.Time, rows map[string]float64, label func(time.Time) string) []TrendAmountPoint {
	out := make([]TrendAmountPoint, 0, len(spine))
	for _, p := range spine {
		out = append(out, TrendAmountPoint{Label: label(p), Amount: rows[bucketKey(p)]})
	}
	return out
}
