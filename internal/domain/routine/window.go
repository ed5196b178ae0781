package routine

import (
	"math"
	"time"
)

// FilterAll is the history filter value that keeps every entry.
const FilterAll = "all"

// FilterByFocus keeps entries whose focus areas contain filter.
// "all" (or empty) returns entries unchanged and in the same order.
// Entries without focus areas never match a specific filter.
func FilterByFocus(entries []Entry, filter FocusArea) []Entry {
	if filter == "" || string(filter) == FilterAll {
		return entries
	}
	out := make([]Entry, 0, len(entries))
	for i := range entries {
		if entries[i].HasFocus(filter) {
			out = append(out, entries[i])
		}
	}
	return out
}

// WindowDates returns the n most recent calendar dates ending at today (inclusive),
// newest first, formatted YYYY-MM-DD.
// PRE: today is a YYYY-MM-DD date, n > 0
func WindowDates(today string, n int) ([]string, error) {
	t, err := time.Parse(DateLayout, today)
	if err != nil {
		return nil, ErrInvalidDate
	}
	dates := make([]string, n)
	for i := 0; i < n; i++ {
		dates[i] = t.AddDate(0, 0, -i).Format(DateLayout)
	}
	return dates, nil
}

// CompletionRate is the share of the last CompletionWindowDays dates (ending today) that
// have an entry, as a percentage rounded to the nearest integer. Field contents are ignored:
// an entry with every field empty still counts for its date.
// PRE: today is a YYYY-MM-DD date
// POST: returns 0..100
func CompletionRate(entries []Entry, today string) (int, error) {
	window, err := WindowDates(today, CompletionWindowDays)
	if err != nil {
		return 0, err
	}
	inWindow := make(map[string]bool, len(window))
	for _, d := range window {
		inWindow[d] = true
	}
	completed := 0
	for i := range entries {
		if inWindow[entries[i].Date] {
			completed++
		}
	}
	return int(math.Round(float64(completed) / float64(CompletionWindowDays) * 100)), nil
}
