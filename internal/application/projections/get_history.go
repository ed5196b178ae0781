package projections

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"routineos/internal/domain/routine"
)

// markdown renders focus descriptions. goldmark's defaults drop raw HTML.
var markdown = goldmark.New()

// GetHistoryQuery carries input for the history projection.
type GetHistoryQuery struct {
	UserID string
	Filter string // "all", "" or a focus area name
}

// GetHistoryDeps holds dependencies for the history projection.
type GetHistoryDeps struct {
	RoutineStore RoutineListStore
}

// FilterOption is one choice in the focus filter.
type FilterOption struct {
	Value  string
	Label  string
	Active bool
}

// AgreementStatus is one agreement as shown on a history card.
type AgreementStatus struct {
	Title string
	Done  bool
}

// HistoryItem is one entry prepared for display.
// Hidden items are outside the current filter; the page keeps them so it can re-filter in place.
type HistoryItem struct {
	Date           string
	Hidden         bool
	FocusList      string // space-separated focus areas for client-side filtering
	DateLabel      string // e.g. "Sunday, October 18, 2026"
	Happiness      routine.Happiness
	HappinessClass string
	SleepHours     *float64
	FocusAreas     []routine.FocusArea
	FocusDescHTML  template.HTML
	Agreements     []AgreementStatus
	Completed      int
}

// HistoryResult carries the output of the history projection.
type HistoryResult struct {
	Filter       string
	Filters      []FilterOption
	Items        []HistoryItem // the whole fetched set, date-descending
	Visible      int
	EmptyMessage string
}

// QueryGetHistory fetches the most recent entries once and marks which of them pass the focus filter.
// PRE: UserID is the signed-in account
// POST: Items are the fetched set, date-descending; a failed load yields an empty list and a logged diagnostic
// POST: Visible counts the items that pass the filter; EmptyMessage is set when it is zero
// INVARIANT: Filtering never re-orders or drops the base set; an unknown filter behaves like "all"
func QueryGetHistory(ctx context.Context, query GetHistoryQuery, deps GetHistoryDeps) (HistoryResult, error) {
	if query.UserID == "" {
		return HistoryResult{}, errors.New("user ID is required")
	}

	filter := normalizeFilter(query.Filter)
	result := HistoryResult{Filter: filter, Filters: filterOptions(filter)}

	entries, err := deps.RoutineStore.ListByUser(ctx, query.UserID, routine.HistoryLimit)
	if err != nil {
		slog.Error("history_load_failed", "user_id", query.UserID, "error", err)
		entries = nil
	}

	matched := make(map[string]bool, len(entries))
	for _, e := range routine.FilterByFocus(entries, routine.FocusArea(filter)) {
		matched[e.Date] = true
	}
	for _, e := range entries {
		item := toHistoryItem(e)
		item.Hidden = !matched[e.Date]
		if !item.Hidden {
			result.Visible++
		}
		result.Items = append(result.Items, item)
	}
	if result.Visible == 0 {
		result.EmptyMessage = emptyHistoryMessage(filter)
	}
	return result, nil
}

func normalizeFilter(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == routine.FilterAll {
		return routine.FilterAll
	}
	area, err := routine.ParseFocusArea(raw)
	if err != nil {
		slog.Warn("history_unknown_filter", "filter", raw)
		return routine.FilterAll
	}
	return string(area)
}

func filterOptions(active string) []FilterOption {
	opts := []FilterOption{{Value: routine.FilterAll, Label: "All", Active: active == routine.FilterAll}}
	for _, a := range routine.FocusAreas {
		opts = append(opts, FilterOption{Value: string(a), Label: string(a), Active: active == string(a)})
	}
	return opts
}

// emptyHistoryMessage is shown when no entry passes filter.
func emptyHistoryMessage(filter string) string {
	if filter == routine.FilterAll {
		return "You haven't created any routines yet."
	}
	return fmt.Sprintf("No routines found for %s focus area.", filter)
}

func toHistoryItem(e routine.Entry) HistoryItem {
	item := HistoryItem{
		Date:           e.Date,
		FocusList:      joinFocus(e.FocusAreas),
		DateLabel:      e.Date,
		Happiness:      e.Happiness,
		HappinessClass: happinessClass(e.Happiness),
		SleepHours:     e.SleepHours,
		FocusAreas:     e.FocusAreas,
		FocusDescHTML:  renderMarkdown(e.FocusDesc),
		Completed:      e.Agreements.Completed(),
	}
	if d, err := time.Parse(routine.DateLayout, e.Date); err == nil {
		item.DateLabel = d.Format("Monday, January 2, 2006")
	}
	for _, key := range routine.AgreementOrder {
		item.Agreements = append(item.Agreements, AgreementStatus{Title: key.Title(), Done: e.Agreements.Get(key)})
	}
	return item
}

func joinFocus(areas []routine.FocusArea) string {
	parts := make([]string, len(areas))
	for i, a := range areas {
		parts[i] = string(a)
	}
	return strings.Join(parts, " ")
}

func happinessClass(h routine.Happiness) string {
	switch h {
	case routine.HappinessHigh:
		return "badge-high"
	case routine.HappinessMedium:
		return "badge-medium"
	case routine.HappinessLow:
		return "badge-low"
	}
	return ""
}

// renderMarkdown converts user text to HTML. On a render error the text is escaped verbatim.
func renderMarkdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		slog.Warn("markdown_render_failed", "error", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}
