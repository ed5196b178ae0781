package projections

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"routineos/internal/domain/routine"
)

func historyStore() *mockRoutineStore {
	return &mockRoutineStore{entries: []routine.Entry{
		{UserID: "u1", Date: "2026-10-18", FocusAreas: []routine.FocusArea{routine.FocusPhysical, routine.FocusMental}, FocusDesc: "**Run** 5k"},
		{UserID: "u1", Date: "2026-10-17", FocusAreas: []routine.FocusArea{routine.FocusMental}},
		{UserID: "u1", Date: "2026-10-16"},
		{UserID: "u1", Date: "2026-10-15", FocusAreas: []routine.FocusArea{routine.FocusPhysical}, Happiness: routine.HappinessHigh,
			Agreements: routine.Agreements{Word: true, Personal: true}},
	}}
}

func itemDates(items []HistoryItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Date)
	}
	return out
}

func visibleDates(items []HistoryItem) []string {
	var out []string
	for _, it := range items {
		if !it.Hidden {
			out = append(out, it.Date)
		}
	}
	return out
}

// TestQueryGetHistory_Filter covers all, a specific area and unknown values.
func TestQueryGetHistory_Filter(t *testing.T) {
	tests := []struct {
		name       string
		filter     string
		wantFilter string
		want       []string
	}{
		{"empty means all", "", "all", []string{"2026-10-18", "2026-10-17", "2026-10-16", "2026-10-15"}},
		{"all keeps order", "all", "all", []string{"2026-10-18", "2026-10-17", "2026-10-16", "2026-10-15"}},
		{"physical", "Physical", "Physical", []string{"2026-10-18", "2026-10-15"}},
		{"mental", "Mental", "Mental", []string{"2026-10-18", "2026-10-17"}},
		{"unknown treated as all", "Astral", "all", []string{"2026-10-18", "2026-10-17", "2026-10-16", "2026-10-15"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QueryGetHistory(context.Background(), GetHistoryQuery{UserID: "u1", Filter: tt.filter}, GetHistoryDeps{RoutineStore: historyStore()})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Filter != tt.wantFilter {
				t.Errorf("Filter = %q, want %q", got.Filter, tt.wantFilter)
			}
			if diff := cmp.Diff(tt.want, visibleDates(got.Items)); diff != "" {
				t.Errorf("visible dates mismatch (-want +got):\n%s", diff)
			}
			if got.Visible != len(tt.want) {
				t.Errorf("Visible = %d, want %d", got.Visible, len(tt.want))
			}
			all := []string{"2026-10-18", "2026-10-17", "2026-10-16", "2026-10-15"}
			if diff := cmp.Diff(all, itemDates(got.Items)); diff != "" {
				t.Errorf("base set changed by the filter (-want +got):\n%s", diff)
			}
		})
	}
}

// TestQueryGetHistory_Item formats dates, badges, agreements and markdown.
func TestQueryGetHistory_Item(t *testing.T) {
	got, _ := QueryGetHistory(context.Background(), GetHistoryQuery{UserID: "u1", Filter: "Physical"}, GetHistoryDeps{RoutineStore: historyStore()})

	first := got.Items[0]
	if first.DateLabel != "Sunday, October 18, 2026" {
		t.Errorf("DateLabel = %q", first.DateLabel)
	}
	if !strings.Contains(string(first.FocusDescHTML), "<strong>Run</strong>") {
		t.Errorf("FocusDescHTML = %q", first.FocusDescHTML)
	}

	if first.FocusList != "Physical Mental" || first.Hidden {
		t.Errorf("first item = %+v", first)
	}
	if !got.Items[1].Hidden || got.Items[2].FocusList != "" {
		t.Errorf("items 1-2 = %+v, %+v", got.Items[1], got.Items[2])
	}

	last := got.Items[3]
	if last.Completed != 2 || last.HappinessClass != "badge-high" {
		t.Errorf("item = %+v", last)
	}
	if len(last.Agreements) != 4 || !last.Agreements[0].Done || last.Agreements[3].Done {
		t.Errorf("agreements = %+v", last.Agreements)
	}

	var active []string
	for _, opt := range got.Filters {
		if opt.Active {
			active = append(active, opt.Value)
		}
	}
	if diff := cmp.Diff([]string{"Physical"}, active); diff != "" {
		t.Errorf("active filters (-want +got):\n%s", diff)
	}
	if len(got.Filters) != 9 {
		t.Errorf("filters = %d, want 9", len(got.Filters))
	}
}

// TestQueryGetHistory_EmptyMessages distinguishes no data from no matches.
func TestQueryGetHistory_EmptyMessages(t *testing.T) {
	none, _ := QueryGetHistory(context.Background(), GetHistoryQuery{UserID: "u1"}, GetHistoryDeps{RoutineStore: &mockRoutineStore{}})
	if none.EmptyMessage != "You haven't created any routines yet." {
		t.Errorf("EmptyMessage = %q", none.EmptyMessage)
	}

	noMatch, _ := QueryGetHistory(context.Background(), GetHistoryQuery{UserID: "u1", Filter: "Financial"}, GetHistoryDeps{RoutineStore: historyStore()})
	if noMatch.EmptyMessage != "No routines found for Financial focus area." {
		t.Errorf("EmptyMessage = %q", noMatch.EmptyMessage)
	}
	if noMatch.Visible != 0 || len(noMatch.Items) != 4 {
		t.Errorf("Visible = %d, Items = %d; want 0 of 4", noMatch.Visible, len(noMatch.Items))
	}

	some, _ := QueryGetHistory(context.Background(), GetHistoryQuery{UserID: "u1", Filter: "Mental"}, GetHistoryDeps{RoutineStore: historyStore()})
	if some.EmptyMessage != "" {
		t.Errorf("EmptyMessage = %q, want none while entries are visible", some.EmptyMessage)
	}
}

// TestQueryGetHistory_LimitAndFailure fetches 30 and degrades on error.
func TestQueryGetHistory_LimitAndFailure(t *testing.T) {
	store := &mockRoutineStore{listErr: errBoom}
	got, err := QueryGetHistory(context.Background(), GetHistoryQuery{UserID: "u1"}, GetHistoryDeps{RoutineStore: store})
	if err != nil {
		t.Fatalf("load failure should not surface: %v", err)
	}
	if len(got.Items) != 0 || got.EmptyMessage == "" {
		t.Errorf("expected empty view, got %+v", got)
	}
	if len(store.limits) != 1 || store.limits[0] != routine.HistoryLimit {
		t.Errorf("limits = %v, want [%d]", store.limits, routine.HistoryLimit)
	}
}

// TestRenderMarkdown_DropsRawHTML never passes user HTML through.
func TestRenderMarkdown_DropsRawHTML(t *testing.T) {
	got := string(renderMarkdown(`<script>alert(1)</script> plan`))
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML leaked: %q", got)
	}
	if renderMarkdown("   ") != "" {
		t.Error("blank description should render empty")
	}
}
