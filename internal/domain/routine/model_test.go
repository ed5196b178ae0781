package routine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"routineos/internal/domain/routine"
)

func floatPtr(f float64) *float64 { return &f }

// TestEntry_Validate tests validation of Entry.
func TestEntry_Validate(t *testing.T) {
	tests := []struct {
		name    string
		entry   routine.Entry
		wantErr error
	}{
		{
			name: "valid full entry",
			entry: routine.Entry{
				UserID: "u1", Date: "2026-10-18", Happiness: routine.HappinessHigh, SleepHours: floatPtr(7.5),
				FocusAreas: []routine.FocusArea{routine.FocusPhysical, routine.FocusMental},
			},
		},
		{
			name:  "valid empty entry",
			entry: routine.Entry{UserID: "u1", Date: "2026-10-18"},
		},
		{
			name:    "missing user",
			entry:   routine.Entry{Date: "2026-10-18"},
			wantErr: routine.ErrEmptyUserID,
		},
		{
			name:    "bad date",
			entry:   routine.Entry{UserID: "u1", Date: "18/10/2026"},
			wantErr: routine.ErrInvalidDate,
		},
		{
			name:    "bad happiness",
			entry:   routine.Entry{UserID: "u1", Date: "2026-10-18", Happiness: "Ecstatic"},
			wantErr: routine.ErrInvalidHappiness,
		},
		{
			name:    "negative sleep",
			entry:   routine.Entry{UserID: "u1", Date: "2026-10-18", SleepHours: floatPtr(-1)},
			wantErr: routine.ErrNegativeSleep,
		},
		{
			name:    "unknown focus area",
			entry:   routine.Entry{UserID: "u1", Date: "2026-10-18", FocusAreas: []routine.FocusArea{"Culinary"}},
			wantErr: routine.ErrUnknownFocusArea,
		},
		{
			name: "duplicate focus area",
			entry: routine.Entry{UserID: "u1", Date: "2026-10-18",
				FocusAreas: []routine.FocusArea{routine.FocusSocial, routine.FocusSocial}},
			wantErr: routine.ErrDuplicateFocusArea,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Validate() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestFocusSelection_Toggle covers add, remove and the max bound.
func TestFocusSelection_Toggle(t *testing.T) {
	t.Run("adds unselected area at the end", func(t *testing.T) {
		s := routine.NewFocusSelection([]routine.FocusArea{routine.FocusMental}, 8)
		got := s.Toggle(routine.FocusPhysical).Selected
		want := []routine.FocusArea{routine.FocusMental, routine.FocusPhysical}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Toggle mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("removes selected area", func(t *testing.T) {
		s := routine.NewFocusSelection([]routine.FocusArea{routine.FocusMental, routine.FocusPhysical}, 8)
		got := s.Toggle(routine.FocusMental).Selected
		if diff := cmp.Diff([]routine.FocusArea{routine.FocusPhysical}, got); diff != "" {
			t.Errorf("Toggle mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("adding past max is a no-op", func(t *testing.T) {
		s := routine.NewFocusSelection([]routine.FocusArea{routine.FocusMental, routine.FocusPhysical}, 2)
		if !s.AtLimit() {
			t.Fatal("expected selection to be at limit")
		}
		got := s.Toggle(routine.FocusSocial).Selected
		if len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
	})

	t.Run("removal at max is always accepted", func(t *testing.T) {
		full := routine.NewFocusSelection(append([]routine.FocusArea(nil), routine.FocusAreas...), 8)
		got := full.Toggle(routine.FocusCreative)
		if len(got.Selected) != 7 || got.IsSelected(routine.FocusCreative) {
			t.Errorf("expected Creative removed, got %v", got.Selected)
		}
	})

	t.Run("toggle does not mutate the input", func(t *testing.T) {
		in := []routine.FocusArea{routine.FocusMental}
		routine.NewFocusSelection(in, 8).Toggle(routine.FocusMental)
		if len(in) != 1 || in[0] != routine.FocusMental {
			t.Errorf("input mutated: %v", in)
		}
	})

	t.Run("default max", func(t *testing.T) {
		if got := routine.NewFocusSelection(nil, 0).Max; got != routine.DefaultMaxFocusAreas {
			t.Errorf("Max = %d, want %d", got, routine.DefaultMaxFocusAreas)
		}
	})
}

// TestFocusSelection_Available lists unselected areas in vocabulary order.
func TestFocusSelection_Available(t *testing.T) {
	s := routine.NewFocusSelection([]routine.FocusArea{routine.FocusSocial, routine.FocusPhysical}, 8)
	want := []routine.FocusArea{
		routine.FocusMental, routine.FocusSpiritual, routine.FocusCreative,
		routine.FocusProfessional, routine.FocusFinancial, routine.FocusEnvironmental,
	}
	if diff := cmp.Diff(want, s.Available()); diff != "" {
		t.Errorf("Available mismatch (-want +got):\n%s", diff)
	}
}

// TestAgreements covers Set, Get, Completed and the missing-key default.
func TestAgreements(t *testing.T) {
	a := routine.AgreementsFromValues(map[string]bool{"toltec_word": true, "toltec_best": true, "bogus": true})
	if !a.Word || !a.Best || a.Personal || a.Assume {
		t.Errorf("unexpected flags: %+v", a)
	}
	if a.Completed() != 2 {
		t.Errorf("Completed = %d, want 2", a.Completed())
	}
	a.Set(routine.AgreementAssume, true)
	a.Set(routine.AgreementWord, false)
	if a.Get(routine.AgreementWord) || !a.Get(routine.AgreementAssume) {
		t.Errorf("Set did not apply: %+v", a)
	}
	for _, key := range routine.AgreementOrder {
		if key.Title() == "" || key.Description() == "" {
			t.Errorf("agreement %s has no text", key)
		}
	}
}

// TestDraftFromEntry verifies defaults and merge.
func TestDraftFromEntry(t *testing.T) {
	d := routine.DraftFromEntry(nil)
	if d.FocusAreas == nil || len(d.FocusAreas) != 0 || d.FocusDesc != "" || d.Agreements.Completed() != 0 {
		t.Errorf("unexpected default draft: %+v", d)
	}

	e := &routine.Entry{
		UserID: "u1", Date: "2026-10-18", FocusDesc: "walk",
		FocusAreas: []routine.FocusArea{routine.FocusPhysical},
		Agreements: routine.Agreements{Best: true}, Happiness: routine.HappinessLow,
	}
	d = routine.DraftFromEntry(e)
	got := d.ToEntry("u1", "2026-10-19")
	if got.Date != "2026-10-19" || got.FocusDesc != "walk" || !got.Agreements.Best || got.Happiness != routine.HappinessLow {
		t.Errorf("unexpected entry from draft: %+v", got)
	}
}

// TestFilterByFocus checks the history filter.
func TestFilterByFocus(t *testing.T) {
	entries := []routine.Entry{
		{ID: "1", Date: "2026-10-18", FocusAreas: []routine.FocusArea{routine.FocusPhysical, routine.FocusMental}},
		{ID: "2", Date: "2026-10-17"},
		{ID: "3", Date: "2026-10-16", FocusAreas: []routine.FocusArea{routine.FocusMental}},
		{ID: "4", Date: "2026-10-15", FocusAreas: []routine.FocusArea{routine.FocusPhysical}},
	}

	ids := func(es []routine.Entry) []string {
		var out []string
		for _, e := range es {
			out = append(out, e.ID)
		}
		return out
	}

	if diff := cmp.Diff([]string{"1", "2", "3", "4"}, ids(routine.FilterByFocus(entries, routine.FilterAll))); diff != "" {
		t.Errorf("all filter (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"1", "4"}, ids(routine.FilterByFocus(entries, routine.FocusPhysical))); diff != "" {
		t.Errorf("Physical filter (-want +got):\n%s", diff)
	}
	if got := routine.FilterByFocus(entries, routine.FocusFinancial); len(got) != 0 {
		t.Errorf("Financial filter returned %d entries, want 0", len(got))
	}
}

// TestCompletionRate checks the rolling 30-day window.
func TestCompletionRate(t *testing.T) {
	today := "2026-10-18"
	mk := func(dates ...string) []routine.Entry {
		var es []routine.Entry
		for _, d := range dates {
			es = append(es, routine.Entry{Date: d})
		}
		return es
	}

	tests := []struct {
		name    string
		entries []routine.Entry
		want    int
	}{
		{"no entries", nil, 0},
		{"nine dates in window", mk("2026-10-18", "2026-10-17", "2026-10-16", "2026-10-15", "2026-10-14",
			"2026-10-10", "2026-10-01", "2026-09-25", "2026-09-19"), 30},
		{"oldest window day counts, day before does not", mk("2026-09-19", "2026-09-18"), 3},
		{"future dates ignored", mk("2026-10-19"), 0},
		{"one of thirty rounds to 3", mk("2026-10-18"), 3},
		{"two of thirty rounds to 7", mk("2026-10-18", "2026-10-17"), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := routine.CompletionRate(tt.entries, today)
			if err != nil {
				t.Fatalf("CompletionRate: %v", err)
			}
			if got != tt.want {
				t.Errorf("CompletionRate = %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := routine.CompletionRate(nil, "yesterday"); !errors.Is(err, routine.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

// TestWindowDates crosses a month boundary.
func TestWindowDates(t *testing.T) {
	got, err := routine.WindowDates("2026-03-02", 3)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"2026-03-02", "2026-03-01", "2026-02-28"}, got); diff != "" {
		t.Errorf("WindowDates (-want +got):\n%s", diff)
	}
}

// TestToday formats in the requested zone.
func TestToday(t *testing.T) {
	now := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	auckland := time.FixedZone("NZDT", 13*3600)
	if got := routine.Today(now, auckland); got != "2026-10-19" {
		t.Errorf("Today = %q, want 2026-10-19", got)
	}
	if got := routine.Today(now, time.UTC); got != "2026-10-18" {
		t.Errorf("Today = %q, want 2026-10-18", got)
	}
}
