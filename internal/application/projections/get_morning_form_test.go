package projections

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"routineos/internal/domain/routine"
)

func morningDeps(store *mockRoutineStore) GetMorningFormDeps {
	return GetMorningFormDeps{RoutineStore: store, Location: time.UTC, Now: fixedNow}
}

// TestQueryGetMorningForm_Defaults returns the default draft when nothing is saved.
func TestQueryGetMorningForm_Defaults(t *testing.T) {
	got, err := QueryGetMorningForm(context.Background(), GetMorningFormQuery{UserID: "u1"}, morningDeps(&mockRoutineStore{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := MorningFormResult{Date: "2026-10-18", Draft: routine.Draft{FocusAreas: []routine.FocusArea{}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

// TestQueryGetMorningForm_MergesExisting loads today's saved entry.
func TestQueryGetMorningForm_MergesExisting(t *testing.T) {
	store := &mockRoutineStore{entries: []routine.Entry{
		{UserID: "u1", Date: "2026-10-17", FocusDesc: "yesterday"},
		{UserID: "u1", Date: "2026-10-18", FocusDesc: "today", FocusAreas: []routine.FocusArea{routine.FocusSocial},
			Agreements: routine.Agreements{Assume: true}, Happiness: routine.HappinessLow},
	}}
	got, _ := QueryGetMorningForm(context.Background(), GetMorningFormQuery{UserID: "u1"}, morningDeps(store))
	if !got.Existing || got.Draft.FocusDesc != "today" || !got.Draft.Agreements.Assume || got.Draft.Happiness != routine.HappinessLow {
		t.Errorf("draft = %+v", got)
	}
}

// TestQueryGetMorningForm_LoadFailureDegrades keeps the default draft.
func TestQueryGetMorningForm_LoadFailureDegrades(t *testing.T) {
	got, err := QueryGetMorningForm(context.Background(), GetMorningFormQuery{UserID: "u1"}, morningDeps(&mockRoutineStore{getErr: errBoom}))
	if err != nil {
		t.Fatalf("load failure should not surface: %v", err)
	}
	if got.Existing || len(got.Draft.FocusAreas) != 0 || got.Draft.FocusDesc != "" {
		t.Errorf("expected default draft, got %+v", got)
	}
}
