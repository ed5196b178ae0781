package projections

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"routineos/internal/domain/routine"
)

// GetMorningFormQuery carries input for the morning form projection.
type GetMorningFormQuery struct {
	UserID string
}

// GetMorningFormDeps holds dependencies for the morning form projection.
type GetMorningFormDeps struct {
	RoutineStore RoutineStore
	Location     *time.Location
	Now          func() time.Time
}

// MorningFormResult is the initial form state.
type MorningFormResult struct {
	Date     string // YYYY-MM-DD the form was loaded for
	Draft    routine.Draft
	Existing bool // an entry for Date was found and merged
}

// QueryGetMorningForm loads today's entry, if any, into a default draft.
// PRE: UserID is the signed-in account
// POST: Returns a draft; a failed load yields the default draft and a logged diagnostic
func QueryGetMorningForm(ctx context.Context, query GetMorningFormQuery, deps GetMorningFormDeps) (MorningFormResult, error) {
	if query.UserID == "" {
		return MorningFormResult{}, errors.New("user ID is required")
	}
	result := MorningFormResult{
		Date:  routine.Today(deps.Now(), deps.Location),
		Draft: routine.DraftFromEntry(nil),
	}

	entry, err := deps.RoutineStore.GetByUserAndDate(ctx, query.UserID, result.Date)
	if err != nil {
		slog.Error("morning_form_load_failed", "user_id", query.UserID, "date", result.Date, "error", err)
		return result, nil
	}
	if entry != nil {
		result.Draft = routine.DraftFromEntry(entry)
		result.Existing = true
	}
	return result, nil
}
