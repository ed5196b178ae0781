package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"routineos/internal/adapters/realtime"
	"routineos/internal/domain/routine"
)

// RoutineStoreForSave defines the store interface needed by SaveMorningRoutine.
type RoutineStoreForSave interface {
	Upsert(ctx context.Context, entry routine.Entry) (routine.Entry, error)
}

// ChangePublisher is the publish half of realtime.Notifier.
type ChangePublisher interface {
	Publish(ctx context.Context, userID string, ev realtime.ChangeEvent) error
}

// SaveMorningRoutineInput carries the submitted form state.
type SaveMorningRoutineInput struct {
	UserID string
	Draft  routine.Draft
}

// SaveMorningRoutineDeps holds dependencies for SaveMorningRoutine.
type SaveMorningRoutineDeps struct {
	RoutineStore RoutineStoreForSave
	Notifier     ChangePublisher
	Location     *time.Location
	Now          func() time.Time
}

// ExecuteSaveMorningRoutine writes today's entry for the user in one upsert.
// PRE: UserID is the signed-in account
// POST: The (user, today) row holds every field of the draft; subscribers were told it changed
// INVARIANT: "today" is taken from the clock at submit time in deps.Location, never from the client
func ExecuteSaveMorningRoutine(ctx context.Context, input SaveMorningRoutineInput, deps SaveMorningRoutineDeps) (routine.Entry, error) {
	if input.UserID == "" {
		return routine.Entry{}, routine.ErrEmptyUserID
	}
	now := deps.Now()
	entry := input.Draft.ToEntry(input.UserID, routine.Today(now, deps.Location))
	if err := entry.Validate(); err != nil {
		return routine.Entry{}, err
	}

	saved, err := deps.RoutineStore.Upsert(ctx, entry)
	if err != nil {
		return routine.Entry{}, fmt.Errorf("save routine: %w", err)
	}
	slog.Info("routine_saved", "user_id", saved.UserID, "date", saved.Date, "focus_areas", len(saved.FocusAreas), "agreements", saved.Agreements.Completed())

	publishChange(ctx, deps.Notifier, realtime.ChangeEvent{
		UserID: saved.UserID,
		Kind:   realtime.EventRoutineSaved,
		Date:   saved.Date,
		At:     now,
	})
	return saved, nil
}

// publishChange notifies listeners; a failed publish never fails the write that caused it.
func publishChange(ctx context.Context, n ChangePublisher, ev realtime.ChangeEvent) {
	if n == nil {
		return
	}
	if err := n.Publish(ctx, ev.UserID, ev); err != nil {
		slog.Warn("realtime_publish_failed", "user_id", ev.UserID, "kind", ev.Kind, "error", err)
	}
}

// IsValidationError reports whether err came from draft validation and is safe to show as-is.
func IsValidationError(err error) bool {
	for _, target := range []error{
		routine.ErrInvalidDate,
		routine.ErrUnknownFocusArea,
		routine.ErrDuplicateFocusArea,
		routine.ErrTooManyFocusAreas,
		routine.ErrInvalidHappiness,
		routine.ErrNegativeSleep,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
