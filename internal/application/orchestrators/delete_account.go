package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"routineos/internal/adapters/realtime"
)

// Deletion stage errors. Callers match them with errors.Is to tell the user how far deletion got.
var (
	ErrRoutinesNotDeleted = errors.New("routines could not be deleted")
	ErrAccountNotDeleted  = errors.New("account could not be deleted")
)

// RoutineStoreForDelete defines the store interface needed by DeleteAccount.
type RoutineStoreForDelete interface {
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// AccountStoreForDelete defines the account store interface needed by DeleteAccount.
type AccountStoreForDelete interface {
	Delete(ctx context.Context, id string) error
}

// SessionRevoker ends every session an account holds.
type SessionRevoker interface {
	DeleteByAccount(accountID string) int
}

// DeleteAccountInput carries input for the delete orchestrator.
type DeleteAccountInput struct {
	AccountID string
}

// DeleteAccountDeps holds dependencies for DeleteAccount.
type DeleteAccountDeps struct {
	RoutineStore RoutineStoreForDelete
	AccountStore AccountStoreForDelete
	Sessions     SessionRevoker
	Notifier     ChangePublisher
	Now          func() time.Time
}

// ExecuteDeleteAccount removes a user's routines, account and sessions.
// PRE: AccountID is the signed-in account
// POST: On success no routines, account row or sessions remain for AccountID
// INVARIANT: If the routine bulk delete fails nothing else happens; the user stays signed in with data intact
func ExecuteDeleteAccount(ctx context.Context, input DeleteAccountInput, deps DeleteAccountDeps) error {
	if input.AccountID == "" {
		return fmt.Errorf("account ID is required")
	}

	n, err := deps.RoutineStore.DeleteByUser(ctx, input.AccountID)
	if err != nil {
		slog.Error("account_delete_aborted", "account_id", input.AccountID, "error", err)
		return fmt.Errorf("%w: %w", ErrRoutinesNotDeleted, err)
	}

	if err := deps.AccountStore.Delete(ctx, input.AccountID); err != nil {
		// Routines are already gone; the account row is retried on the next attempt.
		slog.Error("account_delete_failed", "account_id", input.AccountID, "routines_deleted", n, "error", err)
		return fmt.Errorf("%w: %w", ErrAccountNotDeleted, err)
	}

	revoked := deps.Sessions.DeleteByAccount(input.AccountID)
	publishChange(ctx, deps.Notifier, realtime.ChangeEvent{
		UserID: input.AccountID,
		Kind:   realtime.EventRoutinesDeleted,
		At:     deps.Now(),
	})

	slog.Info("account_deleted", "account_id", input.AccountID, "routines_deleted", n, "sessions_revoked", revoked)
	return nil
}
