package projections

import (
	"context"

	"routineos/internal/domain/account"
	"routineos/internal/domain/routine"
)

// RoutineStore interface for routine queries.
type RoutineStore interface {
	GetByUserAndDate(ctx context.Context, userID, date string) (*routine.Entry, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]routine.Entry, error)
}

// RoutineListStore is the list-only slice of RoutineStore used by history and export.
type RoutineListStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]routine.Entry, error)
}

// AccountStore interface for account queries.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
}
