package account

import (
	"context"
	"errors"
	"time"

	domain "routineos/internal/domain/account"
)

// ErrNotFound is returned when no account or magic link matches the lookup.
var ErrNotFound = errors.New("not found")

// Store persists Account and MagicLink state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Delete(ctx context.Context, id string) error
	SaveMagicLink(ctx context.Context, link domain.MagicLink) error
	GetMagicLink(ctx context.Context, id string) (domain.MagicLink, error)
	// MarkMagicLinkUsed returns domain.ErrLinkUsed if the link was already redeemed.
	MarkMagicLinkUsed(ctx context.Context, id string, at time.Time) error
}

const timeLayout = time.RFC3339Nano

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("cannot parse time: " + s)
}
