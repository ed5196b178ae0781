package projections

import (
	"context"
	"errors"
	"sort"
	"time"

	"routineos/internal/domain/account"
	"routineos/internal/domain/routine"
)

var fixedTime = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

var errBoom = errors.New("boom")

// mockRoutineStore implements RoutineStore for testing.
type mockRoutineStore struct {
	entries []routine.Entry
	getErr  error
	listErr error
	limits  []int
}

func (m *mockRoutineStore) GetByUserAndDate(_ context.Context, userID, date string) (*routine.Entry, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for i := range m.entries {
		if m.entries[i].UserID == userID && m.entries[i].Date == date {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (m *mockRoutineStore) ListByUser(_ context.Context, userID string, limit int) ([]routine.Entry, error) {
	m.limits = append(m.limits, limit)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []routine.Entry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mockAccountStore implements AccountStore for testing.
type mockAccountStore struct {
	accounts map[string]account.Account
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, errors.New("not found")
	}
	return a, nil
}

// daysBefore returns entries for u1 on today and the n-1 preceding days.
func daysBefore(today time.Time, n int) []routine.Entry {
	var out []routine.Entry
	for i := 0; i < n; i++ {
		out = append(out, routine.Entry{UserID: "u1", Date: today.AddDate(0, 0, -i).Format(routine.DateLayout)})
	}
	return out
}
