package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"routineos/internal/adapters/email"
	"routineos/internal/adapters/realtime"
	accountStore "routineos/internal/adapters/storage/account"
	"routineos/internal/domain/account"
	"routineos/internal/domain/routine"
)

var fixedTime = time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

// sequentialIDs returns a generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// mockAccountStore implements AccountStoreForMagicLink and AccountStoreForDelete.
type mockAccountStore struct {
	accounts  map[string]account.Account
	links     map[string]account.MagicLink
	deleteErr error
	deleted   []string
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		accounts: make(map[string]account.Account),
		links:    make(map[string]account.MagicLink),
	}
}

func (m *mockAccountStore) GetByID(_ context.Context, id string) (account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return account.Account{}, accountStore.ErrNotFound
	}
	return a, nil
}

func (m *mockAccountStore) GetByEmail(_ context.Context, addr string) (account.Account, error) {
	for _, a := range m.accounts {
		if a.Email == account.NormalizeEmail(addr) {
			return a, nil
		}
	}
	return account.Account{}, fmt.Errorf("account %s: %w", addr, accountStore.ErrNotFound)
}

func (m *mockAccountStore) Save(_ context.Context, a account.Account) error {
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountStore) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.accounts, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockAccountStore) SaveMagicLink(_ context.Context, link account.MagicLink) error {
	m.links[link.ID] = link
	return nil
}

func (m *mockAccountStore) GetMagicLink(_ context.Context, id string) (account.MagicLink, error) {
	link, ok := m.links[id]
	if !ok {
		return account.MagicLink{}, accountStore.ErrNotFound
	}
	return link, nil
}

func (m *mockAccountStore) MarkMagicLinkUsed(_ context.Context, id string, at time.Time) error {
	link := m.links[id]
	if link.IsUsed() {
		return account.ErrLinkUsed
	}
	link.UsedAt = at
	m.links[id] = link
	return nil
}

// mockSender records every message.
type mockSender struct {
	sent []email.SendRequest
	err  error
}

func (m *mockSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	if m.err != nil {
		return email.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: "msg"}, nil
}

// mockRoutineStore implements RoutineStoreForSave and RoutineStoreForDelete.
type mockRoutineStore struct {
	entries   map[string]routine.Entry // key: user|date
	upsertErr error
	deleteErr error
}

func newMockRoutineStore() *mockRoutineStore {
	return &mockRoutineStore{entries: make(map[string]routine.Entry)}
}

func (m *mockRoutineStore) Upsert(_ context.Context, e routine.Entry) (routine.Entry, error) {
	if m.upsertErr != nil {
		return routine.Entry{}, m.upsertErr
	}
	key := e.UserID + "|" + e.Date
	if prev, ok := m.entries[key]; ok {
		e.ID = prev.ID
	} else {
		e.ID = "entry-" + e.Date
	}
	m.entries[key] = e
	return e, nil
}

func (m *mockRoutineStore) DeleteByUser(_ context.Context, userID string) (int, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	n := 0
	for k, e := range m.entries {
		if e.UserID == userID {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// mockNotifier records published events.
type mockNotifier struct {
	events []realtime.ChangeEvent
	err    error
}

func (m *mockNotifier) Publish(_ context.Context, _ string, ev realtime.ChangeEvent) error {
	m.events = append(m.events, ev)
	return m.err
}

// mockSessions counts revocations.
type mockSessions struct {
	revoked []string
}

func (m *mockSessions) DeleteByAccount(accountID string) int {
	m.revoked = append(m.revoked, accountID)
	return 1
}

var errBoom = errors.New("boom")
