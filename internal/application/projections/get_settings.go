package projections

import (
	"context"
	"log/slog"
)

// GetSettingsQuery carries input for the settings projection.
type GetSettingsQuery struct {
	AccountID string
	Email     string // session email, used when the account row cannot be read
}

// GetSettingsDeps holds dependencies for the settings projection.
type GetSettingsDeps struct {
	AccountStore AccountStore
}

// SettingsResult carries the account details shown on the settings page.
type SettingsResult struct {
	AccountID   string
	Email       string
	MemberSince string // e.g. "October 1, 2026"; empty when unknown
}

// QueryGetSettings loads the signed-in account.
// PRE: AccountID is the signed-in account
// POST: Falls back to the session identity if the account cannot be read
func QueryGetSettings(ctx context.Context, query GetSettingsQuery, deps GetSettingsDeps) (SettingsResult, error) {
	result := SettingsResult{AccountID: query.AccountID, Email: query.Email}
	acct, err := deps.AccountStore.GetByID(ctx, query.AccountID)
	if err != nil {
		slog.Error("settings_load_failed", "account_id", query.AccountID, "error", err)
		return result, nil
	}
	result.Email = acct.Email
	if !acct.CreatedAt.IsZero() {
		result.MemberSince = acct.CreatedAt.Format("January 2, 2006")
	}
	return result, nil
}
