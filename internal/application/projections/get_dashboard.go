package projections

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"routineos/internal/domain/account"
	"routineos/internal/domain/routine"
)

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	UserID string
	Email  string // used for the greeting
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	RoutineStore RoutineStore
	Location     *time.Location
	Now          func() time.Time
}

// DashboardResult carries the dashboard statistics. It is also the JSON body served to
// the live-refresh script, so field names are part of that contract.
type DashboardResult struct {
	Date            string              `json:"date"`
	Greeting        string              `json:"greeting"`
	HasToday        bool                `json:"has_today"`
	TodayHappiness  routine.Happiness   `json:"today_happiness"`
	TodaySleepHours *float64            `json:"today_sleep_hours"`
	TodayFocusAreas []routine.FocusArea `json:"today_focus_areas"`
	TodayAgreements int                 `json:"today_agreements"`
	CompletionRate  int                 `json:"completion_rate"`
	TotalRoutines   int                 `json:"total_routines"`
	Degraded        bool                `json:"degraded"`
}

// QueryGetDashboard reads today's entry and the full history and derives the statistics.
// PRE: UserID is the signed-in account
// POST: Returns the stats; if either read fails the stats are zero and Degraded is set
// INVARIANT: CompletionRate counts distinct entry dates in the 30 days ending today
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps) (DashboardResult, error) {
	if query.UserID == "" {
		return DashboardResult{}, errors.New("user ID is required")
	}
	today := routine.Today(deps.Now(), deps.Location)
	acct := account.Account{Email: query.Email}
	result := DashboardResult{
		Date:            today,
		Greeting:        acct.DisplayName(),
		TodayFocusAreas: []routine.FocusArea{},
	}

	todayEntry, err := deps.RoutineStore.GetByUserAndDate(ctx, query.UserID, today)
	if err != nil {
		slog.Error("dashboard_load_failed", "user_id", query.UserID, "read", "today", "error", err)
		result.Degraded = true
		return result, nil
	}
	all, err := deps.RoutineStore.ListByUser(ctx, query.UserID, 0)
	if err != nil {
		slog.Error("dashboard_load_failed", "user_id", query.UserID, "read", "all", "error", err)
		result.Degraded = true
		return result, nil
	}

	rate, err := routine.CompletionRate(all, today)
	if err != nil {
		slog.Error("dashboard_load_failed", "user_id", query.UserID, "read", "completion", "error", err)
		result.Degraded = true
		return result, nil
	}
	result.CompletionRate = rate
	result.TotalRoutines = len(all)

	if todayEntry != nil {
		result.HasToday = true
		result.TodayHappiness = todayEntry.Happiness
		result.TodaySleepHours = todayEntry.SleepHours
		if todayEntry.FocusAreas != nil {
			result.TodayFocusAreas = todayEntry.FocusAreas
		}
		result.TodayAgreements = todayEntry.Agreements.Completed()
	}
	return result, nil
}
