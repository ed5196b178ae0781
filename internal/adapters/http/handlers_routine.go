package web

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"routineos/internal/adapters/http/middleware"
	"routineos/internal/application/orchestrators"
	"routineos/internal/application/projections"
	"routineos/internal/domain/routine"
)

// Form actions posted by the morning form.
const (
	actionToggle = "toggle"
	actionSave   = "save"
)

// ErrInvalidSleepHours is returned when sleep_hours is not a finite number.
var ErrInvalidSleepHours = errors.New("sleep hours must be a number")

// focusOption is one focus area button.
type focusOption struct {
	Area     routine.FocusArea
	Selected bool
	Disabled bool
}

// agreementOption is one agreement checkbox.
type agreementOption struct {
	Key         string
	Title       string
	Description string
	Checked     bool
}

// happinessOption is one entry in the happiness select.
type happinessOption struct {
	Value    string
	Selected bool
}

// morningView is the template data for morning.html.
type morningView struct {
	Date       string
	Existing   bool
	Error      string
	Draft      routine.Draft
	Focus      []focusOption
	Selected   []routine.FocusArea
	AtLimit    bool
	Max        int
	Agreements []agreementOption
	Happiness  []happinessOption
	SleepHours string
}

func newMorningView(date string, draft routine.Draft, existing bool, errMsg string) morningView {
	sel := draft.Selection(routine.DefaultMaxFocusAreas)
	v := morningView{
		Date:     date,
		Existing: existing,
		Error:    errMsg,
		Draft:    draft,
		Selected: sel.Selected,
		AtLimit:  sel.AtLimit(),
		Max:      sel.Max,
	}
	for _, a := range routine.FocusAreas {
		selected := sel.IsSelected(a)
		v.Focus = append(v.Focus, focusOption{Area: a, Selected: selected, Disabled: !selected && v.AtLimit})
	}
	for _, key := range routine.AgreementOrder {
		v.Agreements = append(v.Agreements, agreementOption{
			Key:         string(key),
			Title:       key.Title(),
			Description: key.Description(),
			Checked:     draft.Agreements.Get(key),
		})
	}
	for _, h := range routine.HappinessLevels {
		v.Happiness = append(v.Happiness, happinessOption{Value: string(h), Selected: draft.Happiness == h})
	}
	if draft.SleepHours != nil {
		v.SleepHours = strconv.FormatFloat(*draft.SleepHours, 'f', -1, 64)
	}
	return v
}

// ParseDraftForm reads the morning form fields into a Draft.
// Focus areas and happiness are carried as submitted and checked by the save orchestrator.
// POST: the returned draft holds every field that could be read, even when err is non-nil
func ParseDraftForm(values url.Values) (routine.Draft, error) {
	draft := routine.Draft{FocusAreas: []routine.FocusArea{}}
	for _, raw := range values["focus_areas"] {
		if raw = strings.TrimSpace(raw); raw != "" {
			draft.FocusAreas = append(draft.FocusAreas, routine.FocusArea(raw))
		}
	}
	draft.FocusDesc = values.Get("focus_desc")

	checked := make(map[string]bool, len(routine.AgreementOrder))
	for _, key := range routine.AgreementOrder {
		checked[string(key)] = values.Get(string(key)) != ""
	}
	draft.Agreements = routine.AgreementsFromValues(checked)

	draft.Happiness = routine.Happiness(strings.TrimSpace(values.Get("happiness")))

	if raw := strings.TrimSpace(values.Get("sleep_hours")); raw != "" {
		h, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(h) || math.IsInf(h, 0) {
			return draft, ErrInvalidSleepHours
		}
		draft.SleepHours = &h
	}
	return draft, nil
}

// handleMorning handles GET (load today's form) and POST (toggle or save) for /morning
func (s *Server) handleMorning(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		result, err := projections.QueryGetMorningForm(r.Context(),
			projections.GetMorningFormQuery{UserID: sess.AccountID},
			projections.GetMorningFormDeps{RoutineStore: s.stores.RoutineStore, Location: s.opts.Location, Now: s.now})
		if err != nil {
			internalError(w, err)
			return
		}
		s.renderTemplate(w, r, http.StatusOK, "morning.html", newMorningView(result.Date, result.Draft, result.Existing, ""))

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		date := routine.Today(s.now(), s.opts.Location)
		draft, parseErr := ParseDraftForm(r.PostForm)

		// Toggle buttons post to ?action=toggle; the save buttons carry action=save in the body.
		if r.FormValue("action") == actionToggle {
			area, err := routine.ParseFocusArea(r.FormValue("area"))
			if err != nil {
				s.renderTemplate(w, r, http.StatusBadRequest, "morning.html", newMorningView(date, draft, false, err.Error()))
				return
			}
			draft.FocusAreas = draft.Selection(routine.DefaultMaxFocusAreas).Toggle(area).Selected
			s.renderTemplate(w, r, http.StatusOK, "morning.html", newMorningView(date, draft, false, ""))
			return
		}

		if parseErr != nil {
			s.renderTemplate(w, r, http.StatusBadRequest, "morning.html", newMorningView(date, draft, false, parseErr.Error()))
			return
		}
		deps := orchestrators.SaveMorningRoutineDeps{
			RoutineStore: s.stores.RoutineStore,
			Notifier:     s.notifier,
			Location:     s.opts.Location,
			Now:          s.now,
		}
		if _, err := orchestrators.ExecuteSaveMorningRoutine(r.Context(), orchestrators.SaveMorningRoutineInput{UserID: sess.AccountID, Draft: draft}, deps); err != nil {
			if orchestrators.IsValidationError(err) {
				s.renderTemplate(w, r, http.StatusBadRequest, "morning.html", newMorningView(date, draft, false, err.Error()))
				return
			}
			slog.Error("routine_save_failed", "user_id", sess.AccountID, "error", err)
			s.renderTemplate(w, r, http.StatusInternalServerError, "morning.html",
				newMorningView(date, draft, false, "Error saving routine. Please try again."))
			return
		}
		http.Redirect(w, r, "/dashboard?saved=1", http.StatusSeeOther)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleDashboard handles GET /dashboard as HTML, or as JSON for the live-refresh script.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())

	result, err := projections.QueryGetDashboard(r.Context(),
		projections.GetDashboardQuery{UserID: sess.AccountID, Email: sess.Email},
		projections.GetDashboardDeps{RoutineStore: s.stores.RoutineStore, Location: s.opts.Location, Now: s.now})
	if err != nil {
		internalError(w, err)
		return
	}

	if wantsJSON(r) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, result)
		return
	}
	s.renderTemplate(w, r, http.StatusOK, "dashboard.html", map[string]any{
		"Stats":          result,
		"Saved":          r.URL.Query().Get("saved") == "1",
		"HappinessClass": happinessTextClass(result.TodayHappiness),
	})
}

func happinessTextClass(h routine.Happiness) string {
	switch h {
	case routine.HappinessHigh:
		return "text-success"
	case routine.HappinessMedium:
		return "text-warning"
	case routine.HappinessLow:
		return "text-destructive"
	}
	return "text-muted"
}

// handleHistory handles GET /history?focus=...
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())

	result, err := projections.QueryGetHistory(r.Context(),
		projections.GetHistoryQuery{UserID: sess.AccountID, Filter: r.URL.Query().Get("focus")},
		projections.GetHistoryDeps{RoutineStore: s.stores.RoutineStore})
	if err != nil {
		internalError(w, err)
		return
	}
	s.renderTemplate(w, r, http.StatusOK, "history.html", result)
}
