package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"routineos/internal/adapters/http/middleware"
	"routineos/internal/application/orchestrators"
	"routineos/internal/application/projections"
)

// renderSettings renders the settings page with an optional error banner.
func (s *Server) renderSettings(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	result, err := projections.QueryGetSettings(r.Context(),
		projections.GetSettingsQuery{AccountID: sess.AccountID, Email: sess.Email},
		projections.GetSettingsDeps{AccountStore: s.stores.AccountStore})
	if err != nil {
		internalError(w, err)
		return
	}
	s.renderTemplate(w, r, status, "settings.html", map[string]any{
		"Account": result,
		"Error":   errMsg,
	})
}

// handleSettings handles GET /settings
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.renderSettings(w, r, http.StatusOK, "")
}

// handleExport returns the handler for GET /settings/export.<format>.
func (s *Server) handleExport(format string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sess, _ := middleware.GetSessionFromContext(r.Context())

		result, err := projections.QueryGetExport(r.Context(),
			projections.GetExportQuery{UserID: sess.AccountID, Email: sess.Email, Format: format},
			projections.GetExportDeps{RoutineStore: s.stores.RoutineStore, Location: s.opts.Location, Now: s.now})
		if err != nil {
			slog.Error("export_failed", "user_id", sess.AccountID, "format", format, "error", err)
			s.renderSettings(w, r, http.StatusInternalServerError, "Export failed: "+err.Error())
			return
		}

		slog.Info("routines_exported", "user_id", sess.AccountID, "format", format, "count", result.Count)
		w.Header().Set("Content-Type", result.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		w.Header().Set("Cache-Control", "no-store")
		w.Write(result.Body)
	})
}

// handleDeleteAccount handles POST /settings/delete
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	if r.PostFormValue("confirm") != "yes" {
		s.renderSettings(w, r, http.StatusBadRequest, "Please confirm that you want to delete your account.")
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())

	deps := orchestrators.DeleteAccountDeps{
		RoutineStore: s.stores.RoutineStore,
		AccountStore: s.stores.AccountStore,
		Sessions:     s.sessions,
		Notifier:     s.notifier,
		Now:          s.now,
	}
	if err := orchestrators.ExecuteDeleteAccount(r.Context(), orchestrators.DeleteAccountInput{AccountID: sess.AccountID}, deps); err != nil {
		s.renderSettings(w, r, http.StatusInternalServerError, deleteFailureMessage(err))
		return
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login?deleted=1", http.StatusSeeOther)
}

// deleteFailureMessage says how far a failed deletion got without exposing store errors.
func deleteFailureMessage(err error) string {
	switch {
	case errors.Is(err, orchestrators.ErrRoutinesNotDeleted):
		return "Deletion failed: your routines could not be deleted. Your account and data are unchanged. Please try again."
	case errors.Is(err, orchestrators.ErrAccountNotDeleted):
		return "Deletion failed: your routines were deleted but your account could not be removed. Please try again."
	}
	return "Deletion failed: your account could not be deleted. Please try again."
}
