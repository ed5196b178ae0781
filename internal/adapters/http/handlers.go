package web

import (
	"errors"
	"log/slog"
	"net/http"

	"routineos/internal/adapters/http/middleware"
	"routineos/internal/application/orchestrators"
	accountDomain "routineos/internal/domain/account"
	"routineos/internal/domain/routine"
)

// landingFeature is one card on the landing page.
type landingFeature struct {
	Title       string
	Description string
}

var landingFeatures = []landingFeature{
	{"Morning Intentions", "Start each day by setting your focus areas and committing to the Four Agreements"},
	{"Progress Tracking", "Visualize your consistency and happiness trends over time"},
	{"Holistic Wellness", "Track sleep, happiness, and personal growth in one place"},
	{"Focus Areas", "Balance Physical, Mental, Social, Spiritual and other life dimensions"},
}

// handleLanding handles GET / for anonymous visitors. It is also the mux fallback, so it 404s other paths.
func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	agreements := make([]string, 0, len(routine.AgreementOrder))
	for _, a := range routine.AgreementOrder {
		agreements = append(agreements, a.Title())
	}
	s.renderTemplate(w, r, http.StatusOK, "index.html", map[string]any{
		"Features":   landingFeatures,
		"Agreements": agreements,
	})
}

// handleLogin handles GET (form) and POST (request a magic link) for /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data := map[string]any{}
		if r.URL.Query().Get("deleted") == "1" {
			data["Notice"] = "Your account and all data have been permanently deleted."
		}
		s.renderTemplate(w, r, http.StatusOK, "login.html", data)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		addr := r.PostFormValue("email")

		deps := orchestrators.RequestMagicLinkDeps{
			AccountStore: s.stores.AccountStore,
			Sender:       s.sender,
			BaseURL:      s.opts.BaseURL,
			TokenKey:     s.opts.TokenKey,
			TTL:          s.opts.MagicLinkTTL,
			GenerateID:   s.generateID,
			Now:          s.now,
		}
		_, err := orchestrators.ExecuteRequestMagicLink(r.Context(), orchestrators.RequestMagicLinkInput{Email: addr}, deps)
		if err != nil {
			status, msg := http.StatusBadRequest, err.Error()
			if !isEmailValidationError(err) {
				slog.Error("auth_event", "event", "magic_link_request_failed", "error", err)
				status, msg = http.StatusServiceUnavailable, "We couldn't send your sign-in link. Please try again."
			}
			s.renderTemplate(w, r, status, "login.html", map[string]any{
				"Email": addr,
				"Error": msg,
			})
			return
		}
		s.renderTemplate(w, r, http.StatusOK, "login.html", map[string]any{
			"Email": accountDomain.NormalizeEmail(addr),
			"Sent":  true,
		})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func isEmailValidationError(err error) bool {
	return errors.Is(err, accountDomain.ErrEmptyEmail) ||
		errors.Is(err, accountDomain.ErrInvalidEmail) ||
		errors.Is(err, accountDomain.ErrEmailTooLong)
}

func isLinkError(err error) bool {
	return errors.Is(err, accountDomain.ErrLinkExpired) ||
		errors.Is(err, accountDomain.ErrLinkUsed) ||
		errors.Is(err, accountDomain.ErrLinkInvalid)
}

// handleAuthCallback handles GET /auth/callback?token=... from the emailed link.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	deps := orchestrators.VerifyMagicLinkDeps{
		AccountStore: s.stores.AccountStore,
		TokenKey:     s.opts.TokenKey,
		Now:          s.now,
	}
	result, err := orchestrators.ExecuteVerifyMagicLink(r.Context(), orchestrators.VerifyMagicLinkInput{Token: r.URL.Query().Get("token")}, deps)
	if err != nil {
		if isLinkError(err) {
			s.renderTemplate(w, r, http.StatusBadRequest, "login.html", map[string]any{"Error": err.Error()})
			return
		}
		internalError(w, err)
		return
	}

	// A stale session for another account must not survive the new sign-in.
	if old := middleware.SessionToken(r); old != "" {
		s.sessions.Delete(old)
	}
	token, err := s.sessions.Create(result.AccountID, result.Email)
	if err != nil {
		internalError(w, err)
		return
	}
	middleware.SetSessionCookie(w, token, s.sessions.TTL())
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleLogout handles POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if token := middleware.SessionToken(r); token != "" {
		s.sessions.Delete(token)
	}
	if sess, ok := middleware.GetSessionFromContext(r.Context()); ok {
		slog.Info("auth_event", "event", "logout", "account_id", sess.AccountID)
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
