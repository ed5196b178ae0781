package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"routineos/internal/adapters/http/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageSet holds one parsed template tree per page, each sharing the layout and partials.
type pageSet struct {
	pages map[string]*template.Template
}

// pageNames lists the page templates; each is parsed together with layout.html and navbar.html.
var pageNames = []string{
	"index.html",
	"login.html",
	"morning.html",
	"dashboard.html",
	"history.html",
	"settings.html",
}

// baseFuncs are replaced per request in renderTemplate; they exist so parsing succeeds.
var baseFuncs = template.FuncMap{
	"csrfToken":    func() string { return "" },
	"isLoggedIn":   func() bool { return false },
	"currentEmail": func() string { return "" },
	"initials":     func() string { return "" },
	"navItems":     func() []NavItem { return nil },
	"formatHours":  formatHours,
}

func mustParsePages() *pageSet {
	ps := &pageSet{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tpl := template.Must(template.New("layout.html").Funcs(baseFuncs).ParseFS(templateFS,
			"templates/layout.html", "templates/navbar.html", "templates/"+name))
		ps.pages[name] = tpl
	}
	return ps
}

// internalError logs the real error and returns a generic message to the client (OWASP A05).
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json_encode_failed", "error", err)
	}
}

// renderTemplate executes a page with the request's session, CSRF token and navigation bound.
// The page is rendered into a buffer first so a template error never leaves a half-written response.
func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	base, ok := s.pages.pages[name]
	if !ok {
		internalError(w, errUnknownPage(name))
		return
	}
	sess, signedIn := middleware.GetSessionFromContext(r.Context())
	tpl, err := base.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	tpl.Funcs(template.FuncMap{
		"csrfToken":    func() string { return csrf.Token(r) },
		"isLoggedIn":   func() bool { return signedIn },
		"currentEmail": func() string { return sess.Email },
		"initials":     func() string { return Initials(sess.Email) },
		"navItems":     func() []NavItem { return NavItems(r.URL.Path) },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

type errUnknownPage string

func (e errUnknownPage) Error() string { return "unknown page template: " + string(e) }
