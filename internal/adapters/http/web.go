package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"routineos/internal/adapters/email"
	"routineos/internal/adapters/http/middleware"
	"routineos/internal/adapters/realtime"
	accountStore "routineos/internal/adapters/storage/account"
	routineStore "routineos/internal/adapters/storage/routine"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore accountStore.Store
	RoutineStore routineStore.Store
}

// Options are the request-independent settings the handlers need.
type Options struct {
	BaseURL            string
	Location           *time.Location
	CSRFKey            []byte
	TokenKey           []byte
	MagicLinkTTL       time.Duration
	Secure             bool
	RateLimitPerSecond int
	SlowRequestMs      int
}

// Server owns the HTTP surface and everything the handlers call into.
type Server struct {
	opts     Options
	stores   Stores
	sessions *middleware.SessionStore
	notifier realtime.Notifier
	sender   email.Sender
	pages    *pageSet
	upgrader websocket.Upgrader
	limiter  *middleware.RateLimiter

	now        func() time.Time
	generateID func() string
}

// NewServer wires the server. sessions is created by the caller so it outlives any one handler tree.
func NewServer(opts Options, stores Stores, sessions *middleware.SessionStore, notifier realtime.Notifier, sender email.Sender) *Server {
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = 10
	}
	middleware.SecureCookies = opts.Secure
	s := &Server{
		opts:       opts,
		stores:     stores,
		sessions:   sessions,
		notifier:   notifier,
		sender:     sender,
		pages:      mustParsePages(),
		now:        time.Now,
		generateID: func() string { return uuid.New().String() },
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Routes registers every page on a fresh mux. Session lookup and CSRF are applied by Handler.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	guest := middleware.RedirectIfAuthenticated("/dashboard")
	auth := middleware.RequireAuth

	mux.HandleFunc("/", s.handleLanding)
	mux.Handle("/login", guest(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("/auth/callback", s.handleAuthCallback)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/morning", auth(http.HandlerFunc(s.handleMorning)))
	mux.Handle("/dashboard", auth(http.HandlerFunc(s.handleDashboard)))
	mux.Handle("/history", auth(http.HandlerFunc(s.handleHistory)))
	mux.Handle("/settings", auth(http.HandlerFunc(s.handleSettings)))
	mux.Handle("/settings/export.json", auth(s.handleExport("json")))
	mux.Handle("/settings/export.csv", auth(s.handleExport("csv")))
	mux.Handle("/settings/delete", auth(http.HandlerFunc(s.handleDeleteAccount)))
	mux.Handle("/ws/routines", auth(http.HandlerFunc(s.handleRoutineEvents)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Handler returns the routes wrapped in the full middleware stack.
func (s *Server) Handler() http.Handler {
	s.limiter = middleware.NewRateLimiter(s.opts.RateLimitPerSecond, time.Second)
	trusted := []string{middleware.TrustedOrigin(s.opts.BaseURL)}

	// Apply middleware: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(s.Routes(),
		middleware.SecurityHeaders,
		middleware.CSRF(s.opts.CSRFKey, trusted, s.opts.Secure),
		middleware.Auth(s.sessions),
		middleware.RateLimit(s.limiter),
		middleware.Timing(s.opts.SlowRequestMs),
	)
}

// Close releases background resources started by Handler.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// checkOrigin accepts WebSocket upgrades from the configured base URL or the request's own host.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host := middleware.TrustedOrigin(origin)
	return host == r.Host || host == middleware.TrustedOrigin(s.opts.BaseURL)
}
